package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatecoin/carbon-api/internal/application/auth"
	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/application/usecase"
	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	apphttp "github.com/climatecoin/carbon-api/internal/interfaces/http"
	"github.com/climatecoin/carbon-api/pkg/logger"
	pkgjwt "github.com/climatecoin/carbon-api/pkg/jwt"
)

type apiFixture struct {
	app   *fiber.App
	store *store
	chain *stubChain
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	s := newStore()
	chain := &stubChain{}
	log := logger.NewNop()
	notify := carbon.NotifyConfig{Disabled: true}

	docs := docRepo{s}
	nfts := nftRepo{s}
	activities := activityRepo{s}
	users := userRepo{s}

	deps := apphttp.RouterDeps{
		AuthUC:     auth.NewAuthUseCase(users, auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		DocumentUC: carbon.NewDocumentUseCase(docs, txRunner{s}, memStorage{s}, nopMailer{}, nil, notify, log),
		WorkflowUC: carbon.NewWorkflowUseCase(carbon.WorkflowDeps{
			DocRepo:  docs,
			NftRepo:  nfts,
			UserRepo: users,
			TxRunner: txRunner{s},
			Chain:    chain,
			Mailer:   nopMailer{},
			Notify:   notify,
			Log:      log,
		}),
		CertificateUC: carbon.NewCertificateUseCase(docs, nfts, stubCertificate{}, "https://explorer"),
		FileUC:        carbon.NewFileUseCase(fileRepo{s}, docs, memStorage{s}),
		NftUC:         usecase.NewNftUseCase(nfts),
		ActivityUC:    usecase.NewActivityUseCase(activities),
		JWTSecret:     testJWTSecret,
	}
	app := fiber.New()
	app.Use(apphttp.SentryMiddleware())
	apphttp.Router(app, deps)

	s.users["dev-1"] = entity.User{ID: "dev-1", Email: testEmail, Role: entity.RoleDeveloper, PublicAddress: "DEVADDRESS", Status: "active"}
	return &apiFixture{app: app, store: s, chain: chain}
}

func (f *apiFixture) seedDoc(status string) {
	f.store.docs["doc-1"] = entity.CarbonDocument{
		ID:            "doc-1",
		Title:         "Reforestación",
		Credits:       decimal.NewFromInt(100),
		Status:        status,
		CreatedByUser: testEmail,
	}
}

func bearer(t *testing.T, userID, email, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, email, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *apiFixture) do(t *testing.T, method, path, auth string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func errorBody(t *testing.T, data []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e
}

func TestCreateDocument_Multipart(t *testing.T) {
	f := newAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Manglares"))
	require.NoError(t, mw.WriteField("credits", "250"))
	require.NoError(t, mw.WriteField("sdgs", `["13"]`))
	fw, err := mw.CreateFormFile("document", "doc.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	resp, data := f.do(t, http.MethodPost, "/api/carbon-documents", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var out dto.CarbonDocumentResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, entity.DocumentStatusPending, out.Status)
	assert.Equal(t, "file-doc.pdf", out.DocumentFileID)
	assert.Equal(t, []string{"13"}, out.Sdgs)

	// el dueño puede descargar el archivo
	resp, data = f.do(t, http.MethodGet, "/api/files/file-doc.pdf", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestMint_EstadoIncorrectoDevuelveMensajeLiteral(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusPending)

	resp, data := f.do(t, http.MethodPost, "/api/carbon-documents/doc-1/mint", bearer(t, "admin-1", "admin@example.com", entity.RoleAdmin), nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Document hasn't been reviewed", errorBody(t, data).Message)
}

func TestMint_SoloAdmin(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusCompleted)

	resp, _ := f.do(t, http.MethodPost, "/api/carbon-documents/doc-1/mint", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMint_OK(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusCompleted)

	resp, data := f.do(t, http.MethodPost, "/api/carbon-documents/doc-1/mint", bearer(t, "admin-1", "admin@example.com", entity.RoleAdmin), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var out dto.MintResponse
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, entity.DocumentStatusMinted, out.Document.Status)
	assert.Equal(t, uint64(2002), out.DeveloperNft.AsaID)
	assert.Equal(t, uint64(2001), out.FeeNft.AsaID)

	resp, data = f.do(t, http.MethodGet, "/api/carbon-documents/doc-1/certificate", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestClaim_FalloDeRedDevuelve502(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusMinted)
	doc := f.store.docs["doc-1"]
	doc.DeveloperNftID = "nft-dev"
	f.store.docs["doc-1"] = doc
	f.store.nfts["nft-dev"] = entity.Nft{ID: "nft-dev", TxnType: entity.NftTxnAssetCreation, AsaID: 2002, CarbonDocumentID: "doc-1"}
	f.chain.err = context.DeadlineExceeded

	resp, data := f.do(t, http.MethodPost, "/api/carbon-documents/doc-1/claim", bearer(t, "admin-1", "admin@example.com", entity.RoleAdmin), nil, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "CHAIN_ERROR", errorBody(t, data).Code)
	assert.Equal(t, entity.DocumentStatusMinted, f.store.docs["doc-1"].Status)
}

func TestSwap_SinCuerpoSoloTransicion(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusClaimed)

	resp, data := f.do(t, http.MethodPost, "/api/carbon-documents/doc-1/swap", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, entity.DocumentStatusSwapped, f.store.docs["doc-1"].Status)
}

func TestSwap_GrupoDistintoDevuelve409(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusClaimed)
	doc := f.store.docs["doc-1"]
	doc.DeveloperNftID, doc.SwapGroupID = "nft-dev", "R1JPVVA="
	f.store.docs["doc-1"] = doc
	f.store.nfts["nft-dev"] = entity.Nft{ID: "nft-dev", TxnType: entity.NftTxnAssetCreation, AsaID: 2002, CarbonDocumentID: "doc-1"}
	f.chain.err = domain.ErrSwapGroupMismatch

	body := strings.NewReader(`{"signed_txns":["c2lnbmVk"]}`)
	resp, data := f.do(t, http.MethodPost, "/api/carbon-documents/doc-1/swap", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), body, fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "GROUP_MISMATCH", errorBody(t, data).Code)
	assert.Equal(t, entity.DocumentStatusClaimed, f.store.docs["doc-1"].Status)
}

func TestFindOne_NoExisteYAjeno(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusPending)

	resp, _ := f.do(t, http.MethodGet, "/api/carbon-documents/nope", bearer(t, "admin-1", "admin@example.com", entity.RoleAdmin), nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/carbon-documents/doc-1", bearer(t, "dev-2", "otro@example.com", entity.RoleDeveloper), nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestReview_Admin(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusPending)

	body := strings.NewReader(`{"approved":true}`)
	resp, data := f.do(t, http.MethodPut, "/api/carbon-documents/doc-1/review", bearer(t, "admin-1", "admin@example.com", entity.RoleAdmin), body, fiber.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	assert.Equal(t, entity.DocumentStatusCompleted, f.store.docs["doc-1"].Status)
}

func TestRegisterYLogin(t *testing.T) {
	f := newAPI(t)
	addr := crypto.GenerateAccount().Address.String()

	body := strings.NewReader(`{"email":"Nuevo@Example.com","password":"supersecreto","public_address":"` + addr + `"}`)
	resp, data := f.do(t, http.MethodPost, "/api/auth/register", "", body, fiber.MIMEApplicationJSON)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	body = strings.NewReader(`{"email":"nuevo@example.com","password":"supersecreto","public_address":"` + addr + `"}`)
	resp, _ = f.do(t, http.MethodPost, "/api/auth/register", "", body, fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body = strings.NewReader(`{"email":"x@example.com","password":"supersecreto","public_address":"NOPE"}`)
	resp, data = f.do(t, http.MethodPost, "/api/auth/register", "", body, fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_ADDRESS", errorBody(t, data).Code)

	body = strings.NewReader(`{"email":"nuevo@example.com","password":"supersecreto"}`)
	resp, data = f.do(t, http.MethodPost, "/api/auth/login", "", body, fiber.MIMEApplicationJSON)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))
	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(data, &login))
	assert.Equal(t, entity.RoleDeveloper, login.User.Role)

	resp, data = f.do(t, http.MethodGet, "/api/users/me", "Bearer "+login.Token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), addr)

	body = strings.NewReader(`{"email":"nuevo@example.com","password":"incorrecta"}`)
	resp, _ = f.do(t, http.MethodPost, "/api/auth/login", "", body, fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestActivitiesYNfts(t *testing.T) {
	f := newAPI(t)
	f.seedDoc(entity.DocumentStatusCompleted)
	admin := bearer(t, "admin-1", "admin@example.com", entity.RoleAdmin)

	resp, _ := f.do(t, http.MethodPost, "/api/carbon-documents/doc-1/mint", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := f.do(t, http.MethodGet, "/api/nfts", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var nfts dto.NftListResponse
	require.NoError(t, json.Unmarshal(data, &nfts))
	assert.Len(t, nfts.Items, 2)

	resp, _ = f.do(t, http.MethodGet, "/api/nfts", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, data = f.do(t, http.MethodGet, "/api/carbon-documents/doc-1/nfts", bearer(t, "dev-1", testEmail, entity.RoleDeveloper), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var byDoc []dto.NftResponse
	require.NoError(t, json.Unmarshal(data, &byDoc))
	assert.Len(t, byDoc, 2)

	resp, data = f.do(t, http.MethodGet, "/api/activities", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var acts dto.ActivityListResponse
	require.NoError(t, json.Unmarshal(data, &acts))
	require.NotEmpty(t, acts.Items)
	assert.Equal(t, entity.ActivityMint, acts.Items[0].Type)
}
