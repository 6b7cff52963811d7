package carbon_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios en memoria
// ──────────────────────────────────────────────────────────────────────────────

type memDocs struct {
	mu   sync.Mutex
	docs map[string]entity.CarbonDocument
	// lockedRead simula lo que otra tx confirmó mientras esperábamos el FOR UPDATE.
	lockedRead func(d *entity.CarbonDocument)
	createErr  error
}

func newMemDocs(docs ...*entity.CarbonDocument) *memDocs {
	m := &memDocs{docs: map[string]entity.CarbonDocument{}}
	for _, d := range docs {
		m.docs[d.ID] = *d
	}
	return m
}

func (m *memDocs) Create(_ context.Context, d *entity.CarbonDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.docs[d.ID] = *d
	return nil
}

func (m *memDocs) GetByID(_ context.Context, id string) (*entity.CarbonDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memDocs) GetByIDForUpdate(ctx context.Context, id string) (*entity.CarbonDocument, error) {
	d, err := m.GetByID(ctx, id)
	if err != nil || d == nil {
		return d, err
	}
	if m.lockedRead != nil {
		m.lockedRead(d)
	}
	return d, nil
}

func (m *memDocs) Update(_ context.Context, d *entity.CarbonDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = *d
	return nil
}

func (m *memDocs) List(_ context.Context, f repository.CarbonDocumentFilter) ([]*entity.CarbonDocument, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.CarbonDocument
	for _, d := range m.docs {
		d := d
		if f.CreatedByUser != "" && d.CreatedByUser != f.CreatedByUser {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		out = append(out, &d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memDocs) ReferencesFile(_ context.Context, fileID, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.DocumentFileID == fileID && d.CreatedByUser == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memDocs) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]entity.CarbonDocument, len(m.docs))
	for k, v := range m.docs {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.docs = saved
	}
}

func (m *memDocs) get(id string) entity.CarbonDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id]
}

type memNfts struct {
	mu   sync.Mutex
	nfts map[string]entity.Nft
}

func newMemNfts(nfts ...*entity.Nft) *memNfts {
	m := &memNfts{nfts: map[string]entity.Nft{}}
	for _, n := range nfts {
		m.nfts[n.ID] = *n
	}
	return m
}

func (m *memNfts) Create(_ context.Context, n *entity.Nft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nfts[n.ID] = *n
	return nil
}

func (m *memNfts) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]entity.Nft, len(m.nfts))
	for k, v := range m.nfts {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.nfts = saved
	}
}

func (m *memNfts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nfts)
}

func (m *memNfts) GetByID(_ context.Context, id string) (*entity.Nft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nfts[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (m *memNfts) UpdateOwner(_ context.Context, id, owner, txn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nfts[id]
	if !ok {
		return errors.New("nft no existe")
	}
	n.OwnerAddress, n.LastConfigTxn = owner, txn
	m.nfts[id] = n
	return nil
}

func (m *memNfts) ListByDocument(_ context.Context, docID string) ([]*entity.Nft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Nft
	for _, n := range m.nfts {
		n := n
		if n.CarbonDocumentID == docID {
			out = append(out, &n)
		}
	}
	return out, nil
}

func (m *memNfts) List(ctx context.Context, _, _ int) ([]*entity.Nft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Nft
	for _, n := range m.nfts {
		n := n
		out = append(out, &n)
	}
	return out, nil
}

type memActivities struct {
	mu   sync.Mutex
	list []entity.Activity
	err  error
}

func (m *memActivities) Create(_ context.Context, a *entity.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.list = append(m.list, *a)
	return nil
}

func (m *memActivities) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := append([]entity.Activity(nil), m.list...)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.list = saved
	}
}

func (m *memActivities) ListByUser(_ context.Context, userID string, _, _ int) ([]*entity.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Activity
	for _, a := range m.list {
		a := a
		if userID == "" || a.UserID == userID {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (m *memActivities) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.list))
	for _, a := range m.list {
		out = append(out, a.Type)
	}
	return out
}

type memUsers struct {
	users map[string]entity.User
}

func newMemUsers(users ...*entity.User) *memUsers {
	m := &memUsers{users: map[string]entity.User{}}
	for _, u := range users {
		m.users[u.ID] = *u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.users[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

type memFiles struct {
	mu    sync.Mutex
	files map[string]entity.File
}

func (m *memFiles) Create(_ context.Context, f *entity.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[f.ID] = *f
	return nil
}

func (m *memFiles) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]entity.File, len(m.files))
	for k, v := range m.files {
		saved[k] = v
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.files = saved
	}
}

func (m *memFiles) GetByID(_ context.Context, id string) (*entity.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

// fakeTxRunner ejecuta fn con los mismos repos en memoria; si fn falla
// restaura el estado previo, igual que un Rollback.
type fakeTxRunner struct {
	docs       *memDocs
	nfts       *memNfts
	files      *memFiles
	activities *memActivities
	calls      int
	rollbacks  int
}

func (r *fakeTxRunner) RunWorkflow(_ context.Context, fn func(repository.CarbonDocumentRepository, repository.NftRepository, repository.ActivityRepository) error) error {
	return r.run(func() error { return fn(r.docs, r.nfts, r.activities) })
}

func (r *fakeTxRunner) RunDocument(_ context.Context, fn func(repository.CarbonDocumentRepository, repository.FileRepository, repository.ActivityRepository) error) error {
	return r.run(func() error { return fn(r.docs, r.files, r.activities) })
}

func (r *fakeTxRunner) run(fn func() error) error {
	r.calls++
	var restores []func()
	if r.docs != nil {
		restores = append(restores, r.docs.snapshot())
	}
	if r.nfts != nil {
		restores = append(restores, r.nfts.snapshot())
	}
	if r.files != nil {
		restores = append(restores, r.files.snapshot())
	}
	if r.activities != nil {
		restores = append(restores, r.activities.snapshot())
	}
	if err := fn(); err != nil {
		r.rollbacks++
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Puertos externos
// ──────────────────────────────────────────────────────────────────────────────

type fakeChain struct {
	mintReq     carbon.MintRequest
	mintCalls   int
	claimCalls  int
	claimAsset  uint64
	claimTo     string
	submitted   [][]byte
	submitGroup string
	err         error
}

func (c *fakeChain) MintCarbonNFT(_ context.Context, in carbon.MintRequest) (*carbon.MintReceipt, error) {
	c.mintCalls++
	c.mintReq = in
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.MintReceipt{
		TxnID:          "MINTTXN",
		GroupID:        "R1JPVVA=",
		DeveloperAsaID: 2002,
		FeeAsaID:       2001,
		CreatorAddress: "CREATOR",
	}, nil
}

func (c *fakeChain) ClaimNFT(_ context.Context, assetID uint64, receiver string) (*carbon.ChainReceipt, error) {
	c.claimCalls++
	c.claimAsset, c.claimTo = assetID, receiver
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.ChainReceipt{TxnID: "CLAIMTXN"}, nil
}

func (c *fakeChain) PrepareSwap(_ context.Context, assetID uint64, owner string) (*carbon.SwapGroup, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.SwapGroup{
		GroupID: "U1dBUEdST1VQ",
		Txns: []carbon.GroupTxn{
			{TxnID: "T0", Blob: []byte("optin"), Signer: owner},
			{TxnID: "T1", Blob: []byte("unfreeze"), Signed: true, Signer: "CREATOR"},
			{TxnID: "T2", Blob: []byte("transfer"), Signer: owner},
			{TxnID: "T3", Blob: []byte("swap"), Signer: owner},
		},
	}, nil
}

func (c *fakeChain) SubmitSignedGroup(_ context.Context, groupID string, signed [][]byte) (*carbon.ChainReceipt, error) {
	c.submitGroup, c.submitted = groupID, signed
	if c.err != nil {
		return nil, c.err
	}
	return &carbon.ChainReceipt{TxnID: "SWAPTXN"}, nil
}

func (c *fakeChain) EscrowAddress() string { return "ESCROW" }

type sentMail struct {
	subject, content string
	to               []string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, subject, content string, to ...string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{subject: subject, content: content, to: to})
	return nil
}

type fakeStorage struct {
	saved   map[string][]byte
	removed []string
}

func (s *fakeStorage) Save(_ context.Context, name string, data []byte) (*entity.File, error) {
	id := "file-" + name
	s.saved[id] = data
	return &entity.File{ID: id, Name: name, Mime: "application/pdf", Size: int64(len(data)), Path: id, CreatedAt: time.Now()}, nil
}

func (s *fakeStorage) Open(_ context.Context, f *entity.File) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.saved[f.ID])), nil
}

func (s *fakeStorage) Remove(_ context.Context, f *entity.File) error {
	delete(s.saved, f.ID)
	s.removed = append(s.removed, f.ID)
	return nil
}

type fakePublisher struct {
	published []string
}

func (p *fakePublisher) Publish(_ context.Context, a *entity.Activity) error {
	p.published = append(p.published, a.Type)
	return nil
}

type fakeCertificate struct {
	nfts int
}

func (g *fakeCertificate) GenerateCertificate(_ context.Context, _ *entity.CarbonDocument, nfts []*entity.Nft, _ string) ([]byte, error) {
	g.nfts = len(nfts)
	return []byte("%PDF-1.4"), nil
}
