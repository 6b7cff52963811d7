package carbon

import (
	"context"
	"io"
	"time"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

// ChainGateway operaciones sobre la aplicación Climatecoin en Algorand.
// La implementación compone y firma los grupos atómicos; la firma y el envío
// los resuelve el SDK contra el nodo.
type ChainGateway interface {
	// MintCarbonNFT ejecuta create_nft(credits) y devuelve los dos ASA creados.
	MintCarbonNFT(ctx context.Context, in MintRequest) (*MintReceipt, error)
	// ClaimNFT mueve el total del ASA desde el escrow de la app hacia receiver.
	ClaimNFT(ctx context.Context, assetID uint64, receiver string) (*ChainReceipt, error)
	// PrepareSwap compone el grupo de swap NFT → Climatecoin para que owner lo firme.
	PrepareSwap(ctx context.Context, assetID uint64, owner string) (*SwapGroup, error)
	// SubmitSignedGroup envía el grupo firmado; todas las txns deben pertenecer a groupID.
	SubmitSignedGroup(ctx context.Context, groupID string, signed [][]byte) (*ChainReceipt, error)
	// EscrowAddress dirección de la aplicación (custodia de los NFTs).
	EscrowAddress() string
}

// MintRequest argumentos de create_nft.
type MintRequest struct {
	DocumentID string
	Credits    uint64
	Note       []byte
}

// MintReceipt resultado del acuñado: inner txns acfg (fee primero, developer después).
type MintReceipt struct {
	TxnID          string
	GroupID        string
	DeveloperAsaID uint64
	FeeAsaID       uint64
	CreatorAddress string
	ConfirmedRound uint64
}

// ChainReceipt resultado genérico de una txn confirmada.
type ChainReceipt struct {
	TxnID          string
	ConfirmedRound uint64
}

// SwapGroup grupo atómico de swap; Txns en orden de envío.
type SwapGroup struct {
	GroupID string
	Txns    []GroupTxn
}

// GroupTxn transacción codificada en msgpack. Signed=false: la firma la wallet de Signer.
type GroupTxn struct {
	TxnID  string
	Blob   []byte
	Signed bool
	Signer string
}

// Mailer envío de correos transaccionales.
type Mailer interface {
	Send(ctx context.Context, subject, content string, to ...string) error
}

// FileStorage almacenamiento binario de archivos subidos.
type FileStorage interface {
	Save(ctx context.Context, name string, data []byte) (*entity.File, error)
	Open(ctx context.Context, f *entity.File) (io.ReadCloser, error)
	Remove(ctx context.Context, f *entity.File) error
}

// ActivityPublisher publica actividades a sistemas externos (best-effort).
type ActivityPublisher interface {
	Publish(ctx context.Context, a *entity.Activity) error
}

// CertificateGenerator genera el certificado PDF de un documento acuñado.
type CertificateGenerator interface {
	GenerateCertificate(ctx context.Context, doc *entity.CarbonDocument, nfts []*entity.Nft, explorerURL string) ([]byte, error)
}

// WorkflowMetrics instrumentación del flujo.
type WorkflowMetrics interface {
	ObserveTransition(action, result string)
	ObserveChainCall(operation string, elapsed time.Duration, err error)
}

// WorkflowTxRunner ejecuta fn dentro de una transacción con los repos del flujo.
type WorkflowTxRunner interface {
	RunWorkflow(ctx context.Context, fn func(
		docRepo repository.CarbonDocumentRepository,
		nftRepo repository.NftRepository,
		activityRepo repository.ActivityRepository,
	) error) error
}

// DocumentTxRunner ejecuta fn dentro de una transacción con los repos de alta y revisión.
type DocumentTxRunner interface {
	RunDocument(ctx context.Context, fn func(
		docRepo repository.CarbonDocumentRepository,
		fileRepo repository.FileRepository,
		activityRepo repository.ActivityRepository,
	) error) error
}

// Actor usuario autenticado que ejecuta la acción (extraído del JWT).
type Actor struct {
	UserID string
	Email  string
	Role   string
}

// IsAdmin indica si el actor es administrador.
func (a Actor) IsAdmin() bool { return a.Role == entity.RoleAdmin }

// Owns indica si el actor es dueño del documento.
func (a Actor) Owns(doc *entity.CarbonDocument) bool {
	return doc != nil && a.Email != "" && a.Email == doc.CreatedByUser
}

type nopMetrics struct{}

func (nopMetrics) ObserveTransition(string, string)              {}
func (nopMetrics) ObserveChainCall(string, time.Duration, error) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, *entity.Activity) error { return nil }
