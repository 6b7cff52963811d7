package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCarbonDocumentRequest campos de texto del formulario multipart de creación.
// Sdgs llega como texto JSON (atributo de colección).
type CreateCarbonDocumentRequest struct {
	Title        string `form:"title" validate:"required,max=300"`
	Description  string `form:"description"`
	SerialNumber string `form:"serial_number"`
	RegistryName string `form:"registry_name"`
	ProjectType  string `form:"project_type"`
	Country      string `form:"country"`
	VintageYear  int    `form:"vintage_year"`
	Credits      string `form:"credits" validate:"required"`
	Sdgs         string `form:"sdgs"`
}

// UploadedFile archivo recibido en el multipart, ya leído.
type UploadedFile struct {
	Field string
	Name  string
	Data  []byte
}

// ReviewCarbonDocumentRequest decisión del admin sobre un documento pendiente.
type ReviewCarbonDocumentRequest struct {
	Approved bool `json:"approved"`
}

// SwapRequest transacciones firmadas por la wallet del desarrollador (base64 msgpack),
// en el mismo orden devuelto por prepare-swap.
type SwapRequest struct {
	SignedTxns []string `json:"signed_txns"`
}

// CarbonDocumentResponse salida de un documento.
type CarbonDocumentResponse struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	SerialNumber   string          `json:"serial_number"`
	RegistryName   string          `json:"registry_name"`
	ProjectType    string          `json:"project_type"`
	Country        string          `json:"country"`
	VintageYear    int             `json:"vintage_year"`
	Credits        decimal.Decimal `json:"credits"`
	Sdgs           []string        `json:"sdgs"`
	DocumentFileID string          `json:"document_file_id,omitempty"`
	Status         string          `json:"status"`
	CreatedByUser  string          `json:"created_by_user"`
	DeveloperNftID string          `json:"developer_nft_id,omitempty"`
	FeeNftID       string          `json:"fee_nft_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CarbonDocumentListResponse lista paginada de documentos.
type CarbonDocumentListResponse struct {
	Items []CarbonDocumentResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}

// MintResponse documento acuñado y sus dos NFTs.
type MintResponse struct {
	Document     CarbonDocumentResponse `json:"document"`
	DeveloperNft NftResponse            `json:"developer_nft"`
	FeeNft       NftResponse            `json:"fee_nft"`
}

// ClaimResponse documento reclamado y txn del movimiento del NFT.
type ClaimResponse struct {
	Document CarbonDocumentResponse `json:"document"`
	TxnID    string                 `json:"txn_id"`
}

// EncodedTxn transacción del grupo de swap codificada en base64 (msgpack).
// Signed=true: ya firmada por la cuenta creadora; false: la debe firmar la wallet del desarrollador.
type EncodedTxn struct {
	TxnID  string `json:"txn_id"`
	Blob   string `json:"blob"`
	Signed bool   `json:"signed"`
	Signer string `json:"signer"`
}

// PrepareSwapResponse grupo atómico listo para firma del lado cliente.
type PrepareSwapResponse struct {
	DocumentID string       `json:"document_id"`
	GroupID    string       `json:"group_id"`
	Txns       []EncodedTxn `json:"txns"`
}

// SwapResponse documento canjeado.
type SwapResponse struct {
	Document CarbonDocumentResponse `json:"document"`
	TxnID    string                 `json:"txn_id,omitempty"`
}
