package entity

import "time"

// Tipos de transacción con los que se crea un NFT.
const (
	NftTxnAssetCreation    = "asset_creation"
	NftTxnFeeAssetCreation = "fee_asset_creation"
)

// Nft registro off-chain de un ASA acuñado para un CarbonDocument.
type Nft struct {
	ID               string
	TxnType          string
	AsaID            uint64
	AsaTxnID         string
	GroupID          string
	Metadata         []byte // JSON ARC-69 enviado en la nota
	OwnerAddress     string
	CarbonDocumentID string
	LastConfigTxn    string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
