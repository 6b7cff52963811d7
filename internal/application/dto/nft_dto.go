package dto

import (
	"encoding/json"
	"time"
)

// NftResponse salida de un NFT.
type NftResponse struct {
	ID               string          `json:"id"`
	TxnType          string          `json:"txn_type"`
	AsaID            uint64          `json:"asa_id"`
	AsaTxnID         string          `json:"asa_txn_id"`
	GroupID          string          `json:"group_id"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	OwnerAddress     string          `json:"owner_address"`
	CarbonDocumentID string          `json:"carbon_document_id"`
	LastConfigTxn    string          `json:"last_config_txn,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// NftListResponse lista paginada de NFTs.
type NftListResponse struct {
	Items []NftResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}
