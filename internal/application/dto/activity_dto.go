package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityResponse salida de una actividad.
type ActivityResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id"`
	CarbonDocumentID string          `json:"carbon_document_id"`
	Type             string          `json:"type"`
	TxnID            string          `json:"txn_id,omitempty"`
	Supply           decimal.Decimal `json:"supply"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ActivityListResponse lista paginada de actividades.
type ActivityListResponse struct {
	Items []ActivityResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
