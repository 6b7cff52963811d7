package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de actividad registrados en el historial.
const (
	ActivityCreate      = "create"
	ActivityReview      = "review"
	ActivityMint        = "mint"
	ActivityClaim       = "claim"
	ActivityPrepareSwap = "prepare_swap"
	ActivitySwap        = "swap"
)

// Activity paso del flujo ejecutado sobre un documento (append-only).
type Activity struct {
	ID               string
	UserID           string
	CarbonDocumentID string
	Type             string
	TxnID            string
	Supply           decimal.Decimal
	CreatedAt        time.Time
}
