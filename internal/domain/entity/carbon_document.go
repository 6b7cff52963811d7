package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un CarbonDocument.
const (
	DocumentStatusPending   = "pending"
	DocumentStatusCompleted = "completed" // revisado y aprobado por un admin
	DocumentStatusRejected  = "rejected"
	DocumentStatusMinted    = "minted"
	DocumentStatusClaimed   = "claimed"
	DocumentStatusSwapped   = "swapped"
)

// Acciones del flujo. Cada una exige un estado de origen exacto.
const (
	ActionReview      = "review"
	ActionMint        = "mint"
	ActionClaim       = "claim"
	ActionPrepareSwap = "prepare_swap"
	ActionSwap        = "swap"
)

// requiredStatus estado de origen de cada acción y mensaje literal si no se cumple.
var requiredStatus = map[string]struct {
	from    string
	message string
}{
	ActionReview:      {DocumentStatusPending, "Document has already been reviewed"},
	ActionMint:        {DocumentStatusCompleted, "Document hasn't been reviewed"},
	ActionClaim:       {DocumentStatusMinted, "Document hasn't been minted"},
	ActionPrepareSwap: {DocumentStatusClaimed, "Document hasn't been claimed"},
	ActionSwap:        {DocumentStatusClaimed, "Document hasn't been claimed"},
}

// CarbonDocument documento de créditos de carbono subido por un desarrollador de proyecto.
type CarbonDocument struct {
	ID             string
	Title          string
	Description    string
	SerialNumber   string
	RegistryName   string
	ProjectType    string
	Country        string
	VintageYear    int
	Credits        decimal.Decimal // toneladas; entero positivo, es el supply del NFT
	Sdgs           []string
	DocumentFileID string
	Status         string
	CreatedByUser  string // email del desarrollador dueño
	DeveloperNftID string
	FeeNftID       string
	SwapGroupID    string // base64 del group id preparado por prepareSwap
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CheckAction valida que el documento esté en el estado requerido por action.
// Devuelve el mensaje literal para el cliente si no lo está.
func (d *CarbonDocument) CheckAction(action string) (ok bool, message string) {
	rule, found := requiredStatus[action]
	if !found {
		return false, "unknown action"
	}
	if d.Status != rule.from {
		return false, rule.message
	}
	return true, ""
}

// IsOnChain indica si el documento ya tiene NFTs acuñados.
func (d *CarbonDocument) IsOnChain() bool {
	switch d.Status {
	case DocumentStatusMinted, DocumentStatusClaimed, DocumentStatusSwapped:
		return true
	}
	return false
}

// IsValidStatus indica si s es un estado conocido (filtros de listado).
func IsValidStatus(s string) bool {
	switch s {
	case DocumentStatusPending, DocumentStatusCompleted, DocumentStatusRejected,
		DocumentStatusMinted, DocumentStatusClaimed, DocumentStatusSwapped:
		return true
	}
	return false
}
