package repository

import (
	"context"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

// CarbonDocumentFilter criterios de listado. CreatedByUser vacío = todos (admin).
type CarbonDocumentFilter struct {
	CreatedByUser string
	Status        string
	Limit         int
	Offset        int
}

// CarbonDocumentRepository define el puerto de persistencia para CarbonDocument (DIP).
type CarbonDocumentRepository interface {
	Create(ctx context.Context, doc *entity.CarbonDocument) error
	GetByID(ctx context.Context, id string) (*entity.CarbonDocument, error)
	// GetByIDForUpdate bloquea la fila dentro de la transacción en curso.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.CarbonDocument, error)
	Update(ctx context.Context, doc *entity.CarbonDocument) error
	List(ctx context.Context, f CarbonDocumentFilter) ([]*entity.CarbonDocument, int, error)
	ReferencesFile(ctx context.Context, fileID, email string) (bool, error)
}
