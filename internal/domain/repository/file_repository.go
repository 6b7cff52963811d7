package repository

import (
	"context"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

// FileRepository metadatos de archivos subidos.
type FileRepository interface {
	Create(ctx context.Context, f *entity.File) error
	GetByID(ctx context.Context, id string) (*entity.File, error)
}
