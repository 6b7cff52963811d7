package repository

import (
	"context"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

// ActivityRepository historial append-only de pasos del flujo.
type ActivityRepository interface {
	Create(ctx context.Context, a *entity.Activity) error
	// ListByUser lista actividades; userID vacío = todas.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Activity, error)
}
