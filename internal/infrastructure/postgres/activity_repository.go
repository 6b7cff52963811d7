package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

var _ repository.ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo historial de pasos del flujo (usable con pool o tx).
type ActivityRepo struct {
	q Querier
}

// NewActivityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewActivityRepository(q Querier) *ActivityRepo {
	return &ActivityRepo{q: q}
}

// Create inserta una actividad. No hay Update: el historial es append-only.
func (r *ActivityRepo) Create(ctx context.Context, a *entity.Activity) error {
	query := `
		INSERT INTO activities (id, user_id, carbon_document_id, type, txn_id, supply, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		a.ID, nullIfEmpty(a.UserID), a.CarbonDocumentID, a.Type, a.TxnID, a.Supply, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListByUser lista actividades más recientes primero; userID vacío = todas.
func (r *ActivityRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Activity, error) {
	limit, offset = pageArgs(limit, offset)
	query := `
		SELECT id, user_id::text, carbon_document_id, type, txn_id, supply, created_at
		FROM activities
		WHERE ($1 = '' OR user_id::text = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var list []*entity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanActivity(rows pgx.Rows) (*entity.Activity, error) {
	var a entity.Activity
	var userID *string
	if err := rows.Scan(&a.ID, &userID, &a.CarbonDocumentID, &a.Type, &a.TxnID, &a.Supply, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan activity: %w", err)
	}
	a.UserID = derefString(userID)
	return &a, nil
}
