package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

var _ repository.FileRepository = (*FileRepo)(nil)

// FileRepo metadatos de archivos subidos.
type FileRepo struct {
	q Querier
}

func NewFileRepository(q Querier) *FileRepo {
	return &FileRepo{q: q}
}

func (r *FileRepo) Create(ctx context.Context, f *entity.File) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO files (id, name, mime, size, path, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Name, f.Mime, f.Size, f.Path, f.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return nil
}

func (r *FileRepo) GetByID(ctx context.Context, id string) (*entity.File, error) {
	var f entity.File
	err := r.q.QueryRow(ctx,
		`SELECT id, name, mime, size, path, created_at FROM files WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.Mime, &f.Size, &f.Path, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}
