package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

var _ repository.CarbonDocumentRepository = (*CarbonDocumentRepo)(nil)

// CarbonDocumentRepo implementación de CarbonDocumentRepository (usable con pool o tx).
type CarbonDocumentRepo struct {
	q Querier
}

// NewCarbonDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCarbonDocumentRepository(q Querier) *CarbonDocumentRepo {
	return &CarbonDocumentRepo{q: q}
}

const carbonDocumentColumns = `id, title, description, serial_number, registry_name, project_type, country,
	vintage_year, credits, sdgs, document_file_id::text, status, created_by_user,
	developer_nft_id::text, fee_nft_id::text, swap_group_id, created_at, updated_at`

// Create persiste un documento nuevo.
func (r *CarbonDocumentRepo) Create(ctx context.Context, d *entity.CarbonDocument) error {
	query := `
		INSERT INTO carbon_documents (id, title, description, serial_number, registry_name, project_type, country,
			vintage_year, credits, sdgs, document_file_id, status, created_by_user,
			developer_nft_id, fee_nft_id, swap_group_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	sdgs := d.Sdgs
	if sdgs == nil {
		sdgs = []string{}
	}
	_, err := r.q.Exec(ctx, query,
		d.ID, d.Title, d.Description, d.SerialNumber, d.RegistryName, d.ProjectType, d.Country,
		d.VintageYear, d.Credits, sdgs, nullIfEmpty(d.DocumentFileID), d.Status, d.CreatedByUser,
		nullIfEmpty(d.DeveloperNftID), nullIfEmpty(d.FeeNftID), d.SwapGroupID, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert carbon document: %w", err)
	}
	return nil
}

func (r *CarbonDocumentRepo) GetByID(ctx context.Context, id string) (*entity.CarbonDocument, error) {
	return r.getOne(ctx, `SELECT `+carbonDocumentColumns+` FROM carbon_documents WHERE id = $1`, id)
}

// GetByIDForUpdate bloquea la fila: solo tiene efecto si q es una tx.
func (r *CarbonDocumentRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.CarbonDocument, error) {
	return r.getOne(ctx, `SELECT `+carbonDocumentColumns+` FROM carbon_documents WHERE id = $1 FOR UPDATE`, id)
}

// Update actualiza los campos mutables del flujo (estado y referencias a NFTs).
func (r *CarbonDocumentRepo) Update(ctx context.Context, d *entity.CarbonDocument) error {
	query := `
		UPDATE carbon_documents
		SET status           = $2,
		    developer_nft_id = $3,
		    fee_nft_id       = $4,
		    swap_group_id    = $5,
		    document_file_id = $6,
		    updated_at       = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		d.ID, d.Status, nullIfEmpty(d.DeveloperNftID), nullIfEmpty(d.FeeNftID), d.SwapGroupID,
		nullIfEmpty(d.DocumentFileID), d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update carbon document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List filtra por dueño y estado; devuelve la página y el total sin paginar.
func (r *CarbonDocumentRepo) List(ctx context.Context, f repository.CarbonDocumentFilter) ([]*entity.CarbonDocument, int, error) {
	limit, offset := pageArgs(f.Limit, f.Offset)
	var where []string
	var args []any
	if f.CreatedByUser != "" {
		args = append(args, f.CreatedByUser)
		where = append(where, fmt.Sprintf("created_by_user = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM carbon_documents`+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count carbon documents: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM carbon_documents%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		carbonDocumentColumns, cond, len(args)+1, len(args)+2)
	rows, err := r.q.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list carbon documents: %w", err)
	}
	defer rows.Close()

	var list []*entity.CarbonDocument
	for rows.Next() {
		d, err := scanCarbonDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan carbon document: %w", err)
		}
		list = append(list, d)
	}
	return list, total, rows.Err()
}

// ReferencesFile indica si el archivo pertenece a algún documento del usuario.
func (r *CarbonDocumentRepo) ReferencesFile(ctx context.Context, fileID, email string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM carbon_documents WHERE document_file_id::text = $1 AND created_by_user = $2)`,
		fileID, email,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check file reference: %w", err)
	}
	return ok, nil
}

func (r *CarbonDocumentRepo) getOne(ctx context.Context, query, id string) (*entity.CarbonDocument, error) {
	d, err := scanCarbonDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get carbon document: %w", err)
	}
	return d, nil
}

func scanCarbonDocument(row pgx.Row) (*entity.CarbonDocument, error) {
	var d entity.CarbonDocument
	var fileID, devNft, feeNft *string
	err := row.Scan(
		&d.ID, &d.Title, &d.Description, &d.SerialNumber, &d.RegistryName, &d.ProjectType, &d.Country,
		&d.VintageYear, &d.Credits, &d.Sdgs, &fileID, &d.Status, &d.CreatedByUser,
		&devNft, &feeNft, &d.SwapGroupID, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.DocumentFileID = derefString(fileID)
	d.DeveloperNftID = derefString(devNft)
	d.FeeNftID = derefString(feeNft)
	return &d, nil
}
