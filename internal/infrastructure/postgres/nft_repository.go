package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/climatecoin/carbon-api/internal/domain"
	"github.com/climatecoin/carbon-api/internal/domain/entity"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

var _ repository.NftRepository = (*NftRepo)(nil)

// NftRepo implementación de NftRepository (usable con pool o tx).
type NftRepo struct {
	q Querier
}

// NewNftRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNftRepository(q Querier) *NftRepo {
	return &NftRepo{q: q}
}

const nftColumns = `id, txn_type, asa_id, asa_txn_id, group_id, metadata, owner_address, carbon_document_id, last_config_txn, created_at, updated_at`

// Create persiste un NFT recién acuñado. asa_id es único.
func (r *NftRepo) Create(ctx context.Context, n *entity.Nft) error {
	var metadata any
	if len(n.Metadata) > 0 {
		metadata = n.Metadata
	}
	query := `INSERT INTO nfts (` + nftColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		n.ID, n.TxnType, int64(n.AsaID), n.AsaTxnID, n.GroupID, metadata, n.OwnerAddress,
		n.CarbonDocumentID, n.LastConfigTxn, n.CreatedAt, n.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: asa %d ya registrado", domain.ErrDuplicate, n.AsaID)
		}
		return fmt.Errorf("insert nft: %w", err)
	}
	return nil
}

func (r *NftRepo) GetByID(ctx context.Context, id string) (*entity.Nft, error) {
	n, err := scanNft(r.q.QueryRow(ctx, `SELECT `+nftColumns+` FROM nfts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get nft: %w", err)
	}
	return n, nil
}

// UpdateOwner registra el nuevo dueño tras un claim o swap.
func (r *NftRepo) UpdateOwner(ctx context.Context, id, ownerAddress, lastConfigTxn string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE nfts SET owner_address = $2, last_config_txn = $3, updated_at = $4 WHERE id = $1`,
		id, ownerAddress, lastConfigTxn, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("update nft owner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *NftRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.Nft, error) {
	return r.list(ctx, `SELECT `+nftColumns+` FROM nfts WHERE carbon_document_id = $1 ORDER BY created_at`, documentID)
}

func (r *NftRepo) List(ctx context.Context, limit, offset int) ([]*entity.Nft, error) {
	limit, offset = pageArgs(limit, offset)
	return r.list(ctx, `SELECT `+nftColumns+` FROM nfts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *NftRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Nft, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nfts: %w", err)
	}
	defer rows.Close()

	var list []*entity.Nft
	for rows.Next() {
		n, err := scanNft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nft: %w", err)
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func scanNft(row pgx.Row) (*entity.Nft, error) {
	var n entity.Nft
	var asaID int64
	err := row.Scan(
		&n.ID, &n.TxnType, &asaID, &n.AsaTxnID, &n.GroupID, &n.Metadata, &n.OwnerAddress,
		&n.CarbonDocumentID, &n.LastConfigTxn, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.AsaID = uint64(asaID)
	return &n, nil
}
