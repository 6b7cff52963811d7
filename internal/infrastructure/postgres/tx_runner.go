package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

var (
	_ carbon.WorkflowTxRunner = (*TxRunner)(nil)
	_ carbon.DocumentTxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunWorkflow inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunWorkflow(ctx context.Context, fn func(
	docRepo repository.CarbonDocumentRepository,
	nftRepo repository.NftRepository,
	activityRepo repository.ActivityRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCarbonDocumentRepository(tx), NewNftRepository(tx), NewActivityRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunDocument igual que RunWorkflow, con los repos de archivos en lugar de NFTs.
func (r *TxRunner) RunDocument(ctx context.Context, fn func(
	docRepo repository.CarbonDocumentRepository,
	fileRepo repository.FileRepository,
	activityRepo repository.ActivityRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewCarbonDocumentRepository(tx), NewFileRepository(tx), NewActivityRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
