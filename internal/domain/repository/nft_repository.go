package repository

import (
	"context"

	"github.com/climatecoin/carbon-api/internal/domain/entity"
)

// NftRepository define el puerto de persistencia para Nft.
type NftRepository interface {
	Create(ctx context.Context, nft *entity.Nft) error
	GetByID(ctx context.Context, id string) (*entity.Nft, error)
	UpdateOwner(ctx context.Context, id, ownerAddress, lastConfigTxn string) error
	ListByDocument(ctx context.Context, documentID string) ([]*entity.Nft, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Nft, error)
}
