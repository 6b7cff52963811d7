package usecase

import (
	"context"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

// NftUseCase consultas de NFTs acuñados.
type NftUseCase struct {
	repo repository.NftRepository
}

// NewNftUseCase construye el caso de uso.
func NewNftUseCase(repo repository.NftRepository) *NftUseCase {
	return &NftUseCase{repo: repo}
}

// GetByID obtiene un NFT por ID. Devuelve (nil, nil) si no existe.
func (uc *NftUseCase) GetByID(ctx context.Context, id string) (*dto.NftResponse, error) {
	n, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return carbon.ToNftResponse(n), nil
}

// List lista NFTs con paginación.
func (uc *NftUseCase) List(ctx context.Context, limit, offset int) (*dto.NftListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NftResponse, 0, len(list))
	for _, n := range list {
		items = append(items, *carbon.ToNftResponse(n))
	}
	return &dto.NftListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// ListByDocument NFTs de un documento (developer + fee).
func (uc *NftUseCase) ListByDocument(ctx context.Context, documentID string) ([]dto.NftResponse, error) {
	list, err := uc.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NftResponse, 0, len(list))
	for _, n := range list {
		items = append(items, *carbon.ToNftResponse(n))
	}
	return items, nil
}
