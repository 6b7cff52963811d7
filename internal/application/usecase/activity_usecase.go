package usecase

import (
	"context"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/domain/repository"
)

// ActivityUseCase historial de actividades.
type ActivityUseCase struct {
	repo repository.ActivityRepository
}

// NewActivityUseCase construye el caso de uso.
func NewActivityUseCase(repo repository.ActivityRepository) *ActivityUseCase {
	return &ActivityUseCase{repo: repo}
}

// List devuelve las actividades del actor; el admin ve todas.
func (uc *ActivityUseCase) List(ctx context.Context, actor carbon.Actor, limit, offset int) (*dto.ActivityListResponse, error) {
	userID := actor.UserID
	if actor.IsAdmin() {
		userID = ""
	}
	list, err := uc.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ActivityResponse, 0, len(list))
	for _, a := range list {
		items = append(items, *carbon.ToActivityResponse(a))
	}
	return &dto.ActivityListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}
