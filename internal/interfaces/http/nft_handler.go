package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/application/usecase"
)

// NftHandler consultas de NFTs.
type NftHandler struct {
	uc *usecase.NftUseCase
}

func NewNftHandler(uc *usecase.NftUseCase) *NftHandler {
	return &NftHandler{uc: uc}
}

// List godoc
// @Summary      Listar NFTs (admin)
// @Tags         nfts
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Límite"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  dto.NftListResponse
// @Router       /api/nfts [get]
func (h *NftHandler) List(c *fiber.Ctx) error {
	page := pageParams(c)
	out, err := h.uc.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener NFT
// @Tags         nfts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "NFT ID"
// @Success      200  {object}  dto.NftResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/nfts/{id} [get]
func (h *NftHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "NFT no encontrado"})
	}
	return c.JSON(out)
}
