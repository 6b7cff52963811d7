package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/climatecoin/carbon-api/internal/application/usecase"
)

// ActivityHandler historial de actividades del usuario.
type ActivityHandler struct {
	uc *usecase.ActivityUseCase
}

func NewActivityHandler(uc *usecase.ActivityUseCase) *ActivityHandler {
	return &ActivityHandler{uc: uc}
}

// List godoc
// @Summary      Actividades del usuario (admin: todas)
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query  int  false  "Límite"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  dto.ActivityListResponse
// @Router       /api/activities [get]
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	page := pageParams(c)
	out, err := h.uc.List(c.UserContext(), actorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
