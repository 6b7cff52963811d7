package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
)

// FileHandler descarga de archivos subidos.
type FileHandler struct {
	uc *carbon.FileUseCase
}

func NewFileHandler(uc *carbon.FileUseCase) *FileHandler {
	return &FileHandler{uc: uc}
}

// Download godoc
// @Summary      Descargar archivo
// @Tags         files
// @Produce      octet-stream
// @Security     BearerAuth
// @Param        id   path  string  true  "File ID"
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/files/{id} [get]
func (h *FileHandler) Download(c *fiber.Ctx) error {
	f, rc, err := h.uc.Open(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, f.Mime)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, f.Name))
	// fasthttp cierra rc al terminar de escribir el cuerpo
	return c.SendStream(rc, int(f.Size))
}
