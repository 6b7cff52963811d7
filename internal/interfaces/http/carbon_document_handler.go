package http

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/climatecoin/carbon-api/internal/application/carbon"
	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/application/usecase"
)

// CarbonDocumentHandler endpoints del flujo de documentos de carbono.
type CarbonDocumentHandler struct {
	docs        *carbon.DocumentUseCase
	workflow    *carbon.WorkflowUseCase
	certificate *carbon.CertificateUseCase
	nfts        *usecase.NftUseCase
	maxUpload   int64
}

// NewCarbonDocumentHandler construye el handler. maxUploadBytes <= 0 sin límite propio (aplica el de Fiber).
func NewCarbonDocumentHandler(
	docs *carbon.DocumentUseCase,
	workflow *carbon.WorkflowUseCase,
	certificate *carbon.CertificateUseCase,
	nfts *usecase.NftUseCase,
	maxUploadBytes int64,
) *CarbonDocumentHandler {
	return &CarbonDocumentHandler{docs: docs, workflow: workflow, certificate: certificate, nfts: nfts, maxUpload: maxUploadBytes}
}

// Create godoc
// @Summary      Crear documento de carbono
// @Description  Multipart: campos del documento + archivo "document" (PDF). sdgs como texto JSON.
// @Tags         carbon-documents
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        title     formData  string  true   "Título"
// @Param        credits   formData  string  true   "Créditos (entero positivo)"
// @Param        sdgs      formData  string  false  "JSON array de ODS"
// @Param        document  formData  file    false  "PDF del documento"
// @Success      201  {object}  dto.CarbonDocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/carbon-documents [post]
func (h *CarbonDocumentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCarbonDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "formulario inválido")
	}
	var files []dto.UploadedFile
	if form, err := c.MultipartForm(); err == nil {
		files, err = h.readFiles(form)
		if err != nil {
			return badRequest(c, "INVALID_FILE", err.Error())
		}
	}
	out, err := h.docs.Create(c.UserContext(), actorFrom(c), in, files)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *CarbonDocumentHandler) readFiles(form *multipart.Form) ([]dto.UploadedFile, error) {
	var files []dto.UploadedFile
	for field, headers := range form.File {
		for _, fh := range headers {
			if h.maxUpload > 0 && fh.Size > h.maxUpload {
				return nil, fmt.Errorf("%s supera el tamaño máximo", fh.Filename)
			}
			f, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("abrir %s: %w", fh.Filename, err)
			}
			data, err := io.ReadAll(f)
			_ = f.Close()
			if err != nil {
				return nil, fmt.Errorf("leer %s: %w", fh.Filename, err)
			}
			files = append(files, dto.UploadedFile{Field: field, Name: fh.Filename, Data: data})
		}
	}
	return files, nil
}

// Find godoc
// @Summary      Listar documentos
// @Description  Admin: todos (filtro opcional por status). Desarrollador: solo los propios.
// @Tags         carbon-documents
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "pending, completed, rejected, minted, claimed, swapped"
// @Param        limit   query  int     false  "Límite"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  dto.CarbonDocumentListResponse
// @Router       /api/carbon-documents [get]
func (h *CarbonDocumentHandler) Find(c *fiber.Ctx) error {
	page := pageParams(c)
	out, err := h.docs.Find(c.UserContext(), actorFrom(c), c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// FindOne godoc
// @Summary      Obtener documento
// @Tags         carbon-documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      200  {object}  dto.CarbonDocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/carbon-documents/{id} [get]
func (h *CarbonDocumentHandler) FindOne(c *fiber.Ctx) error {
	out, err := h.docs.FindOne(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if out == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "documento no encontrado"})
	}
	return c.JSON(out)
}

// Review godoc
// @Summary      Revisar documento (admin)
// @Tags         carbon-documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                           true  "Document ID"
// @Param        body  body  dto.ReviewCarbonDocumentRequest  true  "approved"
// @Success      200  {object}  dto.CarbonDocumentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/carbon-documents/{id}/review [put]
func (h *CarbonDocumentHandler) Review(c *fiber.Ctx) error {
	var in dto.ReviewCarbonDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.docs.Review(c.UserContext(), actorFrom(c), c.Params("id"), in.Approved)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Mint godoc
// @Summary      Acuñar NFTs del documento (admin)
// @Tags         carbon-documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      200  {object}  dto.MintResponse
// @Failure      400  {object}  dto.ErrorResponse  "Document hasn't been reviewed"
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/carbon-documents/{id}/mint [post]
func (h *CarbonDocumentHandler) Mint(c *fiber.Ctx) error {
	out, err := h.workflow.Mint(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Claim godoc
// @Summary      Entregar el NFT al desarrollador (admin)
// @Tags         carbon-documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      200  {object}  dto.ClaimResponse
// @Failure      400  {object}  dto.ErrorResponse  "Document hasn't been minted"
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/carbon-documents/{id}/claim [post]
func (h *CarbonDocumentHandler) Claim(c *fiber.Ctx) error {
	out, err := h.workflow.Claim(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PrepareSwap godoc
// @Summary      Preparar grupo de swap NFT → Climatecoin
// @Tags         carbon-documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      200  {object}  dto.PrepareSwapResponse
// @Failure      400  {object}  dto.ErrorResponse  "Document hasn't been claimed"
// @Router       /api/carbon-documents/{id}/prepare-swap [post]
func (h *CarbonDocumentHandler) PrepareSwap(c *fiber.Ctx) error {
	out, err := h.workflow.PrepareSwap(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Swap godoc
// @Summary      Enviar el swap firmado
// @Description  Sin cuerpo solo se aplica la transición de estado.
// @Tags         carbon-documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string           true   "Document ID"
// @Param        body  body  dto.SwapRequest  false  "signed_txns en base64"
// @Success      200  {object}  dto.SwapResponse
// @Failure      400  {object}  dto.ErrorResponse  "Document hasn't been claimed"
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/carbon-documents/{id}/swap [post]
func (h *CarbonDocumentHandler) Swap(c *fiber.Ctx) error {
	var in dto.SwapRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	out, err := h.workflow.Swap(c.UserContext(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Certificate godoc
// @Summary      Certificado PDF del documento acuñado
// @Tags         carbon-documents
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      200  {file}    binary
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/carbon-documents/{id}/certificate [get]
func (h *CarbonDocumentHandler) Certificate(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.certificate.Generate(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="certificado-%s.pdf"`, id))
	return c.Send(pdf)
}

// Nfts godoc
// @Summary      NFTs del documento
// @Tags         carbon-documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      200  {array}   dto.NftResponse
// @Router       /api/carbon-documents/{id}/nfts [get]
func (h *CarbonDocumentHandler) Nfts(c *fiber.Ctx) error {
	id := c.Params("id")
	// mismo control de acceso que findOne
	doc, err := h.docs.FindOne(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	if doc == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "documento no encontrado"})
	}
	out, err := h.nfts.ListByDocument(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
