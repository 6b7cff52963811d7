package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/climatecoin/carbon-api/internal/application/dto"
	"github.com/climatecoin/carbon-api/internal/domain"
)

// writeError traduce errores de dominio a respuestas HTTP.
// Un estado incorrecto responde 400 con el mensaje literal del flujo.
func writeError(c *fiber.Ctx, err error) error {
	var se *domain.StatusError
	switch {
	case errors.As(err, &se):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "BAD_REQUEST", Message: se.Message})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "sin permiso sobre este recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrInvalidAddress):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ADDRESS", Message: "dirección Algorand inválida"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado"})
	case errors.Is(err, domain.ErrSwapGroupMismatch):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "GROUP_MISMATCH", Message: "las transacciones firmadas no pertenecen al grupo preparado"})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrChain):
		captureError(c, err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "CHAIN_ERROR", Message: "la red Algorand rechazó o no confirmó la operación"})
	default:
		captureError(c, err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// usuario inexistente y password incorrecto responden igual en login.
func isAuthFailure(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUnauthorized)
}

func isForbidden(err error) bool { return errors.Is(err, domain.ErrForbidden) }

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// pageParams lee limit/offset de la query con los defaults de dto.PageRequest.
func pageParams(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}
