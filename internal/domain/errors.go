package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInvalidAddress     = errors.New("dirección Algorand inválida")
	ErrChain              = errors.New("error en la red Algorand")
	ErrSwapGroupMismatch  = errors.New("las transacciones firmadas no pertenecen al grupo preparado")
	ErrInvalidStatus      = errors.New("estado del documento inválido para la acción")
)

// StatusError indica que el documento no está en el estado requerido por la acción.
// Message es el texto literal que se devuelve al cliente.
type StatusError struct {
	Current string
	Message string
}

func (e *StatusError) Error() string { return e.Message }

func (e *StatusError) Unwrap() error { return ErrInvalidStatus }

// IsStatusError reporta si err (o alguno envuelto) es un *StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}
