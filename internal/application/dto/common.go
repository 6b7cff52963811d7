package dto

// MaxPageLimit tope de elementos por página en los listados.
const MaxPageLimit = 100

// PageRequest paginación para listados (documentos, NFTs, actividades).
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero y acota Limit.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable (CHAIN_ERROR, FORBIDDEN...), Message legible.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
