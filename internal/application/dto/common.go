package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=0,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
// Scanned son las filas leídas en esta página; Count los ítems devueltos tras
// el filtro de ventana. Ninguno es un total de la cartera: para totales usar
// GET /api/ledger/summary.
type PageResponse struct {
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
	Scanned int `json:"scanned"`
	Count   int `json:"count"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
