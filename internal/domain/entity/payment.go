package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment pago confirmado registrado contra una factura o nota débito.
type Payment struct {
	ID         string
	DocumentID string
	Amount     decimal.Decimal
	Reference  string // referencia de la pasarela (única)
	Method     string
	ReceivedAt time.Time
}
