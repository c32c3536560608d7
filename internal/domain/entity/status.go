package entity

import "github.com/shopspring/decimal"

// DerivedStatus estado de cobro derivado exclusivamente de los montos del documento.
type DerivedStatus string

const (
	StatusPaid          DerivedStatus = "PAID"
	StatusPartiallyPaid DerivedStatus = "PARTIALLY_PAID"
	StatusUnpaid        DerivedStatus = "UNPAID"
)

// IsValid indica si el valor es un DerivedStatus conocido.
func (s DerivedStatus) IsValid() bool {
	switch s {
	case StatusPaid, StatusPartiallyPaid, StatusUnpaid:
		return true
	}
	return false
}

func (s DerivedStatus) String() string { return string(s) }

// DeriveStatus calcula el estado a partir de (pagado, pendiente):
//
//	pendiente == 0               → PAID
//	pagado > 0 y pendiente > 0   → PARTIALLY_PAID
//	en otro caso                 → UNPAID
func DeriveStatus(paid, outstanding decimal.Decimal) DerivedStatus {
	if outstanding.IsZero() {
		return StatusPaid
	}
	if paid.IsPositive() && outstanding.IsPositive() {
		return StatusPartiallyPaid
	}
	return StatusUnpaid
}
