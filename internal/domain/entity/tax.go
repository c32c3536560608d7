package entity

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// TaxComponent impuesto nombrado (CGST, SGST, IGST, IVA...) con tarifa porcentual.
// Rate se expresa en puntos porcentuales: 9 equivale a 9%.
type TaxComponent struct {
	Name string          `json:"name"`
	Rate decimal.Decimal `json:"rate"`
}

// TaxSchedule conjunto ordenado de impuestos aplicados sobre una base.
type TaxSchedule []TaxComponent

// TaxFor devuelve Σ(base × rate_i / 100).
func (s TaxSchedule) TaxFor(base decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, c := range s {
		total = total.Add(base.Mul(c.Rate).Div(hundred))
	}
	return total
}

// TotalFor devuelve la base más todos los impuestos.
func (s TaxSchedule) TotalFor(base decimal.Decimal) decimal.Decimal {
	return base.Add(s.TaxFor(base))
}

// EffectiveRate suma de tarifas (en puntos porcentuales).
func (s TaxSchedule) EffectiveRate() decimal.Decimal {
	total := decimal.Zero
	for _, c := range s {
		total = total.Add(c.Rate)
	}
	return total
}

// Clone copia las tarifas; las notas crédito guardan su propia copia.
func (s TaxSchedule) Clone() TaxSchedule {
	if s == nil {
		return nil
	}
	out := make(TaxSchedule, len(s))
	copy(out, s)
	return out
}
