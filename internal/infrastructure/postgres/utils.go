package postgres

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// encodeTaxes serializa las tarifas para la columna jsonb tax_components.
func encodeTaxes(s entity.TaxSchedule) ([]byte, error) {
	if s == nil {
		s = entity.TaxSchedule{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode tax_components: %w", err)
	}
	return b, nil
}

func decodeTaxes(b []byte) (entity.TaxSchedule, error) {
	if len(b) == 0 {
		return entity.TaxSchedule{}, nil
	}
	var s entity.TaxSchedule
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode tax_components: %w", err)
	}
	return s, nil
}
