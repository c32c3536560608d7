// Package duewindow clasifica documentos de cartera en ventanas de
// vencimiento (todos, vencidos, próximos N días) a una fecha de corte.
package duewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jhoicas/billing-reconciliation/internal/domain"
	"github.com/jhoicas/billing-reconciliation/internal/domain/entity"
)

// Kind tipo de ventana.
type Kind string

const (
	KindAll       Kind = "ALL"
	KindOverdue   Kind = "OVERDUE"
	KindNextNDays Kind = "NEXT_N_DAYS"
)

// Window ventana de vencimiento. Days sólo aplica a KindNextNDays.
type Window struct {
	Kind Kind
	Days int
}

// All ventana que incluye todo.
func All() Window { return Window{Kind: KindAll} }

// Overdue documentos vencidos con saldo pendiente.
func Overdue() Window { return Window{Kind: KindOverdue} }

// NextNDays documentos que vencen hasta as_of + n días (incluye los vencidos).
func NextNDays(n int) (Window, error) {
	if n < 0 {
		return Window{}, fmt.Errorf("ventana de %d días: %w", n, domain.ErrInvalidInput)
	}
	return Window{Kind: KindNextNDays, Days: n}, nil
}

// Parse interpreta "all", "overdue" o "next:N". Vacío equivale a "all".
func Parse(s string) (Window, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "all":
		return All(), nil
	case s == "overdue":
		return Overdue(), nil
	case strings.HasPrefix(s, "next:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "next:"))
		if err != nil {
			return Window{}, fmt.Errorf("ventana %q: %w", s, domain.ErrInvalidInput)
		}
		return NextNDays(n)
	}
	return Window{}, fmt.Errorf("ventana %q desconocida: %w", s, domain.ErrInvalidInput)
}

// String forma canónica aceptada por Parse.
func (w Window) String() string {
	switch w.Kind {
	case KindOverdue:
		return "overdue"
	case KindNextNDays:
		return "next:" + strconv.Itoa(w.Days)
	default:
		return "all"
	}
}

// Classify indica si doc pertenece a la ventana w a la fecha asOf.
// Compara sólo fechas de calendario (hora del día en cero).
//
// NextNDays no tiene cota inferior: también incluye documentos ya vencidos.
func Classify(doc *entity.LedgerDocument, asOf time.Time, w Window) bool {
	due := civilDate(doc.DueDate)
	today := civilDate(asOf)
	switch w.Kind {
	case KindOverdue:
		return due.Before(today) && doc.OutstandingAmount().IsPositive()
	case KindNextNDays:
		return !due.After(today.AddDate(0, 0, w.Days))
	default:
		return true
	}
}

// Filter devuelve los documentos de la ventana conservando el orden.
func Filter(docs []*entity.LedgerDocument, asOf time.Time, w Window) []*entity.LedgerDocument {
	return lo.Filter(docs, func(doc *entity.LedgerDocument, _ int) bool {
		return Classify(doc, asOf, w)
	})
}

// Partition arma un bucket por ventana (clave Window.String()). Las ventanas
// no son excluyentes: un documento puede aparecer en varios buckets.
func Partition(docs []*entity.LedgerDocument, asOf time.Time, windows ...Window) map[string][]*entity.LedgerDocument {
	return lo.SliceToMap(windows, func(w Window) (string, []*entity.LedgerDocument) {
		return w.String(), Filter(docs, asOf, w)
	})
}

// civilDate reduce t a su fecha de calendario en su propia zona.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
