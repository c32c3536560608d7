package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/application/payment"
)

// Roles reconocidos en el claim "role".
const (
	RoleAdmin    = "admin"
	RoleCartera  = "cartera"
	RoleConsulta = "consulta"
	RoleGateway  = "pasarela"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LedgerUC      *billing.LedgerUseCase
	CreditNoteUC  *billing.CreditNoteUseCase
	PaymentUC     *billing.PaymentUseCase
	Confirmations *payment.ConfirmationService
	JWTSecret     string
	AppName       string
	// Ping opcional para /health (p. ej. pool.Ping).
	Ping func(ctx context.Context) error
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if deps.Ping != nil {
			if err := deps.Ping(c.Context()); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "DB_UNAVAILABLE", Message: "base de datos no disponible"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	// Todas las rutas de /api requieren Bearer Token.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	readers := RequireRole(RoleAdmin, RoleCartera, RoleConsulta)
	writers := RequireRole(RoleAdmin, RoleCartera)

	ledgerHandler := NewLedgerHandler(deps.LedgerUC, deps.PaymentUC)
	ledger := api.Group("/ledger")
	ledger.Get("/", readers, ledgerHandler.List)
	ledger.Get("/summary", readers, ledgerHandler.Summary)
	ledger.Get("/aging", readers, ledgerHandler.Aging)
	ledger.Get("/:id", readers, ledgerHandler.GetByID)
	ledger.Get("/:id/payments", readers, ledgerHandler.ListPayments)
	ledger.Post("/:id/payments", writers, ledgerHandler.RecordPayment)

	creditNoteHandler := NewCreditNoteHandler(deps.CreditNoteUC)
	invoices := api.Group("/invoices")
	invoices.Get("/:id/credit-notes", readers, creditNoteHandler.List)
	invoices.Post("/:id/credit-notes/preview", writers, creditNoteHandler.Preview)
	invoices.Post("/:id/credit-notes", writers, creditNoteHandler.Create)

	paymentHandler := NewPaymentHandler(deps.Confirmations, deps.LedgerUC)
	confirmations := api.Group("/payments/confirmations")
	confirmations.Post("/", RequireRole(RoleAdmin, RoleCartera, RoleGateway), paymentHandler.Gateway)
	confirmations.Get("/:reference", readers, paymentHandler.Get)
	confirmations.Delete("/:reference", writers, paymentHandler.Cancel)
}
