package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
)

// LedgerHandler consultas de cartera y registro de pagos (protegido).
type LedgerHandler struct {
	ledgerUC  *billing.LedgerUseCase
	paymentUC *billing.PaymentUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(ledgerUC *billing.LedgerUseCase, paymentUC *billing.PaymentUseCase) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, paymentUC: paymentUC}
}

// List godoc
// @Summary      Listar documentos por ventana de vencimiento
// @Description  Facturas y notas débito de la empresa que caen en la ventana a la fecha de corte.
//               El filtro de ventana se aplica sobre la página leída: page.count puede ser menor que page.limit.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        kind       query  string  false  "invoice | debit_note"
// @Param        client_id  query  string  false  "Cliente"
// @Param        window     query  string  false  "all | overdue | next:N"  default(all)
// @Param        as_of      query  string  false  "Fecha de corte (YYYY-MM-DD). Default: hoy."
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LedgerListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/ledger [get]
func (h *LedgerHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	in := dto.LedgerQuery{
		Kind:     c.Query("kind"),
		ClientID: c.Query("client_id"),
		Window:   c.Query("window"),
		AsOf:     c.Query("as_of"),
		PageRequest: dto.PageRequest{
			Limit:  c.QueryInt("limit", 20),
			Offset: c.QueryInt("offset", 0),
		},
	}
	if ok, err := validateRequest(c, in); !ok {
		return err
	}
	out, err := h.ledgerUC.List(c.Context(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Summary godoc
// @Summary      Totales de cartera por estado
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        window  query  string  false  "all | overdue | next:N"  default(all)
// @Param        as_of   query  string  false  "Fecha de corte (YYYY-MM-DD). Default: hoy."
// @Success      200  {object}  dto.LedgerSummaryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/summary [get]
func (h *LedgerHandler) Summary(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.ledgerUC.Summary(c.Context(), companyID, c.Query("window"), c.Query("as_of"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Aging godoc
// @Summary      Cartera repartida por ventanas de vencimiento
// @Description  Las ventanas se solapan: next:N incluye los vencidos.
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        windows  query  string  false  "Ventanas separadas por coma"  default(overdue,next:7,next:30,all)
// @Param        as_of    query  string  false  "Fecha de corte (YYYY-MM-DD). Default: hoy."
// @Success      200  {object}  dto.LedgerAgingResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/ledger/aging [get]
func (h *LedgerHandler) Aging(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.ledgerUC.Aging(c.Context(), companyID, c.Query("windows"), c.Query("as_of"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Saldo pendiente y estado derivado del documento
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.ReconciliationResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/{id} [get]
func (h *LedgerHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.ledgerUC.GetReconciliation(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListPayments godoc
// @Summary      Pagos registrados del documento
// @Tags         ledger
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {array}   dto.PaymentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ledger/{id}/payments [get]
func (h *LedgerHandler) ListPayments(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.ledgerUC.ListPayments(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RecordPayment godoc
// @Summary      Registrar pago confirmado
// @Tags         ledger
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del documento"
// @Param        body  body  dto.RecordPaymentRequest  true  "amount, reference, method"
// @Success      201   {object}  dto.RecordPaymentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/ledger/{id}/payments [post]
func (h *LedgerHandler) RecordPayment(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.RecordPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validateRequest(c, in); !ok {
		return err
	}
	out, err := h.paymentUC.RecordPayment(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
