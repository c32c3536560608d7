package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
	"github.com/jhoicas/billing-reconciliation/internal/application/payment"
	"github.com/jhoicas/billing-reconciliation/internal/domain"
)

// PaymentHandler callbacks de la pasarela y estado de las confirmaciones (protegido).
type PaymentHandler struct {
	confirmations *payment.ConfirmationService
	ledgerUC      *billing.LedgerUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(confirmations *payment.ConfirmationService, ledgerUC *billing.LedgerUseCase) *PaymentHandler {
	return &PaymentHandler{confirmations: confirmations, ledgerUC: ledgerUC}
}

// Gateway godoc
// @Summary      Resultado de la pasarela de pagos
// @Description  En éxito responde 202 y la confirmación sigue en segundo plano; en fallo responde 200 con FAILED.
//               Con paid_before sólo confirma cuando el pagado del documento lo supera.
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.GatewayEventRequest  true  "document_id, reference, status"
// @Success      200   {object}  dto.ConfirmationResponse
// @Success      202   {object}  dto.ConfirmationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/payments/confirmations [post]
func (h *PaymentHandler) Gateway(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.GatewayEventRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if ok, err := validateRequest(c, in); !ok {
		return err
	}
	if in.PaidBefore != nil && in.PaidBefore.IsNegative() {
		return respondError(c, domain.ErrInvalidAmount)
	}
	// Existencia y empresa del documento antes de iniciar el polling.
	if _, err := h.ledgerUC.GetReconciliation(c.Context(), companyID, in.DocumentID); err != nil {
		return respondError(c, err)
	}
	gw := payment.GatewaySuccess(in.Reference)
	if in.Status == "failure" {
		gw = payment.GatewayFailure(in.Reference, in.Reason)
	}
	gw.PaidBefore = in.PaidBefore
	out, err := h.confirmations.HandleGateway(in.DocumentID, gw)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if out.State == payment.StatePolling {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(toConfirmationResponse(out))
}

// Get godoc
// @Summary      Estado de la confirmación por referencia
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        reference  path  string  true  "Referencia de la pasarela"
// @Success      200  {object}  dto.ConfirmationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payments/confirmations/{reference} [get]
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	out, err := h.confirmations.Get(c.Params("reference"))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.authorize(c, out); err != nil {
		return respondError(c, err)
	}
	return c.JSON(toConfirmationResponse(out))
}

// Cancel godoc
// @Summary      Detener el polling de la confirmación
// @Description  P. ej. el usuario salió de la pantalla de pago. Si ya terminó devuelve el resultado final.
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        reference  path  string  true  "Referencia de la pasarela"
// @Success      200  {object}  dto.ConfirmationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/payments/confirmations/{reference} [delete]
func (h *PaymentHandler) Cancel(c *fiber.Ctx) error {
	ref := c.Params("reference")
	current, err := h.confirmations.Get(ref)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.authorize(c, current); err != nil {
		return respondError(c, err)
	}
	out, err := h.confirmations.Cancel(ref)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toConfirmationResponse(out))
}

func (h *PaymentHandler) authorize(c *fiber.Ctx, out payment.Outcome) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorizedErr
	}
	_, err := h.ledgerUC.GetReconciliation(c.Context(), companyID, out.DocumentID)
	return err
}

func toConfirmationResponse(out payment.Outcome) dto.ConfirmationResponse {
	resp := dto.ConfirmationResponse{
		DocumentID:          out.DocumentID,
		Reference:           out.Reference,
		State:               string(out.State),
		ConfirmationPending: out.State.ConfirmationPending(),
		Attempts:            out.Attempts,
	}
	if r := out.Reconciliation; r != nil {
		outstanding := r.OutstandingAmount
		resp.OutstandingAmount = &outstanding
		resp.Status = r.Status.String()
	}
	switch {
	case out.Err != nil:
		resp.Message = out.Err.Error()
	case out.State.ConfirmationPending():
		resp.Message = "el pago probablemente se procesó; refresque más tarde"
	}
	return resp
}
