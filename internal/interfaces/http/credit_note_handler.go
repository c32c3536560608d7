package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/billing-reconciliation/internal/application/billing"
	"github.com/jhoicas/billing-reconciliation/internal/application/dto"
)

// CreditNoteHandler notas crédito por factura (protegido).
type CreditNoteHandler struct {
	uc *billing.CreditNoteUseCase
}

// NewCreditNoteHandler construye el handler.
func NewCreditNoteHandler(uc *billing.CreditNoteUseCase) *CreditNoteHandler {
	return &CreditNoteHandler{uc: uc}
}

func (h *CreditNoteHandler) parse(c *fiber.Ctx) (string, dto.CreditNoteRequest, bool, error) {
	var in dto.CreditNoteRequest
	companyID := GetCompanyID(c)
	if companyID == "" {
		return "", in, false, unauthorized(c)
	}
	if err := c.BodyParser(&in); err != nil {
		return "", in, false, badBody(c)
	}
	if ok, err := validateRequest(c, in); !ok {
		return "", in, false, err
	}
	return companyID, in, true, nil
}

// Preview godoc
// @Summary      Validar nota crédito contra el tope sin emitirla
// @Description  max_base_amount es la base más alta que aún cabe con los impuestos de la factura.
// @Tags         credit-notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la factura"
// @Param        body  body  dto.CreditNoteRequest  true  "base_amount, reason"
// @Success      200   {object}  dto.CreditNotePreviewResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse{details=dto.CapExceededDetails}
// @Router       /api/invoices/{id}/credit-notes/preview [post]
func (h *CreditNoteHandler) Preview(c *fiber.Ctx) error {
	companyID, in, ok, err := h.parse(c)
	if !ok {
		return err
	}
	out, err := h.uc.Preview(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Emitir nota crédito
// @Description  Sobre el tope responde 422 CAP_EXCEEDED con los montos.
// @Tags         credit-notes
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la factura"
// @Param        body  body  dto.CreditNoteRequest  true  "base_amount, reason"
// @Success      201   {object}  dto.CreditNoteResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse{details=dto.CapExceededDetails}
// @Router       /api/invoices/{id}/credit-notes [post]
func (h *CreditNoteHandler) Create(c *fiber.Ctx) error {
	companyID, in, ok, err := h.parse(c)
	if !ok {
		return err
	}
	out, err := h.uc.Create(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Notas crédito de la factura
// @Tags         credit-notes
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {array}   dto.CreditNoteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/credit-notes [get]
func (h *CreditNoteHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	out, err := h.uc.ListByInvoice(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
