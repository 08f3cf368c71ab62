package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/application/einvoice"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain"
)

// InvoiceHandler expone el ciclo de facturación electrónica (protegido).
type InvoiceHandler struct {
	buildUC  *einvoice.BuildUseCase
	submit   *einvoice.SubmitOrchestrator
	statusUC *einvoice.StatusUseCase
	// autoSend hace que /build envíe al portal por defecto (JOFOTARA_SEND_ON_SUBMIT);
	// el query param ?send= lo anula por petición.
	autoSend bool
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(
	buildUC *einvoice.BuildUseCase,
	submit *einvoice.SubmitOrchestrator,
	statusUC *einvoice.StatusUseCase,
	autoSend bool,
) *InvoiceHandler {
	return &InvoiceHandler{buildUC: buildUC, submit: submit, statusUC: statusUC, autoSend: autoSend}
}

// Build construye el documento UBL de la factura. Con ?send=true (o con el
// envío automático habilitado en configuración) además lo envía al portal.
// POST /api/invoices/:id/build
func (h *InvoiceHandler) Build(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}

	if c.QueryBool("send", h.autoSend) {
		return h.Submit(c)
	}

	result, err := h.buildUC.Execute(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(BuildResponse{
		InvoiceID: id,
		UUID:      result.Document.UUID,
		ICV:       result.Document.ICV,
		TypeCode:  result.Document.TypeCode,
		XML:       string(result.XML),
	})
}

// Submit construye y envía la factura al portal, conciliando el estado.
// POST /api/invoices/:id/submit
func (h *InvoiceHandler) Submit(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}

	outcome, err := h.submit.Submit(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}

	return c.JSON(SubmitResponse{
		InvoiceID:  outcome.InvoiceID,
		Status:     outcome.Status,
		UUID:       outcome.UUID,
		ExternalID: outcome.ExternalID,
		QRCode:     outcome.QRCode,
		Errors:     outcome.Errors,
	})
}

// Status devuelve el estado de envío de la factura.
// GET /api/invoices/:id/status
func (h *InvoiceHandler) Status(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}

	draft, err := h.statusUC.Execute(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}

	resp := StatusResponse{
		InvoiceID:    draft.ID,
		Status:       draft.Status,
		UUID:         draft.UUID,
		ICV:          draft.ICV,
		ExternalID:   draft.ExternalID,
		QRCode:       draft.QRCode,
		LastError:    draft.LastError,
		LastResponse: draft.LastResponse,
	}
	if draft.SubmittedAt != nil {
		resp.SubmittedAt = draft.SubmittedAt.Format(time.RFC3339)
	}
	return c.JSON(resp)
}

// mapDomainError traduce errores de dominio a códigos HTTP.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		// incluye errores de transporte hacia el portal
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Code: "UPSTREAM", Message: err.Error()})
	}
}
