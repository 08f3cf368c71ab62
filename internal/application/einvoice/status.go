package einvoice

import (
	"context"
	"fmt"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/repository"
)

// StatusUseCase consulta ligera del estado de envío (polling del host).
type StatusUseCase struct {
	invoiceRepo repository.InvoiceRepository
}

// NewStatusUseCase construye el caso de uso.
func NewStatusUseCase(invoiceRepo repository.InvoiceRepository) *StatusUseCase {
	return &StatusUseCase{invoiceRepo: invoiceRepo}
}

// Execute devuelve los campos de estado de la factura.
func (uc *StatusUseCase) Execute(ctx context.Context, invoiceID string) (*entity.InvoiceDraft, error) {
	draft, err := uc.invoiceRepo.GetStatus(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("consultar estado: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}
	return draft, nil
}
