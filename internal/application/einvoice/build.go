package einvoice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/repository"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/ubl"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/logger"
)

// BuildResult documento calculado más su serialización XML.
type BuildResult struct {
	Document *jofotara.Document
	XML      []byte
}

// BuildUseCase construye el documento electrónico de una factura: obtiene el
// snapshot, asegura la identidad (UUID/ICV) y produce el XML. Es idempotente:
// una factura con identidad asignada conserva su UUID en cada llamada.
type BuildUseCase struct {
	invoiceRepo repository.InvoiceRepository
	xmlBuilder  *ubl.XMLBuilderService
	opts        jofotara.BuildOptions
	log         *logger.Logger
}

// NewBuildUseCase construye el caso de uso.
func NewBuildUseCase(
	invoiceRepo repository.InvoiceRepository,
	xmlBuilder *ubl.XMLBuilderService,
	opts jofotara.BuildOptions,
	log *logger.Logger,
) *BuildUseCase {
	return &BuildUseCase{
		invoiceRepo: invoiceRepo,
		xmlBuilder:  xmlBuilder,
		opts:        opts,
		log:         log,
	}
}

// Execute produce el documento y su XML para la factura indicada.
func (uc *BuildUseCase) Execute(ctx context.Context, invoiceID string) (*BuildResult, error) {
	draft, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if draft == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, invoiceID)
	}

	if err := uc.ensureIdentity(ctx, draft); err != nil {
		return nil, err
	}

	doc, err := jofotara.Build(draft, uc.opts)
	if err != nil {
		return nil, err
	}

	xmlDoc, err := uc.xmlBuilder.Build(doc)
	if err != nil {
		return nil, fmt.Errorf("serializar documento: %w", err)
	}

	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("uuid", doc.UUID).
		Int64("icv", doc.ICV).
		Str("type_code", doc.TypeCode).
		Msg("documento electrónico construido")

	return &BuildResult{Document: doc, XML: xmlDoc}, nil
}

// ensureIdentity asigna UUID e ICV en el primer build y los persiste ANTES
// de serializar: el XML nunca sale con una identidad que la DB no conoce.
func (uc *BuildUseCase) ensureIdentity(ctx context.Context, draft *entity.InvoiceDraft) error {
	if draft.UUID != "" && draft.ICV > 0 {
		return nil
	}

	if draft.UUID == "" {
		draft.UUID = uuid.New().String()
	}
	if draft.ICV == 0 {
		next, err := uc.invoiceRepo.NextICV(ctx)
		if err != nil {
			// contador best-effort: un fallo no bloquea la emisión
			uc.log.Warn().Err(err).Str("invoice_id", draft.ID).Msg("no se pudo derivar ICV, usando 1")
			next = 1
		}
		draft.ICV = next
	}

	if err := uc.invoiceRepo.SaveIdentity(ctx, draft.ID, draft.UUID, draft.ICV); err != nil {
		return fmt.Errorf("persistir identidad: %w", err)
	}
	return nil
}
