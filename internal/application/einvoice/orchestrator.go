package einvoice

import (
	"context"
	"time"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/repository"
	infrajofotara "github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/ubl"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/logger"
)

// SubmitOutcome resultado de un ciclo de envío, listo para el handler.
type SubmitOutcome struct {
	InvoiceID  string
	Status     string // entity.StatusSubmitted | entity.StatusError
	UUID       string // identidad local del documento
	ExternalID string // UUID asignado por el portal (vacío si rechazada)
	QRCode     string
	Errors     string // detalle del rechazo (vacío si aceptada)
}

// SubmitOrchestrator orquesta el ciclo completo de envío:
//
//	build → minificar → POST al portal → conciliar estado en DB
//
// Reglas de conciliación: un error de transporte se persiste y se PROPAGA
// (el caller decide reintentar); un rechazo del portal se persiste como
// estado Error y NO es un error de la operación. Los fallos de
// contabilidad (persistir el resultado) se registran pero nunca enmascaran
// el desenlace del envío.
type SubmitOrchestrator struct {
	builder     *BuildUseCase
	invoiceRepo repository.InvoiceRepository
	submitter   infrajofotara.Submitter
	sink        Sink
	log         *logger.Logger
}

// NewSubmitOrchestrator construye el orquestador con sus dependencias.
func NewSubmitOrchestrator(
	builder *BuildUseCase,
	invoiceRepo repository.InvoiceRepository,
	submitter infrajofotara.Submitter,
	sink Sink,
	log *logger.Logger,
) *SubmitOrchestrator {
	return &SubmitOrchestrator{
		builder:     builder,
		invoiceRepo: invoiceRepo,
		submitter:   submitter,
		sink:        sink,
		log:         log,
	}
}

// Submit ejecuta el ciclo completo para una factura. La serialización de
// envíos concurrentes de la MISMA factura es responsabilidad del caller.
func (o *SubmitOrchestrator) Submit(ctx context.Context, invoiceID string) (*SubmitOutcome, error) {
	built, err := o.builder.Execute(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	payload := ubl.Minify(built.XML)
	o.sink.RecordXML(ctx, invoiceID, payload)

	result, err := o.submitter.SubmitInvoice(ctx, payload)
	if err != nil {
		// error de transporte: persistir y propagar
		o.saveSubmission(ctx, invoiceID, repository.SubmissionUpdate{
			Status:      entity.StatusError,
			ErrorDetail: err.Error(),
		})
		return nil, err
	}
	o.sink.RecordResponse(ctx, invoiceID, result.Raw)

	upd := repository.SubmissionUpdate{RawResponse: result.Raw}
	outcome := &SubmitOutcome{
		InvoiceID: invoiceID,
		UUID:      built.Document.UUID,
	}

	if result.Accepted {
		upd.Status = entity.StatusSubmitted
		upd.ExternalID = result.ExternalUUID
		upd.QRCode = result.QRCode
		upd.SubmittedAt = time.Now()

		outcome.Status = entity.StatusSubmitted
		outcome.ExternalID = result.ExternalUUID
		outcome.QRCode = result.QRCode
		o.log.Info().
			Str("invoice_id", invoiceID).
			Str("external_id", result.ExternalUUID).
			Msg("factura aceptada por el portal")
	} else {
		// rechazo del portal: se registra, no se propaga
		upd.Status = entity.StatusError
		upd.ErrorDetail = result.Errors

		outcome.Status = entity.StatusError
		outcome.Errors = result.Errors
		o.log.Warn().
			Str("invoice_id", invoiceID).
			Int("status_code", result.StatusCode).
			Str("detail", result.Errors).
			Msg("factura rechazada por el portal")
	}

	o.saveSubmission(ctx, invoiceID, upd)
	return outcome, nil
}

// saveSubmission persiste el resultado; un fallo aquí se registra sin
// alterar el desenlace del envío.
func (o *SubmitOrchestrator) saveSubmission(ctx context.Context, invoiceID string, upd repository.SubmissionUpdate) {
	if err := o.invoiceRepo.SaveSubmission(ctx, invoiceID, upd); err != nil {
		o.log.Error().Err(err).
			Str("invoice_id", invoiceID).
			Str("status", upd.Status).
			Msg("no se pudo persistir el resultado del envío")
	}
}
