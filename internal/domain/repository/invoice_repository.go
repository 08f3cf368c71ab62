package repository

import (
	"context"
	"time"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
)

// SubmissionUpdate resultado de la conciliación que el núcleo escribe de
// vuelta sobre la factura del host.
type SubmissionUpdate struct {
	Status      string // entity.StatusSubmitted | entity.StatusError
	ExternalID  string
	QRCode      string
	ErrorDetail string // detalle estructurado del rechazo, preservado verbatim
	RawResponse string // snapshot acotado de la respuesta cruda
	SubmittedAt time.Time
}

// InvoiceRepository define el puerto hacia el almacén de facturas del host.
// El núcleo solo lee el snapshot del borrador y escribe de vuelta la identidad
// generada y el estado de envío; el ciclo de vida del documento pertenece al
// host.
type InvoiceRepository interface {
	// GetByID devuelve el snapshot completo de la factura (cabecera + líneas).
	// Retorna (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.InvoiceDraft, error)

	// SaveIdentity persiste UUID e ICV generados en el primer build.
	// El UUID, una vez escrito, es estable para toda la vida del documento.
	SaveIdentity(ctx context.Context, id, uuid string, icv int64) error

	// NextICV deriva el siguiente valor del contador interno del emisor.
	// Es un valor best-effort (no una secuencia durable): envíos concurrentes
	// de la MISMA factura deben serializarse en el caller.
	NextICV(ctx context.Context) (int64, error)

	// SaveSubmission aplica el resultado del envío sobre el estado de la factura.
	SaveSubmission(ctx context.Context, id string, upd SubmissionUpdate) error

	// GetStatus devuelve solo los campos de estado de envío (ligero, para polling).
	GetStatus(ctx context.Context, id string) (*entity.InvoiceDraft, error)
}
