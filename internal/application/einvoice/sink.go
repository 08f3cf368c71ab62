// Package einvoice orquesta el ciclo de facturación electrónica JoFotara:
//
//	snapshot → documento → XML UBL 2.1 → envío HTTP → conciliación en DB
//
// La transformación es pura (internal/domain/jofotara); aquí vive el I/O.
package einvoice

import (
	"context"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/logger"
)

// Sink destino best-effort para artefactos de auditoría (XML generado,
// respuesta cruda del portal). Nunca devuelve error: un fallo de auditoría
// no puede alterar el resultado del envío.
type Sink interface {
	RecordXML(ctx context.Context, invoiceID string, xmlDoc []byte)
	RecordResponse(ctx context.Context, invoiceID string, raw string)
}

// LogSink implementación de Sink sobre el logger estructurado.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink construye el sink.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) RecordXML(ctx context.Context, invoiceID string, xmlDoc []byte) {
	s.log.Debug().
		Str("invoice_id", invoiceID).
		Int("xml_bytes", len(xmlDoc)).
		Msg("documento XML generado")
}

func (s *LogSink) RecordResponse(ctx context.Context, invoiceID string, raw string) {
	s.log.Debug().
		Str("invoice_id", invoiceID).
		Str("response", raw).
		Msg("respuesta cruda del portal")
}
