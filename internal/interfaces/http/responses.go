package http

// ErrorResponse cuerpo de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BuildResponse respuesta de la construcción del documento electrónico.
type BuildResponse struct {
	InvoiceID string `json:"invoice_id"`
	UUID      string `json:"uuid"`
	ICV       int64  `json:"icv"`
	TypeCode  string `json:"type_code"`
	XML       string `json:"xml"`
}

// SubmitResponse respuesta del ciclo de envío al portal.
type SubmitResponse struct {
	InvoiceID  string `json:"invoice_id"`
	Status     string `json:"status"`
	UUID       string `json:"uuid"`
	ExternalID string `json:"external_id,omitempty"`
	QRCode     string `json:"qr_code,omitempty"`
	Errors     string `json:"errors,omitempty"`
}

// StatusResponse estado de envío de la factura (polling).
type StatusResponse struct {
	InvoiceID    string `json:"invoice_id"`
	Status       string `json:"status"`
	UUID         string `json:"uuid,omitempty"`
	ICV          int64  `json:"icv,omitempty"`
	ExternalID   string `json:"external_id,omitempty"`
	QRCode       string `json:"qr_code,omitempty"`
	LastError    string `json:"last_error,omitempty"`
	LastResponse string `json:"last_response,omitempty"`
	SubmittedAt  string `json:"submitted_at,omitempty"`
}
