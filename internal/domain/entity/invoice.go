package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de envío a JoFotara (Jordania).
const (
	StatusPending   = "Pending"   // Aún no enviada al gateway
	StatusSubmitted = "Submitted" // Aceptada por JoFotara (UUID/QR recibidos)
	StatusError     = "Error"     // Rechazada o fallo de transporte; ver LastError
)

// TaxKind clase de impuesto aplicable a una línea.
type TaxKind string

const (
	TaxKindStandard TaxKind = "standard" // impuesto general a las ventas
	TaxKindSpecial  TaxKind = "special"  // impuesto especial (special sales tax)
	TaxKindZero     TaxKind = "zero"     // tarifa cero / exento
)

// Party datos de una parte del documento (emisor o receptor).
type Party struct {
	RegistrationName string
	TaxNumber        string // crudo; se normaliza antes de emitir
	PostalZone       string
	CountrySubentity string // subdivisión ISO 3166-2, ej. "JO-AM"
	CountryCode      string // ej. "JO"
}

// LineItem línea de la factura tal como la entrega el host.
type LineItem struct {
	Name           string
	Quantity       decimal.Decimal
	Unit           string // etiqueta libre; se mapea a UN/ECE al emitir
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal // descuento propio de la línea, >= 0

	// TaxRateOverrides tarifas explícitas por clase de impuesto (porcentaje).
	// Si falta una clase, aplica la tarifa por defecto del documento.
	TaxRateOverrides map[TaxKind]decimal.Decimal
}

// InvoiceDraft snapshot de solo lectura de la factura del host, entrada del
// motor de transformación. Los campos de identidad (UUID, ICV) se asignan de
// forma perezosa en el primer build y se persisten de vuelta vía el
// repositorio; el resto nunca se muta aquí.
type InvoiceDraft struct {
	ID        string // número de factura del negocio (estable)
	IssueDate time.Time
	Currency  string

	IsReturn      bool   // nota crédito
	ReturnAgainst string // número de la factura original (solo notas crédito)
	IsPOS         bool   // venta de mostrador

	DiscountAmount     decimal.Decimal // descuento a nivel de documento, >= 0
	RoundingAdjustment decimal.Decimal // ajuste de redondeo externo (puede ser 0)

	// Totales del host: solo se usan para derivar la tarifa por defecto y la
	// clasificación contado/crédito; los totales del documento se recalculan.
	NetTotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	GrandTotal  decimal.Decimal
	PaidAmount  decimal.Decimal
	Outstanding decimal.Decimal

	Note   string
	Seller Party
	Buyer  Party
	Items  []LineItem

	// Identidad del documento electrónico (asignada una sola vez).
	UUID string
	ICV  int64 // contador interno por emisor (valor derivado, no secuencia durable)

	// Estado de envío (propiedad del host, escrito por el núcleo).
	Status       string
	ExternalID   string // identificador devuelto por JoFotara
	QRCode       string // código escaneable devuelto por JoFotara
	LastError    string
	LastResponse string // snapshot acotado de la última respuesta cruda
	SubmittedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
