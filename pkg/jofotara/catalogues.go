// Package jofotara contiene catálogos y validaciones alineados al instructivo
// técnico de factura electrónica JoFotara (Jordania) v1.4.
package jofotara

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Tipos de documento (cbc:InvoiceTypeCode, UN/CEFACT 1001)
// =============================================================================

const (
	DocumentTypeInvoice    = "388" // Factura de venta
	DocumentTypeCreditNote = "381" // Nota crédito (devolución)
)

// =============================================================================
// Medio de pago (atributo name de cbc:InvoiceTypeCode)
// JoFotara codifica contado/crédito en el atributo name; combinado con el
// valor 388/381 produce las cuatro variantes de documento posibles.
// =============================================================================

const (
	PaymentMethodCash   = "012" // Contado
	PaymentMethodCredit = "022" // Crédito (cuenta por cobrar)
)

// DocumentTypeCode resuelve el código de tipo de documento a partir del flag
// de devolución. Clasificación pura y terminal, sin reintentos.
func DocumentTypeCode(isReturn bool) string {
	if isReturn {
		return DocumentTypeCreditNote
	}
	return DocumentTypeInvoice
}

// PaymentMethodCode resuelve el atributo name del tipo de documento.
func PaymentMethodCode(isCashLike bool) string {
	if isCashLike {
		return PaymentMethodCash
	}
	return PaymentMethodCredit
}

// cashEpsilon tolerancia para considerar saldada una factura.
var cashEpsilon = decimal.RequireFromString("0.001")

// IsCashLike determina si la factura se comporta como venta de contado:
// punto de venta, pago que cubre el total, o saldo pendiente ~cero.
func IsCashLike(isPOS bool, paid, outstanding, grandTotal decimal.Decimal) bool {
	if isPOS {
		return true
	}
	if grandTotal.IsPositive() && paid.GreaterThanOrEqual(grandTotal) {
		return true
	}
	return outstanding.Abs().LessThanOrEqual(cashEpsilon)
}

// =============================================================================
// Unidades de medida (UN/ECE Rec 20, @unitCode)
// =============================================================================

// UnitPiece código por defecto cuando la unidad de origen no se reconoce.
const UnitPiece = "PCE"

// unitCodes mapea etiquetas libres (incluye sinónimos en árabe, tal como
// llegan desde el ERP) a códigos UN/ECE. Las claves están normalizadas con
// NFKC + minúsculas; ver UnitCode.
var unitCodes = map[string]string{
	"unit": UnitPiece, "units": UnitPiece, "each": UnitPiece,
	"pcs": UnitPiece, "piece": UnitPiece, "nos": UnitPiece,
	"قطعة": UnitPiece, "وحدة": UnitPiece,
	"box": "BOX", "صندوق": "BOX",
	"kg": "KGM", "kilogram": "KGM", "كيلو": "KGM",
	"g": "GRM", "جرام": "GRM",
	"m": "MTR", "meter": "MTR", "متر": "MTR",
	"cm": "CMT", "سم": "CMT",
	"mm": "MMT",
	"m2": "MTK", "sq m": "MTK", "متر مربع": "MTK",
	"l": "LTR", "liter": "LTR", "لتر": "LTR",
	"hour": "HUR", "ساعة": "HUR",
	"day": "DAY", "يوم": "DAY",
}

// UnitCode mapea una etiqueta libre de unidad de medida a su código UN/ECE.
// La comparación es insensible a mayúsculas y a formas Unicode (NFKC cubre
// las variantes de presentación del árabe). Entrada no reconocida devuelve
// UnitPiece; nunca falla.
func UnitCode(raw string) string {
	key := strings.ToLower(strings.TrimSpace(norm.NFKC.String(raw)))
	if code, ok := unitCodes[key]; ok {
		return code
	}
	return UnitPiece
}

// =============================================================================
// Esquemas de impuesto (atributos de cac:TaxCategory / cac:TaxScheme)
// =============================================================================

const (
	SchemeAgencyID = "6"           // UN/ECE
	SchemeID5305   = "UN/ECE 5305" // código de categoría de impuesto
	SchemeID5153   = "UN/ECE 5153" // código de esquema de impuesto

	TaxSchemeVAT     = "VAT" // impuesto general a las ventas
	TaxSchemeSpecial = "SST" // impuesto especial (special sales tax)

	TaxCategoryStandard = "S" // tarifa estándar
	TaxCategoryZero     = "Z" // tarifa cero / exento
)

// =============================================================================
// Moneda
// =============================================================================

const (
	// CurrencyDocument código de moneda en la cabecera del documento.
	CurrencyDocument = "JOD"
	// CurrencyAmountID valor del atributo currencyID dentro de los importes.
	// JoFotara espera "JO" en los montos aunque la cabecera diga "JOD".
	CurrencyAmountID = "JO"
)
