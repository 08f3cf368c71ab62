package jofotara

import (
	"github.com/shopspring/decimal"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/money"
)

// fallbackStandardRate tarifa general vigente en Jordania cuando ni la línea
// ni los totales del documento permiten derivar una.
var fallbackStandardRate = decimal.RequireFromString("16.0")

// RateSet tarifas resueltas para una línea (porcentajes).
type RateSet struct {
	Standard decimal.Decimal
	Special  decimal.Decimal
	// ZeroRated marca la línea como tarifa cero/exenta de forma explícita;
	// anula ambas tarifas.
	ZeroRated bool
}

// DefaultStandardRate deriva la tarifa estándar por defecto del documento:
// el cociente impuesto/neto del host expresado como porcentaje, o la tarifa
// general vigente si el host no aporta totales.
func DefaultStandardRate(draft *entity.InvoiceDraft) decimal.Decimal {
	rate := money.Ratio(draft.TaxTotal, draft.NetTotal)
	if rate.IsPositive() {
		return rate
	}
	return fallbackStandardRate
}

// ResolveRates determina las tarifas de una línea: primero la anulación
// explícita por clase (gana el primer valor distinto de cero); en su defecto
// la tarifa estándar del documento. La clase "zero" presente en el mapa marca
// la línea como tarifa cero aunque exista tarifa por defecto.
func ResolveRates(item entity.LineItem, defaultStandard decimal.Decimal) RateSet {
	if item.TaxRateOverrides != nil {
		if _, ok := item.TaxRateOverrides[entity.TaxKindZero]; ok {
			return RateSet{Standard: money.Zero, Special: money.Zero, ZeroRated: true}
		}
	}
	rs := RateSet{Standard: defaultStandard, Special: money.Zero}
	if r, ok := item.TaxRateOverrides[entity.TaxKindStandard]; ok && !r.IsZero() {
		rs.Standard = r
	}
	if r, ok := item.TaxRateOverrides[entity.TaxKindSpecial]; ok && !r.IsZero() {
		rs.Special = r
	}
	return rs
}

// TaxCategory agregado por clase de impuesto para el desglose de cabecera.
type TaxCategory struct {
	Kind          entity.TaxKind
	CategoryID    string // "S" | "Z" (UN/ECE 5305)
	SchemeID      string // "VAT" | "SST" (UN/ECE 5153)
	Percent       decimal.Decimal
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
}

// Active indica si la categoría debe emitirse en la cabecera: base e importe
// distintos de cero tras redondear. Una categoría con impuesto cero se trata
// como "no aplica" y se suprime por completo (los validadores estrictos
// rechazan subtotales de cabecera sin efecto real).
func (c TaxCategory) Active() bool {
	return !money.IsZero3(c.TaxableAmount) && !money.IsZero3(c.TaxAmount)
}
