// Package money centraliza la aritmética decimal del motor de facturación.
//
// JoFotara valida los totales del documento contra la suma de las líneas con
// una precisión de 3 decimales; cualquier importe que salga por otra vía
// (float64 formateado a mano) acumula error y provoca rechazos del validador
// remoto. Por eso TODO importe monetario pasa por Quantize antes de emitirse.
package money

import (
	"github.com/shopspring/decimal"
)

// Places precisión monetaria exigida por JoFotara (JOD usa 3 decimales).
const Places = 3

// Zero es el cero decimal canónico.
var Zero = decimal.Zero

var hundred = decimal.NewFromInt(100)

// Quantize redondea a 3 decimales con half-up (0.1235 -> 0.124).
// shopspring redondea "half away from zero", que para importes no negativos
// equivale a half-up, el modo que exige el validador.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// PercentOf calcula Quantize(base * ratePercent / 100).
func PercentOf(base, ratePercent decimal.Decimal) decimal.Decimal {
	return Quantize(base.Mul(ratePercent).Div(hundred))
}

// Ratio devuelve part/total expresado como porcentaje a 3 decimales.
// Si total es cero devuelve cero (no hay base sobre la que calcular).
func Ratio(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return Zero
	}
	return Quantize(part.Div(total).Mul(hundred))
}

// Parse convierte una cadena a decimal de forma tolerante: una entrada no
// numérica o vacía se trata como cero. Los datos de origen llegan incompletos
// con frecuencia y el motor prefiere disponibilidad sobre fallo estricto.
func Parse(s string) decimal.Decimal {
	if s == "" {
		return Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero
	}
	return d
}

// Sum suma una serie de decimales sin redondeo intermedio.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// Format serializa un importe con exactamente 3 decimales ("23.200").
func Format(d decimal.Decimal) string {
	return Quantize(d).StringFixed(Places)
}

// FormatQty serializa una cantidad con 1 decimal ("2.0"), el formato que
// acepta el validador en cbc:InvoicedQuantity.
func FormatQty(d decimal.Decimal) string {
	return d.Round(1).StringFixed(1)
}

// FormatPercent serializa un porcentaje con 1 decimal ("16.0").
func FormatPercent(d decimal.Decimal) string {
	return d.Round(1).StringFixed(1)
}

// IsZero3 indica si el importe es cero tras redondear a 3 decimales.
// Se usa para suprimir categorías de impuesto sin efecto real.
func IsZero3(d decimal.Decimal) bool {
	return Quantize(d).IsZero()
}
