package jofotara

import (
	"github.com/shopspring/decimal"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/money"
)

// AllocateDiscount reparte un descuento de documento entre las líneas en
// proporción al neto de cada una (antes del descuento de documento).
//
// Cada línea excepto la última recibe round3(D * nᵢ / Σn); la última recibe
// D menos la suma de las anteriores, de modo que la suma de las cuotas es
// EXACTAMENTE D aunque el redondeo deje residuo. El residuo lo absorbe
// siempre la última línea (desempate deliberado, no largest-remainder).
//
// Si Σn == 0 no hay base de reparto y todas las cuotas son cero.
func AllocateDiscount(discount decimal.Decimal, nets []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(nets))
	for i := range shares {
		shares[i] = money.Zero
	}
	if len(nets) == 0 || !discount.IsPositive() {
		return shares
	}

	total := money.Sum(nets...)
	if total.IsZero() {
		return shares
	}

	allocated := money.Zero
	for i := 0; i < len(nets)-1; i++ {
		share := money.Quantize(discount.Mul(nets[i]).Div(total))
		shares[i] = share
		allocated = allocated.Add(share)
	}
	// La última línea absorbe el residuo de redondeo: conservación exacta.
	shares[len(nets)-1] = discount.Sub(allocated)
	return shares
}
