package jofotara_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/jofotara"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDocumentTypeCode(t *testing.T) {
	assert.Equal(t, "388", jofotara.DocumentTypeCode(false))
	assert.Equal(t, "381", jofotara.DocumentTypeCode(true))
}

func TestPaymentMethodCode(t *testing.T) {
	assert.Equal(t, "012", jofotara.PaymentMethodCode(true))
	assert.Equal(t, "022", jofotara.PaymentMethodCode(false))
}

func TestIsCashLike(t *testing.T) {
	tests := []struct {
		name        string
		isPOS       bool
		paid        string
		outstanding string
		grand       string
		expected    bool
	}{
		{"punto de venta", true, "0", "100", "100", true},
		{"pago cubre el total", false, "100", "0", "100", true},
		{"saldo pendiente cero", false, "0", "0", "100", true},
		{"saldo pendiente ~cero", false, "99.9995", "0.0005", "100", true},
		{"crédito con saldo", false, "40", "60", "100", false},
		{"sin pago y con saldo", false, "0", "100", "100", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jofotara.IsCashLike(tt.isPOS, dec(tt.paid), dec(tt.outstanding), dec(tt.grand))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestUnitCode(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"Unit", "PCE"},
		{"  pcs ", "PCE"},
		{"EACH", "PCE"},
		{"قطعة", "PCE"},
		{"وحدة", "PCE"},
		{"Box", "BOX"},
		{"صندوق", "BOX"},
		{"KG", "KGM"},
		{"كيلو", "KGM"},
		{"متر مربع", "MTK"},
		{"Liter", "LTR"},
		{"لتر", "LTR"},
		{"hour", "HUR"},
		{"يوم", "DAY"},
		// no reconocido -> por defecto pieza, nunca error
		{"furlong", "PCE"},
		{"", "PCE"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, jofotara.UnitCode(tt.raw), "UnitCode(%q)", tt.raw)
	}
}

func TestValidateSellerTaxNumber(t *testing.T) {
	// escenario de la especificación: "JO-12-345" -> "12345"
	got, err := jofotara.ValidateSellerTaxNumber("JO-12-345")
	require.NoError(t, err)
	assert.Equal(t, "12345", got)

	// un solo dígito es válido
	got, err = jofotara.ValidateSellerTaxNumber("7")
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	// 15 dígitos exactos es válido
	got, err = jofotara.ValidateSellerTaxNumber("123456789012345")
	require.NoError(t, err)
	assert.Len(t, got, 15)

	// sin dígitos -> fallo duro
	_, err = jofotara.ValidateSellerTaxNumber("N/A")
	require.Error(t, err)

	_, err = jofotara.ValidateSellerTaxNumber("")
	require.Error(t, err)

	// más de 15 dígitos -> fallo duro
	_, err = jofotara.ValidateSellerTaxNumber("1234567890123456")
	require.Error(t, err)
}

func TestNormalizeActivityNumber(t *testing.T) {
	assert.Equal(t, "10956", jofotara.NormalizeActivityNumber(" 10-956 "))
	assert.Equal(t, "", jofotara.NormalizeActivityNumber("sin dígitos"))
}
