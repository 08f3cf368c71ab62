package jofotara

import (
	"fmt"
	"unicode"
)

// maxTaxNumberDigits longitud máxima del número de registro fiscal jordano.
const maxTaxNumberDigits = 15

// NormalizeTaxNumber elimina todo carácter no numérico del número fiscal.
// "JO-12-345" -> "12345". No valida longitud; ver ValidateSellerTaxNumber.
func NormalizeTaxNumber(raw string) string {
	var out []rune
	for _, r := range raw {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// ValidateSellerTaxNumber normaliza y valida el número fiscal del emisor.
// JoFotara exige entre 1 y 15 dígitos; fuera de ese rango el documento no se
// construye (fallo duro de validación).
func ValidateSellerTaxNumber(raw string) (string, error) {
	digits := NormalizeTaxNumber(raw)
	if len(digits) == 0 {
		return "", fmt.Errorf("jofotara: número fiscal del emisor vacío o sin dígitos (%q)", raw)
	}
	if len(digits) > maxTaxNumberDigits {
		return "", fmt.Errorf("jofotara: número fiscal del emisor excede %d dígitos (%q)", maxTaxNumberDigits, raw)
	}
	return digits, nil
}

// NormalizeActivityNumber extrae los dígitos del número de actividad
// (identificador de sector que JoFotara exige en cabeceras y en el XML).
func NormalizeActivityNumber(raw string) string {
	return NormalizeTaxNumber(raw)
}
