// Package ubl implementa la serialización del documento JoFotara a UBL 2.1.
//
// El orden de los elementos es un contrato duro del validador remoto:
// identidad → emisor → receptor → actividad → referencia de nota crédito →
// descuento de cabecera → TaxTotal → LegalMonetaryTotal → líneas. Emitir las
// líneas antes de los totales, u omitir el atributo currencyID en cualquier
// importe, produce un rechazo sin tolerancia parcial.
package ubl

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/jofotara"
	pkgjo "github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/money"
)

// Namespaces UBL 2.1 usados por el subconjunto JoFotara.
const (
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	NsExt     = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
)

// profileID perfil de reporte que exige el instructivo JoFotara.
const profileID = "reporting:1.0"

// XMLBuilderService serializa jofotara.Document a UBL 2.1.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del documento Invoice en el orden que exige el
// esquema. Los nombres van con prefijo literal (cbc:/cac:) y los namespaces
// se declaran una sola vez en la raíz; el encoder escapa todo texto libre.
func (s *XMLBuilderService) Build(doc *jofotara.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("ubl: documento nulo")
	}
	if doc.UUID == "" || doc.ID == "" {
		return nil, fmt.Errorf("ubl: documento sin identidad (ID/UUID)")
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ---- 1. Bloque de identidad (siempre primero)
	writeCbc(enc, "ProfileID", profileID)
	writeCbc(enc, "ID", doc.ID)
	writeCbc(enc, "UUID", doc.UUID)
	writeCbc(enc, "IssueDate", doc.IssueDate.Format("2006-01-02"))
	writeCbcWithAttr(enc, "InvoiceTypeCode", doc.TypeCode, "name", doc.PaymentMethodCode)
	if doc.Note != "" {
		writeCbc(enc, "Note", doc.Note)
	}
	writeCbc(enc, "DocumentCurrencyCode", doc.CurrencyCode)
	writeCbc(enc, "TaxCurrencyCode", doc.CurrencyCode)

	// Contador interno (ICV) como referencia adicional de documento
	open(enc, "cac:AdditionalDocumentReference")
	writeCbc(enc, "ID", "ICV")
	writeCbc(enc, "UUID", strconv.FormatInt(doc.ICV, 10))
	closeEl(enc, "cac:AdditionalDocumentReference")

	// ---- 2. Emisor
	s.writeSupplierParty(enc, doc)
	// ---- 3. Receptor
	s.writeCustomerParty(enc, doc)
	// ---- Actividad/sector del emisor
	s.writeSellerSupplierParty(enc, doc)
	// ---- 4. Referencia a la factura original (solo notas crédito)
	if doc.TypeCode == pkgjo.DocumentTypeCreditNote && doc.ReturnAgainst != "" {
		open(enc, "cac:BillingReference")
		open(enc, "cac:InvoiceDocumentReference")
		writeCbc(enc, "ID", doc.ReturnAgainst)
		closeEl(enc, "cac:InvoiceDocumentReference")
		closeEl(enc, "cac:BillingReference")
	}

	// ---- Descuento de cabecera (solo cuando NO está embebido en líneas)
	if doc.DiscountMode == jofotara.DiscountModeHeader {
		open(enc, "cac:AllowanceCharge")
		writeCbc(enc, "ChargeIndicator", "false")
		writeCbc(enc, "AllowanceChargeReason", "discount")
		writeAmount(enc, "Amount", doc.HeaderDiscount)
		closeEl(enc, "cac:AllowanceCharge")
	}

	// ---- 5. TaxTotal de cabecera: solo categorías activas
	s.writeTaxTotal(enc, doc)
	// ---- 6. LegalMonetaryTotal
	s.writeLegalMonetaryTotal(enc, doc)
	// ---- 7. Líneas (siempre después de los totales)
	singleLine := len(doc.Lines) == 1
	for i, line := range doc.Lines {
		s.writeInvoiceLine(enc, i+1, line, singleLine, doc.Totals.Payable)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *XMLBuilderService) writeSupplierParty(enc *xml.Encoder, doc *jofotara.Document) {
	open(enc, "cac:AccountingSupplierParty")
	open(enc, "cac:Party")

	open(enc, "cac:PostalAddress")
	if doc.SellerPostal.PostalZone != "" {
		writeCbc(enc, "PostalZone", doc.SellerPostal.PostalZone)
	}
	writeCbc(enc, "CountrySubentityCode", subentityOrDefault(doc.SellerPostal.CountrySubentity))
	open(enc, "cac:Country")
	writeCbc(enc, "IdentificationCode", countryOrDefault(doc.SellerPostal.CountryCode))
	closeEl(enc, "cac:Country")
	closeEl(enc, "cac:PostalAddress")

	open(enc, "cac:PartyTaxScheme")
	writeCbc(enc, "CompanyID", doc.SellerTaxNumber)
	open(enc, "cac:TaxScheme")
	writeCbc(enc, "ID", pkgjo.TaxSchemeVAT)
	closeEl(enc, "cac:TaxScheme")
	closeEl(enc, "cac:PartyTaxScheme")

	open(enc, "cac:PartyLegalEntity")
	writeCbc(enc, "RegistrationName", doc.SellerName)
	closeEl(enc, "cac:PartyLegalEntity")

	closeEl(enc, "cac:Party")
	closeEl(enc, "cac:AccountingSupplierParty")
}

func (s *XMLBuilderService) writeCustomerParty(enc *xml.Encoder, doc *jofotara.Document) {
	open(enc, "cac:AccountingCustomerParty")
	open(enc, "cac:Party")

	// El esquema exige el elemento de identificación con su schemeID aunque
	// el receptor sea consumidor final sin número fiscal (queda vacío).
	open(enc, "cac:PartyIdentification")
	writeCbcWithAttr(enc, "ID", doc.BuyerTaxNumber, "schemeID", "TN")
	closeEl(enc, "cac:PartyIdentification")

	open(enc, "cac:PostalAddress")
	writeCbc(enc, "CountrySubentityCode", subentityOrDefault(""))
	open(enc, "cac:Country")
	writeCbc(enc, "IdentificationCode", countryOrDefault(""))
	closeEl(enc, "cac:Country")
	closeEl(enc, "cac:PostalAddress")

	open(enc, "cac:PartyTaxScheme")
	if doc.BuyerTaxNumber != "" {
		writeCbc(enc, "CompanyID", doc.BuyerTaxNumber)
	}
	open(enc, "cac:TaxScheme")
	writeCbc(enc, "ID", pkgjo.TaxSchemeVAT)
	closeEl(enc, "cac:TaxScheme")
	closeEl(enc, "cac:PartyTaxScheme")

	open(enc, "cac:PartyLegalEntity")
	writeCbc(enc, "RegistrationName", doc.BuyerName)
	closeEl(enc, "cac:PartyLegalEntity")

	closeEl(enc, "cac:Party")
	closeEl(enc, "cac:AccountingCustomerParty")
}

func (s *XMLBuilderService) writeSellerSupplierParty(enc *xml.Encoder, doc *jofotara.Document) {
	open(enc, "cac:SellerSupplierParty")
	open(enc, "cac:Party")
	open(enc, "cac:PartyIdentification")
	writeCbc(enc, "ID", doc.ActivityNumber)
	closeEl(enc, "cac:PartyIdentification")
	closeEl(enc, "cac:Party")
	closeEl(enc, "cac:SellerSupplierParty")
}

func (s *XMLBuilderService) writeTaxTotal(enc *xml.Encoder, doc *jofotara.Document) {
	open(enc, "cac:TaxTotal")
	writeAmount(enc, "TaxAmount", doc.Totals.TaxTotal)
	for _, cat := range doc.Categories {
		open(enc, "cac:TaxSubtotal")
		writeAmount(enc, "TaxableAmount", cat.TaxableAmount)
		writeAmount(enc, "TaxAmount", cat.TaxAmount)
		writeTaxCategory(enc, cat.CategoryID, cat.Percent, cat.SchemeID)
		closeEl(enc, "cac:TaxSubtotal")
	}
	closeEl(enc, "cac:TaxTotal")
}

func (s *XMLBuilderService) writeLegalMonetaryTotal(enc *xml.Encoder, doc *jofotara.Document) {
	open(enc, "cac:LegalMonetaryTotal")
	writeAmount(enc, "TaxExclusiveAmount", doc.Totals.TaxExclusive)
	writeAmount(enc, "TaxInclusiveAmount", doc.Totals.TaxInclusive)
	if doc.DiscountMode == jofotara.DiscountModeHeader {
		writeAmount(enc, "AllowanceTotalAmount", doc.Totals.AllowanceTotal)
	}
	if !doc.Totals.Rounding.IsZero() {
		writeAmount(enc, "PayableRoundingAmount", doc.Totals.Rounding)
	}
	writeAmount(enc, "PayableAmount", doc.Totals.Payable)
	closeEl(enc, "cac:LegalMonetaryTotal")
}

func (s *XMLBuilderService) writeInvoiceLine(enc *xml.Encoder, num int, line jofotara.Line, singleLine bool, payable decimal.Decimal) {
	open(enc, "cac:InvoiceLine")
	writeCbc(enc, "ID", strconv.Itoa(num))
	writeCbcWithAttr(enc, "InvoicedQuantity", money.FormatQty(line.Quantity), "unitCode", line.UnitCode)
	writeAmountStr(enc, "LineExtensionAmount", money.Format(line.Net))

	// TaxTotal de línea con su(s) subtotal(es)
	open(enc, "cac:TaxTotal")
	writeAmountStr(enc, "TaxAmount", money.Format(line.TaxAmount))
	if singleLine {
		// facturas de una línea repiten el total a pagar como RoundingAmount
		writeAmountStr(enc, "RoundingAmount", money.Format(payable))
	}
	for _, sub := range line.Subtotals {
		open(enc, "cac:TaxSubtotal")
		writeAmountStr(enc, "TaxableAmount", money.Format(sub.TaxableAmount))
		writeAmountStr(enc, "TaxAmount", money.Format(sub.TaxAmount))
		writeTaxCategory(enc, sub.CategoryID, sub.Percent, sub.SchemeID)
		closeEl(enc, "cac:TaxSubtotal")
	}
	closeEl(enc, "cac:TaxTotal")

	open(enc, "cac:Item")
	writeCbc(enc, "Name", line.Name)
	closeEl(enc, "cac:Item")

	open(enc, "cac:Price")
	writeAmountStr(enc, "PriceAmount", money.Format(line.UnitPrice))
	open(enc, "cac:AllowanceCharge")
	writeCbc(enc, "ChargeIndicator", "false")
	writeCbc(enc, "AllowanceChargeReason", "DISCOUNT")
	writeAmountStr(enc, "Amount", money.Format(line.Discount))
	closeEl(enc, "cac:AllowanceCharge")
	closeEl(enc, "cac:Price")

	closeEl(enc, "cac:InvoiceLine")
}

// ── helpers de emisión ────────────────────────────────────────────────────────

func open(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}})
}

func closeEl(enc *xml.Encoder, name string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}})
}

func writeCbc(enc *xml.Encoder, local, value string) {
	name := xml.Name{Local: "cbc:" + local}
	_ = enc.EncodeToken(xml.StartElement{Name: name})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: name})
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	name := xml.Name{Local: "cbc:" + local}
	_ = enc.EncodeToken(xml.StartElement{
		Name: name,
		Attr: []xml.Attr{{Name: xml.Name{Local: attrLocal}, Value: attrValue}},
	})
	if value != "" {
		_ = enc.EncodeToken(xml.CharData(value))
	}
	_ = enc.EncodeToken(xml.EndElement{Name: name})
}

// writeAmount emite un importe monetario con su currencyID obligatorio.
func writeAmount(enc *xml.Encoder, local string, d decimal.Decimal) {
	writeAmountStr(enc, local, money.Format(d))
}

func writeAmountStr(enc *xml.Encoder, local, formatted string) {
	name := xml.Name{Local: "cbc:" + local}
	_ = enc.EncodeToken(xml.StartElement{
		Name: name,
		Attr: []xml.Attr{{Name: xml.Name{Local: "currencyID"}, Value: pkgjo.CurrencyAmountID}},
	})
	_ = enc.EncodeToken(xml.CharData(formatted))
	_ = enc.EncodeToken(xml.EndElement{Name: name})
}

func writeTaxCategory(enc *xml.Encoder, categoryID string, percent decimal.Decimal, schemeID string) {
	open(enc, "cac:TaxCategory")
	name := xml.Name{Local: "cbc:ID"}
	_ = enc.EncodeToken(xml.StartElement{
		Name: name,
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "schemeAgencyID"}, Value: pkgjo.SchemeAgencyID},
			{Name: xml.Name{Local: "schemeID"}, Value: pkgjo.SchemeID5305},
		},
	})
	_ = enc.EncodeToken(xml.CharData(categoryID))
	_ = enc.EncodeToken(xml.EndElement{Name: name})
	writeCbc(enc, "Percent", money.FormatPercent(percent))

	open(enc, "cac:TaxScheme")
	idName := xml.Name{Local: "cbc:ID"}
	_ = enc.EncodeToken(xml.StartElement{
		Name: idName,
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "schemeAgencyID"}, Value: pkgjo.SchemeAgencyID},
			{Name: xml.Name{Local: "schemeID"}, Value: pkgjo.SchemeID5153},
		},
	})
	_ = enc.EncodeToken(xml.CharData(schemeID))
	_ = enc.EncodeToken(xml.EndElement{Name: idName})
	closeEl(enc, "cac:TaxScheme")

	closeEl(enc, "cac:TaxCategory")
}

func subentityOrDefault(s string) string {
	if s == "" {
		return "JO-AM"
	}
	return s
}

func countryOrDefault(s string) string {
	if s == "" {
		return "JO"
	}
	return s
}
