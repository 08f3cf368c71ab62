package ubl_test

import (
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/infrastructure/ubl"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func baseDraft() *entity.InvoiceDraft {
	return &entity.InvoiceDraft{
		ID:          "SINV-001",
		UUID:        "3cf35450-72db-4d28-a17b-8e1aabb81e40",
		ICV:         7,
		IssueDate:   time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Currency:    "JOD",
		NetTotal:    dec("20"),
		TaxTotal:    dec("3.2"),
		GrandTotal:  dec("23.2"),
		Outstanding: dec("23.2"),
		Seller: entity.Party{
			RegistrationName: "Mi Empresa S.A.",
			TaxNumber:        "12345",
			PostalZone:       "11118",
			CountrySubentity: "JO-AM",
			CountryCode:      "JO",
		},
		Buyer: entity.Party{RegistrationName: "Cliente Final"},
		Items: []entity.LineItem{
			{Name: "Producto", Quantity: dec("2"), Unit: "pcs", UnitPrice: dec("10")},
		},
	}
}

func baseOpts() jofotara.BuildOptions {
	return jofotara.BuildOptions{ActivityNumber: "123456"}
}

// render construye el documento y lo devuelve parseado para inspección.
func render(t *testing.T, draft *entity.InvoiceDraft, opts jofotara.BuildOptions) *etree.Document {
	t.Helper()
	model, err := jofotara.Build(draft, opts)
	require.NoError(t, err)
	out, err := ubl.NewXMLBuilderService().Build(model)
	require.NoError(t, err)

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(out))
	return parsed
}

func fullTag(el *etree.Element) string {
	if el.Space != "" {
		return el.Space + ":" + el.Tag
	}
	return el.Tag
}

// ── orden del esquema ─────────────────────────────────────────────────────────

func TestBuild_OrdenDeElementos(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())
	root := parsed.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Invoice", root.Tag)

	var got []string
	for _, child := range root.ChildElements() {
		got = append(got, fullTag(child))
	}
	assert.Equal(t, []string{
		"cbc:ProfileID",
		"cbc:ID",
		"cbc:UUID",
		"cbc:IssueDate",
		"cbc:InvoiceTypeCode",
		"cbc:DocumentCurrencyCode",
		"cbc:TaxCurrencyCode",
		"cac:AdditionalDocumentReference",
		"cac:AccountingSupplierParty",
		"cac:AccountingCustomerParty",
		"cac:SellerSupplierParty",
		"cac:TaxTotal",
		"cac:LegalMonetaryTotal",
		"cac:InvoiceLine",
	}, got)
}

func TestBuild_BloqueDeIdentidad(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())

	assert.Equal(t, "reporting:1.0", parsed.FindElement("//cbc:ProfileID").Text())
	assert.Equal(t, "SINV-001", parsed.FindElement("/Invoice/cbc:ID").Text())
	assert.Equal(t, "3cf35450-72db-4d28-a17b-8e1aabb81e40", parsed.FindElement("/Invoice/cbc:UUID").Text())
	assert.Equal(t, "2026-03-15", parsed.FindElement("//cbc:IssueDate").Text())
	assert.Equal(t, "JOD", parsed.FindElement("//cbc:DocumentCurrencyCode").Text())
	assert.Equal(t, "JOD", parsed.FindElement("//cbc:TaxCurrencyCode").Text())

	// 388 = factura; name lleva el método de pago (022 = crédito: saldo pendiente)
	typeCode := parsed.FindElement("//cbc:InvoiceTypeCode")
	assert.Equal(t, "388", typeCode.Text())
	assert.Equal(t, "022", typeCode.SelectAttrValue("name", ""))

	icvRef := parsed.FindElement("//cac:AdditionalDocumentReference")
	require.NotNil(t, icvRef)
	assert.Equal(t, "ICV", icvRef.FindElement("cbc:ID").Text())
	assert.Equal(t, "7", icvRef.FindElement("cbc:UUID").Text())
}

func TestBuild_TodosLosImportesLlevanCurrencyID(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())

	count := 0
	for _, el := range parsed.FindElements("//*") {
		if !strings.HasSuffix(el.Tag, "Amount") {
			continue
		}
		count++
		assert.Equal(t, "JO", el.SelectAttrValue("currencyID", ""),
			"elemento %s sin currencyID correcto", fullTag(el))
	}
	assert.Greater(t, count, 5)
}

// ── partes ────────────────────────────────────────────────────────────────────

func TestBuild_Emisor(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())
	supplier := parsed.FindElement("//cac:AccountingSupplierParty/cac:Party")
	require.NotNil(t, supplier)

	assert.Equal(t, "11118", supplier.FindElement("cac:PostalAddress/cbc:PostalZone").Text())
	assert.Equal(t, "JO-AM", supplier.FindElement("cac:PostalAddress/cbc:CountrySubentityCode").Text())
	assert.Equal(t, "JO", supplier.FindElement("cac:PostalAddress/cac:Country/cbc:IdentificationCode").Text())
	assert.Equal(t, "12345", supplier.FindElement("cac:PartyTaxScheme/cbc:CompanyID").Text())
	assert.Equal(t, "VAT", supplier.FindElement("cac:PartyTaxScheme/cac:TaxScheme/cbc:ID").Text())
	assert.Equal(t, "Mi Empresa S.A.", supplier.FindElement("cac:PartyLegalEntity/cbc:RegistrationName").Text())

	activity := parsed.FindElement("//cac:SellerSupplierParty/cac:Party/cac:PartyIdentification/cbc:ID")
	require.NotNil(t, activity)
	assert.Equal(t, "123456", activity.Text())
}

func TestBuild_ReceptorConsumidorFinal(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())
	customer := parsed.FindElement("//cac:AccountingCustomerParty/cac:Party")
	require.NotNil(t, customer)

	// la identificación va presente pero vacía cuando no hay número fiscal
	id := customer.FindElement("cac:PartyIdentification/cbc:ID")
	require.NotNil(t, id)
	assert.Equal(t, "TN", id.SelectAttrValue("schemeID", ""))
	assert.Empty(t, id.Text())

	assert.Nil(t, customer.FindElement("cac:PartyTaxScheme/cbc:CompanyID"))
	assert.Equal(t, "Cliente Final", customer.FindElement("cac:PartyLegalEntity/cbc:RegistrationName").Text())
}

func TestBuild_ReceptorConRegistro(t *testing.T) {
	draft := baseDraft()
	draft.Buyer.TaxNumber = "JO-987-654"
	parsed := render(t, draft, baseOpts())

	customer := parsed.FindElement("//cac:AccountingCustomerParty/cac:Party")
	assert.Equal(t, "987654", customer.FindElement("cac:PartyIdentification/cbc:ID").Text())
	assert.Equal(t, "987654", customer.FindElement("cac:PartyTaxScheme/cbc:CompanyID").Text())
}

// ── nota crédito ──────────────────────────────────────────────────────────────

func TestBuild_NotaCredito(t *testing.T) {
	draft := baseDraft()
	draft.IsReturn = true
	draft.ReturnAgainst = "SINV-000"
	parsed := render(t, draft, baseOpts())

	typeCode := parsed.FindElement("//cbc:InvoiceTypeCode")
	assert.Equal(t, "381", typeCode.Text())

	ref := parsed.FindElement("//cac:BillingReference/cac:InvoiceDocumentReference/cbc:ID")
	require.NotNil(t, ref)
	assert.Equal(t, "SINV-000", ref.Text())
}

func TestBuild_FacturaSinBillingReference(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())
	assert.Nil(t, parsed.FindElement("//cac:BillingReference"))
}

// ── descuento de cabecera ─────────────────────────────────────────────────────

func TestBuild_DescuentoCabecera(t *testing.T) {
	draft := baseDraft()
	draft.DiscountAmount = dec("2")
	opts := baseOpts()
	opts.DiscountMode = jofotara.DiscountModeHeader
	parsed := render(t, draft, opts)

	ac := parsed.FindElement("/Invoice/cac:AllowanceCharge")
	require.NotNil(t, ac)
	assert.Equal(t, "false", ac.FindElement("cbc:ChargeIndicator").Text())
	assert.Equal(t, "discount", ac.FindElement("cbc:AllowanceChargeReason").Text())
	assert.Equal(t, "2.000", ac.FindElement("cbc:Amount").Text())

	lmt := parsed.FindElement("//cac:LegalMonetaryTotal")
	assert.Equal(t, "18.000", lmt.FindElement("cbc:TaxExclusiveAmount").Text())
	assert.Equal(t, "2.000", lmt.FindElement("cbc:AllowanceTotalAmount").Text())
}

func TestBuild_ProRataSinAllowanceDeCabecera(t *testing.T) {
	draft := baseDraft()
	draft.DiscountAmount = dec("2")
	parsed := render(t, draft, baseOpts())

	assert.Nil(t, parsed.FindElement("/Invoice/cac:AllowanceCharge"))
	assert.Nil(t, parsed.FindElement("//cac:LegalMonetaryTotal/cbc:AllowanceTotalAmount"))
	// el descuento queda embebido en la línea
	lineDisc := parsed.FindElement("//cac:InvoiceLine/cac:Price/cac:AllowanceCharge/cbc:Amount")
	assert.Equal(t, "2.000", lineDisc.Text())
}

// ── impuestos y totales ───────────────────────────────────────────────────────

func TestBuild_TaxTotalDeCabecera(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())

	taxTotal := parsed.FindElement("/Invoice/cac:TaxTotal")
	require.NotNil(t, taxTotal)
	assert.Equal(t, "3.200", taxTotal.FindElement("cbc:TaxAmount").Text())

	subs := taxTotal.FindElements("cac:TaxSubtotal")
	require.Len(t, subs, 1)
	assert.Equal(t, "20.000", subs[0].FindElement("cbc:TaxableAmount").Text())
	assert.Equal(t, "3.200", subs[0].FindElement("cbc:TaxAmount").Text())

	cat := subs[0].FindElement("cac:TaxCategory")
	catID := cat.FindElement("cbc:ID")
	assert.Equal(t, "S", catID.Text())
	assert.Equal(t, "6", catID.SelectAttrValue("schemeAgencyID", ""))
	assert.Equal(t, "UN/ECE 5305", catID.SelectAttrValue("schemeID", ""))
	assert.Equal(t, "16.0", cat.FindElement("cbc:Percent").Text())

	schemeID := cat.FindElement("cac:TaxScheme/cbc:ID")
	assert.Equal(t, "VAT", schemeID.Text())
	assert.Equal(t, "UN/ECE 5153", schemeID.SelectAttrValue("schemeID", ""))
}

func TestBuild_LegalMonetaryTotal(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())
	lmt := parsed.FindElement("//cac:LegalMonetaryTotal")
	require.NotNil(t, lmt)

	assert.Equal(t, "20.000", lmt.FindElement("cbc:TaxExclusiveAmount").Text())
	assert.Equal(t, "23.200", lmt.FindElement("cbc:TaxInclusiveAmount").Text())
	assert.Equal(t, "23.200", lmt.FindElement("cbc:PayableAmount").Text())
	assert.Nil(t, lmt.FindElement("cbc:PayableRoundingAmount"))
}

func TestBuild_AjusteDeRedondeo(t *testing.T) {
	draft := baseDraft()
	draft.RoundingAdjustment = dec("-0.2")
	parsed := render(t, draft, baseOpts())

	lmt := parsed.FindElement("//cac:LegalMonetaryTotal")
	assert.Equal(t, "-0.200", lmt.FindElement("cbc:PayableRoundingAmount").Text())
	assert.Equal(t, "23.000", lmt.FindElement("cbc:PayableAmount").Text())
}

// ── líneas ────────────────────────────────────────────────────────────────────

func TestBuild_Linea(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())
	line := parsed.FindElement("//cac:InvoiceLine")
	require.NotNil(t, line)

	assert.Equal(t, "1", line.FindElement("cbc:ID").Text())

	qty := line.FindElement("cbc:InvoicedQuantity")
	assert.Equal(t, "2.0", qty.Text())
	assert.Equal(t, "PCE", qty.SelectAttrValue("unitCode", ""))

	assert.Equal(t, "20.000", line.FindElement("cbc:LineExtensionAmount").Text())
	assert.Equal(t, "Producto", line.FindElement("cac:Item/cbc:Name").Text())
	assert.Equal(t, "10.000", line.FindElement("cac:Price/cbc:PriceAmount").Text())

	sub := line.FindElement("cac:TaxTotal/cac:TaxSubtotal")
	require.NotNil(t, sub)
	assert.Equal(t, "20.000", sub.FindElement("cbc:TaxableAmount").Text())
	assert.Equal(t, "3.200", sub.FindElement("cbc:TaxAmount").Text())
}

func TestBuild_LineaUnicaRepitePagable(t *testing.T) {
	parsed := render(t, baseDraft(), baseOpts())
	rounding := parsed.FindElement("//cac:InvoiceLine/cac:TaxTotal/cbc:RoundingAmount")
	require.NotNil(t, rounding)
	assert.Equal(t, "23.200", rounding.Text())
}

func TestBuild_VariasLineasSinRoundingDeLinea(t *testing.T) {
	draft := baseDraft()
	draft.Items = append(draft.Items, entity.LineItem{
		Name: "Otro", Quantity: dec("1"), Unit: "pcs", UnitPrice: dec("5"),
	})
	parsed := render(t, draft, baseOpts())

	assert.Len(t, parsed.FindElements("//cac:InvoiceLine"), 2)
	assert.Nil(t, parsed.FindElement("//cac:InvoiceLine/cac:TaxTotal/cbc:RoundingAmount"))
}

func TestBuild_NotaEscapada(t *testing.T) {
	draft := baseDraft()
	draft.Note = `Entrega <urgente> & "frágil"`
	model, err := jofotara.Build(draft, baseOpts())
	require.NoError(t, err)
	out, err := ubl.NewXMLBuilderService().Build(model)
	require.NoError(t, err)

	raw := string(out)
	assert.NotContains(t, raw, "<urgente>")
	assert.Contains(t, raw, "&lt;urgente&gt;")

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(out))
	assert.Equal(t, `Entrega <urgente> & "frágil"`, parsed.FindElement("//cbc:Note").Text())
}

func TestBuild_DocumentoIncompleto(t *testing.T) {
	svc := ubl.NewXMLBuilderService()

	_, err := svc.Build(nil)
	assert.Error(t, err)

	_, err = svc.Build(&jofotara.Document{ID: "SINV-001"})
	assert.Error(t, err)
}

// ── minificado ────────────────────────────────────────────────────────────────

func TestMinify(t *testing.T) {
	input := []byte("<a>\n  <b>uno</b>\r\n\t<c> dos </c>\n</a>\n")
	out := string(ubl.Minify(input))

	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "\t")
	assert.NotContains(t, out, "> <")
	assert.Contains(t, out, "<b>uno</b>")
}

func TestMinify_SalidaDelEnsamblador(t *testing.T) {
	model, err := jofotara.Build(baseDraft(), baseOpts())
	require.NoError(t, err)
	out, err := ubl.NewXMLBuilderService().Build(model)
	require.NoError(t, err)

	min := ubl.Minify(out)
	assert.NotContains(t, string(min), "\n")

	parsed := etree.NewDocument()
	require.NoError(t, parsed.ReadFromBytes(min))
	assert.Equal(t, "SINV-001", parsed.FindElement("/Invoice/cbc:ID").Text())
}
