// Package jofotara implementa el motor de transformación de una factura de
// venta (o nota crédito) al documento electrónico que exige JoFotara:
// reparto de descuentos, clasificación de impuestos, agregados monetarios y
// selección de códigos de documento. Todo el paquete es puro: una llamada
// toma un snapshot y produce un documento, sin I/O ni estado compartido.
package jofotara

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
	pkgjo "github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/jofotara"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/pkg/money"
)

// DiscountMode política de aplicación del descuento de documento. Se decide
// UNA vez por documento y se aplica de punta a punta: mezclar ambas vías
// duplica o pierde el descuento y los totales dejan de conciliar.
type DiscountMode string

const (
	// DiscountModeProRata reparte el descuento entre las líneas (§AllocateDiscount).
	DiscountModeProRata DiscountMode = "pro-rata"
	// DiscountModeHeader aplica el descuento una sola vez en cabecera
	// (AllowanceCharge + AllowanceTotalAmount).
	DiscountModeHeader DiscountMode = "header"
)

// ParseDiscountMode interpreta el valor de configuración; vacío o desconocido
// cae al modo pro-rata.
func ParseDiscountMode(s string) DiscountMode {
	if DiscountMode(s) == DiscountModeHeader {
		return DiscountModeHeader
	}
	return DiscountModeProRata
}

// TaxSubtotal desglose de impuesto dentro de una línea.
type TaxSubtotal struct {
	TaxableAmount decimal.Decimal
	TaxAmount     decimal.Decimal
	CategoryID    string // "S" | "Z"
	SchemeID      string // "VAT" | "SST"
	Percent       decimal.Decimal
}

// Line línea del documento, lista para serializar.
type Line struct {
	Name      string
	Quantity  decimal.Decimal
	UnitCode  string
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal // descuento de línea + cuota asignada del de documento
	Net       decimal.Decimal // neto tras descuentos
	TaxAmount decimal.Decimal // suma de subtotales de la línea
	Subtotals []TaxSubtotal
}

// Totals agregados monetarios del documento.
type Totals struct {
	TaxExclusive   decimal.Decimal // Σ netos de línea (menos descuento de cabecera en modo header)
	TaxTotal       decimal.Decimal // Σ impuestos de categorías activas
	TaxInclusive   decimal.Decimal // TaxExclusive + TaxTotal
	AllowanceTotal decimal.Decimal // descuento de cabecera (solo modo header)
	Rounding       decimal.Decimal // ajuste de redondeo externo
	Payable        decimal.Decimal // TaxInclusive + Rounding
}

// Document documento electrónico calculado, entrada del ensamblador XML.
type Document struct {
	ID        string // número de factura del negocio
	UUID      string
	ICV       int64
	IssueDate time.Time

	TypeCode          string // 388 factura | 381 nota crédito
	PaymentMethodCode string // 012 contado | 022 crédito
	CurrencyCode      string

	SellerName      string
	SellerTaxNumber string // normalizado (1-15 dígitos)
	SellerPostal    entity.Party

	BuyerName      string
	BuyerTaxNumber string // normalizado; puede quedar vacío (consumidor final)

	ActivityNumber string
	ReturnAgainst  string // solo notas crédito
	Note           string

	DiscountMode   DiscountMode
	HeaderDiscount decimal.Decimal // solo modo header

	Categories []TaxCategory // solo categorías activas, orden estable
	Totals     Totals
	Lines      []Line
}

// BuildOptions parámetros de construcción que no viven en el snapshot:
// política de descuento y datos del emisor que la configuración respalda
// cuando el host no los aporta.
type BuildOptions struct {
	DiscountMode    DiscountMode
	ActivityNumber  string
	SellerName      string // respaldo
	SellerTaxNumber string // respaldo
}

// Build ejecuta la transformación completa: validación, reparto de
// descuento, clasificación de impuestos, agregados y selección de códigos.
// Es determinista e idempotente: el mismo snapshot produce el mismo
// documento (la identidad UUID/ICV debe venir ya asignada en el borrador).
func Build(draft *entity.InvoiceDraft, opts BuildOptions) (*Document, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: borrador nulo", domain.ErrInvalidInput)
	}
	if draft.UUID == "" {
		return nil, fmt.Errorf("%w: la factura %s no tiene UUID asignado", domain.ErrInvalidInput, draft.ID)
	}

	// ── Validación dura: emisor y actividad ──────────────────────────────
	sellerTaxRaw := draft.Seller.TaxNumber
	if sellerTaxRaw == "" {
		sellerTaxRaw = opts.SellerTaxNumber
	}
	sellerTax, err := pkgjo.ValidateSellerTaxNumber(sellerTaxRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	activity := pkgjo.NormalizeActivityNumber(opts.ActivityNumber)
	if activity == "" {
		return nil, fmt.Errorf("%w: número de actividad del emisor no configurado", domain.ErrValidation)
	}

	sellerName := draft.Seller.RegistrationName
	if sellerName == "" {
		sellerName = opts.SellerName
	}

	mode := opts.DiscountMode
	if mode == "" {
		mode = DiscountModeProRata
	}

	// ── Cálculo por línea ────────────────────────────────────────────────
	defaultRate := DefaultStandardRate(draft)
	discount := draft.DiscountAmount
	if discount.IsNegative() {
		discount = money.Zero
	}

	preNets := make([]decimal.Decimal, len(draft.Items))
	for i, item := range draft.Items {
		preNets[i] = lineNet(item.Quantity.Mul(item.UnitPrice), item.DiscountAmount)
	}

	var shares []decimal.Decimal
	if mode == DiscountModeProRata {
		shares = AllocateDiscount(discount, preNets)
	} else {
		shares = make([]decimal.Decimal, len(draft.Items))
		for i := range shares {
			shares[i] = money.Zero
		}
	}

	lines := make([]Line, len(draft.Items))
	var stdCat, spCat, zeroCat TaxCategory
	netSum := money.Zero

	for i, item := range draft.Items {
		net := money.Quantize(lineNet(preNets[i], shares[i]))
		rates := ResolveRates(item, defaultRate)

		stdTax := money.PercentOf(net, rates.Standard)
		spTax := money.PercentOf(net, rates.Special)

		subtotals := []TaxSubtotal{lineStandardSubtotal(net, stdTax, rates)}
		if rates.Special.IsPositive() {
			subtotals = append(subtotals, TaxSubtotal{
				TaxableAmount: net,
				TaxAmount:     spTax,
				CategoryID:    pkgjo.TaxCategoryStandard,
				SchemeID:      pkgjo.TaxSchemeSpecial,
				Percent:       rates.Special,
			})
		}

		lines[i] = Line{
			Name:      itemName(item),
			Quantity:  item.Quantity,
			UnitCode:  pkgjo.UnitCode(item.Unit),
			UnitPrice: item.UnitPrice,
			Discount:  money.Quantize(item.DiscountAmount.Add(shares[i])),
			Net:       net,
			TaxAmount: stdTax.Add(spTax),
			Subtotals: subtotals,
		}
		netSum = netSum.Add(net)

		// Agregación por categoría: la base suma solo líneas con tarifa > 0
		// en esa clase; el porcentaje lo fija la primera línea contribuyente.
		switch {
		case rates.ZeroRated:
			accumulate(&zeroCat, entity.TaxKindZero, pkgjo.TaxCategoryZero, pkgjo.TaxSchemeVAT, money.Zero, net, money.Zero)
		case rates.Standard.IsPositive():
			accumulate(&stdCat, entity.TaxKindStandard, pkgjo.TaxCategoryStandard, pkgjo.TaxSchemeVAT, rates.Standard, net, stdTax)
		}
		if rates.Special.IsPositive() {
			accumulate(&spCat, entity.TaxKindSpecial, pkgjo.TaxCategoryStandard, pkgjo.TaxSchemeSpecial, rates.Special, net, spTax)
		}
	}

	// ── Categorías activas (supresión de las de impuesto cero) ───────────
	var categories []TaxCategory
	for _, c := range []TaxCategory{quantizeCategory(stdCat), quantizeCategory(spCat), quantizeCategory(zeroCat)} {
		if c.Active() {
			categories = append(categories, c)
		}
	}

	// ── Totales ──────────────────────────────────────────────────────────
	taxExclusive := money.Quantize(netSum)
	headerDiscount := money.Zero
	if mode == DiscountModeHeader {
		headerDiscount = money.Quantize(discount)
		taxExclusive = money.Quantize(decimal.Max(money.Zero, netSum.Sub(discount)))
	}

	taxTotal := money.Zero
	for _, c := range categories {
		taxTotal = taxTotal.Add(c.TaxAmount)
	}
	taxTotal = money.Quantize(taxTotal)

	taxInclusive := money.Quantize(taxExclusive.Add(taxTotal))
	rounding := money.Quantize(draft.RoundingAdjustment)
	payable := money.Quantize(taxInclusive.Add(rounding))

	doc := &Document{
		ID:                draft.ID,
		UUID:              draft.UUID,
		ICV:               draft.ICV,
		IssueDate:         draft.IssueDate,
		TypeCode:          pkgjo.DocumentTypeCode(draft.IsReturn),
		PaymentMethodCode: pkgjo.PaymentMethodCode(pkgjo.IsCashLike(draft.IsPOS, draft.PaidAmount, draft.Outstanding, draft.GrandTotal)),
		CurrencyCode:      currencyOrDefault(draft.Currency),
		SellerName:        sellerName,
		SellerTaxNumber:   sellerTax,
		SellerPostal:      draft.Seller,
		BuyerName:         buyerName(draft.Buyer),
		BuyerTaxNumber:    pkgjo.NormalizeTaxNumber(draft.Buyer.TaxNumber),
		ActivityNumber:    activity,
		Note:              draft.Note,
		DiscountMode:      mode,
		HeaderDiscount:    headerDiscount,
		Categories:        categories,
		Totals: Totals{
			TaxExclusive:   taxExclusive,
			TaxTotal:       taxTotal,
			TaxInclusive:   taxInclusive,
			AllowanceTotal: headerDiscount,
			Rounding:       rounding,
			Payable:        payable,
		},
		Lines: lines,
	}
	if draft.IsReturn {
		doc.ReturnAgainst = draft.ReturnAgainst
	}
	return doc, nil
}

// lineNet neto no negativo tras restar un descuento.
func lineNet(base, disc decimal.Decimal) decimal.Decimal {
	net := base.Sub(disc)
	if net.IsNegative() {
		return money.Zero
	}
	return net
}

func lineStandardSubtotal(net, stdTax decimal.Decimal, rates RateSet) TaxSubtotal {
	categoryID := pkgjo.TaxCategoryStandard
	if rates.ZeroRated || rates.Standard.IsZero() {
		categoryID = pkgjo.TaxCategoryZero
	}
	return TaxSubtotal{
		TaxableAmount: net,
		TaxAmount:     stdTax,
		CategoryID:    categoryID,
		SchemeID:      pkgjo.TaxSchemeVAT,
		Percent:       rates.Standard,
	}
}

func accumulate(cat *TaxCategory, kind entity.TaxKind, id, scheme string, percent, base, tax decimal.Decimal) {
	if cat.Kind == "" {
		cat.Kind = kind
		cat.CategoryID = id
		cat.SchemeID = scheme
		cat.Percent = percent
	}
	cat.TaxableAmount = cat.TaxableAmount.Add(base)
	cat.TaxAmount = cat.TaxAmount.Add(tax)
}

func quantizeCategory(c TaxCategory) TaxCategory {
	c.TaxableAmount = money.Quantize(c.TaxableAmount)
	c.TaxAmount = money.Quantize(c.TaxAmount)
	return c
}

func currencyOrDefault(cur string) string {
	if cur == "" {
		return pkgjo.CurrencyDocument
	}
	return strings.ToUpper(cur)
}

func itemName(item entity.LineItem) string {
	if item.Name == "" {
		return "Item"
	}
	return item.Name
}

func buyerName(p entity.Party) string {
	if p.RegistrationName == "" {
		return "Consumer"
	}
	return p.RegistrationName
}
