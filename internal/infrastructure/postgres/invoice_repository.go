package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/entity"
	"github.com/mostafael3ref/erpnext-jordan-invoicing/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository sobre las tablas del host
// (invoices + invoice_items). Usable con pool o tx (Querier).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// GetByID obtiene el snapshot completo de la factura (cabecera + líneas).
// Retorna (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.InvoiceDraft, error) {
	query := `
		SELECT id, issue_date, currency, is_return, return_against, is_pos,
		       discount_amount, rounding_adjustment,
		       net_total, tax_total, grand_total, paid_amount, outstanding,
		       note,
		       seller_name, seller_tax_no, seller_postal_zone, seller_subentity, seller_country,
		       buyer_name, buyer_tax_no,
		       uuid, icv, status, external_id, qr_code, last_error, last_response,
		       submitted_at, created_at, updated_at
		FROM invoices WHERE id = $1`

	var draft entity.InvoiceDraft
	var returnAgainst, note *string
	var sellerName, sellerTaxNo, sellerPostal, sellerSubentity, sellerCountry *string
	var buyerName, buyerTaxNo *string
	var docUUID, externalID, qrCode, lastError, lastResponse *string
	var icv *int64
	var submittedAt *time.Time

	err := r.q.QueryRow(ctx, query, id).Scan(
		&draft.ID, &draft.IssueDate, &draft.Currency, &draft.IsReturn, &returnAgainst, &draft.IsPOS,
		&draft.DiscountAmount, &draft.RoundingAdjustment,
		&draft.NetTotal, &draft.TaxTotal, &draft.GrandTotal, &draft.PaidAmount, &draft.Outstanding,
		&note,
		&sellerName, &sellerTaxNo, &sellerPostal, &sellerSubentity, &sellerCountry,
		&buyerName, &buyerTaxNo,
		&docUUID, &icv, &draft.Status, &externalID, &qrCode, &lastError, &lastResponse,
		&submittedAt, &draft.CreatedAt, &draft.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	draft.ReturnAgainst = deref(returnAgainst)
	draft.Note = deref(note)
	draft.Seller = entity.Party{
		RegistrationName: deref(sellerName),
		TaxNumber:        deref(sellerTaxNo),
		PostalZone:       deref(sellerPostal),
		CountrySubentity: deref(sellerSubentity),
		CountryCode:      deref(sellerCountry),
	}
	draft.Buyer = entity.Party{
		RegistrationName: deref(buyerName),
		TaxNumber:        deref(buyerTaxNo),
	}
	draft.UUID = deref(docUUID)
	if icv != nil {
		draft.ICV = *icv
	}
	draft.ExternalID = deref(externalID)
	draft.QRCode = deref(qrCode)
	draft.LastError = deref(lastError)
	draft.LastResponse = deref(lastResponse)
	draft.SubmittedAt = submittedAt

	items, err := r.getItems(ctx, id)
	if err != nil {
		return nil, err
	}
	draft.Items = items
	return &draft, nil
}

// getItems carga las líneas en el orden de captura.
func (r *InvoiceRepo) getItems(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	query := `
		SELECT name, quantity, unit, unit_price, discount_amount,
		       standard_rate, special_rate, zero_rated
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY position`

	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice items: %w", err)
	}
	defer rows.Close()

	var items []entity.LineItem
	for rows.Next() {
		var item entity.LineItem
		var unit *string
		var standardRate, specialRate *decimal.Decimal
		var zeroRated bool
		if err := rows.Scan(&item.Name, &item.Quantity, &unit, &item.UnitPrice,
			&item.DiscountAmount, &standardRate, &specialRate, &zeroRated); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		item.Unit = deref(unit)

		overrides := map[entity.TaxKind]decimal.Decimal{}
		if standardRate != nil {
			overrides[entity.TaxKindStandard] = *standardRate
		}
		if specialRate != nil {
			overrides[entity.TaxKindSpecial] = *specialRate
		}
		if zeroRated {
			overrides[entity.TaxKindZero] = decimal.Zero
		}
		if len(overrides) > 0 {
			item.TaxRateOverrides = overrides
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoice items: %w", err)
	}
	return items, nil
}

// SaveIdentity persiste UUID e ICV generados en el primer build. El UUID no
// se sobrescribe si ya existe (COALESCE): la identidad es estable.
func (r *InvoiceRepo) SaveIdentity(ctx context.Context, id, docUUID string, icv int64) error {
	query := `
		UPDATE invoices
		SET uuid       = COALESCE(uuid, $2),
		    icv        = COALESCE(icv, $3),
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, nullIfEmpty(docUUID), icv)
	if err != nil {
		return fmt.Errorf("save invoice identity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save invoice identity: factura %s no existe", id)
	}
	return nil
}

// NextICV deriva el siguiente contador interno del emisor. Es best-effort
// (MAX+1, no una secuencia durable): colisiones bajo concurrencia extrema
// son aceptables para el portal.
func (r *InvoiceRepo) NextICV(ctx context.Context) (int64, error) {
	var next int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(icv), 0) + 1 FROM invoices`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next icv: %w", err)
	}
	return next, nil
}

// SaveSubmission aplica el resultado del envío sobre el estado de la factura.
func (r *InvoiceRepo) SaveSubmission(ctx context.Context, id string, upd repository.SubmissionUpdate) error {
	query := `
		UPDATE invoices
		SET status        = $2,
		    external_id   = COALESCE($3, external_id),
		    qr_code       = COALESCE($4, qr_code),
		    last_error    = $5,
		    last_response = $6,
		    submitted_at  = $7,
		    updated_at    = now()
		WHERE id = $1`
	var submittedAt *time.Time
	if !upd.SubmittedAt.IsZero() {
		submittedAt = &upd.SubmittedAt
	}
	tag, err := r.q.Exec(ctx, query,
		id,
		upd.Status,
		nullIfEmpty(upd.ExternalID),
		nullIfEmpty(upd.QRCode),
		upd.ErrorDetail,
		upd.RawResponse,
		submittedAt,
	)
	if err != nil {
		return fmt.Errorf("save submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save submission: factura %s no existe", id)
	}
	return nil
}

// GetStatus devuelve solo los campos de estado de envío (ligero, para polling).
func (r *InvoiceRepo) GetStatus(ctx context.Context, id string) (*entity.InvoiceDraft, error) {
	query := `
		SELECT id, uuid, icv, status, external_id, qr_code, last_error, last_response, submitted_at
		FROM invoices WHERE id = $1`

	var draft entity.InvoiceDraft
	var docUUID, externalID, qrCode, lastError, lastResponse *string
	var icv *int64
	var submittedAt *time.Time

	err := r.q.QueryRow(ctx, query, id).Scan(
		&draft.ID, &docUUID, &icv, &draft.Status, &externalID, &qrCode,
		&lastError, &lastResponse, &submittedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice status: %w", err)
	}

	draft.UUID = deref(docUUID)
	if icv != nil {
		draft.ICV = *icv
	}
	draft.ExternalID = deref(externalID)
	draft.QRCode = deref(qrCode)
	draft.LastError = deref(lastError)
	draft.LastResponse = deref(lastResponse)
	draft.SubmittedAt = submittedAt
	return &draft, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
