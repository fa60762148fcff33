package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

const paymentColumns = `p.id, p.tenant_id, p.amount, p.paid_on, p.billing_month,
	p.payment_type, p.method, p.notes, p.external_ref, p.created_at`

// CreatePayment appends a payment to the ledger. A duplicate ExternalRef
// yields storage.ErrConflict.
func (s *Store) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO payments (id, tenant_id, amount, paid_on, billing_month,
			payment_type, method, notes, external_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, p.TenantID, p.Amount, formatDate(p.PaidOn), nullString(p.BillingMonth),
		string(p.Type), string(p.Method), p.Notes, nullString(p.ExternalRef), p.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert payment", err)
	}
	return nil
}

func scanPaymentInto(p *models.Payment, extra []any, row scanner) error {
	var paidOn string
	var billingMonth, externalRef sql.NullString
	var paymentType, method string
	dest := []any{
		&p.ID, &p.TenantID, &p.Amount, &paidOn, &billingMonth,
		&paymentType, &method, &p.Notes, &externalRef, &p.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	var err error
	if p.PaidOn, err = parseDate(paidOn); err != nil {
		return err
	}
	p.BillingMonth = billingMonth.String
	p.ExternalRef = externalRef.String
	p.Type = models.PaymentType(paymentType)
	p.Method = models.PaymentMethod(method)
	return nil
}

// GetPayment retrieves a payment by ID.
func (s *Store) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT "+paymentColumns+" FROM payments p WHERE p.id = ?"), id)
	p := &models.Payment{}
	err := scanPaymentInto(p, nil, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// ListPayments returns a tenant's payments, newest first.
func (s *Store) ListPayments(ctx context.Context, tenantID string) ([]*models.Payment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT "+paymentColumns+` FROM payments p WHERE p.tenant_id = ?
		ORDER BY p.paid_on DESC, p.created_at DESC`), tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := scanPaymentInto(p, nil, rows); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// ListPaymentsForTenants returns payments joined with tenant and room labels,
// newest first.
func (s *Store) ListPaymentsForTenants(ctx context.Context, f storage.PaymentFilter) ([]*models.PaymentView, error) {
	query := "SELECT " + paymentColumns + `, t.name, r.room_number, t.building_id
		FROM payments p
		JOIN tenants t ON t.id = p.tenant_id
		JOIN rooms r ON r.id = t.room_id
		WHERE 1 = 1`
	var args []any
	if len(f.TenantIDs) > 0 {
		query += " AND p.tenant_id IN (" + placeholders(len(f.TenantIDs)) + ")"
		for _, id := range f.TenantIDs {
			args = append(args, id)
		}
	}
	if !f.From.IsZero() {
		query += " AND p.paid_on >= ?"
		args = append(args, formatDate(f.From))
	}
	if !f.To.IsZero() {
		query += " AND p.paid_on <= ?"
		args = append(args, formatDate(f.To))
	}
	query += " ORDER BY p.paid_on DESC, p.created_at DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*models.PaymentView
	for rows.Next() {
		v := &models.PaymentView{}
		if err := scanPaymentInto(&v.Payment, []any{&v.TenantName, &v.RoomNumber, &v.BuildingID}, rows); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

// DeletePayment removes a payment.
func (s *Store) DeletePayment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM payments WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete payment: %w", err)
	}
	return affected(res, "payment", id)
}
