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

const tenantColumns = `t.id, t.building_id, t.room_id, t.name, t.phone, t.username,
	t.password_hash, t.rent, t.maintenance, t.advance_paid, t.agreement_start,
	t.agreement_end, t.status, t.created_at`

const tenantViewQuery = `SELECT ` + tenantColumns + `, r.room_number, b.name, b.code
	FROM tenants t
	JOIN rooms r ON r.id = t.room_id
	JOIN buildings b ON b.id = t.building_id`

// CreateTenant inserts the tenant and marks its room occupied in one
// transaction. A room that is already occupied yields storage.ErrConflict.
func (s *Store) CreateTenant(ctx context.Context, t *models.Tenant) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	if t.Status == "" {
		t.Status = models.TenantActive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.rebind(
		"UPDATE rooms SET is_occupied = ? WHERE id = ? AND is_occupied = ?"),
		true, t.RoomID, false,
	)
	if err != nil {
		return fmt.Errorf("failed to occupy room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s unavailable: %w", t.RoomID, storage.ErrConflict)
	}

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO tenants (id, building_id, room_id, name, phone, username,
			password_hash, rent, maintenance, advance_paid, agreement_start,
			agreement_end, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.BuildingID, t.RoomID, t.Name, t.Phone, t.Username,
		t.PasswordHash, t.Rent, t.Maintenance, t.AdvancePaid,
		formatDate(t.AgreementStart), nullDate(t.AgreementEnd), string(t.Status), t.CreatedAt,
	)
	if err != nil {
		return wrapWriteErr("insert tenant", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanTenantInto(t *models.Tenant, extra []any, row scanner) error {
	var start string
	var end sql.NullString
	var status string
	dest := []any{
		&t.ID, &t.BuildingID, &t.RoomID, &t.Name, &t.Phone, &t.Username,
		&t.PasswordHash, &t.Rent, &t.Maintenance, &t.AdvancePaid, &start,
		&end, &status, &t.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	var err error
	if t.AgreementStart, err = parseDate(start); err != nil {
		return err
	}
	if t.AgreementEnd, err = parseNullDate(end); err != nil {
		return err
	}
	t.Status = models.TenantStatus(status)
	return nil
}

func scanTenantView(row scanner) (*models.TenantView, error) {
	v := &models.TenantView{}
	if err := scanTenantInto(&v.Tenant, []any{&v.RoomNumber, &v.BuildingName, &v.BuildingCode}, row); err != nil {
		return nil, err
	}
	return v, nil
}

// GetTenant retrieves a tenant with its room and building labels.
func (s *Store) GetTenant(ctx context.Context, id string) (*models.TenantView, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(tenantViewQuery+" WHERE t.id = ?"), id)
	v, err := scanTenantView(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenant %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return v, nil
}

// GetTenantByUsername retrieves a tenant by login name.
func (s *Store) GetTenantByUsername(ctx context.Context, username string) (*models.Tenant, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT "+tenantColumns+" FROM tenants t WHERE t.username = ?"), username)
	t := &models.Tenant{}
	err := scanTenantInto(t, nil, row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tenant %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant by username: %w", err)
	}
	return t, nil
}

// ListTenants returns tenants ordered by building and room number.
func (s *Store) ListTenants(ctx context.Context, buildingID string) ([]*models.TenantView, error) {
	query := tenantViewQuery
	var args []any
	if buildingID != "" {
		query += " WHERE t.building_id = ?"
		args = append(args, buildingID)
	}
	query += " ORDER BY b.name, r.room_number, t.created_at"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.TenantView
	for rows.Next() {
		v, err := scanTenantView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tenants: %w", err)
	}
	return tenants, nil
}

// UpdateTenant updates the contact details and agreement terms of a tenant.
// Room, username and status are not changed.
func (s *Store) UpdateTenant(ctx context.Context, t *models.Tenant) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE tenants SET name = ?, phone = ?, rent = ?, maintenance = ?,
			advance_paid = ?, agreement_start = ?, agreement_end = ?
		WHERE id = ?`),
		t.Name, t.Phone, t.Rent, t.Maintenance, t.AdvancePaid,
		formatDate(t.AgreementStart), nullDate(t.AgreementEnd), t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	return affected(res, "tenant", t.ID)
}

// VacateTenant marks an active tenant vacated and frees the room. Vacating
// an already vacated tenant is a no-op.
func (s *Store) VacateTenant(ctx context.Context, id string) error {
	return s.releaseTenant(ctx, id, s.rebind(
		"UPDATE tenants SET status = ? WHERE id = ? AND status = ?"),
		string(models.TenantVacated), id, string(models.TenantActive))
}

// DeleteTenant removes the tenant with its payments and documents. The room
// is freed when the tenant was still active.
func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	return s.releaseTenant(ctx, id, s.rebind("DELETE FROM tenants WHERE id = ?"), id)
}

// releaseTenant runs stmt and frees the tenant's room if the tenant was
// active and stmt changed a row.
func (s *Store) releaseTenant(ctx context.Context, id, stmt string, args ...any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var roomID, status string
	err = tx.QueryRowContext(ctx, s.rebind(
		"SELECT room_id, status FROM tenants WHERE id = ?"), id).Scan(&roomID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("tenant %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get tenant: %w", err)
	}

	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}

	if n > 0 && models.TenantStatus(status) == models.TenantActive {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"UPDATE rooms SET is_occupied = ? WHERE id = ?"), false, roomID); err != nil {
			return fmt.Errorf("failed to free room: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
