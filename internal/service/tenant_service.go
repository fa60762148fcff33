package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/cache"
	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

// maxUsernameSuffix bounds the search for a free login when earlier tenants
// of the same room still hold the derived username.
const maxUsernameSuffix = 50

// TenantDetails are the editable fields of a tenant.
type TenantDetails struct {
	Name           string `validate:"required,max=200"`
	Phone          string `validate:"max=32"`
	Rent           decimal.Decimal
	Maintenance    decimal.Decimal
	AdvancePaid    decimal.Decimal `label:"advance"`
	AgreementStart time.Time       `label:"agreement start"`
	AgreementEnd   time.Time       `label:"agreement end"`
}

func (d *TenantDetails) check() error {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	if err := validateInput(d); err != nil {
		return err
	}
	for field, v := range map[string]decimal.Decimal{
		"rent": d.Rent, "maintenance": d.Maintenance, "advance": d.AdvancePaid,
	} {
		if err := requireNonNegative(field, v); err != nil {
			return err
		}
	}
	if !d.Rent.IsPositive() {
		return invalid("rent must be greater than zero")
	}
	if d.AgreementStart.IsZero() {
		return invalid("agreement start is required")
	}
	if !d.AgreementEnd.IsZero() && d.AgreementEnd.Before(d.AgreementStart) {
		return invalid("agreement end must not be before agreement start")
	}
	return nil
}

// TenantInput is the form for moving a tenant into a room.
type TenantInput struct {
	BuildingID string `validate:"required" label:"building"`
	RoomID     string `validate:"required" label:"room"`
	TenantDetails
}

// CreatedTenant carries the one-time plaintext credentials for display.
type CreatedTenant struct {
	Tenant      *models.TenantView
	Credentials auth.Credentials
}

// TenantService manages tenancies.
type TenantService struct {
	store  storage.Store
	cache  cache.Cache
	events eventlog.Logger
}

func NewTenantService(store storage.Store, c cache.Cache, events eventlog.Logger) *TenantService {
	return &TenantService{store: store, cache: c, events: events}
}

// CreateTenant moves a tenant into an unoccupied room and generates their
// login. The room is marked occupied in the same transaction as the insert.
func (s *TenantService) CreateTenant(ctx context.Context, in TenantInput) (*CreatedTenant, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := in.TenantDetails.check(); err != nil {
		return nil, err
	}

	building, err := s.store.GetBuilding(ctx, in.BuildingID)
	if err != nil {
		return nil, err
	}
	room, err := s.store.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if room.BuildingID != building.ID {
		return nil, invalid("room %s is not in building %s", room.RoomNumber, building.Name)
	}
	if room.IsOccupied {
		return nil, fmt.Errorf("room %s: %w", room.RoomNumber, ErrRoomOccupied)
	}

	creds := auth.DeriveCredentials(room.RoomNumber, building.Code)
	creds.Username, err = s.freeUsername(ctx, creds.Username)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		return nil, err
	}

	t := &models.Tenant{
		BuildingID:     building.ID,
		RoomID:         room.ID,
		Name:           in.Name,
		Phone:          in.Phone,
		Username:       creds.Username,
		PasswordHash:   hash,
		Rent:           in.Rent,
		Maintenance:    in.Maintenance,
		AdvancePaid:    in.AdvancePaid,
		AgreementStart: in.AgreementStart,
		AgreementEnd:   in.AgreementEnd,
		Status:         models.TenantActive,
	}
	if err := s.store.CreateTenant(ctx, t); err != nil {
		slog.Error("CreateTenant failed", "room_id", room.ID, "error", err)
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("room %s was just let or login %s is taken: %w", room.RoomNumber, creds.Username, err)
		}
		return nil, err
	}

	slog.Info("Tenant created", "tenant_id", t.ID, "room_id", room.ID, "username", t.Username)
	invalidateSummaries(ctx, s.cache, building.ID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.TenantCreated),
		eventlog.WithSubject(t.ID),
		eventlog.WithData(map[string]string{"room": room.RoomNumber, "building": building.Code}),
	))

	return &CreatedTenant{
		Tenant: &models.TenantView{
			Tenant:       *t,
			RoomNumber:   room.RoomNumber,
			BuildingName: building.Name,
			BuildingCode: building.Code,
		},
		Credentials: creds,
	}, nil
}

// freeUsername returns base, or base with a numeric suffix when a previous
// tenant of the room still holds it.
func (s *TenantService) freeUsername(ctx context.Context, base string) (string, error) {
	for n := 1; n <= maxUsernameSuffix; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s.%d", base, n)
		}
		_, err := s.store.GetTenantByUsername(ctx, candidate)
		if errors.Is(err, storage.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free login for %s: %w", base, storage.ErrConflict)
}

// UpdateTenant changes contact details and agreement terms.
func (s *TenantService) UpdateTenant(ctx context.Context, id string, in TenantDetails) (*models.TenantView, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	current, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	t := current.Tenant
	t.Name = in.Name
	t.Phone = in.Phone
	t.Rent = in.Rent
	t.Maintenance = in.Maintenance
	t.AdvancePaid = in.AdvancePaid
	t.AgreementStart = in.AgreementStart
	t.AgreementEnd = in.AgreementEnd
	if err := s.store.UpdateTenant(ctx, &t); err != nil {
		slog.Error("UpdateTenant failed", "tenant_id", id, "error", err)
		return nil, err
	}

	slog.Info("Tenant updated", "tenant_id", id)
	invalidateSummaries(ctx, s.cache, t.BuildingID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.TenantUpdated),
		eventlog.WithSubject(id),
		eventlog.WithData(map[string]string{"rent": t.Rent.String(), "maintenance": t.Maintenance.String()}),
	))
	return s.store.GetTenant(ctx, id)
}

// VacateTenant ends a tenancy and frees the room. History is kept.
func (s *TenantService) VacateTenant(ctx context.Context, id string) error {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if !t.IsActive() {
		return invalid("tenant %s has already vacated", t.Name)
	}
	if err := s.store.VacateTenant(ctx, id); err != nil {
		slog.Error("VacateTenant failed", "tenant_id", id, "error", err)
		return err
	}

	slog.Info("Tenant vacated", "tenant_id", id, "room_id", t.RoomID)
	invalidateSummaries(ctx, s.cache, t.BuildingID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.TenantVacated),
		eventlog.WithSubject(id),
		eventlog.WithData(map[string]string{"room": t.RoomNumber}),
	))
	return nil
}

// DeleteTenant removes a tenant with their payments and document records.
// Document blobs are not touched; use DocumentService.Delete first to
// remove them.
func (s *TenantService) DeleteTenant(ctx context.Context, id string) error {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTenant(ctx, id); err != nil {
		slog.Error("DeleteTenant failed", "tenant_id", id, "error", err)
		return err
	}

	slog.Info("Tenant deleted", "tenant_id", id)
	invalidateSummaries(ctx, s.cache, t.BuildingID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.TenantDeleted),
		eventlog.WithSubject(id),
		eventlog.WithData(map[string]string{"name": t.Name, "room": t.RoomNumber}),
	))
	return nil
}

func (s *TenantService) GetTenant(ctx context.Context, id string) (*models.TenantView, error) {
	return s.store.GetTenant(ctx, id)
}

// ListTenants lists tenants of one building, or all when buildingID is empty.
func (s *TenantService) ListTenants(ctx context.Context, buildingID string) ([]*models.TenantView, error) {
	return s.store.ListTenants(ctx, buildingID)
}

// Activity returns the newest activity events about a tenant.
func (s *TenantService) Activity(ctx context.Context, tenantID string, limit int) ([]eventlog.Event, error) {
	return s.store.ListEvents(ctx, tenantID, limit)
}
