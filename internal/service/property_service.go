package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/rentroll/internal/cache"
	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/storage"
)

// BuildingInput is the form for creating a building.
type BuildingInput struct {
	Name        string `validate:"required,max=200"`
	Address     string `validate:"max=500"`
	Description string `validate:"max=2000"`
}

// BuildingOverview is the read model behind the building page.
type BuildingOverview struct {
	Building *models.Building
	Rooms    []*models.Room
	Tenants  []TenantMonth
	Summary  ledger.BuildingSummary
}

// PropertyService manages buildings and rooms.
type PropertyService struct {
	store    storage.Store
	cache    cache.Cache
	cacheTTL time.Duration
	events   eventlog.Logger
}

// NewPropertyService creates a PropertyService. Summaries are memoized in c
// for ttl.
func NewPropertyService(store storage.Store, c cache.Cache, ttl time.Duration, events eventlog.Logger) *PropertyService {
	return &PropertyService{store: store, cache: c, cacheTTL: ttl, events: events}
}

func summaryPrefix(buildingID string) string {
	return "summary:" + buildingID + ":"
}

func summaryKey(buildingID string, month ledger.MonthKey) string {
	return summaryPrefix(buildingID) + month.String()
}

// invalidateSummaries drops every cached month summary of a building.
// Failures are logged: a stale entry expires after the TTL anyway.
func invalidateSummaries(ctx context.Context, c cache.Cache, buildingID string) {
	if err := c.DeletePrefix(ctx, summaryPrefix(buildingID)); err != nil {
		slog.Warn("failed to invalidate building summaries", "building_id", buildingID, "error", err)
	}
}

// CreateBuilding creates a building and derives its code from the name.
func (s *PropertyService) CreateBuilding(ctx context.Context, in BuildingInput) (*models.Building, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	b := &models.Building{
		Name:        in.Name,
		Code:        models.BuildingCode(in.Name),
		Address:     strings.TrimSpace(in.Address),
		Description: strings.TrimSpace(in.Description),
	}
	if err := s.store.CreateBuilding(ctx, b); err != nil {
		slog.Error("CreateBuilding failed", "name", in.Name, "error", err)
		return nil, err
	}

	slog.Info("Building created", "building_id", b.ID, "code", b.Code)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.BuildingCreated),
		eventlog.WithSubject(b.ID),
		eventlog.WithData(map[string]string{"name": b.Name}),
	))
	return b, nil
}

func (s *PropertyService) ListBuildings(ctx context.Context) ([]*models.Building, error) {
	return s.store.ListBuildings(ctx)
}

func (s *PropertyService) GetBuilding(ctx context.Context, id string) (*models.Building, error) {
	return s.store.GetBuilding(ctx, id)
}

// AddRoom adds a room to a building. Room numbers are unique per building.
func (s *PropertyService) AddRoom(ctx context.Context, buildingID, roomNumber string) (*models.Room, error) {
	roomNumber = strings.TrimSpace(roomNumber)
	if roomNumber == "" {
		return nil, invalid("room number is required")
	}
	if _, err := s.store.GetBuilding(ctx, buildingID); err != nil {
		return nil, err
	}

	r := &models.Room{BuildingID: buildingID, RoomNumber: roomNumber}
	if err := s.store.CreateRoom(ctx, r); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("room number already exists in this building: %w", storage.ErrConflict)
		}
		slog.Error("AddRoom failed", "building_id", buildingID, "error", err)
		return nil, err
	}

	slog.Info("Room added", "building_id", buildingID, "room_id", r.ID, "room_number", r.RoomNumber)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.RoomCreated),
		eventlog.WithSubject(buildingID),
		eventlog.WithData(map[string]string{"room_number": r.RoomNumber}),
	))
	return r, nil
}

func (s *PropertyService) ListRooms(ctx context.Context, buildingID string) ([]*models.Room, error) {
	return s.store.ListRooms(ctx, buildingID)
}

// GetBuildingOverview loads the building with its rooms, the month status
// of every active tenant and the building summary for month.
func (s *PropertyService) GetBuildingOverview(ctx context.Context, buildingID string, month ledger.MonthKey) (*BuildingOverview, error) {
	b, err := s.store.GetBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	rooms, err := s.store.ListRooms(ctx, buildingID)
	if err != nil {
		return nil, err
	}
	tenants, err := s.store.ListTenants(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	rows, summary, err := evaluateTenants(ctx, s.store, tenants, month)
	if err != nil {
		slog.Error("GetBuildingOverview failed", "building_id", buildingID, "error", err)
		return nil, err
	}
	s.storeSummary(ctx, buildingID, summary)

	return &BuildingOverview{Building: b, Rooms: rooms, Tenants: rows, Summary: summary}, nil
}

// Summary returns the building summary for month, served from the cache
// when possible.
func (s *PropertyService) Summary(ctx context.Context, buildingID string, month ledger.MonthKey) (ledger.BuildingSummary, error) {
	var summary ledger.BuildingSummary
	if cache.GetJSON(ctx, s.cache, summaryKey(buildingID, month), &summary) {
		return summary, nil
	}

	if _, err := s.store.GetBuilding(ctx, buildingID); err != nil {
		return summary, err
	}
	tenants, err := s.store.ListTenants(ctx, buildingID)
	if err != nil {
		return summary, err
	}
	_, summary, err = evaluateTenants(ctx, s.store, tenants, month)
	if err != nil {
		return summary, err
	}
	s.storeSummary(ctx, buildingID, summary)
	return summary, nil
}

func (s *PropertyService) storeSummary(ctx context.Context, buildingID string, summary ledger.BuildingSummary) {
	if err := cache.SetJSON(ctx, s.cache, summaryKey(buildingID, summary.Month), summary, s.cacheTTL); err != nil {
		slog.Warn("failed to cache building summary", "building_id", buildingID, "error", err)
	}
}
