// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	// (duplicate room number, duplicate username, duplicate external ref).
	ErrConflict = errors.New("already exists")
)

// PaymentFilter narrows ListPaymentsForTenants. Zero times are unbounded.
type PaymentFilter struct {
	TenantIDs []string
	From      time.Time // inclusive paid-on date
	To        time.Time // inclusive paid-on date
}

// Store defines the interface for the relational data service.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	BuildingStore
	RoomStore
	TenantStore
	PaymentStore
	DocumentStore
	eventlog.Sink

	// Close releases any resources held by the store.
	Close() error
}

// BuildingStore persists buildings.
type BuildingStore interface {
	// CreateBuilding persists a new building. ID and CreatedAt are populated
	// by the store when empty.
	CreateBuilding(ctx context.Context, b *models.Building) error
	GetBuilding(ctx context.Context, id string) (*models.Building, error)
	ListBuildings(ctx context.Context) ([]*models.Building, error)
}

// RoomStore persists rooms.
type RoomStore interface {
	// CreateRoom returns ErrConflict if the room number already exists in
	// the building.
	CreateRoom(ctx context.Context, r *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
	ListRooms(ctx context.Context, buildingID string) ([]*models.Room, error)
	SetRoomOccupied(ctx context.Context, id string, occupied bool) error
}

// TenantStore persists tenants.
type TenantStore interface {
	// CreateTenant inserts the tenant and marks its room occupied in one
	// transaction. Returns ErrConflict on a duplicate username.
	CreateTenant(ctx context.Context, t *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.TenantView, error)
	GetTenantByUsername(ctx context.Context, username string) (*models.Tenant, error)

	// ListTenants returns tenants of a building, or of all buildings when
	// buildingID is empty, ordered by room number.
	ListTenants(ctx context.Context, buildingID string) ([]*models.TenantView, error)
	UpdateTenant(ctx context.Context, t *models.Tenant) error

	// VacateTenant marks the tenant vacated and frees the room in one
	// transaction.
	VacateTenant(ctx context.Context, id string) error

	// DeleteTenant removes the tenant (payments and documents cascade) and
	// frees the room in one transaction.
	DeleteTenant(ctx context.Context, id string) error
}

// PaymentStore persists the append-only payment ledger.
type PaymentStore interface {
	// CreatePayment returns ErrConflict when ExternalRef is already recorded.
	CreatePayment(ctx context.Context, p *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)

	// ListPayments returns a tenant's payments, newest paid-on date first.
	ListPayments(ctx context.Context, tenantID string) ([]*models.Payment, error)

	// ListPaymentsForTenants returns payments joined with tenant and room,
	// newest first. An empty TenantIDs list means all tenants.
	ListPaymentsForTenants(ctx context.Context, f PaymentFilter) ([]*models.PaymentView, error)
	DeletePayment(ctx context.Context, id string) error
}

// DocumentStore persists document metadata.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, tenantID string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}
