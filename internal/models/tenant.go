package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TenantStatus is the lifecycle state of a tenant.
type TenantStatus string

const (
	TenantActive  TenantStatus = "active"
	TenantVacated TenantStatus = "vacated"
)

// Tenant represents a renter occupying a room.
type Tenant struct {
	// ID is the unique identifier for the tenant (UUID format).
	ID         string
	BuildingID string
	RoomID     string

	Name  string
	Phone string

	// Username is derived from the room number and building code and is
	// unique across all tenants. PasswordHash is a bcrypt hash.
	Username     string
	PasswordHash string

	// Rent and Maintenance are the monthly billing terms.
	Rent        decimal.Decimal
	Maintenance decimal.Decimal

	// AdvancePaid is the security deposit recorded at contract signing.
	AdvancePaid decimal.Decimal

	// Agreement dates are optional; zero means not set.
	AgreementStart time.Time
	AgreementEnd   time.Time

	Status    TenantStatus
	CreatedAt int64
}

// MonthlyTotal returns rent plus maintenance.
func (t *Tenant) MonthlyTotal() decimal.Decimal {
	return t.Rent.Add(t.Maintenance)
}

// IsActive reports whether the tenant still occupies their room.
func (t *Tenant) IsActive() bool {
	return t.Status != TenantVacated
}

// TenantView is a tenant joined with its room and building.
type TenantView struct {
	Tenant
	RoomNumber   string
	BuildingName string
	BuildingCode string
}
