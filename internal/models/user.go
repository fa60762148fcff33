package models

// Role is the access level of an authenticated principal.
type Role string

const (
	RoleManagement Role = "management"
	RoleTenant     Role = "tenant"
)

// User represents the authenticated principal behind a session.
// Management is a single configured account; tenants authenticate with the
// credentials generated when they were created.
type User struct {
	// ID is "management" for the admin account or the tenant ID.
	ID string

	// Name is the display name (admin username or tenant name).
	Name string

	Role Role

	// TenantID is set only when Role is RoleTenant.
	TenantID string
}
