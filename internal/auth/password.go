package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/rentroll/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTenantVacated      = errors.New("tenancy has ended")
)

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// AdminAuthenticator authenticates the single configured management account.
type AdminAuthenticator struct {
	username     string
	passwordHash string
}

// NewAdminAuthenticator creates an authenticator for the management account.
// passwordHash must be a bcrypt hash.
func NewAdminAuthenticator(username, passwordHash string) *AdminAuthenticator {
	return &AdminAuthenticator{
		username:     NormalizeUsername(username),
		passwordHash: passwordHash,
	}
}

// Authenticate verifies the management username and password.
func (a *AdminAuthenticator) Authenticate(_ context.Context, username, credential string) (*models.User, error) {
	userOK := subtle.ConstantTimeCompare([]byte(NormalizeUsername(username)), []byte(a.username)) == 1
	passOK := CheckPassword(a.passwordHash, credential)
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}
	return &models.User{
		ID:   "management",
		Name: a.username,
		Role: models.RoleManagement,
	}, nil
}

// TenantLookup defines the tenant persistence needed to authenticate.
type TenantLookup interface {
	GetTenantByUsername(ctx context.Context, username string) (*models.Tenant, error)
}

// TenantAuthenticator authenticates tenants against their stored bcrypt
// hashes. Vacated tenants cannot log in.
type TenantAuthenticator struct {
	tenants TenantLookup
}

// NewTenantAuthenticator creates a tenant authenticator.
func NewTenantAuthenticator(tenants TenantLookup) *TenantAuthenticator {
	return &TenantAuthenticator{tenants: tenants}
}

// Authenticate verifies a tenant's username and password.
func (a *TenantAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.User, error) {
	tenant, err := a.tenants.GetTenantByUsername(ctx, NormalizeUsername(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(tenant.PasswordHash, credential) {
		return nil, ErrInvalidCredentials
	}

	if !tenant.IsActive() {
		return nil, ErrTenantVacated
	}

	return &models.User{
		ID:       tenant.ID,
		Name:     tenant.Name,
		Role:     models.RoleTenant,
		TenantID: tenant.ID,
	}, nil
}
