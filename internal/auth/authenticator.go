package auth

import (
	"context"

	"github.com/mmynk/rentroll/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// Management and tenants authenticate against different sources but the
// service layer treats them alike.
type Authenticator interface {
	// Authenticate verifies the username and credential and returns the
	// principal if successful.
	Authenticate(ctx context.Context, username, credential string) (*models.User, error)
}
