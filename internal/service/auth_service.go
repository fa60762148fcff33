package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/eventlog"
	"github.com/mmynk/rentroll/internal/metrics"
	"github.com/mmynk/rentroll/internal/models"
)

// Session is a signed login token with the principal it belongs to.
type Session struct {
	Token string
	User  *models.User
}

// AuthService logs management and tenants in.
type AuthService struct {
	management auth.Authenticator
	tenants    auth.Authenticator
	jwtManager *auth.JWTManager
	metrics    *metrics.Metrics
	events     eventlog.Logger
	logger     *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(management, tenants auth.Authenticator, jwtManager *auth.JWTManager, m *metrics.Metrics, events eventlog.Logger, logger *slog.Logger) *AuthService {
	return &AuthService{
		management: management,
		tenants:    tenants,
		jwtManager: jwtManager,
		metrics:    m,
		events:     events,
		logger:     logger,
	}
}

// LoginManagement authenticates the management account.
func (s *AuthService) LoginManagement(ctx context.Context, username, password string) (*Session, error) {
	return s.login(ctx, s.management, models.RoleManagement, username, password)
}

// LoginTenant authenticates a tenant. Vacated tenants are rejected.
func (s *AuthService) LoginTenant(ctx context.Context, username, password string) (*Session, error) {
	return s.login(ctx, s.tenants, models.RoleTenant, username, password)
}

func (s *AuthService) login(ctx context.Context, a auth.Authenticator, role models.Role, username, password string) (*Session, error) {
	s.logger.Info("Login request", "role", role, "username", username)

	if username == "" || password == "" {
		s.metrics.ObserveLogin(string(role), false)
		return nil, auth.ErrInvalidCredentials
	}

	user, err := a.Authenticate(ctx, username, password)
	if err != nil {
		s.metrics.ObserveLogin(string(role), false)
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrTenantVacated) {
			s.logger.Warn("Login rejected", "role", role, "username", username, "reason", err)
		} else {
			s.logger.Error("Login failed", "role", role, "username", username, "error", err)
		}
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.metrics.ObserveLogin(string(role), true)
	s.logger.Info("User logged in", "role", role, "user_id", user.ID)
	s.events.Log(eventlog.NewEvent(
		eventlog.WithType(eventlog.UserLoggedIn),
		eventlog.WithSubject(user.ID),
		eventlog.WithData(map[string]string{"role": string(role)}),
	))
	return &Session{Token: token, User: user}, nil
}
