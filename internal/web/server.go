// Package web serves the management and tenant portals as server-rendered
// HTML pages.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/checkout"
	"github.com/mmynk/rentroll/internal/metrics"
	"github.com/mmynk/rentroll/internal/middleware"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/service"
)

const (
	managementLogin = "/login/management"
	tenantLogin     = "/login/tenant"

	// maxUploadBytes bounds document uploads.
	maxUploadBytes = 10 << 20
)

// Deps are the collaborators of the web server. Checkout, Files and RPC are
// optional.
type Deps struct {
	Property  *service.PropertyService
	Tenants   *service.TenantService
	Payments  *service.PaymentService
	Documents *service.DocumentService
	Auth      *service.AuthService
	JWT       *auth.JWTManager
	Checkout  checkout.Provider
	Metrics   *metrics.Metrics

	// LoginLimiter throttles login attempts per client IP.
	LoginLimiter *middleware.RateLimiter

	// Files serves locally stored documents under FilesPath.
	FilesPath string
	Files     http.Handler

	// RPC is the Connect handler mounted under RPCPath.
	RPCPath string
	RPC     http.Handler

	Currency string
}

// Server holds the parsed pages and handlers.
type Server struct {
	Deps
	pages *pages
	now   func() time.Time
}

func New(deps Deps) (*Server, error) {
	p, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{Deps: deps, pages: p, now: time.Now}, nil
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.Metrics))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}
	if s.Files != nil && s.FilesPath != "" {
		r.Mount(s.FilesPath, s.Files)
	}
	if s.RPC != nil && s.RPCPath != "" {
		r.Mount(s.RPCPath, s.RPC)
	}
	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(s.JWT))

		r.Get("/", s.handleIndex)
		r.Get("/logout", s.handleLogout)
		r.Get(managementLogin, s.handleLoginPage(models.RoleManagement))
		r.Get(tenantLogin, s.handleLoginPage(models.RoleTenant))
		r.Group(func(r chi.Router) {
			if s.LoginLimiter != nil {
				r.Use(s.LoginLimiter.Limit)
			}
			r.Post(managementLogin, s.handleLogin(models.RoleManagement))
			r.Post(tenantLogin, s.handleLogin(models.RoleTenant))
		})

		r.Route("/management", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleManagement, managementLogin))

			r.Get("/dashboard", s.handleDashboard)
			r.Post("/payments", s.handleQuickPayment)

			r.Get("/buildings/new", s.handleNewBuildingPage)
			r.Post("/buildings/new", s.handleCreateBuilding)
			r.Get("/buildings/{id}", s.handleBuilding)
			r.Get("/buildings/{id}/rooms/new", s.handleNewRoomPage)
			r.Post("/buildings/{id}/rooms/new", s.handleCreateRoom)
			r.Get("/buildings/{id}/tenants/new", s.handleNewTenantPage)
			r.Post("/buildings/{id}/tenants/new", s.handleCreateTenant)

			r.Get("/tenants", s.handleTenants)
			r.Get("/tenants/{id}", s.handleTenant)
			r.Post("/tenants/{id}", s.handleUpdateTenant)
			r.Post("/tenants/{id}/payments", s.handleRecordPayment)
			r.Post("/tenants/{id}/payments/{paymentId}/delete", s.handleDeletePayment)
			r.Post("/tenants/{id}/vacate", s.handleVacateTenant)
			r.Post("/tenants/{id}/delete", s.handleDeleteTenant)
			r.Get("/tenants/{id}/documents", s.handleDocuments)
			r.Post("/tenants/{id}/documents", s.handleUploadDocument)
			r.Post("/tenants/{id}/documents/{docId}/delete", s.handleDeleteDocument)
		})

		r.Route("/tenant", func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleTenant, tenantLogin))

			r.Get("/dashboard", s.handleTenantDashboard)
			r.Get("/documents", s.handleTenantDocuments)
			r.Post("/payments/checkout", s.handleCheckout)
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
