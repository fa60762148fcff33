package web

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/middleware"
	"github.com/mmynk/rentroll/internal/models"
)

// tenantHistoryMonths is how many months the tenant dashboard shows.
const tenantHistoryMonths = 6

type tenantDashboardData struct {
	Tenant          *models.TenantView
	Current         ledger.MonthStatus
	History         []ledger.MonthStatus
	Payments        []*models.Payment
	CheckoutEnabled bool
}

func (s *Server) handleTenantDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromContext(ctx)

	t, err := s.Tenants.GetTenant(ctx, user.TenantID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	history, err := s.Payments.History(ctx, t.ID, ledger.MonthOf(s.now()), tenantHistoryMonths)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	payments, err := s.Payments.ListPayments(ctx, t.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	p := page{
		Title: "My rent",
		Data: tenantDashboardData{
			Tenant:          t,
			Current:         history[len(history)-1],
			History:         history,
			Payments:        payments,
			CheckoutEnabled: s.Payments.CheckoutEnabled() && t.IsActive(),
		},
	}
	// The payment itself is recorded by the webhook; success only means the
	// provider redirected back.
	switch r.URL.Query().Get("payment") {
	case "success":
		p.Flash = "Thank you! Your payment is being confirmed and will appear here shortly."
	case "cancelled":
		p.Error = "Payment was cancelled."
	}
	s.render(w, r, http.StatusOK, "tenant_dashboard.html", p)
}

func (s *Server) handleTenantDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromContext(ctx)

	t, err := s.Tenants.GetTenant(ctx, user.TenantID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	docs, err := s.Documents.List(ctx, t.ID)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "tenant_documents.html", page{
		Title: "My documents",
		Data:  documentsData{Tenant: t, Documents: docs},
	})
}

// handleCheckout starts a hosted payment for the month's shortfall and
// redirects the tenant to the provider.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.UserFromContext(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	month := ledger.MonthOf(s.now())
	if raw := r.FormValue("month"); raw != "" {
		m, err := ledger.ParseMonth(raw)
		if err != nil {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
		month = m
	}

	sess, err := s.Payments.StartCheckout(ctx, user.TenantID, month)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	http.Redirect(w, r, sess.URL, http.StatusSeeOther)
}

// maxWebhookBytes bounds webhook payloads.
const maxWebhookBytes = 64 << 10

// handleStripeWebhook records payments confirmed by the provider. Only a
// verified event can create a payment; replays are acknowledged.
func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if s.Checkout == nil {
		http.Error(w, "online payment is not configured", http.StatusServiceUnavailable)
		return
	}
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	completed, err := s.Checkout.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("Rejected webhook", "error", err)
		http.Error(w, "invalid webhook", http.StatusBadRequest)
		return
	}
	if completed == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	p, recorded, err := s.Payments.CompleteCheckout(r.Context(), completed)
	if err != nil {
		status := statusFor(err)
		slog.Error("Webhook payment failed", "session_id", completed.SessionID, "tenant_id", completed.TenantID, "error", err)
		// Client errors will not succeed on retry; acknowledge them.
		if status < http.StatusInternalServerError {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "failed to record payment", status)
		return
	}
	if recorded {
		slog.Info("Webhook payment recorded", "session_id", completed.SessionID, "payment_id", p.ID)
	} else {
		slog.Info("Webhook replay ignored", "session_id", completed.SessionID)
	}
	w.WriteHeader(http.StatusOK)
}
