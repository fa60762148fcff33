package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/rentroll/internal/ledger"
	"github.com/mmynk/rentroll/internal/middleware"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/service"
	"github.com/mmynk/rentroll/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages maps a page file name to its template set (layout + page).
type pages struct {
	byName map[string]*template.Template
}

var pageNames = []string{
	"index.html",
	"login.html",
	"error.html",
	"dashboard.html",
	"building_form.html",
	"building.html",
	"room_form.html",
	"tenant_form.html",
	"tenant_created.html",
	"tenants.html",
	"tenant.html",
	"documents.html",
	"tenant_dashboard.html",
	"tenant_documents.html",
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "-"
		}
		return t.Format(models.DateLayout)
	},
	"monthName": func(m ledger.MonthKey) string { return m.Start().Format("January 2006") },
	"unix": func(sec int64) string {
		return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04")
	},
	"upper": strings.ToUpper,
}

func parsePages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		p.byName[name] = t
	}
	return p, nil
}

// page is the data every template receives.
type page struct {
	Title    string
	User     *models.User
	Currency string
	Flash    string
	Error    string
	Data     any
}

// render executes the page into a buffer first so a template error never
// produces a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := s.pages.byName[name]
	if !ok {
		slog.Error("unknown page", "page", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	p.User = middleware.UserFromContext(r.Context())
	p.Currency = strings.ToUpper(s.Currency)

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slog.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// statusFor maps service and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrNothingDue):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrConflict), errors.Is(err, service.ErrRoomOccupied):
		return http.StatusConflict
	case errors.Is(err, service.ErrCheckoutDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// renderError shows err on the error page with its mapped status.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "error", err)
	}
	s.render(w, r, status, "error.html", page{
		Title: http.StatusText(status),
		Error: err.Error(),
	})
}

// currentMonth reads ?month=YYYY-MM, defaulting to the current month.
func (s *Server) currentMonth(r *http.Request) (ledger.MonthKey, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return ledger.MonthOf(s.now()), nil
	}
	m, err := ledger.ParseMonth(raw)
	if err != nil {
		return ledger.MonthKey{}, fmt.Errorf("%w: month %q is not YYYY-MM", service.ErrInvalidInput, raw)
	}
	return m, nil
}

// formDecimal parses an optional money field; empty is zero.
func formDecimal(r *http.Request, field string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a number", service.ErrInvalidInput, field)
	}
	return d, nil
}

// formDate parses an optional YYYY-MM-DD field; empty is the zero time.
func formDate(r *http.Request, field string) (time.Time, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a date (YYYY-MM-DD)", service.ErrInvalidInput, field)
	}
	return t, nil
}

func redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
