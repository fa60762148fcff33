package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/models"
)

func TestRequireRole(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	tenantToken, _ := jwtManager.Generate(&models.User{ID: "t1", Role: models.RoleTenant, TenantID: "t1"})
	adminToken, _ := jwtManager.Generate(&models.User{ID: "management", Role: models.RoleManagement})

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserFromContext(r.Context()).ID))
	})
	handler := Session(jwtManager)(RequireRole(models.RoleManagement, "/login/management")(ok))

	tests := []struct {
		name         string
		cookie       string
		wantStatus   int
		wantLocation string
	}{
		{name: "no session", wantStatus: http.StatusSeeOther, wantLocation: "/login/management"},
		{name: "garbage token", cookie: "not-a-jwt", wantStatus: http.StatusSeeOther, wantLocation: "/login/management"},
		{name: "wrong role", cookie: tenantToken, wantStatus: http.StatusSeeOther, wantLocation: "/login/management"},
		{name: "management", cookie: adminToken, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/management/dashboard", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
		})
	}
}

func TestTokenFromHeaders(t *testing.T) {
	h := http.Header{}
	if _, err := tokenFromHeaders(h); err != auth.ErrMissingToken {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}

	h.Set("Authorization", "Token abc")
	if _, err := tokenFromHeaders(h); err != auth.ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}

	h.Set("Authorization", "Bearer abc")
	if tok, err := tokenFromHeaders(h); err != nil || tok != "abc" {
		t.Errorf("bearer = %q, %v", tok, err)
	}

	h = http.Header{}
	h.Add("Cookie", SessionCookie+"=xyz")
	if tok, err := tokenFromHeaders(h); err != nil || tok != "xyz" {
		t.Errorf("cookie = %q, %v", tok, err)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	defer rl.Stop()

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/login/tenant", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	other := httptest.NewRequest("POST", "/login/tenant", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != 200 {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}

	rl.cleanup(time.Now().Add(2 * limiterIdleThreshold))
	rl.mu.Lock()
	n := len(rl.clients)
	rl.mu.Unlock()
	if n != 0 {
		t.Errorf("expected idle clients to be removed, %d left", n)
	}
}
