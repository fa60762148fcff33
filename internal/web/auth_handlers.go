package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/rentroll/internal/auth"
	"github.com/mmynk/rentroll/internal/middleware"
	"github.com/mmynk/rentroll/internal/models"
	"github.com/mmynk/rentroll/internal/service"
)

type loginData struct {
	Role     models.Role
	Action   string
	Username string
}

func homeFor(role models.Role) string {
	if role == models.RoleManagement {
		return "/management/dashboard"
	}
	return "/tenant/dashboard"
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if user := middleware.UserFromContext(r.Context()); user != nil {
		redirect(w, r, homeFor(user.Role))
		return
	}
	s.render(w, r, http.StatusOK, "index.html", page{Title: "Rentroll"})
}

func (s *Server) handleLoginPage(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := middleware.UserFromContext(r.Context()); user != nil && user.Role == role {
			redirect(w, r, homeFor(role))
			return
		}
		s.renderLogin(w, r, http.StatusOK, role, "", "")
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, role models.Role, username, msg string) {
	title := "Management login"
	action := managementLogin
	if role == models.RoleTenant {
		title = "Tenant login"
		action = tenantLogin
	}
	s.render(w, r, status, "login.html", page{
		Title: title,
		Error: msg,
		Data:  loginData{Role: role, Action: action, Username: username},
	})
}

func (s *Server) handleLogin(role models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form data", http.StatusBadRequest)
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")

		var (
			sess *service.Session
			err  error
		)
		if role == models.RoleManagement {
			sess, err = s.Auth.LoginManagement(r.Context(), username, password)
		} else {
			sess, err = s.Auth.LoginTenant(r.Context(), username, password)
		}
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			s.renderLogin(w, r, http.StatusUnauthorized, role, username, "Invalid username or password")
			return
		case errors.Is(err, auth.ErrTenantVacated):
			s.renderLogin(w, r, http.StatusForbidden, role, username, "This tenancy has ended")
			return
		case err != nil:
			slog.Error("login failed", "role", role, "error", err)
			s.renderLogin(w, r, http.StatusInternalServerError, role, username, "Login is unavailable, try again later")
			return
		}

		middleware.SetSessionCookie(w, r, sess.Token, s.JWT.TokenDuration())
		redirect(w, r, homeFor(role))
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if user := middleware.UserFromContext(r.Context()); user != nil {
		if user.Role == models.RoleManagement {
			target = managementLogin
		} else {
			target = tenantLogin
		}
	}
	middleware.ClearSessionCookie(w)
	redirect(w, r, target)
}
