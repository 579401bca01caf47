package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/user"
)

const cliKeyName = "CLI"

type cliAuthData struct {
	page
	Email  string
	APIKey string
}

// handleCLIAuth is the `homees login` flow. A signed-in browser gets a fresh
// API key straight away; otherwise the form signs in first.
func (s *Server) handleCLIAuth(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if u := auth.UserFromContext(r.Context()); u != nil {
			s.issueCLIKey(w, u)
			return
		}
		s.render(w, "cli_auth.html", cliAuthData{page: page{Title: "Connexion CLI"}})
	case http.MethodPost:
		s.submitCLIAuth(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitCLIAuth(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	data := cliAuthData{page: page{Title: "Connexion CLI"}, Email: email}

	ip := auth.ClientIP(r)
	if s.loginLimiter.Blocked(ip) {
		data.Error = "Trop de tentatives. Réessayez dans une minute."
		s.render(w, "cli_auth.html", data)
		return
	}

	u, err := s.authn.SignIn(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("signing in for cli", "email", email, "error", err)
		}
		s.loginLimiter.Allow(ip)
		data.Error = "Email ou mot de passe incorrect"
		s.render(w, "cli_auth.html", data)
		return
	}

	if err := s.sessions.Create(w, u.ID); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.issueCLIKey(w, u)
}

func (s *Server) issueCLIKey(w http.ResponseWriter, u *user.User) {
	rawKey, _, err := s.apiKeys.Create(u.ID, cliKeyName)
	if err != nil {
		slog.Error("creating api key", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, "cli_auth.html", cliAuthData{page: page{Title: "Connexion CLI", User: u}, APIKey: rawKey})
}
