package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/user"
)

// page carries the fields every layout needs.
type page struct {
	Title string
	User  *user.User
	Error string
}

type loginData struct {
	page
	Email string
	Next  string
}

type signupData struct {
	page
	Email     string
	Nom       string
	Prenom    string
	Telephone string
	Role      string
}

// handleLogin serves the login form (GET) and signs the user in (POST).
// A successful login lands on the role's dashboard.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if u := auth.UserFromContext(r.Context()); u != nil {
			http.Redirect(w, r, user.DashboardPath(u.Role), http.StatusSeeOther)
			return
		}
		s.render(w, "login.html", loginData{page: page{Title: "Connexion"}, Next: safeNext(r.URL.Query().Get("next"))})
	case http.MethodPost:
		s.submitLogin(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.ToLower(strings.TrimSpace(r.FormValue("email")))
	data := loginData{page: page{Title: "Connexion"}, Email: email, Next: safeNext(r.FormValue("next"))}

	ip := auth.ClientIP(r)
	if s.loginLimiter.Blocked(ip) {
		data.Error = "Trop de tentatives. Réessayez dans une minute."
		s.render(w, "login.html", data)
		return
	}

	u, err := s.authn.SignIn(r.Context(), email, r.FormValue("password"))
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("signing in", "email", email, "error", err)
		}
		s.loginLimiter.Allow(ip)
		data.Error = "Email ou mot de passe incorrect"
		s.render(w, "login.html", data)
		return
	}

	if err := s.sessions.Create(w, u.ID); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("user signed in", "user_id", u.ID, "role", u.Role)
	target := data.Next
	if target == "" {
		target = user.DashboardPath(u.Role)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleSignup serves the registration form (GET) and creates the account (POST).
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "signup.html", signupData{page: page{Title: "Inscription"}, Role: string(user.RoleProprietaire)})
	case http.MethodPost:
		s.submitSignup(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) submitSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := auth.SignUpRequest{
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Nom:       strings.TrimSpace(r.FormValue("nom")),
		Prenom:    strings.TrimSpace(r.FormValue("prenom")),
		Telephone: strings.TrimSpace(r.FormValue("telephone")),
		Role:      user.Role(r.FormValue("role")),
	}
	data := signupData{
		page:      page{Title: "Inscription"},
		Email:     req.Email,
		Nom:       req.Nom,
		Prenom:    req.Prenom,
		Telephone: req.Telephone,
		Role:      string(req.Role),
	}

	if err := req.Validate(); err != nil {
		data.Error = err.Error()
		s.render(w, "signup.html", data)
		return
	}

	u, err := s.authn.SignUp(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			data.Error = "Cet email est déjà utilisé"
		default:
			slog.Error("signing up", "email", req.Email, "error", err)
			data.Error = "L'inscription a échoué, réessayez plus tard"
		}
		s.render(w, "signup.html", data)
		return
	}

	if err := s.sessions.Create(w, u.ID); err != nil {
		slog.Error("creating session", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("user signed up", "user_id", u.ID, "role", u.Role)
	http.Redirect(w, r, user.DashboardPath(u.Role), http.StatusSeeOther)
}

// handleLogout destroys the session and redirects to login.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.sessions.Destroy(w, r); err != nil {
		slog.Error("destroying session", "error", err)
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps only local redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
