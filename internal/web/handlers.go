package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/dashboard"
	"github.com/homees-app/homees/internal/demande"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/user"
)

type dashboardData struct {
	page
	Dashboard     *dashboard.Dashboard
	Gestionnaires []*user.Gestionnaire
}

type adminData struct {
	page
	Dashboard *dashboard.Dashboard
	Users     []*user.User
}

type demandeData struct {
	page
	Demande     *demande.Demande
	Messages    []*demande.Message
	Property    *property.Property
	Counterpart *user.User
}

// handleHome renders the landing page.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, "home.html", page{Title: "Homees", User: auth.UserFromContext(r.Context())})
}

// handleDashboardRedirect sends /dashboard to the role's own dashboard.
func (s *Server) handleDashboardRedirect(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	http.Redirect(w, r, user.DashboardPath(u.Role), http.StatusSeeOther)
}

// handleRoleDashboard renders /dashboard/proprietaire and /dashboard/gestionnaire.
// Users landing on another role's dashboard are sent to their own.
func (s *Server) handleRoleDashboard(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	role := user.Role(strings.Trim(strings.TrimPrefix(r.URL.Path, "/dashboard/"), "/"))
	if role != user.RoleProprietaire && role != user.RoleGestionnaire {
		http.NotFound(w, r)
		return
	}
	if u.Role != role {
		http.Redirect(w, r, user.DashboardPath(u.Role), http.StatusSeeOther)
		return
	}

	d, err := s.dashboards.Load(r.Context(), u)
	if err != nil {
		slog.Error("loading dashboard", "user_id", u.ID, "error", err)
		http.Error(w, "Erreur lors du chargement du tableau de bord", http.StatusInternalServerError)
		return
	}

	data := dashboardData{page: page{Title: "Tableau de bord", User: u}, Dashboard: d}
	if role == user.RoleProprietaire {
		data.Gestionnaires, err = s.users.ListGestionnaires(r.URL.Query().Get("ville"))
		if err != nil {
			slog.Error("listing gestionnaires", "error", err)
		}
	}

	s.render(w, "dashboard.html", data)
}

// handleAdmin renders the admin console.
func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u.Role != user.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	d, err := s.dashboards.Load(r.Context(), u)
	if err != nil {
		slog.Error("loading admin dashboard", "error", err)
		http.Error(w, "Erreur lors du chargement", http.StatusInternalServerError)
		return
	}
	users, err := s.users.List("")
	if err != nil {
		slog.Error("listing users", "error", err)
		http.Error(w, "Erreur lors du chargement", http.StatusInternalServerError)
		return
	}

	s.render(w, "admin.html", adminData{page: page{Title: "Administration", User: u}, Dashboard: d, Users: users})
}

// handleDemandePage renders a demande thread and marks it read for the viewer.
func (s *Server) handleDemandePage(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/demandes/"), "/")

	d, err := s.demandes.GetByID(id)
	if errors.Is(err, demande.ErrNotFound) || (err == nil && u.Role != user.RoleAdmin && !d.HasParticipant(u.ID)) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("loading demande", "id", id, "error", err)
		http.Error(w, "Erreur lors du chargement", http.StatusInternalServerError)
		return
	}

	msgs, err := s.demandes.ListMessages(d.ID)
	if err != nil {
		slog.Error("listing messages", "demande_id", d.ID, "error", err)
		http.Error(w, "Erreur lors du chargement", http.StatusInternalServerError)
		return
	}
	if d.HasParticipant(u.ID) {
		if _, err := s.demandes.MarkRead(d.ID, u.ID); err != nil {
			slog.Warn("marking messages read", "demande_id", d.ID, "error", err)
		}
	}

	data := demandeData{page: page{Title: d.Sujet, User: u}, Demande: d, Messages: msgs}
	if other, err := s.users.GetByID(d.Counterpart(u.ID)); err == nil {
		data.Counterpart = other
	}
	if d.ProprieteID != nil {
		if p, err := s.props.GetByID(*d.ProprieteID); err == nil {
			data.Property = p
		}
	}

	s.render(w, "demande.html", data)
}
