package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/intervention"
	"github.com/homees-app/homees/internal/notification"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/realtime"
	"github.com/homees-app/homees/internal/user"
)

const maxBodyBytes = 1 << 20

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		slog.Error("encoding error response", "error", err)
	}
}

// apiJSON writes a JSON response.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// routeParts splits the path below prefix into its ID and remaining segment.
// "/api/properties/abc/interventions" with prefix "/api/properties" yields
// ("abc", "interventions").
func routeParts(path, prefix string) (id, rest string) {
	trimmed := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, rest, _ = strings.Cut(trimmed, "/")
	return id, rest
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handleAPIMe returns (GET) or updates (PUT) the caller's identity and profile.
func (s *Server) handleAPIMe(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		s.writeMe(w, u)
	case http.MethodPut:
		s.updateMe(w, r, u)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type meResponse struct {
	User   *user.User  `json:"user"`
	Profil interface{} `json:"profil,omitempty"`
}

func (s *Server) writeMe(w http.ResponseWriter, u *user.User) {
	resp := meResponse{User: u}

	var err error
	switch u.Role {
	case user.RoleProprietaire:
		resp.Profil, err = s.users.GetProprietaire(u.ID)
	case user.RoleGestionnaire:
		resp.Profil, err = s.users.GetGestionnaire(u.ID)
	}
	if errors.Is(err, user.ErrNotFound) {
		resp.Profil = nil
	} else if err != nil {
		apiError(w, "loading profile: "+err.Error(), http.StatusInternalServerError)
		return
	}

	apiJSON(w, resp, http.StatusOK)
}

type meRequest struct {
	Nom       *string         `json:"nom"`
	Prenom    *string         `json:"prenom"`
	Telephone *string         `json:"telephone"`
	AvatarURL *string         `json:"avatar_url"`
	Profil    json.RawMessage `json:"profil"`
}

func (s *Server) updateMe(w http.ResponseWriter, r *http.Request, u *user.User) {
	var req meRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	updated := *u
	if req.Nom != nil {
		updated.Nom = *req.Nom
	}
	if req.Prenom != nil {
		updated.Prenom = *req.Prenom
	}
	if req.Telephone != nil {
		updated.Telephone = *req.Telephone
	}
	if req.AvatarURL != nil {
		updated.AvatarURL = *req.AvatarURL
	}
	if err := s.users.Update(&updated); err != nil {
		apiError(w, "updating user: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if len(req.Profil) > 0 {
		if err := s.saveProfil(u, req.Profil); err != nil {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	fresh, err := s.users.GetByID(u.ID)
	if err != nil {
		apiError(w, "reloading user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeMe(w, fresh)
}

// saveProfil upserts the role-specific profile from raw JSON.
func (s *Server) saveProfil(u *user.User, raw json.RawMessage) error {
	switch u.Role {
	case user.RoleProprietaire:
		var p user.ProfilProprietaire
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid profil: %w", err)
		}
		p.UserID = u.ID
		_, err := s.users.UpsertProprietaire(&p)
		return err
	case user.RoleGestionnaire:
		var p user.ProfilGestionnaire
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid profil: %w", err)
		}
		p.UserID = u.ID
		_, err := s.users.UpsertGestionnaire(&p)
		return err
	default:
		return fmt.Errorf("role %s has no profil", u.Role)
	}
}

// handleAPIDashboard returns the caller's dashboard as JSON.
func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	d, err := s.dashboards.Load(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		apiError(w, "loading dashboard: "+err.Error(), http.StatusInternalServerError)
		return
	}
	apiJSON(w, d, http.StatusOK)
}

// handleAPIProperties routes /api/properties requests.
func (s *Server) handleAPIProperties(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	id, rest := routeParts(r.URL.Path, "/api/properties")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			s.listProperties(w, r, u)
		case http.MethodPost:
			s.createProperty(w, r, u)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	p, ok := s.loadProperty(w, u, id)
	if !ok {
		return
	}

	switch rest {
	case "":
		switch r.Method {
		case http.MethodGet:
			apiJSON(w, p, http.StatusOK)
		case http.MethodPut:
			s.updateProperty(w, r, u, p)
		case http.MethodDelete:
			s.deleteProperty(w, u, p)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case "interventions":
		switch r.Method {
		case http.MethodGet:
			list, err := s.interventions.ListByProperty(p.ID)
			if err != nil {
				apiError(w, "listing interventions: "+err.Error(), http.StatusInternalServerError)
				return
			}
			if list == nil {
				list = []*intervention.Intervention{}
			}
			apiJSON(w, list, http.StatusOK)
		case http.MethodPost:
			s.addIntervention(w, r, u, p)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// loadProperty fetches a property the user may see. Properties belonging to
// someone else are reported as missing.
func (s *Server) loadProperty(w http.ResponseWriter, u *user.User, id string) (*property.Property, bool) {
	p, err := s.props.GetByID(id)
	if errors.Is(err, property.ErrNotFound) {
		apiError(w, "property not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		apiError(w, "loading property: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if u.Role != user.RoleAdmin && !p.AccessibleBy(u.ID) {
		apiError(w, "property not found", http.StatusNotFound)
		return nil, false
	}
	return p, true
}

func (s *Server) listProperties(w http.ResponseWriter, r *http.Request, u *user.User) {
	q := r.URL.Query()
	opts := property.ListOptions{Ville: q.Get("ville"), DPE: q.Get("dpe")}

	if opts.DPE != "" {
		if _, ok := property.NormalizeDPE(opts.DPE); !ok {
			apiError(w, "dpe must be A-G", http.StatusBadRequest)
			return
		}
	}

	switch u.Role {
	case user.RoleProprietaire:
		opts.ProprietaireID = u.ID
	case user.RoleGestionnaire:
		opts.GestionnaireID = u.ID
	case user.RoleAdmin:
		opts.ProprietaireID = q.Get("proprietaire_id")
		opts.Unmanaged = q.Get("unmanaged") == "true"
	}

	props, err := s.props.List(opts)
	if err != nil {
		apiError(w, "listing properties: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if props == nil {
		props = []*property.Property{}
	}
	apiJSON(w, props, http.StatusOK)
}

func (s *Server) createProperty(w http.ResponseWriter, r *http.Request, u *user.User) {
	if u.Role == user.RoleGestionnaire {
		apiError(w, "only owners can add properties", http.StatusForbidden)
		return
	}

	var p property.Property
	if err := decodeJSON(w, r, &p); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	p.ID = ""
	p.GestionnaireID = nil
	if u.Role != user.RoleAdmin || p.ProprietaireID == "" {
		p.ProprietaireID = u.ID
	}
	if err := p.Validate(); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := s.propService.Create(r.Context(), &p)
	if err != nil {
		apiError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.publish("propriete", realtime.Insert, saved, saved.ProprietaireID)
	apiJSON(w, saved, http.StatusCreated)
}

func (s *Server) updateProperty(w http.ResponseWriter, r *http.Request, u *user.User, p *property.Property) {
	if u.Role != user.RoleAdmin && p.ProprietaireID != u.ID {
		apiError(w, "only the owner can edit this property", http.StatusForbidden)
		return
	}

	updated := *p
	if err := decodeJSON(w, r, &updated); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	updated.ID = p.ID
	updated.ProprietaireID = p.ProprietaireID
	updated.GestionnaireID = p.GestionnaireID
	if err := updated.Validate(); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := s.props.Update(&updated)
	if err != nil {
		apiError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.publish("propriete", realtime.Update, saved, propertyAudience(saved)...)
	apiJSON(w, saved, http.StatusOK)
}

func (s *Server) deleteProperty(w http.ResponseWriter, u *user.User, p *property.Property) {
	if u.Role != user.RoleAdmin && p.ProprietaireID != u.ID {
		apiError(w, "only the owner can delete this property", http.StatusForbidden)
		return
	}

	if err := s.props.Delete(p.ID); err != nil {
		apiError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.publish("propriete", realtime.Delete, map[string]string{"id": p.ID}, propertyAudience(p)...)
	w.WriteHeader(http.StatusNoContent)
}

// propertyAudience returns the owner and, when assigned, the manager.
func propertyAudience(p *property.Property) []string {
	ids := []string{p.ProprietaireID}
	if p.GestionnaireID != nil {
		ids = append(ids, *p.GestionnaireID)
	}
	return ids
}

type interventionRequest struct {
	Date  string            `json:"date"`
	Type  intervention.Type `json:"type"`
	Notes string            `json:"notes"`
}

func (s *Server) addIntervention(w http.ResponseWriter, r *http.Request, u *user.User, p *property.Property) {
	var req interventionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if !req.Type.IsValid() {
		apiError(w, fmt.Sprintf("invalid type %q", req.Type), http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		apiError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	i, err := s.interventions.Add(p.ID, req.Date, req.Type, req.Notes)
	if err != nil {
		apiError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.publish("interventions", realtime.Insert, i, propertyAudience(p)...)
	for _, id := range propertyAudience(p) {
		if id != u.ID {
			s.notify(id, notification.TypeIntervention,
				fmt.Sprintf("%s prévue le %s : %s", i.Type.Label(), i.Date, p.Titre),
				"/dashboard")
		}
	}
	apiJSON(w, i, http.StatusCreated)
}

// handleAPIIntervention handles /api/interventions/{id}: PATCH statut, DELETE.
func (s *Server) handleAPIIntervention(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	id, rest := routeParts(r.URL.Path, "/api/interventions")
	if id == "" || rest != "" {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	i, err := s.interventions.GetByID(id)
	if errors.Is(err, intervention.ErrNotFound) {
		apiError(w, "intervention not found", http.StatusNotFound)
		return
	}
	if err != nil {
		apiError(w, "loading intervention: "+err.Error(), http.StatusInternalServerError)
		return
	}
	p, ok := s.loadProperty(w, u, i.ProprieteID)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Statut intervention.Statut `json:"statut"`
		}
		if err := decodeJSON(w, r, &req); err != nil {
			apiError(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if !req.Statut.IsValid() {
			apiError(w, fmt.Sprintf("invalid statut %q", req.Statut), http.StatusBadRequest)
			return
		}
		if i.Statut == intervention.Terminee && req.Statut != intervention.Terminee {
			apiError(w, "intervention already finished", http.StatusConflict)
			return
		}
		if err := s.interventions.UpdateStatut(i.ID, req.Statut); err != nil {
			apiError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		i.Statut = req.Statut
		s.publish("interventions", realtime.Update, i, propertyAudience(p)...)
		apiJSON(w, i, http.StatusOK)
	case http.MethodDelete:
		if err := s.interventions.Delete(i.ID); err != nil {
			apiError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		s.publish("interventions", realtime.Delete, map[string]string{"id": i.ID}, propertyAudience(p)...)
		w.WriteHeader(http.StatusNoContent)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPIGestionnaires lists managers, optionally filtered by ?ville=.
func (s *Server) handleAPIGestionnaires(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list, err := s.users.ListGestionnaires(r.URL.Query().Get("ville"))
	if err != nil {
		apiError(w, "listing gestionnaires: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*user.Gestionnaire{}
	}
	apiJSON(w, list, http.StatusOK)
}
