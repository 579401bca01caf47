package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/demande"
	"github.com/homees-app/homees/internal/mail"
	"github.com/homees-app/homees/internal/notification"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/realtime"
	"github.com/homees-app/homees/internal/user"
)

type createDemandeRequest struct {
	GestionnaireID string  `json:"gestionnaire_id"`
	ProprieteID    *string `json:"propriete_id"`
	Sujet          string  `json:"sujet"`
	Message        string  `json:"message"`
}

type demandeDetail struct {
	Demande  *demande.Demande   `json:"demande"`
	Messages []*demande.Message `json:"messages"`
}

// handleAPIDemandes routes /api/demandes requests.
func (s *Server) handleAPIDemandes(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	id, rest := routeParts(r.URL.Path, "/api/demandes")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			list, err := s.demandes.ListForUser(u.ID)
			if err != nil {
				apiError(w, "listing demandes: "+err.Error(), http.StatusInternalServerError)
				return
			}
			if list == nil {
				list = []*demande.Demande{}
			}
			apiJSON(w, list, http.StatusOK)
		case http.MethodPost:
			s.createDemande(w, r, u)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	d, ok := s.loadDemande(w, u, id)
	if !ok {
		return
	}

	switch rest {
	case "":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		msgs, err := s.demandes.ListMessages(d.ID)
		if err != nil {
			apiError(w, "listing messages: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if msgs == nil {
			msgs = []*demande.Message{}
		}
		apiJSON(w, demandeDetail{Demande: d, Messages: msgs}, http.StatusOK)
	case "messages":
		switch r.Method {
		case http.MethodGet:
			s.listMessages(w, u, d)
		case http.MethodPost:
			s.postMessage(w, r, u, d)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	case "statut":
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.updateDemandeStatut(w, r, u, d)
	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}

// loadDemande fetches a demande the user takes part in. Admins see all.
func (s *Server) loadDemande(w http.ResponseWriter, u *user.User, id string) (*demande.Demande, bool) {
	d, err := s.demandes.GetByID(id)
	if errors.Is(err, demande.ErrNotFound) {
		apiError(w, "demande not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		apiError(w, "loading demande: "+err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	if u.Role != user.RoleAdmin && !d.HasParticipant(u.ID) {
		apiError(w, "demande not found", http.StatusNotFound)
		return nil, false
	}
	return d, true
}

// createDemande opens a demande from an owner to a manager. The manager is
// notified in-app, over realtime and by email.
func (s *Server) createDemande(w http.ResponseWriter, r *http.Request, u *user.User) {
	if u.Role != user.RoleProprietaire {
		apiError(w, "only owners can open a demande", http.StatusForbidden)
		return
	}

	var req createDemandeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Sujet) == "" {
		apiError(w, "sujet is required", http.StatusBadRequest)
		return
	}

	manager, err := s.users.GetByID(req.GestionnaireID)
	if err != nil || manager.Role != user.RoleGestionnaire {
		apiError(w, "unknown gestionnaire", http.StatusBadRequest)
		return
	}

	var p *property.Property
	if req.ProprieteID != nil && *req.ProprieteID != "" {
		p, err = s.props.GetByID(*req.ProprieteID)
		if err != nil || p.ProprietaireID != u.ID {
			apiError(w, "unknown property", http.StatusBadRequest)
			return
		}
	} else {
		req.ProprieteID = nil
	}

	d, err := s.demandes.Create(&demande.Demande{
		ProprietaireID: u.ID,
		GestionnaireID: manager.ID,
		ProprieteID:    req.ProprieteID,
		Sujet:          req.Sujet,
	})
	if err != nil {
		apiError(w, "creating demande: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(req.Message) != "" {
		m, err := s.demandes.AddMessage(d.ID, u.ID, req.Message)
		if err != nil {
			slog.Error("adding first message", "demande_id", d.ID, "error", err)
		} else {
			s.publish("messages", realtime.Insert, m, d.ProprietaireID, d.GestionnaireID)
		}
	}

	s.publish("demande", realtime.Insert, d, d.ProprietaireID, d.GestionnaireID)
	s.notify(manager.ID, notification.TypeDemande,
		fmt.Sprintf("Nouvelle demande de %s : %s", u.DisplayName(), d.Sujet),
		"/demandes/"+d.ID)

	subject, body := mail.FormatDemandeEmail(d, u, p, s.baseURL)
	s.sendMail(manager.Email, subject, body)

	apiJSON(w, d, http.StatusCreated)
}

// listMessages returns the thread and marks the counterpart's messages read.
func (s *Server) listMessages(w http.ResponseWriter, u *user.User, d *demande.Demande) {
	msgs, err := s.demandes.ListMessages(d.ID)
	if err != nil {
		apiError(w, "listing messages: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if d.HasParticipant(u.ID) {
		if _, err := s.demandes.MarkRead(d.ID, u.ID); err != nil {
			slog.Warn("marking messages read", "demande_id", d.ID, "error", err)
		}
	}
	if msgs == nil {
		msgs = []*demande.Message{}
	}
	apiJSON(w, msgs, http.StatusOK)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request, u *user.User, d *demande.Demande) {
	var req struct {
		Contenu string `json:"contenu"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Contenu) == "" {
		apiError(w, "contenu is required", http.StatusBadRequest)
		return
	}

	m, err := s.demandes.AddMessage(d.ID, u.ID, req.Contenu)
	if errors.Is(err, demande.ErrNotParticipant) {
		apiError(w, "only participants can post messages", http.StatusForbidden)
		return
	}
	if err != nil {
		apiError(w, "adding message: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.publish("messages", realtime.Insert, m, d.ProprietaireID, d.GestionnaireID)
	s.notify(d.Counterpart(u.ID), notification.TypeMessage,
		fmt.Sprintf("Nouveau message de %s : %s", u.DisplayName(), d.Sujet),
		"/demandes/"+d.ID)

	apiJSON(w, m, http.StatusCreated)
}

// updateDemandeStatut applies a status change. Only the manager accepts or
// refuses; either participant may close an accepted demande.
func (s *Server) updateDemandeStatut(w http.ResponseWriter, r *http.Request, u *user.User, d *demande.Demande) {
	var req struct {
		Statut demande.Statut `json:"statut"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	switch req.Statut {
	case demande.Acceptee, demande.Refusee:
		if u.ID != d.GestionnaireID {
			apiError(w, "only the gestionnaire can answer a demande", http.StatusForbidden)
			return
		}
	case demande.Terminee:
		if !d.HasParticipant(u.ID) {
			apiError(w, "only participants can close a demande", http.StatusForbidden)
			return
		}
	default:
		apiError(w, fmt.Sprintf("invalid statut %q", req.Statut), http.StatusBadRequest)
		return
	}

	updated, err := s.demandes.UpdateStatut(d.ID, req.Statut)
	if errors.Is(err, demande.ErrInvalidTransition) {
		apiError(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		apiError(w, "updating demande: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.publish("demande", realtime.Update, updated, updated.ProprietaireID, updated.GestionnaireID)
	if updated.Statut == demande.Acceptee && updated.ProprieteID != nil {
		if p, err := s.props.GetByID(*updated.ProprieteID); err == nil {
			s.publish("propriete", realtime.Update, p, propertyAudience(p)...)
		}
	}

	s.notify(updated.Counterpart(u.ID), notification.TypeStatut,
		fmt.Sprintf("Demande « %s » : %s", updated.Sujet, updated.Statut.Label()),
		"/demandes/"+updated.ID)

	if u.ID == updated.GestionnaireID {
		if owner, err := s.users.GetByID(updated.ProprietaireID); err == nil {
			subject, body := mail.FormatStatutEmail(updated, u, s.baseURL)
			s.sendMail(owner.Email, subject, body)
		} else {
			slog.Warn("loading owner for email", "user_id", updated.ProprietaireID, "error", err)
		}
	}

	apiJSON(w, updated, http.StatusOK)
}
