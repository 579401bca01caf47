package web

import (
	"errors"
	"net/http"

	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/realtime"
	"github.com/homees-app/homees/internal/user"
)

// handleUsersRoute routes /api/users requests. Wrapped in RequireRole(admin).
func (s *Server) handleUsersRoute(w http.ResponseWriter, r *http.Request) {
	id, rest := routeParts(r.URL.Path, "/api/users")

	if id == "" {
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.listUsers(w, r)
		return
	}
	if rest != "" {
		apiError(w, "not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPatch:
		s.updateUserRole(w, r, id)
	case http.MethodDelete:
		s.deleteUser(w, r, id)
	default:
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role != "" && !user.ValidRole(role) {
		apiError(w, "invalid role", http.StatusBadRequest)
		return
	}

	users, err := s.users.List(user.Role(role))
	if err != nil {
		apiError(w, "listing users: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*user.User{}
	}
	apiJSON(w, users, http.StatusOK)
}

func (s *Server) updateUserRole(w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if !user.ValidRole(req.Role) {
		apiError(w, "invalid role", http.StatusBadRequest)
		return
	}

	if err := s.users.UpdateRole(id, user.Role(req.Role)); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			apiError(w, "user not found", http.StatusNotFound)
			return
		}
		apiError(w, "updating role: "+err.Error(), http.StatusInternalServerError)
		return
	}

	updated, err := s.users.GetByID(id)
	if err != nil {
		apiError(w, "reloading user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.publish("utilisateurs", realtime.Update, updated, updated.ID)
	apiJSON(w, updated, http.StatusOK)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, id string) {
	if me := auth.UserFromContext(r.Context()); me != nil && me.ID == id {
		apiError(w, "cannot delete your own account", http.StatusBadRequest)
		return
	}

	if err := s.users.Delete(id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			apiError(w, "user not found", http.StatusNotFound)
			return
		}
		apiError(w, "deleting user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
