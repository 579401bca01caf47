package web

import (
	"errors"
	"net/http"

	"github.com/homees-app/homees/internal/auth"
	"github.com/homees-app/homees/internal/notification"
	"github.com/homees-app/homees/internal/realtime"
)

// handleAPINotifications routes /api/notifications, /api/notifications/read-all
// and /api/notifications/{id}/read.
func (s *Server) handleAPINotifications(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	id, rest := routeParts(r.URL.Path, "/api/notifications")

	switch {
	case id == "":
		if r.Method != http.MethodGet {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		list, err := s.notifications.ListByUser(u.ID, r.URL.Query().Get("unread") == "true")
		if err != nil {
			apiError(w, "listing notifications: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []*notification.Notification{}
		}
		apiJSON(w, list, http.StatusOK)

	case id == "read-all" && rest == "":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		n, err := s.notifications.MarkAllRead(u.ID)
		if err != nil {
			apiError(w, "marking notifications read: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.publish("notifications", realtime.Update, map[string]bool{"all_read": true}, u.ID)
		apiJSON(w, map[string]int64{"updated": n}, http.StatusOK)

	case rest == "read":
		if r.Method != http.MethodPost {
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		err := s.notifications.MarkRead(u.ID, id)
		if errors.Is(err, notification.ErrNotFound) {
			apiError(w, "notification not found", http.StatusNotFound)
			return
		}
		if err != nil {
			apiError(w, "marking notification read: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.publish("notifications", realtime.Update, map[string]string{"id": id}, u.ID)
		w.WriteHeader(http.StatusNoContent)

	default:
		apiError(w, "not found", http.StatusNotFound)
	}
}
