package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/homees-app/homees/internal/assistant"
)

// handleChat answers POST /api/chat. Model failures still return 200 with
// the fallback reply; only bad requests are errors.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		apiError(w, "Méthode non autorisée", http.StatusMethodNotAllowed)
		return
	}

	var req assistant.Request
	if err := decodeJSON(w, r, &req); err != nil {
		apiError(w, "Requête invalide", http.StatusBadRequest)
		return
	}

	resp, err := s.chat.Reply(r.Context(), req)
	if errors.Is(err, assistant.ErrEmptyMessage) {
		apiError(w, "Message requis", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("chat reply", "error", err)
		apiError(w, "Erreur interne", http.StatusInternalServerError)
		return
	}

	apiJSON(w, resp, http.StatusOK)
}
