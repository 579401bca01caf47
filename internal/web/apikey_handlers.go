package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/homees-app/homees/internal/auth"
)

type apiKeyResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

type apiKeyCreateResponse struct {
	Key            string         `json:"key"` // raw key, shown once
	APIKeyResponse apiKeyResponse `json:"api_key"`
}

const timestampLayout = "2006-01-02T15:04:05Z"

func toAPIKeyResponse(k *auth.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format(timestampLayout),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format(timestampLayout)
		resp.LastUsedAt = &s
	}
	return resp
}

// handleAPIKeysRoute routes /api/keys and /api/keys/{id}. Keys belong to the
// signed-in user.
func (s *Server) handleAPIKeysRoute(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	id, _ := routeParts(r.URL.Path, "/api/keys")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			s.handleListKeys(w, u.ID)
		case http.MethodPost:
			s.handleCreateKey(w, r, u.ID)
		default:
			apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != http.MethodDelete {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	keyID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		apiError(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	if err := s.apiKeys.Delete(u.ID, keyID); err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			apiError(w, "key not found", http.StatusNotFound)
			return
		}
		slog.Error("deleting api key", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request, userID string) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := s.apiKeys.Create(userID, name)
	if err != nil {
		slog.Error("creating api key", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	apiJSON(w, apiKeyCreateResponse{Key: rawKey, APIKeyResponse: toAPIKeyResponse(key)}, http.StatusCreated)
}

func (s *Server) handleListKeys(w http.ResponseWriter, userID string) {
	keys, err := s.apiKeys.List(userID)
	if err != nil {
		slog.Error("listing api keys", "error", err)
		apiError(w, "internal error", http.StatusInternalServerError)
		return
	}

	resp := make([]apiKeyResponse, len(keys))
	for i := range keys {
		resp[i] = toAPIKeyResponse(&keys[i])
	}
	apiJSON(w, resp, http.StatusOK)
}
