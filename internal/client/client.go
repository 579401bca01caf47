// Package client provides an HTTP client for the homees REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/homees-app/homees/internal/assistant"
	"github.com/homees-app/homees/internal/demande"
	"github.com/homees-app/homees/internal/notification"
	"github.com/homees-app/homees/internal/property"
	"github.com/homees-app/homees/internal/user"
)

// Client is an HTTP client for the homees API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// MeResponse is the response from GET /api/me.
type MeResponse struct {
	User   *user.User      `json:"user"`
	Profil json.RawMessage `json:"profil,omitempty"`
}

// DemandeDetail is the response from GET /api/demandes/{id}.
type DemandeDetail struct {
	Demande  *demande.Demande   `json:"demande"`
	Messages []*demande.Message `json:"messages"`
}

// ListOptions controls filtering for ListProperties.
type ListOptions struct {
	Ville string
	DPE   string
}

// Me returns the account the API key belongs to.
func (c *Client) Me() (*MeResponse, error) {
	var resp MeResponse
	if err := c.get("/api/me", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chat sends a message to the assistant. The endpoint is public, so it works
// without an API key.
func (c *Client) Chat(message string, history []assistant.Turn) (*assistant.Response, error) {
	body := assistant.Request{Message: message, ConversationHistory: history}
	var resp assistant.Response
	if err := c.post("/api/chat", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProperties returns the properties visible to the caller.
func (c *Client) ListProperties(opts ListOptions) ([]*property.Property, error) {
	params := url.Values{}
	if opts.Ville != "" {
		params.Set("ville", opts.Ville)
	}
	if opts.DPE != "" {
		params.Set("dpe", opts.DPE)
	}

	path := "/api/properties"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var props []*property.Property
	if err := c.get(path, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// ListGestionnaires returns managers, optionally restricted to a city.
func (c *Client) ListGestionnaires(ville string) ([]*user.Gestionnaire, error) {
	path := "/api/gestionnaires"
	if ville != "" {
		path += "?ville=" + url.QueryEscape(ville)
	}
	var list []*user.Gestionnaire
	if err := c.get(path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListDemandes returns the demandes the caller takes part in.
func (c *Client) ListDemandes() ([]*demande.Demande, error) {
	var list []*demande.Demande
	if err := c.get("/api/demandes", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetDemande returns a demande with its messages.
func (c *Client) GetDemande(id string) (*DemandeDetail, error) {
	var resp DemandeDetail
	if err := c.get("/api/demandes/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessage posts a message on a demande thread.
func (c *Client) SendMessage(demandeID, contenu string) (*demande.Message, error) {
	body := map[string]string{"contenu": contenu}
	var m demande.Message
	if err := c.post("/api/demandes/"+url.PathEscape(demandeID)+"/messages", body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SetDemandeStatut moves a demande to a new status.
func (c *Client) SetDemandeStatut(id string, statut demande.Statut) (*demande.Demande, error) {
	body := map[string]demande.Statut{"statut": statut}
	var d demande.Demande
	if err := c.post("/api/demandes/"+url.PathEscape(id)+"/statut", body, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Notifications returns the caller's notifications, newest first.
func (c *Client) Notifications(unreadOnly bool) ([]*notification.Notification, error) {
	path := "/api/notifications"
	if unreadOnly {
		path += "?unread=true"
	}
	var list []*notification.Notification
	if err := c.get(path, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkAllRead flags every notification as read and returns how many changed.
func (c *Client) MarkAllRead() (int64, error) {
	var resp struct {
		Updated int64 `json:"updated"`
	}
	if err := c.post("/api/notifications/read-all", struct{}{}, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

// APIKey describes a stored API key. The raw key is never returned after creation.
type APIKey struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	KeyPrefix string `json:"key_prefix"`
}

// ListAPIKeys returns the caller's API keys.
func (c *Client) ListAPIKeys() ([]APIKey, error) {
	var keys []APIKey
	if err := c.get("/api/keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteAPIKey revokes one of the caller's API keys.
func (c *Client) DeleteAPIKey(id int64) error {
	req, err := http.NewRequest("DELETE", fmt.Sprintf("%s/api/keys/%d", c.baseURL, id), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, nil)
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Printf("warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
