package cli

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid key", "hm_abc123def456", false},
		{"empty key", "", true},
		{"missing prefix", "abc123def456", true},
		{"wrong prefix", "xx_abc123", true},
		{"just prefix", "hm_", false},
		{"other prefix", "sk_abc123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAPIKey(%q) err = %v, wantErr = %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func meServer(t *testing.T, validKey string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+validKey {
			w.WriteHeader(http.StatusUnauthorized)
			if _, err := w.Write([]byte(`{"error":"unauthorized"}`)); err != nil {
				t.Errorf("write: %v", err)
			}
			return
		}
		if _, err := w.Write([]byte(`{"user":{"id":"u1","email":"claire@example.fr","role":"gestionnaire"}}`)); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresPastedKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := meServer(t, "hm_pasted123")

	in := strings.NewReader("  hm_pasted123  \n")
	if err := runLogin(loginOptions{server: srv.URL, noBrowser: true}, in); err != nil {
		t.Fatalf("login: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "hm_pasted123" || cfg.ServerURL != srv.URL {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoginRejectsUnknownKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	srv := meServer(t, "hm_good")

	err := runLogin(loginOptions{server: srv.URL, key: "hm_bad"}, strings.NewReader(""))
	if err == nil {
		t.Fatal("expected error for rejected key")
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIKey != "" {
		t.Errorf("rejected key was saved: %q", cfg.APIKey)
	}
}
