package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLogoutClearsKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOMEES_SERVER_URL", "")

	cfg := CLIConfig{APIKey: "hm_testkey123", ServerURL: "http://127.0.0.1:1"}
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	// The server is unreachable; the local key is still removed.
	if err := runLogout(true); err != nil {
		t.Fatalf("logout: %v", err)
	}

	loaded, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.APIKey != "" {
		t.Errorf("api_key = %q, want empty after logout", loaded.APIKey)
	}
	if loaded.ServerURL != "http://127.0.0.1:1" {
		t.Errorf("server_url = %q, want preserved after logout", loaded.ServerURL)
	}
}

func TestLogoutWhenNotLoggedIn(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if err := runLogout(true); err != nil {
		t.Fatalf("logout with no config: %v", err)
	}
}

func TestLogoutRevokesMatchingKey(t *testing.T) {
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer hm_abcdef0123456789" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case "GET":
			w.Header().Set("Content-Type", "application/json")
			if _, err := w.Write([]byte(`[{"id":3,"name":"Laptop","key_prefix":"hm_99999"},{"id":7,"name":"CLI","key_prefix":"hm_abcde"}]`)); err != nil {
				t.Errorf("write: %v", err)
			}
		case "DELETE":
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOMEES_SERVER_URL", srv.URL)
	if err := saveConfig(CLIConfig{APIKey: "hm_abcdef0123456789"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := runLogout(true); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if deleted != "/api/keys/7" {
		t.Errorf("deleted = %q, want /api/keys/7", deleted)
	}
}

func TestLogoutKeepRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOMEES_SERVER_URL", srv.URL)
	if err := saveConfig(CLIConfig{APIKey: "hm_abcdef0123456789"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := runLogout(false); err != nil {
		t.Fatalf("logout: %v", err)
	}
}
