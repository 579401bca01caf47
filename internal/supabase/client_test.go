package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "anon-key")
}

func TestSignInWithPassword(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["email"] != "marie@example.fr" || body["password"] != "secret" {
			t.Errorf("unexpected body %v", body)
		}
		_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600,"user":{"id":"u-1","email":"marie@example.fr"}}`))
	})

	s, err := c.SignInWithPassword(context.Background(), "marie@example.fr", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if s.AccessToken != "tok" || s.User.ID != "u-1" {
		t.Errorf("unexpected session %+v", s)
	}
}

func TestSignInRejected(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	})

	_, err := c.SignInWithPassword(context.Background(), "marie@example.fr", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid login credentials" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"user response", `{"id":"u-2","email":"paul@example.fr"}`},
		{"session response", `{"access_token":"tok","user":{"id":"u-2","email":"paul@example.fr"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Data map[string]any `json:"data"`
				}
				_ = json.NewDecoder(r.Body).Decode(&body)
				if body.Data["role"] != "gestionnaire" {
					t.Errorf("metadata = %v", body.Data)
				}
				_, _ = w.Write([]byte(tt.body))
			})

			u, err := c.SignUp(context.Background(), "paul@example.fr", "secret", map[string]any{"role": "gestionnaire"})
			if err != nil {
				t.Fatalf("sign up: %v", err)
			}
			if u.ID != "u-2" {
				t.Errorf("id = %q", u.ID)
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"u-3","email":"lea@example.fr"}`))
	})

	u, err := c.GetUser(context.Background(), "user-token")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Email != "lea@example.fr" {
		t.Errorf("email = %q", u.Email)
	}

	if _, err := c.GetUser(context.Background(), "bad"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestServerError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.GetUser(context.Background(), "tok")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("server error should not be reported as invalid credentials")
	}
}
