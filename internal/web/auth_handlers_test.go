package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/homees-app/homees/internal/user"
)

func postForm(t *testing.T, srv *Server, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func hasSessionCookie(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == "homees_session" && c.Value != "" {
			return true
		}
	}
	return false
}

func TestLoginPageRenders(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "GET", "/login", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `id="login-form"`) {
		t.Error("expected login form")
	}
}

func TestLoginRedirectsByRole(t *testing.T) {
	srv, database := testServerWithDB(t)
	createUser(t, database, "owner@example.fr", user.RoleProprietaire)
	createUser(t, database, "agency@example.fr", user.RoleGestionnaire)
	createUser(t, database, "root@example.fr", user.RoleAdmin)

	tests := []struct {
		email string
		want  string
	}{
		{"owner@example.fr", "/dashboard/proprietaire"},
		{"Agency@Example.fr", "/dashboard/gestionnaire"},
		{"root@example.fr", "/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			w := postForm(t, srv, "/login", url.Values{"email": {tt.email}, "password": {"secret"}}, nil)
			if w.Code != http.StatusSeeOther {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if loc := w.Header().Get("Location"); loc != tt.want {
				t.Errorf("location = %q, want %q", loc, tt.want)
			}
			if !hasSessionCookie(w) {
				t.Error("expected session cookie")
			}
		})
	}
}

func TestLoginHonorsLocalNext(t *testing.T) {
	srv, database := testServerWithDB(t)
	createUser(t, database, "owner@example.fr", user.RoleProprietaire)

	w := postForm(t, srv, "/login", url.Values{"email": {"owner@example.fr"}, "password": {"x"}, "next": {"/demandes/abc"}}, nil)
	if loc := w.Header().Get("Location"); loc != "/demandes/abc" {
		t.Errorf("location = %q, want /demandes/abc", loc)
	}

	w = postForm(t, srv, "/login", url.Values{"email": {"owner@example.fr"}, "password": {"x"}, "next": {"//evil.example"}}, nil)
	if loc := w.Header().Get("Location"); loc != "/dashboard/proprietaire" {
		t.Errorf("location = %q, want dashboard for off-site next", loc)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	srv, database := testServerWithDB(t)
	createUser(t, database, "owner@example.fr", user.RoleProprietaire)

	for _, form := range []url.Values{
		{"email": {"owner@example.fr"}, "password": {""}},
		{"email": {"nobody@example.fr"}, "password": {"secret"}},
	} {
		w := postForm(t, srv, "/login", form, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), "Email ou mot de passe incorrect") {
			t.Error("expected error message")
		}
		if hasSessionCookie(w) {
			t.Error("no session should be created")
		}
	}
}

func TestLoginRateLimited(t *testing.T) {
	srv, database := testServerWithDB(t)
	createUser(t, database, "owner@example.fr", user.RoleProprietaire)

	bad := url.Values{"email": {"nobody@example.fr"}, "password": {"x"}}
	for i := 0; i < loginRateLimit; i++ {
		postForm(t, srv, "/login", bad, nil)
	}

	w := postForm(t, srv, "/login", url.Values{"email": {"owner@example.fr"}, "password": {"x"}}, nil)
	if !strings.Contains(w.Body.String(), "Trop de tentatives") {
		t.Error("expected rate limit message after repeated failures")
	}
	if hasSessionCookie(w) {
		t.Error("blocked client must not get a session")
	}
}

func TestLoginPageRedirectsSignedInUser(t *testing.T) {
	srv, database := testServerWithDB(t)
	bob := createUser(t, database, "bob@example.fr", user.RoleGestionnaire)

	w := do(t, srv, "GET", "/login", "", sessionCookie(t, database, bob.ID))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard/gestionnaire" {
		t.Errorf("location = %q", loc)
	}
}

func TestSignupCreatesAccount(t *testing.T) {
	srv, database := testServerWithDB(t)

	w := postForm(t, srv, "/signup", url.Values{
		"email":    {"Nouveau@Example.fr"},
		"password": {"motdepasse"},
		"prenom":   {"Camille"},
		"nom":      {"Martin"},
		"role":     {"gestionnaire"},
	}, nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, http.StatusSeeOther, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/dashboard/gestionnaire" {
		t.Errorf("location = %q", loc)
	}

	u, err := user.NewRepository(database).GetByEmail("nouveau@example.fr")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if u.Role != user.RoleGestionnaire || u.Prenom != "Camille" {
		t.Errorf("user = %+v", u)
	}
}

func TestSignupErrors(t *testing.T) {
	srv, database := testServerWithDB(t)
	createUser(t, database, "taken@example.fr", user.RoleProprietaire)

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"short password", url.Values{"email": {"a@example.fr"}, "password": {"123"}, "role": {"proprietaire"}}, "password must be at least 6 characters"},
		{"admin role", url.Values{"email": {"a@example.fr"}, "password": {"123456"}, "role": {"admin"}}, "role must be proprietaire or gestionnaire"},
		{"taken", url.Values{"email": {"taken@example.fr"}, "password": {"123456"}, "role": {"proprietaire"}}, "Cet email est déjà utilisé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postForm(t, srv, "/signup", tt.form, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Errorf("body should contain %q", tt.want)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	srv, database := testServerWithDB(t)
	alice := createUser(t, database, "alice@example.fr", user.RoleProprietaire)
	cookie := sessionCookie(t, database, alice.ID)

	w := do(t, srv, "GET", "/auth/logout", "", cookie)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET logout: status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}

	w = postForm(t, srv, "/auth/logout", url.Values{}, cookie)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Errorf("location = %q, want /login", loc)
	}

	w = do(t, srv, "GET", "/api/me", "", cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("after logout: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"/dashboard":        "/dashboard",
		"//evil.example":    "",
		"/\\evil.example":   "",
		"https://evil.test": "",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}
