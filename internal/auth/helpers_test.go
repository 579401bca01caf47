package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/homees-app/homees/internal/db"
	"github.com/homees-app/homees/internal/user"
)

// testDB opens a fresh database seeded with an owner (alice) and a manager (bob).
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	users := user.NewRepository(d)
	for _, u := range []*user.User{
		{ID: "alice", Email: "alice@example.fr", Role: user.RoleProprietaire},
		{ID: "bob", Email: "bob@example.fr", Role: user.RoleGestionnaire},
	} {
		if _, err := users.Create(u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	return d
}

func sessionCookie(t *testing.T, store *SessionStore, userID string) *http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	if err := store.Create(w, userID); err != nil {
		t.Fatalf("create session: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatalf("expected cookie named %q", cookieName)
	return nil
}
