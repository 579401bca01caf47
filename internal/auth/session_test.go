package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSessionCreateAndValidate(t *testing.T) {
	store := NewSessionStore(testDB(t), true)

	cookie := sessionCookie(t, store, "alice")
	if !cookie.HttpOnly || !cookie.Secure {
		t.Errorf("cookie flags: HttpOnly=%v Secure=%v", cookie.HttpOnly, cookie.Secure)
	}
	if until := time.Until(cookie.Expires); until < 29*24*time.Hour {
		t.Errorf("cookie expires in %v, want ~30 days", until)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)

	userID, err := store.Validate(r)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if userID != "alice" {
		t.Errorf("user = %q, want alice", userID)
	}
}

func TestSessionValidateNoCookie(t *testing.T) {
	store := NewSessionStore(testDB(t), false)

	r := httptest.NewRequest("GET", "/", nil)
	if _, err := store.Validate(r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionValidateInvalidCookie(t *testing.T) {
	store := NewSessionStore(testDB(t), false)

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "bogus-session-id"})

	if _, err := store.Validate(r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestSessionExpired(t *testing.T) {
	d := testDB(t)
	store := NewSessionStore(d, false)

	if _, err := d.Exec("INSERT INTO sessions (id, user_id, expires_at) VALUES ('old', 'alice', ?)", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "old"})
	if _, err := store.Validate(r); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM sessions WHERE id = 'old'").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Error("expired session should be deleted")
	}
}

func TestSessionDestroy(t *testing.T) {
	store := NewSessionStore(testDB(t), false)
	cookie := sessionCookie(t, store, "alice")

	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(cookie)
	w := httptest.NewRecorder()

	if err := store.Destroy(w, r); err != nil {
		t.Fatalf("destroy: %v", err)
	}

	r2 := httptest.NewRequest("GET", "/", nil)
	r2.AddCookie(cookie)
	if _, err := store.Validate(r2); err == nil {
		t.Fatal("expected error after destroy")
	}
}

func TestSessionCleanup(t *testing.T) {
	d := testDB(t)
	store := NewSessionStore(d, false)
	sessionCookie(t, store, "alice")

	if _, err := d.Exec("INSERT INTO sessions (id, user_id, expires_at) VALUES ('old', 'bob', ?)", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("sessions = %d, want 1", count)
	}
}
