package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/homees-app/homees/internal/db"
	"github.com/homees-app/homees/internal/user"
)

func openTestDB(t *testing.T, path string) *user.Repository {
	t.Helper()
	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { closeDB(database) })
	return user.NewRepository(database)
}

func TestUserCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homees.db")

	if _, err := executeCommand("user", "add", "Claire@Example.fr", "--role", "gestionnaire", "--prenom", "Claire", "--nom", "Martin", "--db", path); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := executeCommand("user", "add", "alice@example.fr", "--db", path); err != nil {
		t.Fatalf("add default role: %v", err)
	}

	repo := openTestDB(t, path)
	claire, err := repo.GetByEmail("claire@example.fr")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if claire.Role != user.RoleGestionnaire || claire.DisplayName() != "Claire Martin" {
		t.Errorf("claire = %+v", claire)
	}
	alice, err := repo.GetByEmail("alice@example.fr")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if alice.Role != user.RoleProprietaire {
		t.Errorf("default role = %q, want proprietaire", alice.Role)
	}

	if _, err := executeCommand("user", "add", "alice@example.fr", "--db", path); !errors.Is(err, user.ErrEmailTaken) {
		t.Errorf("duplicate add err = %v, want ErrEmailTaken", err)
	}

	if _, err := executeCommand("user", "list", "--role", "gestionnaire", "--db", path); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := executeCommand("user", "list", "--role", "locataire", "--db", path); err == nil {
		t.Error("expected error for invalid role filter")
	}

	if _, err := executeCommand("user", "role", "alice@example.fr", "admin", "--db", path); err != nil {
		t.Fatalf("role: %v", err)
	}
	alice, err = repo.GetByID(alice.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if alice.Role != user.RoleAdmin {
		t.Errorf("role = %q, want admin", alice.Role)
	}

	if _, err := executeCommand("user", "remove", "claire@example.fr", "--db", path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := repo.GetByEmail("claire@example.fr"); !errors.Is(err, user.ErrNotFound) {
		t.Errorf("after remove err = %v, want ErrNotFound", err)
	}
	if _, err := executeCommand("user", "remove", "claire@example.fr", "--db", path); !errors.Is(err, user.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
}
