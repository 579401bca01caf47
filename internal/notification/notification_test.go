package notification

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/homees-app/homees/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	for _, id := range []string{"alice", "bob"} {
		if _, err := d.Exec("INSERT INTO utilisateurs (id, email, role) VALUES (?, ?, 'proprietaire')", id, id+"@example.fr"); err != nil {
			t.Fatalf("insert user: %v", err)
		}
	}
	return NewRepository(d)
}

func TestCreateAndList(t *testing.T) {
	repo := testRepo(t)

	first, err := repo.Create("alice", TypeDemande, "Nouvelle demande", "/demandes/1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Lu {
		t.Error("new notification should be unread")
	}
	if first.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
	if _, err := repo.Create("alice", TypeMessage, "Nouveau message", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create("bob", TypeMessage, "Pour Bob", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create("alice", TypeMessage, "", ""); err == nil {
		t.Error("expected error for empty message")
	}

	list, err := repo.ListByUser("alice", false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d, want 2", len(list))
	}
	if list[0].Message != "Nouveau message" {
		t.Errorf("newest first: got %q", list[0].Message)
	}
}

func TestReadState(t *testing.T) {
	repo := testRepo(t)

	n, err := repo.Create("alice", TypeStatut, "Demande acceptée", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create("alice", TypeStatut, "Demande refusée", ""); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := repo.UnreadCount("alice")
	if err != nil || count != 2 {
		t.Fatalf("unread = %d, %v; want 2", count, err)
	}

	if err := repo.MarkRead("bob", n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("marking another user's notification: err = %v, want ErrNotFound", err)
	}
	if err := repo.MarkRead("alice", n.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := repo.ListByUser("alice", true)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 || unread[0].ID == n.ID {
		t.Errorf("unexpected unread list: %+v", unread)
	}

	updated, err := repo.MarkAllRead("alice")
	if err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}
	if count, _ := repo.UnreadCount("alice"); count != 0 {
		t.Errorf("unread = %d, want 0", count)
	}
}
