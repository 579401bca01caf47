package user

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/homees-app/homees/internal/db"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return NewRepository(d)
}

func TestCreateAndGet(t *testing.T) {
	repo := testRepo(t)

	u, err := repo.Create(&User{Email: " Marie@Example.FR ", Nom: "Durand", Prenom: "Marie", Role: RoleProprietaire})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected generated ID")
	}

	want := &User{ID: u.ID, Email: "marie@example.fr", Nom: "Durand", Prenom: "Marie", Role: RoleProprietaire}
	if diff := cmp.Diff(want, u, cmpopts.IgnoreFields(User{}, "CreatedAt")); diff != "" {
		t.Errorf("created user mismatch (-want +got):\n%s", diff)
	}

	byEmail, err := repo.GetByEmail("MARIE@example.fr")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != u.ID {
		t.Errorf("id = %q, want %q", byEmail.ID, u.ID)
	}
}

func TestCreateKeepsProvidedID(t *testing.T) {
	repo := testRepo(t)

	u, err := repo.Create(&User{ID: "auth-uid-1", Email: "g@example.fr", Role: RoleGestionnaire})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID != "auth-uid-1" {
		t.Errorf("id = %q, want auth-uid-1", u.ID)
	}
}

func TestCreateValidation(t *testing.T) {
	repo := testRepo(t)

	tests := []struct {
		name string
		user *User
	}{
		{"missing email", &User{Role: RoleProprietaire}},
		{"invalid role", &User{Email: "x@example.fr", Role: "locataire"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Create(tt.user); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	repo := testRepo(t)

	if _, err := repo.Create(&User{Email: "dup@example.fr", Role: RoleProprietaire}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.Create(&User{Email: "DUP@example.fr", Role: RoleGestionnaire})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetByID("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListByRole(t *testing.T) {
	repo := testRepo(t)

	for _, u := range []*User{
		{Email: "b@example.fr", Role: RoleGestionnaire},
		{Email: "a@example.fr", Role: RoleProprietaire},
		{Email: "c@example.fr", Role: RoleGestionnaire},
	} {
		if _, err := repo.Create(u); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := repo.List("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].Email != "a@example.fr" {
		t.Errorf("expected 3 users ordered by email, got %d", len(all))
	}

	managers, err := repo.List(RoleGestionnaire)
	if err != nil {
		t.Fatalf("list managers: %v", err)
	}
	if len(managers) != 2 {
		t.Errorf("got %d managers, want 2", len(managers))
	}
}

func TestUpdateAndRole(t *testing.T) {
	repo := testRepo(t)

	u, err := repo.Create(&User{Email: "p@example.fr", Role: RoleProprietaire})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	u.Nom = "Martin"
	u.Telephone = "0601020304"
	if err := repo.Update(u); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := repo.UpdateRole(u.ID, RoleAdmin); err != nil {
		t.Fatalf("update role: %v", err)
	}
	if err := repo.UpdateRole(u.ID, "superuser"); err == nil {
		t.Error("expected invalid role error")
	}

	got, err := repo.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Nom != "Martin" || got.Telephone != "0601020304" || got.Role != RoleAdmin {
		t.Errorf("unexpected user after update: %+v", got)
	}

	if err := repo.UpdateRole("missing", RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)

	u, err := repo.Create(&User{Email: "d@example.fr", Role: RoleProprietaire})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestDashboardPath(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleProprietaire, "/dashboard/proprietaire"},
		{RoleGestionnaire, "/dashboard/gestionnaire"},
		{RoleAdmin, "/admin"},
		{"", "/"},
		{"locataire", "/"},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := DashboardPath(tt.role); got != tt.want {
				t.Errorf("DashboardPath(%q) = %q, want %q", tt.role, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		user User
		want string
	}{
		{User{Prenom: "Marie", Nom: "Durand", Email: "m@x.fr"}, "Marie Durand"},
		{User{Prenom: "Marie", Email: "m@x.fr"}, "Marie"},
		{User{Nom: "Durand", Email: "m@x.fr"}, "Durand"},
		{User{Email: "m@x.fr"}, "m@x.fr"},
	}
	for _, tt := range tests {
		if got := tt.user.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}
