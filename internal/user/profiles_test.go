package user

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestProprietaireProfile(t *testing.T) {
	repo := testRepo(t)

	u, err := repo.Create(&User{Email: "owner@example.fr", Role: RoleProprietaire})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetProprietaire(u.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound before upsert", err)
	}

	p, err := repo.UpsertProprietaire(&ProfilProprietaire{UserID: u.ID, NombreBiens: 2, Adresse: "3 rue Oberkampf"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if p.NombreBiens != 2 {
		t.Errorf("nombre_biens = %d, want 2", p.NombreBiens)
	}

	p, err = repo.UpsertProprietaire(&ProfilProprietaire{UserID: u.ID, NombreBiens: 3})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if p.NombreBiens != 3 || p.Adresse != "" {
		t.Errorf("expected replaced profile, got %+v", p)
	}

	if _, err := repo.UpsertProprietaire(&ProfilProprietaire{UserID: u.ID, NombreBiens: -1}); err == nil {
		t.Error("expected error for negative count")
	}
}

func TestGestionnaireProfile(t *testing.T) {
	repo := testRepo(t)

	u, err := repo.Create(&User{Email: "agence@example.fr", Role: RoleGestionnaire})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	taux := 7.5
	p, err := repo.UpsertGestionnaire(&ProfilGestionnaire{
		UserID:         u.ID,
		Entreprise:     "Agence du Marais",
		Villes:         []string{" Paris ", "lyon", "PARIS", ""},
		TauxCommission: &taux,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if diff := cmp.Diff([]string{"paris", "lyon"}, p.Villes); diff != "" {
		t.Errorf("villes mismatch (-want +got):\n%s", diff)
	}
	if p.TauxCommission == nil || *p.TauxCommission != 7.5 {
		t.Errorf("taux = %v, want 7.5", p.TauxCommission)
	}

	bad := 120.0
	if _, err := repo.UpsertGestionnaire(&ProfilGestionnaire{UserID: u.ID, TauxCommission: &bad}); err == nil {
		t.Error("expected error for commission over 100")
	}
}

func TestListGestionnairesByVille(t *testing.T) {
	repo := testRepo(t)

	mk := func(email, entreprise string, villes ...string) {
		t.Helper()
		u, err := repo.Create(&User{Email: email, Role: RoleGestionnaire})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.UpsertGestionnaire(&ProfilGestionnaire{UserID: u.ID, Entreprise: entreprise, Villes: villes}); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	mk("a@example.fr", "Alpha Gestion", "Paris", "Lyon")
	mk("b@example.fr", "Beta Immo", "Bordeaux")
	// Manager without profile is not listed.
	if _, err := repo.Create(&User{Email: "c@example.fr", Role: RoleGestionnaire}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := repo.ListGestionnaires("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d managers, want 2", len(all))
	}
	if all[0].Profil.Entreprise != "Alpha Gestion" {
		t.Errorf("first = %q, want Alpha Gestion", all[0].Profil.Entreprise)
	}

	lyon, err := repo.ListGestionnaires("LYON")
	if err != nil {
		t.Fatalf("list lyon: %v", err)
	}
	if len(lyon) != 1 || lyon[0].User.Email != "a@example.fr" {
		t.Errorf("expected only a@example.fr for lyon, got %d", len(lyon))
	}
}
