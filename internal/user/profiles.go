package user

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// UpsertProprietaire creates or replaces an owner profile.
func (r *Repository) UpsertProprietaire(p *ProfilProprietaire) (*ProfilProprietaire, error) {
	if p.NombreBiens < 0 {
		return nil, fmt.Errorf("nombre_biens must be >= 0, got %d", p.NombreBiens)
	}

	_, err := r.db.Exec(`INSERT INTO profil_proprietaire (user_id, nombre_biens, adresse, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			nombre_biens = excluded.nombre_biens,
			adresse = excluded.adresse,
			updated_at = CURRENT_TIMESTAMP`,
		p.UserID, p.NombreBiens, strings.TrimSpace(p.Adresse),
	)
	if err != nil {
		return nil, fmt.Errorf("saving owner profile: %w", err)
	}

	return r.GetProprietaire(p.UserID)
}

// GetProprietaire returns the owner profile for a user.
func (r *Repository) GetProprietaire(userID string) (*ProfilProprietaire, error) {
	var p ProfilProprietaire
	err := r.db.QueryRow(
		"SELECT user_id, nombre_biens, adresse, updated_at FROM profil_proprietaire WHERE user_id = ?", userID,
	).Scan(&p.UserID, &p.NombreBiens, &p.Adresse, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: owner profile %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying owner profile: %w", err)
	}
	return &p, nil
}

// UpsertGestionnaire creates or replaces a manager profile.
// City names are trimmed and stored lower-case for matching.
func (r *Repository) UpsertGestionnaire(p *ProfilGestionnaire) (*ProfilGestionnaire, error) {
	if p.TauxCommission != nil && (*p.TauxCommission < 0 || *p.TauxCommission > 100) {
		return nil, fmt.Errorf("taux_commission must be 0-100, got %g", *p.TauxCommission)
	}

	villes := normalizeVilles(p.Villes)
	villesJSON, err := json.Marshal(villes)
	if err != nil {
		return nil, fmt.Errorf("encoding villes: %w", err)
	}

	_, err = r.db.Exec(`INSERT INTO profil_gestionnaire
		(user_id, entreprise, siret, villes, taux_commission, description, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			entreprise = excluded.entreprise,
			siret = excluded.siret,
			villes = excluded.villes,
			taux_commission = excluded.taux_commission,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP`,
		p.UserID, strings.TrimSpace(p.Entreprise), strings.TrimSpace(p.SIRET), string(villesJSON),
		p.TauxCommission, strings.TrimSpace(p.Description),
	)
	if err != nil {
		return nil, fmt.Errorf("saving manager profile: %w", err)
	}

	return r.GetGestionnaire(p.UserID)
}

const gestionnaireColumns = `user_id, entreprise, siret, villes, taux_commission, description, updated_at`

func scanGestionnaire(row scanner) (*ProfilGestionnaire, error) {
	var p ProfilGestionnaire
	var villes string
	var taux sql.NullFloat64
	if err := row.Scan(&p.UserID, &p.Entreprise, &p.SIRET, &villes, &taux, &p.Description, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if taux.Valid {
		p.TauxCommission = &taux.Float64
	}
	if err := json.Unmarshal([]byte(villes), &p.Villes); err != nil {
		return nil, fmt.Errorf("decoding villes: %w", err)
	}
	if p.Villes == nil {
		p.Villes = []string{}
	}
	return &p, nil
}

// GetGestionnaire returns the manager profile for a user.
func (r *Repository) GetGestionnaire(userID string) (*ProfilGestionnaire, error) {
	row := r.db.QueryRow("SELECT "+gestionnaireColumns+" FROM profil_gestionnaire WHERE user_id = ?", userID)
	p, err := scanGestionnaire(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: manager profile %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying manager profile: %w", err)
	}
	return p, nil
}

// ListGestionnaires returns managers with a profile, optionally only those
// covering the given city (case-insensitive).
func (r *Repository) ListGestionnaires(ville string) ([]*Gestionnaire, error) {
	rows, err := r.db.Query(`SELECT u.id, u.email, u.nom, u.prenom, u.telephone, u.role, u.avatar_url, u.created_at,
			p.user_id, p.entreprise, p.siret, p.villes, p.taux_commission, p.description, p.updated_at
		FROM utilisateurs u
		JOIN profil_gestionnaire p ON p.user_id = u.id
		WHERE u.role = ?
		ORDER BY p.entreprise, u.email`, string(RoleGestionnaire))
	if err != nil {
		return nil, fmt.Errorf("listing managers: %w", err)
	}
	defer closeRows(rows)

	ville = strings.ToLower(strings.TrimSpace(ville))

	var result []*Gestionnaire
	for rows.Next() {
		var u User
		var role, villes string
		var p ProfilGestionnaire
		var taux sql.NullFloat64
		if err := rows.Scan(&u.ID, &u.Email, &u.Nom, &u.Prenom, &u.Telephone, &role, &u.AvatarURL, &u.CreatedAt,
			&p.UserID, &p.Entreprise, &p.SIRET, &villes, &taux, &p.Description, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning manager: %w", err)
		}
		u.Role = Role(role)
		if taux.Valid {
			p.TauxCommission = &taux.Float64
		}
		if err := json.Unmarshal([]byte(villes), &p.Villes); err != nil {
			return nil, fmt.Errorf("decoding villes: %w", err)
		}
		if ville != "" && !containsString(p.Villes, ville) {
			continue
		}
		result = append(result, &Gestionnaire{User: &u, Profil: &p})
	}

	return result, rows.Err()
}

func normalizeVilles(villes []string) []string {
	out := make([]string, 0, len(villes))
	seen := make(map[string]bool)
	for _, v := range villes {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
