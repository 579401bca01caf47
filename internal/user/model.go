// Package user provides the utilisateurs domain model, profiles, and data access.
package user

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a user or profile row does not exist.
var ErrNotFound = errors.New("user not found")

// ErrEmailTaken is returned when creating a user with an existing email.
var ErrEmailTaken = errors.New("email already registered")

// Role is the account type stored on the utilisateurs row.
type Role string

const (
	RoleProprietaire Role = "proprietaire"
	RoleGestionnaire Role = "gestionnaire"
	RoleAdmin        Role = "admin"
)

// ValidRole returns true if s is a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleProprietaire, RoleGestionnaire, RoleAdmin:
		return true
	}
	return false
}

// Label returns a human-readable French label for the role.
func (r Role) Label() string {
	switch r {
	case RoleProprietaire:
		return "Propriétaire"
	case RoleGestionnaire:
		return "Gestionnaire"
	case RoleAdmin:
		return "Administrateur"
	default:
		return string(r)
	}
}

// DashboardPath returns where a user lands after login.
// Unknown roles go back to the home page.
func DashboardPath(r Role) string {
	switch r {
	case RoleProprietaire:
		return "/dashboard/proprietaire"
	case RoleGestionnaire:
		return "/dashboard/gestionnaire"
	case RoleAdmin:
		return "/admin"
	default:
		return "/"
	}
}

// User is a row of the utilisateurs table.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Nom       string    `json:"nom"`
	Prenom    string    `json:"prenom"`
	Telephone string    `json:"telephone,omitempty"`
	Role      Role      `json:"role"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns "Prenom Nom", falling back to the email.
func (u *User) DisplayName() string {
	switch {
	case u.Prenom != "" && u.Nom != "":
		return u.Prenom + " " + u.Nom
	case u.Prenom != "":
		return u.Prenom
	case u.Nom != "":
		return u.Nom
	default:
		return u.Email
	}
}

// ProfilProprietaire holds owner-specific profile fields.
type ProfilProprietaire struct {
	UserID      string    `json:"user_id"`
	NombreBiens int       `json:"nombre_biens"`
	Adresse     string    `json:"adresse"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfilGestionnaire holds manager-specific profile fields.
type ProfilGestionnaire struct {
	UserID         string    `json:"user_id"`
	Entreprise     string    `json:"entreprise"`
	SIRET          string    `json:"siret,omitempty"`
	Villes         []string  `json:"villes"`
	TauxCommission *float64  `json:"taux_commission,omitempty"` // percent of rent
	Description    string    `json:"description"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Gestionnaire pairs a manager account with its profile for listings.
type Gestionnaire struct {
	User   *User               `json:"user"`
	Profil *ProfilGestionnaire `json:"profil"`
}
