// Package property provides the propriete domain model and data access.
package property

import (
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a property does not exist.
var ErrNotFound = errors.New("property not found")

// Type is the kind of property.
type Type string

const (
	TypeAppartement     Type = "appartement"
	TypeMaison          Type = "maison"
	TypeStudio          Type = "studio"
	TypeLocalCommercial Type = "local_commercial"
	TypeTerrain         Type = "terrain"
)

// ValidTypes is the set of allowed property types.
var ValidTypes = []Type{TypeAppartement, TypeMaison, TypeStudio, TypeLocalCommercial, TypeTerrain}

// IsValid checks if a property type is recognized.
func (t Type) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the property type.
func (t Type) Label() string {
	switch t {
	case TypeAppartement:
		return "Appartement"
	case TypeMaison:
		return "Maison"
	case TypeStudio:
		return "Studio"
	case TypeLocalCommercial:
		return "Local commercial"
	case TypeTerrain:
		return "Terrain"
	default:
		return string(t)
	}
}

// NormalizeDPE upper-cases and validates an energy class (A-G).
// The second return is false for anything outside A-G.
func NormalizeDPE(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 1 || s[0] < 'A' || s[0] > 'G' {
		return "", false
	}
	return s, true
}

// Property is a row of the propriete table.
type Property struct {
	ID             string    `json:"id"`
	ProprietaireID string    `json:"proprietaire_id"`
	GestionnaireID *string   `json:"gestionnaire_id,omitempty"`
	Titre          string    `json:"titre"`
	Adresse        string    `json:"adresse"`
	Ville          string    `json:"ville"`
	CodePostal     string    `json:"code_postal"`
	Type           Type      `json:"type"`
	Surface        *float64  `json:"surface,omitempty"` // m²
	Pieces         *int64    `json:"pieces,omitempty"`
	Loyer          *float64  `json:"loyer,omitempty"` // euros per month
	DPE            *string   `json:"dpe,omitempty"`
	Description    string    `json:"description"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Validate checks required fields and normalizes the DPE class in place.
func (p *Property) Validate() error {
	if strings.TrimSpace(p.ProprietaireID) == "" {
		return errors.New("proprietaire_id is required")
	}
	if strings.TrimSpace(p.Titre) == "" {
		return errors.New("titre is required")
	}
	if strings.TrimSpace(p.Adresse) == "" {
		return errors.New("adresse is required")
	}
	if !p.Type.IsValid() {
		return errors.New("invalid type: " + string(p.Type))
	}
	if p.Surface != nil && *p.Surface <= 0 {
		return errors.New("surface must be positive")
	}
	if p.Pieces != nil && *p.Pieces < 0 {
		return errors.New("pieces must be >= 0")
	}
	if p.Loyer != nil && *p.Loyer < 0 {
		return errors.New("loyer must be >= 0")
	}
	if p.DPE != nil {
		dpe, ok := NormalizeDPE(*p.DPE)
		if !ok {
			return errors.New("dpe must be A-G")
		}
		p.DPE = &dpe
	}
	return nil
}

// ManagedBy reports whether the given user is the assigned manager.
func (p *Property) ManagedBy(userID string) bool {
	return p.GestionnaireID != nil && *p.GestionnaireID == userID
}

// AccessibleBy reports whether a user may read the property.
func (p *Property) AccessibleBy(userID string) bool {
	return p.ProprietaireID == userID || p.ManagedBy(userID)
}
