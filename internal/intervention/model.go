// Package intervention tracks maintenance and inspection work on a property.
package intervention

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an intervention does not exist.
var ErrNotFound = errors.New("intervention not found")

// Type is the kind of work carried out.
type Type string

const (
	Entretien    Type = "entretien"
	Reparation   Type = "reparation"
	Visite       Type = "visite"
	EtatDesLieux Type = "etat_des_lieux"
)

// ValidTypes is the set of allowed intervention types.
var ValidTypes = []Type{Entretien, Reparation, Visite, EtatDesLieux}

// IsValid checks if an intervention type is recognized.
func (t Type) IsValid() bool {
	for _, v := range ValidTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the intervention type.
func (t Type) Label() string {
	switch t {
	case Entretien:
		return "Entretien"
	case Reparation:
		return "Réparation"
	case Visite:
		return "Visite"
	case EtatDesLieux:
		return "État des lieux"
	default:
		return string(t)
	}
}

// Statut is the progress of an intervention.
type Statut string

const (
	Planifiee Statut = "planifiee"
	EnCours   Statut = "en_cours"
	Terminee  Statut = "terminee"
)

// IsValid checks if a status is recognized.
func (s Statut) IsValid() bool {
	switch s {
	case Planifiee, EnCours, Terminee:
		return true
	}
	return false
}

// Intervention is a scheduled or completed piece of work on a property.
type Intervention struct {
	ID          string    `json:"id"`
	ProprieteID string    `json:"propriete_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Type        Type      `json:"type"`
	Statut      Statut    `json:"statut"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}
