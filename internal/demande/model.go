// Package demande models management requests between an owner and a
// property manager, and the messages exchanged on them.
package demande

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a demande does not exist.
	ErrNotFound = errors.New("demande not found")
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrNotParticipant is returned when a user is neither side of a demande.
	ErrNotParticipant = errors.New("user is not a participant of this demande")
)

// Statut is the lifecycle state of a demande.
type Statut string

const (
	EnAttente Statut = "en_attente"
	Acceptee  Statut = "acceptee"
	Refusee   Statut = "refusee"
	Terminee  Statut = "terminee"
)

var transitions = map[Statut][]Statut{
	EnAttente: {Acceptee, Refusee},
	Acceptee:  {Terminee},
}

// CanTransition reports whether a demande may move from one status to another.
func CanTransition(from, to Statut) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the status.
func (s Statut) Label() string {
	switch s {
	case EnAttente:
		return "En attente"
	case Acceptee:
		return "Acceptée"
	case Refusee:
		return "Refusée"
	case Terminee:
		return "Terminée"
	default:
		return string(s)
	}
}

// Demande is a request from an owner to a manager, optionally about one property.
type Demande struct {
	ID             string    `json:"id"`
	ProprietaireID string    `json:"proprietaire_id"`
	GestionnaireID string    `json:"gestionnaire_id"`
	ProprieteID    *string   `json:"propriete_id,omitempty"`
	Sujet          string    `json:"sujet"`
	Statut         Statut    `json:"statut"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasParticipant reports whether userID is the owner or the manager.
func (d *Demande) HasParticipant(userID string) bool {
	return userID != "" && (d.ProprietaireID == userID || d.GestionnaireID == userID)
}

// Counterpart returns the other participant's ID.
func (d *Demande) Counterpart(userID string) string {
	if d.ProprietaireID == userID {
		return d.GestionnaireID
	}
	return d.ProprietaireID
}

// Message is a single note posted on a demande thread.
type Message struct {
	ID           string    `json:"id"`
	DemandeID    string    `json:"demande_id"`
	ExpediteurID string    `json:"expediteur_id"`
	Contenu      string    `json:"contenu"`
	Lu           bool      `json:"lu"`
	CreatedAt    time.Time `json:"created_at"`
}
