// Package assistant answers visitor questions about Homees and keeps the
// conversation on property management.
package assistant

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// keywords mark a message as related to Homees. Matching is case-insensitive
// and anchored at the start of a word, so "location" matches "locations" but
// not "allocation".
var keywords = []string{
	// platform
	"homees", "homeees",
	// roles
	"propriétaire", "proprietaire", "gestionnaire", "locataire", "agence", "conciergerie",
	// management
	"gestion locative", "gestion de", "location", "locatif", "locative", "mandat", "bail",
	"loyer", "dépôt de garantie", "état des lieux", "etat des lieux", "courte durée", "courte duree", "airbnb",
	// property
	"immobilier", "appartement", "maison", "studio", "logement", "copropriété", "copropriete",
	"syndic", "dpe", "diagnostic", "travaux", "rentabilité", "rentabilite",
	// pricing
	"tarif", "prix", "commission", "honoraires", "frais de gestion",
	// cities
	"paris", "lyon", "marseille", "bordeaux", "toulouse", "nantes", "lille", "strasbourg",
	"montpellier", "rennes", "grenoble", "annecy", "biarritz",
	// english
	"property", "landlord", "tenant", "rental", "real estate", "apartment",
}

// IsHomeeesRelated reports whether message mentions any Homees keyword.
func IsHomeeesRelated(message string) bool {
	m := strings.ToLower(message)
	for _, k := range keywords {
		if containsWordPrefix(m, k) {
			return true
		}
	}
	return false
}

// containsWordPrefix reports whether k occurs in s at the start of a word.
func containsWordPrefix(s, k string) bool {
	for off := 0; off < len(s); {
		i := strings.Index(s[off:], k)
		if i < 0 {
			return false
		}
		i += off
		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		if i == 0 || !(unicode.IsLetter(prev) || unicode.IsDigit(prev)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		off = i + size
	}
	return false
}

// Turn is one entry of the conversation shown to the visitor.
type Turn struct {
	Text   string `json:"text"`
	IsUser bool   `json:"isUser"`
}

// CountConsecutiveOffTopic counts the user turns at the end of history that
// are off-topic, stopping at the most recent on-topic user turn.
// Assistant turns are skipped.
func CountConsecutiveOffTopic(history []Turn) int {
	count := 0
	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		if !t.IsUser {
			continue
		}
		if IsHomeeesRelated(t.Text) {
			break
		}
		count++
	}
	return count
}
