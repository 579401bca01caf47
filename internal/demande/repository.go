package demande

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Repository provides data access for demandes and their messages.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a demande repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = "id, proprietaire_id, gestionnaire_id, propriete_id, sujet, statut, created_at, updated_at"

func scanDemande(row interface{ Scan(...interface{}) error }) (*Demande, error) {
	var d Demande
	var proprieteID sql.NullString
	if err := row.Scan(&d.ID, &d.ProprietaireID, &d.GestionnaireID, &proprieteID,
		&d.Sujet, &d.Statut, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if proprieteID.Valid {
		d.ProprieteID = &proprieteID.String
	}
	return &d, nil
}

// Create opens a new demande in the en_attente state.
func (r *Repository) Create(d *Demande) (*Demande, error) {
	sujet := strings.TrimSpace(d.Sujet)
	if sujet == "" {
		return nil, fmt.Errorf("sujet is required")
	}
	if d.ProprietaireID == "" || d.GestionnaireID == "" {
		return nil, fmt.Errorf("proprietaire and gestionnaire are required")
	}
	if d.ProprietaireID == d.GestionnaireID {
		return nil, fmt.Errorf("proprietaire and gestionnaire must differ")
	}

	id := uuid.NewString()
	_, err := r.db.Exec(
		`INSERT INTO demande (id, proprietaire_id, gestionnaire_id, propriete_id, sujet, statut)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, d.ProprietaireID, d.GestionnaireID, d.ProprieteID, sujet, string(EnAttente),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting demande: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a demande by ID.
func (r *Repository) GetByID(id string) (*Demande, error) {
	d, err := scanDemande(r.db.QueryRow("SELECT "+selectColumns+" FROM demande WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading demande: %w", err)
	}
	return d, nil
}

// ListForUser returns demandes where the user is either participant, most
// recently updated first.
func (r *Repository) ListForUser(userID string) ([]*Demande, error) {
	rows, err := r.db.Query(
		"SELECT "+selectColumns+` FROM demande
		 WHERE proprietaire_id = ? OR gestionnaire_id = ?
		 ORDER BY updated_at DESC, created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing demandes: %w", err)
	}
	defer closeRows(rows)

	var list []*Demande
	for rows.Next() {
		d, err := scanDemande(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning demande: %w", err)
		}
		list = append(list, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating demandes: %w", err)
	}
	return list, nil
}

// UpdateStatut moves a demande to a new status. Accepting a demande linked to
// a property makes the manager responsible for that property.
func (r *Repository) UpdateStatut(id string, to Statut) (*Demande, error) {
	d, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(d.Statut, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Statut, to)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Warn("rolling back demande update", "error", err)
		}
	}()

	// Guard on the current status so concurrent updates cannot both win.
	result, err := tx.Exec(
		"UPDATE demande SET statut = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND statut = ?",
		string(to), id, string(d.Statut),
	)
	if err != nil {
		return nil, fmt.Errorf("updating demande: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	} else if n == 0 {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}

	if to == Acceptee && d.ProprieteID != nil {
		if _, err := tx.Exec(
			"UPDATE propriete SET gestionnaire_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
			d.GestionnaireID, *d.ProprieteID,
		); err != nil {
			return nil, fmt.Errorf("assigning gestionnaire: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing demande update: %w", err)
	}

	return r.GetByID(id)
}

// AddMessage posts a message on a demande. The sender must be a participant.
func (r *Repository) AddMessage(demandeID, expediteurID, contenu string) (*Message, error) {
	contenu = strings.TrimSpace(contenu)
	if contenu == "" {
		return nil, fmt.Errorf("message content is required")
	}

	d, err := r.GetByID(demandeID)
	if err != nil {
		return nil, err
	}
	if !d.HasParticipant(expediteurID) {
		return nil, ErrNotParticipant
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(
		"INSERT INTO messages (id, demande_id, expediteur_id, contenu) VALUES (?, ?, ?, ?)",
		id, demandeID, expediteurID, contenu,
	); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}
	if _, err := r.db.Exec("UPDATE demande SET updated_at = CURRENT_TIMESTAMP WHERE id = ?", demandeID); err != nil {
		return nil, fmt.Errorf("touching demande: %w", err)
	}

	var m Message
	err = r.db.QueryRow(
		"SELECT id, demande_id, expediteur_id, contenu, lu, created_at FROM messages WHERE id = ?", id,
	).Scan(&m.ID, &m.DemandeID, &m.ExpediteurID, &m.Contenu, &m.Lu, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back message: %w", err)
	}
	return &m, nil
}

// ListMessages returns a demande's messages, oldest first.
func (r *Repository) ListMessages(demandeID string) ([]*Message, error) {
	rows, err := r.db.Query(
		`SELECT id, demande_id, expediteur_id, contenu, lu, created_at
		 FROM messages WHERE demande_id = ? ORDER BY created_at ASC, rowid ASC`,
		demandeID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer closeRows(rows)

	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.DemandeID, &m.ExpediteurID, &m.Contenu, &m.Lu, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}
	return messages, nil
}

// MarkRead flags every message on a demande not sent by readerID as read.
// Returns the number of messages updated.
func (r *Repository) MarkRead(demandeID, readerID string) (int64, error) {
	result, err := r.db.Exec(
		"UPDATE messages SET lu = 1 WHERE demande_id = ? AND expediteur_id != ? AND lu = 0",
		demandeID, readerID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Warn("closing rows", "error", err)
	}
}
