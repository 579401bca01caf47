package intervention

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Repository provides CRUD operations for interventions.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an intervention repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = "id, propriete_id, date, type, statut, notes, created_at"

func scanIntervention(row interface{ Scan(...interface{}) error }) (*Intervention, error) {
	var i Intervention
	if err := row.Scan(&i.ID, &i.ProprieteID, &i.Date, &i.Type, &i.Statut, &i.Notes, &i.CreatedAt); err != nil {
		return nil, err
	}
	return &i, nil
}

// Add schedules a new intervention on a property.
func (r *Repository) Add(proprieteID, date string, typ Type, notes string) (*Intervention, error) {
	if !typ.IsValid() {
		return nil, fmt.Errorf("invalid intervention type: %q", typ)
	}

	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	id := uuid.NewString()
	_, err := r.db.Exec(
		"INSERT INTO interventions (id, propriete_id, date, type, statut, notes) VALUES (?, ?, ?, ?, ?, ?)",
		id, proprieteID, date, string(typ), string(Planifiee), strings.TrimSpace(notes),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting intervention: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns an intervention by ID.
func (r *Repository) GetByID(id string) (*Intervention, error) {
	i, err := scanIntervention(r.db.QueryRow("SELECT "+selectColumns+" FROM interventions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("reading intervention: %w", err)
	}
	return i, nil
}

// ListByProperty returns all interventions for a property, newest date first.
func (r *Repository) ListByProperty(proprieteID string) ([]*Intervention, error) {
	return r.query(
		"SELECT "+selectColumns+" FROM interventions WHERE propriete_id = ? ORDER BY date DESC, created_at DESC",
		proprieteID,
	)
}

// ListUpcoming returns unfinished interventions dated on or after from,
// across the given properties, soonest first.
func (r *Repository) ListUpcoming(proprieteIDs []string, from time.Time) ([]*Intervention, error) {
	if len(proprieteIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(proprieteIDs)), ",")
	args := make([]interface{}, 0, len(proprieteIDs)+2)
	for _, id := range proprieteIDs {
		args = append(args, id)
	}
	args = append(args, from.Format(dateLayout), string(Terminee))

	return r.query(
		"SELECT "+selectColumns+" FROM interventions WHERE propriete_id IN ("+placeholders+") AND date >= ? AND statut != ? ORDER BY date ASC",
		args...,
	)
}

// UpdateStatut changes an intervention's status. Finished work cannot be reopened.
func (r *Repository) UpdateStatut(id string, statut Statut) error {
	if !statut.IsValid() {
		return fmt.Errorf("invalid statut: %q", statut)
	}

	current, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if current.Statut == Terminee && statut != Terminee {
		return fmt.Errorf("intervention %s is already finished", id)
	}

	if _, err := r.db.Exec("UPDATE interventions SET statut = ? WHERE id = ?", string(statut), id); err != nil {
		return fmt.Errorf("updating statut: %w", err)
	}
	return nil
}

// Delete removes an intervention by ID.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM interventions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting intervention: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

func (r *Repository) query(q string, args ...interface{}) ([]*Intervention, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing interventions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var list []*Intervention
	for rows.Next() {
		i, err := scanIntervention(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning intervention: %w", err)
		}
		list = append(list, i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interventions: %w", err)
	}

	return list, nil
}
