package property

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Repository provides CRUD operations for properties.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a property repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const insertSQL = `INSERT INTO propriete
	(id, proprietaire_id, gestionnaire_id, titre, adresse, ville, code_postal, type, surface, pieces, loyer, dpe, description, photo_url)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectColumns = `id, proprietaire_id, gestionnaire_id, titre, adresse, ville, code_postal, type, surface, pieces, loyer, dpe, description, photo_url, created_at, updated_at`

// scanProperty scans a property from a database row.
func scanProperty(row interface{ Scan(...interface{}) error }) (*Property, error) {
	var p Property
	var gestionnaire, dpe sql.NullString
	var surface, loyer sql.NullFloat64
	var pieces sql.NullInt64
	var typ string

	err := row.Scan(
		&p.ID, &p.ProprietaireID, &gestionnaire, &p.Titre, &p.Adresse, &p.Ville, &p.CodePostal,
		&typ, &surface, &pieces, &loyer, &dpe, &p.Description, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Type = Type(typ)
	if gestionnaire.Valid {
		p.GestionnaireID = &gestionnaire.String
	}
	if surface.Valid {
		p.Surface = &surface.Float64
	}
	if pieces.Valid {
		p.Pieces = &pieces.Int64
	}
	if loyer.Valid {
		p.Loyer = &loyer.Float64
	}
	if dpe.Valid {
		p.DPE = &dpe.String
	}

	return &p, nil
}

// Insert validates and adds a new property, returning it with its generated ID.
func (r *Repository) Insert(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err := r.db.Exec(insertSQL,
		id, p.ProprietaireID, p.GestionnaireID,
		strings.TrimSpace(p.Titre), strings.TrimSpace(p.Adresse), strings.TrimSpace(p.Ville), strings.TrimSpace(p.CodePostal),
		string(p.Type), p.Surface, p.Pieces, p.Loyer, p.DPE, p.Description, p.PhotoURL,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting property: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a property by its ID.
func (r *Repository) GetByID(id string) (*Property, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM propriete WHERE id = ?", id)

	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying property %s: %w", id, err)
	}

	return p, nil
}

// ListOptions controls filtering for List.
type ListOptions struct {
	ProprietaireID string
	GestionnaireID string
	// Unmanaged restricts to properties with no manager assigned.
	Unmanaged bool
	Ville     string
	DPE       string
}

// List returns properties, newest first, optionally filtered.
func (r *Repository) List(opts ListOptions) ([]*Property, error) {
	query := "SELECT " + selectColumns + " FROM propriete"
	var args []interface{}
	var conditions []string

	if opts.ProprietaireID != "" {
		conditions = append(conditions, "proprietaire_id = ?")
		args = append(args, opts.ProprietaireID)
	}
	if opts.GestionnaireID != "" {
		conditions = append(conditions, "gestionnaire_id = ?")
		args = append(args, opts.GestionnaireID)
	}
	if opts.Unmanaged {
		conditions = append(conditions, "gestionnaire_id IS NULL")
	}
	if opts.Ville != "" {
		conditions = append(conditions, "LOWER(ville) = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(opts.Ville)))
	}
	if opts.DPE != "" {
		dpe, ok := NormalizeDPE(opts.DPE)
		if !ok {
			return nil, fmt.Errorf("dpe must be A-G, got %q", opts.DPE)
		}
		conditions = append(conditions, "dpe = ?")
		args = append(args, dpe)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing properties: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("closing rows", "error", closeErr)
		}
	}()

	var properties []*Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating properties: %w", err)
	}

	return properties, nil
}

// Update saves the editable fields of an existing property.
// Ownership and manager assignment are not changed here.
func (r *Repository) Update(p *Property) (*Property, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	result, err := r.db.Exec(`UPDATE propriete SET
			titre = ?, adresse = ?, ville = ?, code_postal = ?, type = ?, surface = ?, pieces = ?,
			loyer = ?, dpe = ?, description = ?, photo_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		strings.TrimSpace(p.Titre), strings.TrimSpace(p.Adresse), strings.TrimSpace(p.Ville), strings.TrimSpace(p.CodePostal),
		string(p.Type), p.Surface, p.Pieces, p.Loyer, p.DPE, p.Description, p.PhotoURL, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating property: %w", err)
	}
	if err := expectOneRow(result, p.ID); err != nil {
		return nil, err
	}

	return r.GetByID(p.ID)
}

// AssignGestionnaire sets (or clears, with an empty ID) the property's manager.
func (r *Repository) AssignGestionnaire(id, gestionnaireID string) error {
	var value interface{}
	if gestionnaireID != "" {
		value = gestionnaireID
	}

	result, err := r.db.Exec(
		"UPDATE propriete SET gestionnaire_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		value, id,
	)
	if err != nil {
		return fmt.Errorf("assigning manager: %w", err)
	}
	return expectOneRow(result, id)
}

// Delete removes a property by ID. Interventions cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM propriete WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return expectOneRow(result, id)
}

// CountByOwner returns how many properties an owner has.
func (r *Repository) CountByOwner(ownerID string) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM propriete WHERE proprietaire_id = ?", ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting properties: %w", err)
	}
	return n, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
