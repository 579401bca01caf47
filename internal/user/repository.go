package user

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Repository provides CRUD operations for utilisateurs and their profiles.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a user repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectColumns = `id, email, nom, prenom, telephone, role, avatar_url, created_at`

type scanner interface {
	Scan(...interface{}) error
}

func scanUser(row scanner) (*User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Nom, &u.Prenom, &u.Telephone, &role, &u.AvatarURL, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = Role(role)
	return &u, nil
}

// Create inserts a user. An empty ID gets a fresh UUID; the managed backend's
// auth user ID is passed through when known so both sides share the key.
func (r *Repository) Create(u *User) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if !ValidRole(string(u.Role)) {
		return nil, fmt.Errorf("invalid role: %q", u.Role)
	}

	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := r.db.Exec(
		"INSERT INTO utilisateurs (id, email, nom, prenom, telephone, role, avatar_url) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, email, strings.TrimSpace(u.Nom), strings.TrimSpace(u.Prenom), strings.TrimSpace(u.Telephone),
		string(u.Role), u.AvatarURL,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return nil, fmt.Errorf("inserting user: %w", err)
	}

	return r.GetByID(id)
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(id string) (*User, error) {
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM utilisateurs WHERE id = ?", id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail returns a user by email, case-insensitively.
func (r *Repository) GetByEmail(email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	row := r.db.QueryRow("SELECT "+selectColumns+" FROM utilisateurs WHERE LOWER(email) = ?", email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %s: %w", email, err)
	}
	return u, nil
}

// List returns users ordered by email. An empty role lists everyone.
func (r *Repository) List(role Role) ([]*User, error) {
	query := "SELECT " + selectColumns + " FROM utilisateurs"
	var args []interface{}
	if role != "" {
		query += " WHERE role = ?"
		args = append(args, string(role))
	}
	query += " ORDER BY email"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer closeRows(rows)

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// Update saves the editable identity fields (nom, prenom, telephone, avatar).
func (r *Repository) Update(u *User) error {
	result, err := r.db.Exec(
		"UPDATE utilisateurs SET nom = ?, prenom = ?, telephone = ?, avatar_url = ? WHERE id = ?",
		strings.TrimSpace(u.Nom), strings.TrimSpace(u.Prenom), strings.TrimSpace(u.Telephone), u.AvatarURL, u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	return expectOneRow(result, u.ID)
}

// UpdateRole changes a user's role.
func (r *Repository) UpdateRole(id string, role Role) error {
	if !ValidRole(string(role)) {
		return fmt.Errorf("invalid role: %q", role)
	}

	result, err := r.db.Exec("UPDATE utilisateurs SET role = ? WHERE id = ?", string(role), id)
	if err != nil {
		return fmt.Errorf("updating role: %w", err)
	}
	return expectOneRow(result, id)
}

// Delete removes a user. Profiles, sessions, properties and demandes cascade.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM utilisateurs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return expectOneRow(result, id)
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		slog.Warn("closing rows", "error", cerr)
	}
}
