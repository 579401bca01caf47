package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrations is an ordered list of SQL statements to run.
// Table names follow the managed backend's schema.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS utilisateurs (
		id         TEXT    PRIMARY KEY,
		email      TEXT    NOT NULL UNIQUE,
		nom        TEXT    NOT NULL DEFAULT '',
		prenom     TEXT    NOT NULL DEFAULT '',
		telephone  TEXT    NOT NULL DEFAULT '',
		role       TEXT    NOT NULL CHECK (role IN ('proprietaire', 'gestionnaire', 'admin')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS profil_proprietaire (
		user_id      TEXT    PRIMARY KEY REFERENCES utilisateurs(id) ON DELETE CASCADE,
		nombre_biens INTEGER NOT NULL DEFAULT 0,
		adresse      TEXT    NOT NULL DEFAULT '',
		updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS profil_gestionnaire (
		user_id         TEXT PRIMARY KEY REFERENCES utilisateurs(id) ON DELETE CASCADE,
		entreprise      TEXT NOT NULL DEFAULT '',
		siret           TEXT NOT NULL DEFAULT '',
		villes          TEXT NOT NULL DEFAULT '[]',
		taux_commission REAL,
		description     TEXT NOT NULL DEFAULT '',
		updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS propriete (
		id              TEXT    PRIMARY KEY,
		proprietaire_id TEXT    NOT NULL REFERENCES utilisateurs(id) ON DELETE CASCADE,
		gestionnaire_id TEXT    REFERENCES utilisateurs(id) ON DELETE SET NULL,
		titre           TEXT    NOT NULL,
		adresse         TEXT    NOT NULL,
		ville           TEXT    NOT NULL DEFAULT '',
		code_postal     TEXT    NOT NULL DEFAULT '',
		type            TEXT    NOT NULL,
		surface         REAL,
		pieces          INTEGER,
		loyer           REAL,
		dpe             TEXT    CHECK (dpe IS NULL OR dpe IN ('A', 'B', 'C', 'D', 'E', 'F', 'G')),
		description     TEXT    NOT NULL DEFAULT '',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS interventions (
		id           TEXT PRIMARY KEY,
		propriete_id TEXT NOT NULL REFERENCES propriete(id) ON DELETE CASCADE,
		date         TEXT NOT NULL,
		type         TEXT NOT NULL,
		statut       TEXT NOT NULL DEFAULT 'planifiee',
		notes        TEXT NOT NULL DEFAULT '',
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS demande (
		id              TEXT PRIMARY KEY,
		proprietaire_id TEXT NOT NULL REFERENCES utilisateurs(id) ON DELETE CASCADE,
		gestionnaire_id TEXT NOT NULL REFERENCES utilisateurs(id) ON DELETE CASCADE,
		propriete_id    TEXT REFERENCES propriete(id) ON DELETE SET NULL,
		sujet           TEXT NOT NULL,
		statut          TEXT NOT NULL DEFAULT 'en_attente',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id            TEXT    PRIMARY KEY,
		demande_id    TEXT    NOT NULL REFERENCES demande(id) ON DELETE CASCADE,
		expediteur_id TEXT    NOT NULL REFERENCES utilisateurs(id) ON DELETE CASCADE,
		contenu       TEXT    NOT NULL,
		lu            INTEGER NOT NULL DEFAULT 0,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         TEXT    PRIMARY KEY,
		user_id    TEXT    NOT NULL REFERENCES utilisateurs(id) ON DELETE CASCADE,
		type       TEXT    NOT NULL,
		message    TEXT    NOT NULL,
		lien       TEXT    NOT NULL DEFAULT '',
		lu         INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		user_id    TEXT     NOT NULL REFERENCES utilisateurs(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id      TEXT     NOT NULL REFERENCES utilisateurs(id) ON DELETE CASCADE,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_propriete_proprietaire ON propriete(proprietaire_id)`,
	`CREATE INDEX IF NOT EXISTS idx_propriete_gestionnaire ON propriete(gestionnaire_id)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_demande ON messages(demande_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, lu)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions (idempotent, checks if column exists first)
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"propriete", "photo_url", "TEXT NOT NULL DEFAULT ''"},
		{"utilisateurs", "avatar_url", "TEXT NOT NULL DEFAULT ''"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) error {
	exists, err := columnExists(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("checking table info: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			slog.Warn("closing rows", "error", cerr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterating columns: %w", err)
	}
	return false, nil
}
