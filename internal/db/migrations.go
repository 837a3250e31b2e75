package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS plates (
		id          BIGSERIAL PRIMARY KEY,
		number      TEXT NOT NULL,
		state       TEXT,
		city        TEXT NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		source      JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_plates_number ON plates(number);`,
	`CREATE INDEX IF NOT EXISTS idx_plates_city ON plates(city);`,
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON users(email);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
