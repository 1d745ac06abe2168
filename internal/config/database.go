package config

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// SetupDatabase initializes the database connection
func SetupDatabase(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return db, nil
}

// createTables creates the necessary tables in the database
func createTables(db *sqlx.DB) error {
	// Create users table
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create sessions table
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			token VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL,
			expires_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create plants table. owner_id is nullable: legacy plants imported
	// before accounts existed have no owner and are visible to everyone.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS plants (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			species VARCHAR(255) NOT NULL DEFAULT '',
			location VARCHAR(255) NOT NULL DEFAULT '',
			water_interval_days INT NOT NULL,
			repot_interval_days INT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			owner_id VARCHAR(36) REFERENCES users(id),
			last_watered TIMESTAMP,
			last_repotted TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	// Create care_events table. seq is the insertion sequence used as a
	// stable tie-break when two events share a timestamp.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS care_events (
			id VARCHAR(36) PRIMARY KEY,
			plant_id VARCHAR(36) NOT NULL REFERENCES plants(id),
			kind VARCHAR(16) NOT NULL,
			at TIMESTAMP NOT NULL,
			user_id VARCHAR(36) NOT NULL REFERENCES users(id),
			seq BIGSERIAL
		)
	`)
	if err != nil {
		return err
	}

	// Create indexes for better performance
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)",
		"CREATE INDEX IF NOT EXISTS idx_plants_owner_id ON plants(owner_id)",
		"CREATE INDEX IF NOT EXISTS idx_care_events_plant_id ON care_events(plant_id)",
		"CREATE INDEX IF NOT EXISTS idx_care_events_plant_kind_at ON care_events(plant_id, kind, at)",
	}

	for _, idx := range indexes {
		_, err = db.Exec(idx)
		if err != nil {
			log.Printf("Warning: Failed to create index: %v", err)
			// Don't return error here, indexes are not critical
		}
	}

	return nil
}
