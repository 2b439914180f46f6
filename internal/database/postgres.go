package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/AnshRaj112/canteen-backend/internal/logging"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL, which holds the household records.
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	logging.L().Info("connected to PostgreSQL")

	return InitPostgresTables(PostgresDB)
}

// Schema is the DDL applied at startup.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS households (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(100) NOT NULL,
		invite_code VARCHAR(12) NOT NULL UNIQUE,
		revision BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_households_invite_code ON households(invite_code)`,
	`CREATE INDEX IF NOT EXISTS idx_households_updated_at ON households(updated_at)`,
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(db *sql.DB) error {
	for _, query := range Schema {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	logging.L().Info("PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
