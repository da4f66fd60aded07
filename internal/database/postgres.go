package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL database
func ConnectPostgres(postgresURI string) error {
	var err error

	PostgresDB, err = sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	// Set connection pool settings
	PostgresDB.SetMaxOpenConns(25)
	PostgresDB.SetMaxIdleConns(5)
	PostgresDB.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err = PostgresDB.Ping(); err != nil {
		return err
	}

	log.Println("✅ Connected to PostgreSQL")

	// Initialize tables
	if err = InitPostgresTables(); err != nil {
		return err
	}

	return nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables() error {
	queries := []string{
		// Users table (credentials only; everything public lives in profiles)
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Profiles table (public-facing identity; eulogies reference this)
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			display_name VARCHAR(100) NOT NULL,
			avatar_url TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Eulogies table. share_token is generated once at creation and never
		// changes; there is no edit flow.
		`CREATE TABLE IF NOT EXISTS eulogies (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			author_id UUID REFERENCES profiles(id) ON DELETE SET NULL,
			recipient_name VARCHAR(255) NOT NULL,
			recipient_email VARCHAR(255),
			content TEXT NOT NULL,
			visibility VARCHAR(10) NOT NULL DEFAULT 'private' CHECK (visibility IN ('private', 'public')),
			is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
			share_token VARCHAR(64) NOT NULL UNIQUE
		)`,

		// Likes table. The composite primary key is the at-most-one-like
		// invariant; inserts rely on it to reject duplicates.
		`CREATE TABLE IF NOT EXISTS likes (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			eulogy_id UUID NOT NULL REFERENCES eulogies(id) ON DELETE CASCADE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, eulogy_id)
		)`,

		// Comments table (only counts are read for now; authoring comes later)
		`CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			eulogy_id UUID NOT NULL REFERENCES eulogies(id) ON DELETE CASCADE,
			author_id UUID REFERENCES profiles(id) ON DELETE SET NULL,
			content TEXT NOT NULL
		)`,

		// Password reset tokens table
		`CREATE TABLE IF NOT EXISTS password_reset_tokens (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token VARCHAR(255) NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			used BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,

		// Create indexes for better performance
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users(LOWER(email))`,
		`CREATE INDEX IF NOT EXISTS idx_eulogies_author_id ON eulogies(author_id)`,
		`CREATE INDEX IF NOT EXISTS idx_eulogies_visibility_created_at ON eulogies(visibility, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_eulogies_share_token ON eulogies(share_token)`,
		`CREATE INDEX IF NOT EXISTS idx_eulogies_recipient_email ON eulogies(LOWER(recipient_email))`,
		`CREATE INDEX IF NOT EXISTS idx_likes_eulogy_id ON likes(eulogy_id)`,
		`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_token ON password_reset_tokens(token)`,
		`CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_expires_at ON password_reset_tokens(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_eulogy_id ON comments(eulogy_id)`,
	}

	for _, query := range queries {
		if _, err := PostgresDB.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
