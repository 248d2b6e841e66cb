package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS health_entries (
    id SERIAL PRIMARY KEY,
    user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    local_date DATE NOT NULL DEFAULT CURRENT_DATE,
    water_intake DOUBLE PRECISION NOT NULL DEFAULT 0,
    sleep_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
    steps INTEGER NOT NULL DEFAULT 0,
    mood TEXT NOT NULL,
    weight DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(user_id, local_date)
);

CREATE TABLE IF NOT EXISTS user_settings (
    user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    theme_mode TEXT NOT NULL DEFAULT 'SYSTEM_DEFAULT',
    chart_mode TEXT NOT NULL DEFAULT 'HORIZONTAL',
    chart_span TEXT NOT NULL DEFAULT 'MONTH',
    reminder_hour INTEGER NOT NULL DEFAULT 20 CHECK (reminder_hour BETWEEN 0 AND 23),
    reminder_minute INTEGER NOT NULL DEFAULT 0 CHECK (reminder_minute BETWEEN 0 AND 59),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	// Columns added after the first release.
	alters := `
DO $$ BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='health_entries' AND column_name='weight'
    ) THEN
        ALTER TABLE health_entries ADD COLUMN weight DOUBLE PRECISION NOT NULL DEFAULT 0;
    END IF;
END $$;`
	if _, err := db.ExecContext(ctx, alters); err != nil {
		return fmt.Errorf("alter schema: %w", err)
	}
	return nil
}
