package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS idle_events (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		vehicle_plate VARCHAR(32) NOT NULL,
		idle_start TIMESTAMPTZ,
		idle_end TIMESTAMPTZ,
		duration_minutes DOUBLE PRECISION NOT NULL,
		location_address TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		source_format VARCHAR(32) NOT NULL,
		contractor_id UUID,
		uploaded_by_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_idle_events_plate ON idle_events (vehicle_plate);`,
	`CREATE INDEX IF NOT EXISTS idx_idle_events_start ON idle_events (idle_start);`,
	`CREATE INDEX IF NOT EXISTS idx_idle_events_contractor ON idle_events (contractor_id) WHERE contractor_id IS NOT NULL;`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'idle_events' AND column_name = 'uploaded_by_id') THEN
			ALTER TABLE idle_events ADD COLUMN uploaded_by_id UUID;
		END IF;
		IF NOT EXISTS (SELECT 1 FROM information_schema.columns WHERE table_name = 'idle_events' AND column_name = 'source_format') THEN
			ALTER TABLE idle_events ADD COLUMN source_format VARCHAR(32) NOT NULL DEFAULT 'UNKNOWN';
		END IF;
	END
	$$;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
