package database

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// requiredTables must exist before the sync pipeline can write.
var requiredTables = []string{
	"users",
	"car_classes",
	"events",
	"event_car_classes",
	"races",
	"registrations",
	"driver_stats",
	"sync_logs",
}

// Initialize creates a database connection pool and verifies the expected tables exist
func Initialize(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	missing, err := db.MissingTables(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(missing) > 0 {
		logger.WithField("tables", missing).Warn("Database schema incomplete; sync writes will fail until it is applied")
	}

	return db, nil
}

// MissingTables lists required tables that do not exist.
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	var missing []string
	for _, table := range requiredTables {
		var exists bool
		if err := db.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", table).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

// EnsureSchema applies the bundled idempotent schema.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
