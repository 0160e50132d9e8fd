package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/pitwall/internal/database"
	"github.com/yourusername/pitwall/internal/models"
)

// PostgresDriverStatsRepository implements DriverStatsRepository for PostgreSQL
type PostgresDriverStatsRepository struct {
	db *database.DB
}

// NewPostgresDriverStatsRepository creates a new driver stats repository
func NewPostgresDriverStatsRepository(db *database.DB) DriverStatsRepository {
	return &PostgresDriverStatsRepository{db: db}
}

// Upsert writes one license category for a user
func (r *PostgresDriverStatsRepository) Upsert(ctx context.Context, s *models.DriverStats) error {
	query := `
		INSERT INTO driver_stats (
			user_id, category_id, category, license_level, safety_rating, irating, group_name, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (user_id, category_id) DO UPDATE SET
			category      = EXCLUDED.category,
			license_level = EXCLUDED.license_level,
			safety_rating = EXCLUDED.safety_rating,
			irating       = EXCLUDED.irating,
			group_name    = EXCLUDED.group_name,
			updated_at    = EXCLUDED.updated_at
	`

	_, err := r.db.Querier().Exec(ctx, query,
		s.UserID, s.CategoryID, s.Category, s.LicenseLevel, s.SafetyRating, s.IRating, s.GroupName,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert driver stats for category %d: %w", s.CategoryID, err)
	}

	return nil
}

// ListByUser returns every license category stored for a user
func (r *PostgresDriverStatsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DriverStats, error) {
	query := `
		SELECT user_id, category_id, category, license_level, safety_rating, irating, group_name, updated_at
		FROM driver_stats
		WHERE user_id = $1
		ORDER BY category_id ASC
	`

	rows, err := r.db.Querier().Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query driver stats: %w", err)
	}
	defer rows.Close()

	var stats []models.DriverStats
	for rows.Next() {
		var s models.DriverStats
		err := rows.Scan(
			&s.UserID, &s.CategoryID, &s.Category, &s.LicenseLevel, &s.SafetyRating, &s.IRating, &s.GroupName, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
