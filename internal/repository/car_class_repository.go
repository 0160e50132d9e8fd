package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/pitwall/internal/database"
	"github.com/yourusername/pitwall/internal/models"
)

const upsertCarClassSQL = `
	INSERT INTO car_classes (external_id, name, short_name, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (external_id) DO UPDATE SET
		name       = EXCLUDED.name,
		short_name = EXCLUDED.short_name,
		updated_at = EXCLUDED.updated_at
	RETURNING id
`

// PostgresCarClassRepository implements CarClassRepository for PostgreSQL
type PostgresCarClassRepository struct {
	db *database.DB
}

// NewPostgresCarClassRepository creates a new car class repository
func NewPostgresCarClassRepository(db *database.DB) CarClassRepository {
	return &PostgresCarClassRepository{db: db}
}

// Upsert writes all classes in one batch
func (r *PostgresCarClassRepository) Upsert(ctx context.Context, classes []models.CarClass) (map[int]uuid.UUID, error) {
	ids := make(map[int]uuid.UUID, len(classes))
	if len(classes) == 0 {
		return ids, nil
	}

	batch := &pgx.Batch{}
	for i := range classes {
		c := &classes[i]
		batch.Queue(upsertCarClassSQL, c.ExternalID, c.Name, c.ShortName)
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := range classes {
			var id uuid.UUID
			if err := results.QueryRow().Scan(&id); err != nil {
				results.Close()
				return fmt.Errorf("failed to upsert car class %d: %w", classes[i].ExternalID, err)
			}
			ids[classes[i].ExternalID] = id
		}
		return results.Close()
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// ListByEvent returns the classes attached to an event
func (r *PostgresCarClassRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.CarClass, error) {
	query := `
		SELECT c.id, c.external_id, c.name, c.short_name, c.updated_at
		FROM car_classes c
		JOIN event_car_classes ec ON ec.car_class_id = c.id
		WHERE ec.event_id = $1
		ORDER BY c.name
	`

	rows, err := r.db.Querier().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query car classes: %w", err)
	}
	defer rows.Close()

	var classes []models.CarClass
	for rows.Next() {
		var c models.CarClass
		if err := rows.Scan(&c.ID, &c.ExternalID, &c.Name, &c.ShortName, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan car class: %w", err)
		}
		classes = append(classes, c)
	}

	return classes, rows.Err()
}
