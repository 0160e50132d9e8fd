package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/yourusername/pitwall/internal/database"
	"github.com/yourusername/pitwall/internal/models"
)

const (
	upsertEventSQL = `
		INSERT INTO events (
			external_id, name, start_time, end_time, track, track_config,
			description, license_group, weather, duration_mins, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (external_id) DO UPDATE SET
			name          = EXCLUDED.name,
			start_time    = EXCLUDED.start_time,
			end_time      = EXCLUDED.end_time,
			track         = EXCLUDED.track,
			track_config  = EXCLUDED.track_config,
			description   = EXCLUDED.description,
			license_group = EXCLUDED.license_group,
			weather       = EXCLUDED.weather,
			duration_mins = EXCLUDED.duration_mins,
			updated_at    = EXCLUDED.updated_at
		RETURNING id
	`

	upsertRaceSQL = `
		INSERT INTO races (event_id, external_id, start_time, end_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE SET
			event_id   = EXCLUDED.event_id,
			start_time = EXCLUDED.start_time,
			end_time   = EXCLUDED.end_time
		RETURNING id
	`

	clearEventCarClassesSQL = `DELETE FROM event_car_classes WHERE event_id = $1`

	attachEventCarClassesSQL = `
		INSERT INTO event_car_classes (event_id, car_class_id)
		SELECT $1::uuid, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`

	selectEventColumns = `
		id, external_id, name, start_time, end_time, track, track_config, description,
		license_group, weather, duration_mins, discord_thread_url, created_at, updated_at
	`
)

// PostgresEventUnitOfWork implements EventUnitOfWork with one pgx transaction per event
type PostgresEventUnitOfWork struct {
	db *database.DB
}

// NewPostgresEventUnitOfWork creates a new event unit of work
func NewPostgresEventUnitOfWork(db *database.DB) EventUnitOfWork {
	return &PostgresEventUnitOfWork{db: db}
}

// WithinEvent runs fn inside a fresh transaction
func (u *PostgresEventUnitOfWork) WithinEvent(ctx context.Context, fn func(w EventWriter) error) error {
	return u.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&txEventWriter{tx: tx})
	})
}

// txEventWriter writes events and races through one transaction
type txEventWriter struct {
	tx pgx.Tx
}

// UpsertEvent writes the event row and replaces its car class set
func (w *txEventWriter) UpsertEvent(ctx context.Context, event *models.NormalizedEvent, carClassIDs []uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := w.tx.QueryRow(ctx, upsertEventSQL,
		event.ExternalID, event.Name, event.StartTime, event.EndTime, event.Track, event.TrackConfig,
		event.Description, event.LicenseGroup, event.Weather, event.DurationMins,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert event %s: %w", event.ExternalID, err)
	}

	if _, err := w.tx.Exec(ctx, clearEventCarClassesSQL, id); err != nil {
		return uuid.Nil, fmt.Errorf("failed to clear car classes for event %s: %w", event.ExternalID, err)
	}

	if len(carClassIDs) > 0 {
		ids := lo.Map(carClassIDs, func(id uuid.UUID, _ int) string { return id.String() })
		if _, err := w.tx.Exec(ctx, attachEventCarClassesSQL, id, ids); err != nil {
			return uuid.Nil, fmt.Errorf("failed to attach car classes for event %s: %w", event.ExternalID, err)
		}
	}

	return id, nil
}

// UpsertRace writes one race under its parent event
func (w *txEventWriter) UpsertRace(ctx context.Context, eventID uuid.UUID, race *models.NormalizedRace) (uuid.UUID, error) {
	var id uuid.UUID
	err := w.tx.QueryRow(ctx, upsertRaceSQL, eventID, race.ExternalID, race.StartTime, race.EndTime).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert race %s: %w", race.ExternalID, err)
	}
	return id, nil
}

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db       *database.DB
	carClass CarClassRepository
}

// NewPostgresEventRepository creates a new event repository
func NewPostgresEventRepository(db *database.DB) EventRepository {
	return &PostgresEventRepository{db: db, carClass: NewPostgresCarClassRepository(db)}
}

// GetByExternalID retrieves an event with its car classes and races
func (r *PostgresEventRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Event, error) {
	query := `SELECT ` + selectEventColumns + ` FROM events WHERE external_id = $1`

	event, err := scanEvent(r.db.Querier().QueryRow(ctx, query, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if event.CarClasses, err = r.carClass.ListByEvent(ctx, event.ID); err != nil {
		return nil, err
	}
	if event.Races, err = r.listRaces(ctx, event.ID); err != nil {
		return nil, err
	}

	return event, nil
}

// ListUpcoming retrieves events that have not yet ended, ordered by start time, with
// their car classes and races
func (r *PostgresEventRepository) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Event, error) {
	query := `SELECT ` + selectEventColumns + ` FROM events WHERE end_time > $1 ORDER BY start_time ASC LIMIT $2`

	rows, err := r.db.Querier().Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	for i := range events {
		if events[i].CarClasses, err = r.carClass.ListByEvent(ctx, events[i].ID); err != nil {
			return nil, err
		}
		if events[i].Races, err = r.listRaces(ctx, events[i].ID); err != nil {
			return nil, err
		}
	}

	return events, nil
}

func (r *PostgresEventRepository) listRaces(ctx context.Context, eventID uuid.UUID) ([]models.Race, error) {
	query := `
		SELECT id, event_id, external_id, start_time, end_time
		FROM races WHERE event_id = $1
		ORDER BY start_time ASC
	`

	rows, err := r.db.Querier().Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	var races []models.Race
	for rows.Next() {
		var race models.Race
		if err := rows.Scan(&race.ID, &race.EventID, &race.ExternalID, &race.StartTime, &race.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		races = append(races, race)
	}

	return races, rows.Err()
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	e := &models.Event{}
	err := row.Scan(
		&e.ID, &e.ExternalID, &e.Name, &e.StartTime, &e.EndTime, &e.Track, &e.TrackConfig, &e.Description,
		&e.LicenseGroup, &e.Weather, &e.DurationMins, &e.DiscordURL, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}
