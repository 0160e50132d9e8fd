package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/pitwall/internal/models"
)

// ErrSyncLogFinalized is returned when a sync log entry has already reached a terminal status.
var ErrSyncLogFinalized = errors.New("sync log already finalized")

// CarClassRepository defines the interface for car class data access
type CarClassRepository interface {
	// Upsert writes every class keyed by provider id and returns provider id to internal id.
	Upsert(ctx context.Context, classes []models.CarClass) (map[int]uuid.UUID, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.CarClass, error)
}

// EventWriter performs the writes allowed inside one event transaction
type EventWriter interface {
	// UpsertEvent writes the event and replaces its full car class set.
	UpsertEvent(ctx context.Context, event *models.NormalizedEvent, carClassIDs []uuid.UUID) (uuid.UUID, error)
	UpsertRace(ctx context.Context, eventID uuid.UUID, race *models.NormalizedRace) (uuid.UUID, error)
}

// EventUnitOfWork opens one transaction per event. The transaction commits when fn
// returns nil and rolls back otherwise, so an event is never left half-written.
type EventUnitOfWork interface {
	WithinEvent(ctx context.Context, fn func(w EventWriter) error) error
}

// EventRepository defines the interface for reading persisted events
type EventRepository interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Event, error)
	ListUpcoming(ctx context.Context, now time.Time, limit int) ([]models.Event, error)
}

// SyncLogRepository defines the append-only sync log lifecycle
type SyncLogRepository interface {
	Create(ctx context.Context, source models.SyncSource, start time.Time) (*models.SyncLog, error)
	// Finalize moves an IN_PROGRESS entry to a terminal status. It returns
	// ErrSyncLogFinalized when the entry is already terminal.
	Finalize(ctx context.Context, id uuid.UUID, status models.SyncStatus, count int, errMsg *string, end time.Time) error
	ListRecent(ctx context.Context, limit int) ([]models.SyncLog, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListWithCustomerID(ctx context.Context) ([]models.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
}

// DriverStatsRepository defines the interface for license stats access
type DriverStatsRepository interface {
	// Upsert writes one row keyed by (user, category).
	Upsert(ctx context.Context, stats *models.DriverStats) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.DriverStats, error)
}

// RegistrationRepository defines the interface for race sign-up access
type RegistrationRepository interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Registration, error)
}
