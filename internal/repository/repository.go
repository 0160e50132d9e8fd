// Package repository implements persistence for the sync pipeline on PostgreSQL.
package repository

import (
	"fmt"

	"github.com/yourusername/pitwall/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	CarClass     CarClassRepository
	Events       EventUnitOfWork
	EventReader  EventRepository
	SyncLog      SyncLogRepository
	User         UserRepository
	DriverStats  DriverStatsRepository
	Registration RegistrationRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		CarClass:     NewPostgresCarClassRepository(db),
		Events:       NewPostgresEventUnitOfWork(db),
		EventReader:  NewPostgresEventRepository(db),
		SyncLog:      NewPostgresSyncLogRepository(db),
		User:         NewPostgresUserRepository(db),
		DriverStats:  NewPostgresDriverStatsRepository(db),
		Registration: NewPostgresRegistrationRepository(db),
	}, nil
}
