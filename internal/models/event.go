package models

import (
	"time"

	"github.com/google/uuid"
)

// NormalizedEvent is the transformation output for one qualifying season week.
type NormalizedEvent struct {
	ExternalID   string           `json:"external_id"`
	Name         string           `json:"name"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	Track        string           `json:"track"`
	TrackConfig  *string          `json:"track_config,omitempty"`
	Description  string           `json:"description"`
	CarClassIDs  []int            `json:"car_class_ids"`
	LicenseGroup int              `json:"license_group"`
	Weather      Weather          `json:"weather"`
	DurationMins int              `json:"duration_mins"`
	Races        []NormalizedRace `json:"races"`
}

// NormalizedRace is one concrete session of a NormalizedEvent.
type NormalizedRace struct {
	ExternalID string    `json:"external_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// Event is the persisted form of a NormalizedEvent.
type Event struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ExternalID   string     `db:"external_id" json:"external_id"`
	Name         string     `db:"name" json:"name"`
	StartTime    time.Time  `db:"start_time" json:"start_time"`
	EndTime      time.Time  `db:"end_time" json:"end_time"`
	Track        string     `db:"track" json:"track"`
	TrackConfig  *string    `db:"track_config" json:"track_config,omitempty"`
	Description  string     `db:"description" json:"description"`
	LicenseGroup int        `db:"license_group" json:"license_group"`
	Weather      Weather    `db:"-" json:"weather"`
	DurationMins int        `db:"duration_mins" json:"duration_mins"`
	DiscordURL   *string    `db:"discord_thread_url" json:"discord_thread_url,omitempty"`
	CarClasses   []CarClass `db:"-" json:"car_classes,omitempty"`
	Races        []Race     `db:"-" json:"races,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Race is the persisted form of a NormalizedRace.
type Race struct {
	ID         uuid.UUID `db:"id" json:"id"`
	EventID    uuid.UUID `db:"event_id" json:"event_id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
}

// IsUpcoming reports whether the race has not started at the given time.
func (r *Race) IsUpcoming(now time.Time) bool {
	return r.StartTime.After(now)
}
