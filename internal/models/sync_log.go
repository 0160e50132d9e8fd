package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the lifecycle state of a sync run
type SyncStatus string

const (
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	SyncStatusSuccess    SyncStatus = "SUCCESS"
	SyncStatusFailure    SyncStatus = "FAILURE"
)

// SyncSource identifies what triggered a sync run
type SyncSource string

const (
	SyncSourceManual SyncSource = "MANUAL"
	SyncSourceCron   SyncSource = "CRON"
)

// SyncLog records one sync invocation. Created IN_PROGRESS, finalized once, never deleted.
type SyncLog struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Status    SyncStatus `db:"status" json:"status"`
	Source    SyncSource `db:"source" json:"source"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   *time.Time `db:"end_time" json:"end_time,omitempty"`
	Count     int        `db:"count" json:"count"`
	Error     *string    `db:"error" json:"error,omitempty"`
}

// IsTerminal reports whether the log entry has been finalized
func (l *SyncLog) IsTerminal() bool {
	return l.Status == SyncStatusSuccess || l.Status == SyncStatusFailure
}
