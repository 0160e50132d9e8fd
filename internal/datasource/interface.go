// Package datasource holds the upstream provider contract and its shared HTTP transport.
package datasource

import (
	"context"
	"time"

	"github.com/yourusername/pitwall/internal/models"
)

// Provider defines the interface for fetching racing schedule data from an external provider
type Provider interface {
	// FetchSpecialEvents fetches the season catalog and returns the team events within
	// the sync window relative to now.
	FetchSpecialEvents(ctx context.Context, now time.Time) ([]models.NormalizedEvent, error)

	// FetchCarClasses returns the provider's car class reference data.
	FetchCarClasses(ctx context.Context) ([]models.CarClass, error)

	// FetchDriverStats returns license data for one customer id, or nil when the provider
	// has no such member.
	FetchDriverStats(ctx context.Context, customerID string) (*models.MemberInfo, error)

	// Name returns the name of the provider
	Name() string
}
