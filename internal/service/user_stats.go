package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitwall/internal/datasource"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/repository"
)

// UserStatsResult is the outcome of one per-user license refresh
type UserStatsResult struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Licenses int    `json:"licenses"`
}

// UserStatsSyncer refreshes license stats for a single user
type UserStatsSyncer interface {
	SyncUserStats(ctx context.Context, userID uuid.UUID, overrideCustomerID *string) UserStatsResult
}

// UserStatsService refreshes a user's license stats from the provider
type UserStatsService struct {
	provider datasource.Provider
	users    repository.UserRepository
	stats    repository.DriverStatsRepository
	logger   logrus.FieldLogger
}

// NewUserStatsService creates a new user stats service
func NewUserStatsService(
	provider datasource.Provider,
	users repository.UserRepository,
	stats repository.DriverStatsRepository,
	logger logrus.FieldLogger,
) *UserStatsService {
	return &UserStatsService{
		provider: provider,
		users:    users,
		stats:    stats,
		logger:   logger.WithField("component", "user_stats"),
	}
}

// SyncUserStats resolves the customer id (override first, then the stored one), fetches
// license data, updates the display name and upserts one row per license category.
func (s *UserStatsService) SyncUserStats(ctx context.Context, userID uuid.UUID, overrideCustomerID *string) UserStatsResult {
	licenses, err := s.syncUserStats(ctx, userID, overrideCustomerID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID.String()).Warn("User stats refresh failed")
		return UserStatsResult{Error: err.Error()}
	}
	return UserStatsResult{Success: true, Licenses: licenses}
}

func (s *UserStatsService) syncUserStats(ctx context.Context, userID uuid.UUID, overrideCustomerID *string) (int, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, models.NewConfigurationError(fmt.Sprintf("user %s does not exist", userID), err)
		}
		return 0, fmt.Errorf("failed to load user: %w", err)
	}

	customerID, err := resolveCustomerID(user, overrideCustomerID)
	if err != nil {
		return 0, err
	}

	info, err := s.provider.FetchDriverStats(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch driver stats: %w", err)
	}
	if info == nil {
		return 0, models.NewRequestError("member", 0, fmt.Sprintf("no member found for customer id %s", customerID), nil)
	}

	if info.DisplayName != "" && info.DisplayName != user.Name {
		if err := s.users.UpdateName(ctx, user.ID, info.DisplayName); err != nil {
			return 0, fmt.Errorf("failed to update user name: %w", err)
		}
	}

	for _, lic := range info.Licenses {
		row := &models.DriverStats{
			UserID:       user.ID,
			CategoryID:   lic.CategoryID,
			Category:     lic.Category,
			LicenseLevel: lic.LicenseLevel,
			SafetyRating: lic.SafetyRating,
			IRating:      lic.IRating,
			GroupName:    lic.GroupName,
		}
		if err := s.stats.Upsert(ctx, row); err != nil {
			return 0, fmt.Errorf("failed to upsert %s stats: %w", lic.Category, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":     user.ID.String(),
		"customer_id": customerID,
		"licenses":    len(info.Licenses),
	}).Info("Refreshed user stats")

	return len(info.Licenses), nil
}

// resolveCustomerID prefers the explicit override and requires a numeric id.
func resolveCustomerID(user *models.User, override *string) (string, error) {
	var raw string
	switch {
	case override != nil && strings.TrimSpace(*override) != "":
		raw = strings.TrimSpace(*override)
	case user.IRacingCustomerID != nil:
		raw = strings.TrimSpace(*user.IRacingCustomerID)
	}

	if raw == "" {
		return "", models.NewConfigurationError(fmt.Sprintf("user %s has no iRacing customer id", user.ID), nil)
	}
	if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
		return "", models.NewConfigurationError(fmt.Sprintf("customer id %q is not numeric", raw), err)
	}
	return raw, nil
}
