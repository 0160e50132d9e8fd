package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/calendar"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/notify"
)

const (
	defaultUpcomingLimit = 20
	maxUpcomingLimit     = 100
	defaultSyncLogLimit  = 20
	maxSyncLogLimit      = 200
)

// UpcomingEvent is one row of the upcoming events listing
type UpcomingEvent struct {
	ExternalID   string     `json:"external_id"`
	Name         string     `json:"name"`
	Track        string     `json:"track"`
	TrackConfig  *string    `json:"track_config,omitempty"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      time.Time  `json:"end_time"`
	DurationMins int        `json:"duration_mins"`
	Races        int        `json:"races"`
	NextRace     *time.Time `json:"next_race,omitempty"`
	CarClasses   []string   `json:"car_classes"`
}

func (s *Server) handleSync(source models.SyncSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := s.logger.WithField("source", source)
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			entry = entry.WithField("triggered_by", claims.Subject)
		}
		entry.Info("Sync requested")

		result := s.deps.Sync.Run(r.Context(), source)
		switch {
		case result.Success:
			respondJSON(w, http.StatusOK, result)
		case result.Error == models.ErrIntegrationDisabled.Error():
			respondJSON(w, http.StatusServiceUnavailable, result)
		default:
			respondJSON(w, http.StatusInternalServerError, result)
		}
	}
}

func (s *Server) handleSyncLogs(w http.ResponseWriter, r *http.Request) {
	if s.deps.SyncLogs == nil {
		respondError(w, http.StatusServiceUnavailable, "sync history is not configured")
		return
	}
	limit, ok := parseLimit(w, r, defaultSyncLogLimit, maxSyncLogLimit)
	if !ok {
		return
	}

	logs, err := s.deps.SyncLogs.ListRecent(r.Context(), limit)
	if err != nil {
		s.logger.WithError(err).Error("Sync log listing failed")
		respondError(w, http.StatusInternalServerError, "failed to load sync logs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"logs":    logs,
	})
}

func (s *Server) handleStoredUserStats(w http.ResponseWriter, r *http.Request) {
	if s.deps.DriverStats == nil {
		respondError(w, http.StatusServiceUnavailable, "driver stats are not configured")
		return
	}
	userID, err := parseUUIDParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	stats, err := s.deps.DriverStats.ListByUser(r.Context(), userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Driver stats lookup failed")
		respondError(w, http.StatusInternalServerError, "failed to load driver stats")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user_id": userID,
		"stats":   stats,
	})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUUIDParam(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var override *string
	if v := r.URL.Query().Get("customer_id"); v != "" {
		override = &v
	}

	result := s.deps.UserStats.SyncUserStats(r.Context(), userID, override)
	if !result.Success {
		respondJSON(w, http.StatusBadGateway, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	if s.deps.Notifier == nil {
		respondError(w, http.StatusServiceUnavailable, "notifications are not configured")
		return
	}

	payload, err := s.deps.Notifier.NotifyEvent(r.Context(), chi.URLParam(r, "externalID"))
	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "event not found")
	case errors.Is(err, notify.ErrDisabled):
		respondError(w, http.StatusServiceUnavailable, "notifications are disabled")
	case err != nil:
		s.logger.WithError(err).Warn("Event notification failed")
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success":      true,
			"subject":      payload.Subject(),
			"participants": len(payload.Participants),
		})
	}
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")
	page, err := s.deps.Pages.GetOrRender(cache.EventPageKey(externalID, "ics"), func() ([]byte, error) {
		ev, err := s.deps.Events.GetByExternalID(r.Context(), externalID)
		if err != nil {
			return nil, err
		}
		return []byte(calendar.BuildICS(s.calendarEvent(ev), time.Now())), nil
	})
	if err != nil {
		s.respondLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+externalID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleCalendarLinks(w http.ResponseWriter, r *http.Request) {
	externalID := chi.URLParam(r, "externalID")
	page, err := s.deps.Pages.GetOrRender(cache.EventPageKey(externalID, "links"), func() ([]byte, error) {
		ev, err := s.deps.Events.GetByExternalID(r.Context(), externalID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(calendar.BuildLinks(s.calendarEvent(ev)))
	})
	if err != nil {
		s.respondLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r, defaultUpcomingLimit, maxUpcomingLimit)
	if !ok {
		return
	}

	key := cache.ListPagePrefix + "upcoming:" + strconv.Itoa(limit)
	page, err := s.deps.Pages.GetOrRender(key, func() ([]byte, error) {
		now := time.Now()
		events, err := s.deps.Events.ListUpcoming(r.Context(), now, limit)
		if err != nil {
			return nil, err
		}
		return json.Marshal(lo.Map(events, func(ev models.Event, _ int) UpcomingEvent {
			row := UpcomingEvent{
				ExternalID:   ev.ExternalID,
				Name:         ev.Name,
				Track:        ev.Track,
				TrackConfig:  ev.TrackConfig,
				StartTime:    ev.StartTime,
				EndTime:      ev.EndTime,
				DurationMins: ev.DurationMins,
				Races:        len(ev.Races),
				CarClasses: lo.Map(ev.CarClasses, func(cc models.CarClass, _ int) string {
					return cc.DisplayName()
				}),
			}
			if next, ok := lo.Find(ev.Races, func(race models.Race) bool { return race.IsUpcoming(now) }); ok {
				row.NextRace = &next.StartTime
			}
			return row
		}))
	})
	if err != nil {
		s.respondLookupError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

// parseLimit reads ?limit, clamped to ceiling. It writes a 400 and returns false on a bad value.
func parseLimit(w http.ResponseWriter, r *http.Request, fallback, ceiling int) (int, bool) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		respondError(w, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	return lo.Min([]int{n, ceiling}), true
}

func (s *Server) calendarEvent(ev *models.Event) calendar.Event {
	return calendar.FromModel(ev, s.cfg.App.BaseURL, s.cfg.Location())
}

func (s *Server) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, models.ErrNotFound) {
		respondError(w, http.StatusNotFound, "event not found")
		return
	}
	s.logger.WithError(err).Error("Event lookup failed")
	respondError(w, http.StatusInternalServerError, "failed to load event")
}
