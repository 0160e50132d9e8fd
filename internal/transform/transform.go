// Package transform turns upstream season schedules into normalized team events.
//
// The package does no I/O. Every function is deterministic given its inputs,
// including the current time, so repeated runs produce identical external ids
// and downstream upserts stay idempotent.
package transform

import (
	"fmt"
	"sort"
	"time"

	"github.com/yourusername/pitwall/internal/models"
)

// LookaheadWindow bounds how far ahead of now a week may start and still be synced.
const LookaheadWindow = 30 * 24 * time.Hour

// EventExternalID derives the stable id of a season week.
func EventExternalID(seriesID, seasonID, raceWeekNum int) string {
	return fmt.Sprintf("ir_%d_%d_w%d", seriesID, seasonID, raceWeekNum)
}

// RaceExternalID derives the stable id of one session within a season week.
func RaceExternalID(seriesID, seasonID, raceWeekNum, sessionIndex int) string {
	return fmt.Sprintf("%s_s%d", EventExternalID(seriesID, seasonID, raceWeekNum), sessionIndex)
}

// EventName is the bare season name for week 0, otherwise suffixed with the 1-indexed week.
func EventName(seasonName string, raceWeekNum int) string {
	if raceWeekNum == 0 {
		return seasonName
	}
	return fmt.Sprintf("%s - Week %d", seasonName, raceWeekNum+1)
}

// InWindow reports whether a week has not yet ended and starts within the lookahead window.
func InWindow(week *models.RawWeek, now time.Time) bool {
	if !week.EffectiveEnd().After(now) {
		return false
	}
	return !week.StartDate.After(now.Add(LookaheadWindow))
}

// SeasonsToEvents classifies seasons, expands their in-window weeks into races,
// and returns the resulting events ordered by start time.
func SeasonsToEvents(seasons []models.RawSeason, now time.Time) []models.NormalizedEvent {
	events := make([]models.NormalizedEvent, 0)

	for i := range seasons {
		season := &seasons[i]
		if !IsTeamEvent(season) {
			continue
		}

		for j := range season.Weeks {
			week := &season.Weeks[j]
			if !InWindow(week, now) {
				continue
			}
			events = append(events, buildEvent(season, week))
		}
	}

	sort.SliceStable(events, func(a, b int) bool {
		return events[a].StartTime.Before(events[b].StartTime)
	})

	return events
}

func buildEvent(season *models.RawSeason, week *models.RawWeek) models.NormalizedEvent {
	races := ExpandSessions(season, week)

	sort.SliceStable(races, func(a, b int) bool {
		return races[a].StartTime.Before(races[b].StartTime)
	})

	start := races[0].StartTime
	end := races[0].EndTime
	for _, r := range races[1:] {
		if r.EndTime.After(end) {
			end = r.EndTime
		}
	}

	carClassIDs := make([]int, len(season.CarClassIDs))
	copy(carClassIDs, season.CarClassIDs)

	return models.NormalizedEvent{
		ExternalID:   EventExternalID(season.SeriesID, season.SeasonID, week.RaceWeekNum),
		Name:         EventName(season.Name, week.RaceWeekNum),
		StartTime:    start,
		EndTime:      end,
		Track:        week.TrackName,
		TrackConfig:  week.TrackConfig,
		Description:  season.ScheduleDescription,
		CarClassIDs:  carClassIDs,
		LicenseGroup: season.LicenseGroup,
		Weather:      week.Weather,
		DurationMins: ResolveDisplayDuration(firstSessionMinutes(week), week.RaceTimeLimit),
		Races:        races,
	}
}

// ExpandSessions emits one race per session time across all descriptors of the week.
// Session indexes run across descriptors so two sessions in one week never share an id.
// A week without any session times yields a single race at the week start.
func ExpandSessions(season *models.RawSeason, week *models.RawWeek) []models.NormalizedRace {
	races := make([]models.NormalizedRace, 0)
	sessionIndex := 0

	for _, desc := range week.RaceTimes {
		if len(desc.SessionTimes) == 0 {
			continue
		}
		length := time.Duration(ResolveRaceDuration(desc.SessionMinutes, week.RaceTimeLimit)) * time.Minute
		for _, start := range desc.SessionTimes {
			races = append(races, models.NormalizedRace{
				ExternalID: RaceExternalID(season.SeriesID, season.SeasonID, week.RaceWeekNum, sessionIndex),
				StartTime:  start,
				EndTime:    start.Add(length),
			})
			sessionIndex++
		}
	}

	if len(races) > 0 {
		return races
	}

	// No concrete session times: the race limit is the best estimate of the slot.
	length := time.Duration(ResolveDisplayDuration(firstSessionMinutes(week), week.RaceTimeLimit)) * time.Minute
	return []models.NormalizedRace{{
		ExternalID: RaceExternalID(season.SeriesID, season.SeasonID, week.RaceWeekNum, 0),
		StartTime:  week.StartDate,
		EndTime:    week.StartDate.Add(length),
	}}
}

func firstSessionMinutes(week *models.RawWeek) *int {
	if len(week.RaceTimes) == 0 {
		return nil
	}
	return week.RaceTimes[0].SessionMinutes
}
