package models

import "time"

// RawSeason is one upstream series season, fetched fresh on every sync and never persisted.
type RawSeason struct {
	SeriesID            int
	SeasonID            int
	Name                string
	DriverChanges       bool
	MaxTeamDrivers      int
	CarClassIDs         []int
	LicenseGroup        int
	ScheduleDescription string
	Weeks               []RawWeek
}

// RawWeek is one schedule week within a season.
type RawWeek struct {
	RaceWeekNum   int
	StartDate     time.Time
	WeekEndTime   *time.Time
	TrackName     string
	TrackConfig   *string
	Weather       Weather
	RaceTimes     []RaceTimeDescriptor
	RaceTimeLimit *int
}

// EffectiveEnd returns the week end time, or the start date when the provider omitted it.
func (w *RawWeek) EffectiveEnd() time.Time {
	if w.WeekEndTime != nil {
		return *w.WeekEndTime
	}
	return w.StartDate
}

// RaceTimeDescriptor describes when sessions of a week go green.
type RaceTimeDescriptor struct {
	SessionMinutes *int
	SessionTimes   []time.Time
}

// Weather is the forecast snapshot for a week. All fields are optional.
type Weather struct {
	Temperature  *float64 `json:"temperature,omitempty"`
	TempUnits    *int     `json:"temp_units,omitempty"` // 0 = Fahrenheit, 1 = Celsius
	Humidity     *int     `json:"humidity,omitempty"`
	Skies        *int     `json:"skies,omitempty"`
	PrecipChance *int     `json:"precip_chance,omitempty"`
}
