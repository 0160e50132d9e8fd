package iracing

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/yourusername/pitwall/internal/models"
)

// linkEnvelope is the indirection the data API answers with; the real payload lives at Link.
type linkEnvelope struct {
	Link    string `json:"link"`
	Expires string `json:"expires"`
}

// flexTime accepts both RFC 3339 timestamps and bare dates.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised time %q", s)
}

type seasonPayload struct {
	SeasonID            int               `json:"season_id" validate:"required,gt=0"`
	SeriesID            int               `json:"series_id" validate:"required,gt=0"`
	SeasonName          string            `json:"season_name" validate:"required"`
	DriverChanges       bool              `json:"driver_changes"`
	MaxTeamDrivers      int               `json:"max_team_drivers" validate:"gte=0"`
	CarClassIDs         []int             `json:"car_class_ids"`
	LicenseGroup        int               `json:"license_group" validate:"gte=0"`
	ScheduleDescription string            `json:"schedule_description"`
	Schedules           []schedulePayload `json:"schedules" validate:"dive"`
}

type schedulePayload struct {
	RaceWeekNum         int               `json:"race_week_num" validate:"gte=0"`
	StartDate           *flexTime         `json:"start_date" validate:"required"`
	WeekEndTime         *flexTime         `json:"week_end_time"`
	Track               *trackPayload     `json:"track" validate:"required"`
	Weather             *weatherPayload   `json:"weather"`
	RaceTimeDescriptors []raceTimePayload `json:"race_time_descriptors" validate:"dive"`
	RaceTimeLimit       *int              `json:"race_time_limit" validate:"omitempty,gt=0"`
}

type trackPayload struct {
	TrackID    int     `json:"track_id"`
	TrackName  string  `json:"track_name" validate:"required"`
	ConfigName *string `json:"config_name"`
}

type weatherPayload struct {
	TempValue    *float64 `json:"temp_value"`
	TempUnits    *int     `json:"temp_units"`
	RelHumidity  *int     `json:"rel_humidity"`
	Skies        *int     `json:"skies"`
	PrecipChance *int     `json:"precip_chance"`
}

type raceTimePayload struct {
	SessionMinutes *int        `json:"session_minutes" validate:"omitempty,gt=0"`
	SessionTimes   []time.Time `json:"session_times"`
}

type carClassPayload struct {
	CarClassID int    `json:"car_class_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required"`
	ShortName  string `json:"short_name"`
}

type memberResponse struct {
	Success bool            `json:"success"`
	Members []memberPayload `json:"members"`
}

type memberPayload struct {
	CustID      int              `json:"cust_id" validate:"required,gt=0"`
	DisplayName string           `json:"display_name"`
	Licenses    []licensePayload `json:"licenses" validate:"dive"`
}

type licensePayload struct {
	CategoryID   int     `json:"category_id" validate:"required,gt=0"`
	Category     string  `json:"category"`
	LicenseLevel int     `json:"license_level"`
	SafetyRating float64 `json:"safety_rating"`
	IRating      int     `json:"irating"`
	GroupName    string  `json:"group_name"`
}

func (p *seasonPayload) toRawSeason() models.RawSeason {
	season := models.RawSeason{
		SeriesID:            p.SeriesID,
		SeasonID:            p.SeasonID,
		Name:                p.SeasonName,
		DriverChanges:       p.DriverChanges,
		MaxTeamDrivers:      p.MaxTeamDrivers,
		CarClassIDs:         p.CarClassIDs,
		LicenseGroup:        p.LicenseGroup,
		ScheduleDescription: p.ScheduleDescription,
	}
	season.Weeks = lo.Map(p.Schedules, func(s schedulePayload, _ int) models.RawWeek {
		return s.toRawWeek()
	})
	return season
}

func (s *schedulePayload) toRawWeek() models.RawWeek {
	week := models.RawWeek{
		RaceWeekNum:   s.RaceWeekNum,
		StartDate:     s.StartDate.Time,
		TrackName:     s.Track.TrackName,
		TrackConfig:   s.Track.ConfigName,
		RaceTimeLimit: s.RaceTimeLimit,
	}
	if s.WeekEndTime != nil && !s.WeekEndTime.IsZero() {
		end := s.WeekEndTime.Time
		week.WeekEndTime = &end
	}
	if s.Weather != nil {
		week.Weather = models.Weather{
			Temperature:  s.Weather.TempValue,
			TempUnits:    s.Weather.TempUnits,
			Humidity:     s.Weather.RelHumidity,
			Skies:        s.Weather.Skies,
			PrecipChance: s.Weather.PrecipChance,
		}
	}
	week.RaceTimes = lo.Map(s.RaceTimeDescriptors, func(d raceTimePayload, _ int) models.RaceTimeDescriptor {
		return models.RaceTimeDescriptor{SessionMinutes: d.SessionMinutes, SessionTimes: d.SessionTimes}
	})
	return week
}

func (m *memberPayload) toMemberInfo() *models.MemberInfo {
	return &models.MemberInfo{
		CustomerID:  m.CustID,
		DisplayName: m.DisplayName,
		Licenses: lo.Map(m.Licenses, func(l licensePayload, _ int) models.License {
			return models.License{
				CategoryID:   l.CategoryID,
				Category:     l.Category,
				LicenseLevel: l.LicenseLevel,
				SafetyRating: decimal.NewFromFloat(l.SafetyRating).Round(2),
				IRating:      l.IRating,
				GroupName:    l.GroupName,
			}
		}),
	}
}

// decodeSeasons parses the season catalog, dropping seasons that fail validation.
// The second return value is the number of seasons dropped.
func decodeSeasons(body []byte, validate *validator.Validate) ([]models.RawSeason, int, error) {
	var payloads []seasonPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, 0, fmt.Errorf("failed to decode seasons: %w", err)
	}

	seasons := make([]models.RawSeason, 0, len(payloads))
	skipped := 0
	for i := range payloads {
		if err := validate.Struct(&payloads[i]); err != nil {
			skipped++
			continue
		}
		seasons = append(seasons, payloads[i].toRawSeason())
	}
	return seasons, skipped, nil
}

func decodeCarClasses(body []byte, validate *validator.Validate) ([]models.CarClass, error) {
	var payloads []carClassPayload
	if err := json.Unmarshal(body, &payloads); err != nil {
		return nil, fmt.Errorf("failed to decode car classes: %w", err)
	}

	valid := lo.Filter(payloads, func(p carClassPayload, _ int) bool {
		return validate.Struct(&p) == nil
	})
	return lo.Map(valid, func(p carClassPayload, _ int) models.CarClass {
		return models.CarClass{ExternalID: p.CarClassID, Name: p.Name, ShortName: p.ShortName}
	}), nil
}

func decodeMember(body []byte, validate *validator.Validate) (*models.MemberInfo, error) {
	var resp memberResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode member: %w", err)
	}
	if len(resp.Members) == 0 {
		return nil, nil
	}
	member := resp.Members[0]
	if err := validate.Struct(&member); err != nil {
		return nil, fmt.Errorf("invalid member payload: %w", err)
	}
	return member.toMemberInfo(), nil
}
