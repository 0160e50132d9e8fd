package iracing

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/pitwall/internal/models"
)

// MockSeasons returns a small catalog positioned relative to now so that the
// transformation yields events inside the sync window. Served only in development
// when credentials are absent.
func MockSeasons(now time.Time) []models.RawSeason {
	day := now.UTC().Truncate(24 * time.Hour)
	intPtr := func(v int) *int { return &v }
	floatPtr := func(v float64) *float64 { return &v }
	strPtr := func(v string) *string { return &v }

	weekOneStart := day.Add(-24 * time.Hour)
	weekOneEnd := weekOneStart.Add(7 * 24 * time.Hour)
	weekTwoStart := day.Add(10 * 24 * time.Hour)
	weekTwoEnd := weekTwoStart.Add(7 * 24 * time.Hour)

	return []models.RawSeason{
		{
			SeriesID:            228,
			SeasonID:            9001,
			Name:                "Special Event - Roar Before the 24",
			DriverChanges:       true,
			MaxTeamDrivers:      4,
			CarClassIDs:         []int{4029, 4074},
			LicenseGroup:        4,
			ScheduleDescription: "Team event with driver swaps",
			Weeks: []models.RawWeek{
				{
					RaceWeekNum: 0,
					StartDate:   weekOneStart,
					WeekEndTime: &weekOneEnd,
					TrackName:   "Daytona International Speedway",
					TrackConfig: strPtr("Road Course"),
					Weather: models.Weather{
						Temperature: floatPtr(78),
						TempUnits:   intPtr(0),
						Humidity:    intPtr(55),
						Skies:       intPtr(1),
					},
					RaceTimes: []models.RaceTimeDescriptor{
						{
							SessionMinutes: intPtr(180),
							SessionTimes: []time.Time{
								day.Add(2*24*time.Hour + 14*time.Hour),
								day.Add(3*24*time.Hour + 20*time.Hour),
							},
						},
					},
					RaceTimeLimit: intPtr(180),
				},
			},
		},
		{
			SeriesID:            331,
			SeasonID:            9002,
			Name:                "Global Endurance Tour",
			DriverChanges:       true,
			MaxTeamDrivers:      3,
			CarClassIDs:         []int{4074},
			LicenseGroup:        3,
			ScheduleDescription: "6 hour team races",
			Weeks: []models.RawWeek{
				{
					RaceWeekNum:   5,
					StartDate:     weekTwoStart,
					WeekEndTime:   &weekTwoEnd,
					TrackName:     "Sebring International Raceway",
					TrackConfig:   strPtr("International"),
					RaceTimeLimit: intPtr(360),
				},
			},
		},
	}
}

// MockCarClasses returns car classes matching the ids referenced by MockSeasons.
func MockCarClasses() []models.CarClass {
	return []models.CarClass{
		{ExternalID: 4029, Name: "GTP Class", ShortName: "GTP"},
		{ExternalID: 4074, Name: "GT3 Class", ShortName: "GT3"},
	}
}

// MockMemberInfo returns a fixed license profile for the given customer id.
func MockMemberInfo(customerID string) *models.MemberInfo {
	id, _ := strconv.Atoi(customerID)
	return &models.MemberInfo{
		CustomerID:  id,
		DisplayName: "Mock Driver",
		Licenses: []models.License{
			{
				CategoryID:   2,
				Category:     "road",
				LicenseLevel: 18,
				SafetyRating: decimal.RequireFromString("3.42"),
				IRating:      2150,
				GroupName:    "Class A",
			},
			{
				CategoryID:   1,
				Category:     "oval",
				LicenseLevel: 10,
				SafetyRating: decimal.RequireFromString("2.87"),
				IRating:      1480,
				GroupName:    "Class C",
			},
		},
	}
}
