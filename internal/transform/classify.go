package transform

import (
	"strings"

	"github.com/yourusername/pitwall/internal/models"
)

// specialEventKeywords admit a season on name alone, whatever its team settings.
var specialEventKeywords = []string{
	"special event",
	"roar before the 24",
	"24 hours of",
	"12 hours of",
	"6 hours of",
	"petit le mans",
	"bathurst 1000",
	"indianapolis 500",
	"daytona 500",
}

// enduranceKeywords admit a season only when it also allows team driving.
var enduranceKeywords = []string{
	"24h",
	"24 hour",
	"12h",
	"12 hour",
	"10h",
	"8h",
	"6h",
	"6 hour",
	"1000",
	"endurance",
	"enduro",
	"major",
	"le mans",
	"sebring",
	"nurburgring",
	"suzuka",
}

// IsSpecialEvent reports whether the season name carries a special-event keyword.
func IsSpecialEvent(name string) bool {
	return containsAny(strings.ToLower(name), specialEventKeywords)
}

// IsTeamEligible reports whether the season allows more than one driver per car.
func IsTeamEligible(season *models.RawSeason) bool {
	return season.DriverChanges || season.MaxTeamDrivers > 1
}

// IsTeamEvent decides whether a season qualifies for team scheduling.
func IsTeamEvent(season *models.RawSeason) bool {
	if IsSpecialEvent(season.Name) {
		return true
	}
	if !IsTeamEligible(season) {
		return false
	}
	return containsAny(strings.ToLower(season.Name), enduranceKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
