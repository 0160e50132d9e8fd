package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/yourusername/pitwall/internal/models"
)

const startLayout = "Mon, 02 Jan 2006 15:04 MST"

// DescriptionInput carries what a human-readable event description shows.
type DescriptionInput struct {
	Name         string
	Track        string
	TrackConfig  *string
	Start        time.Time
	Location     *time.Location
	DurationMins int
	Weather      models.Weather
	CarClasses   []models.CarClass
	AppURL       string
	ThreadURL    *string
}

// BuildDescription assembles the multi-line description used in calendar entries.
func BuildDescription(in DescriptionInput) string {
	lines := []string{in.Name, "Track: " + trackLabel(in.Track, in.TrackConfig)}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	lines = append(lines, "Start: "+in.Start.In(loc).Format(startLayout))

	var summary []string
	if in.DurationMins > 0 {
		summary = append(summary, "Duration: "+FormatDuration(in.DurationMins))
	}
	if t := FormatTemperature(in.Weather); t != "" {
		summary = append(summary, "Temp: "+t)
	}
	if in.Weather.Humidity != nil {
		summary = append(summary, fmt.Sprintf("Humidity: %d%%", *in.Weather.Humidity))
	}
	if len(summary) > 0 {
		lines = append(lines, strings.Join(summary, " | "))
	}

	if len(in.CarClasses) > 0 {
		names := lo.Map(in.CarClasses, func(c models.CarClass, _ int) string { return c.DisplayName() })
		lines = append(lines, "Cars: "+strings.Join(names, ", "))
	}

	lines = append(lines, "", in.AppURL)
	if in.ThreadURL != nil && *in.ThreadURL != "" {
		lines = append(lines, "Discord: "+*in.ThreadURL)
	}

	return strings.Join(lines, "\n")
}

// FormatDuration renders minutes as "2h 14m", "2h" or "45m".
func FormatDuration(mins int) string {
	h, m := mins/60, mins%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatTemperature renders the forecast temperature with its unit, or "" when absent.
func FormatTemperature(w models.Weather) string {
	if w.Temperature == nil {
		return ""
	}
	unit := "F"
	if w.TempUnits != nil && *w.TempUnits == 1 {
		unit = "C"
	}
	return fmt.Sprintf("%.0f°%s", *w.Temperature, unit)
}

func trackLabel(track string, config *string) string {
	if config == nil || *config == "" {
		return track
	}
	return fmt.Sprintf("%s (%s)", track, *config)
}
