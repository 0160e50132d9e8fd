// Package notify builds event announcements and delivers them to a chat channel.
package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/yourusername/pitwall/internal/calendar"
	"github.com/yourusername/pitwall/internal/models"
)

const timeLayout = "Mon 02 Jan 15:04 MST"

// Participant is one registered driver, listed once per event.
type Participant struct {
	Name      string  `json:"name"`
	DiscordID *string `json:"discord_id,omitempty"`
}

// Payload is the structured announcement of one event
type Payload struct {
	EventName    string        `json:"event_name"`
	Track        string        `json:"track"`
	TrackConfig  *string       `json:"track_config,omitempty"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	Weather      string        `json:"weather,omitempty"`
	CarClasses   []string      `json:"car_classes"`
	Participants []Participant `json:"participants"`
	location     *time.Location
}

// BuildPayload assembles the announcement for an event. Participants registered for
// several races of the event appear once.
func BuildPayload(event *models.Event, registrations []models.Registration, loc *time.Location) Payload {
	if loc == nil {
		loc = time.UTC
	}

	withUser := lo.Filter(registrations, func(r models.Registration, _ int) bool { return r.User != nil })
	unique := lo.UniqBy(withUser, func(r models.Registration) uuid.UUID { return r.UserID })

	return Payload{
		EventName:   event.Name,
		Track:       event.Track,
		TrackConfig: event.TrackConfig,
		Start:       event.StartTime,
		End:         event.EndTime,
		Weather:     WeatherSummary(event.Weather),
		CarClasses:  lo.Map(event.CarClasses, func(c models.CarClass, _ int) string { return c.DisplayName() }),
		Participants: lo.Map(unique, func(r models.Registration, _ int) Participant {
			return Participant{Name: r.User.Name, DiscordID: r.User.DiscordID}
		}),
		location: loc,
	}
}

// WeatherSummary renders temperature and humidity, or "" when neither is known.
func WeatherSummary(w models.Weather) string {
	var parts []string
	if t := calendar.FormatTemperature(w); t != "" {
		parts = append(parts, t)
	}
	if w.Humidity != nil {
		parts = append(parts, fmt.Sprintf("%d%% humidity", *w.Humidity))
	}
	return strings.Join(parts, ", ")
}

// Subject is the announcement title
func (p Payload) Subject() string {
	return p.EventName
}

// Message renders the announcement body
func (p Payload) Message() string {
	loc := p.location
	if loc == nil {
		loc = time.UTC
	}

	track := p.Track
	if p.TrackConfig != nil && *p.TrackConfig != "" {
		track = fmt.Sprintf("%s (%s)", p.Track, *p.TrackConfig)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Track: %s\n", track)
	fmt.Fprintf(&b, "Start: %s\n", p.Start.In(loc).Format(timeLayout))
	fmt.Fprintf(&b, "End: %s\n", p.End.In(loc).Format(timeLayout))
	if p.Weather != "" {
		fmt.Fprintf(&b, "Weather: %s\n", p.Weather)
	}
	if len(p.CarClasses) > 0 {
		fmt.Fprintf(&b, "Classes: %s\n", strings.Join(p.CarClasses, ", "))
	}

	if len(p.Participants) == 0 {
		b.WriteString("Drivers: none registered yet")
		return b.String()
	}

	names := lo.Map(p.Participants, func(pt Participant, _ int) string {
		if pt.DiscordID != nil && *pt.DiscordID != "" {
			return fmt.Sprintf("%s (<@%s>)", pt.Name, *pt.DiscordID)
		}
		return pt.Name
	})
	fmt.Fprintf(&b, "Drivers (%d): %s", len(names), strings.Join(names, ", "))
	return b.String()
}
