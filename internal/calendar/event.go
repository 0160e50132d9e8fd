package calendar

import (
	"strings"
	"time"

	"github.com/yourusername/pitwall/internal/models"
)

// EventPageURL returns the app page of an event under baseURL.
func EventPageURL(baseURL, externalID string) string {
	return strings.TrimRight(baseURL, "/") + "/events/" + externalID
}

// FromModel builds the calendar view of a stored event. The description is rendered
// in loc and links back to the event page under baseURL.
func FromModel(ev *models.Event, baseURL string, loc *time.Location) Event {
	return Event{
		ExternalID: ev.ExternalID,
		Title:      ev.Name,
		Start:      ev.StartTime,
		End:        ev.EndTime,
		Location:   trackLabel(ev.Track, ev.TrackConfig),
		Description: BuildDescription(DescriptionInput{
			Name:         ev.Name,
			Track:        ev.Track,
			TrackConfig:  ev.TrackConfig,
			Start:        ev.StartTime,
			Location:     loc,
			DurationMins: ev.DurationMins,
			Weather:      ev.Weather,
			CarClasses:   ev.CarClasses,
			AppURL:       EventPageURL(baseURL, ev.ExternalID),
			ThreadURL:    ev.DiscordURL,
		}),
	}
}
