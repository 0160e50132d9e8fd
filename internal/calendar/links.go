package calendar

import (
	"net/url"
	"time"
)

const (
	googleCalendarBase  = "https://calendar.google.com/calendar/render"
	outlookCalendarBase = "https://outlook.live.com/calendar/0/deeplink/compose"
	outlookDateLayout   = "2006-01-02T15:04:05Z"
)

// BuildGoogleCalendarURL returns a prefilled Google Calendar template link.
func BuildGoogleCalendarURL(ev Event) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", ev.Title)
	q.Set("dates", FormatICSDate(ev.Start)+"/"+FormatICSDate(CeilTo15Minutes(ev.End)))
	if ev.Description != "" {
		q.Set("details", ev.Description)
	}
	if ev.Location != "" {
		q.Set("location", ev.Location)
	}
	return googleCalendarBase + "?" + q.Encode()
}

// BuildOutlookCalendarURL returns a prefilled Outlook compose link.
func BuildOutlookCalendarURL(ev Event) string {
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", ev.Title)
	q.Set("startdt", formatOutlookDate(ev.Start))
	q.Set("enddt", formatOutlookDate(CeilTo15Minutes(ev.End)))
	if ev.Description != "" {
		q.Set("body", ev.Description)
	}
	if ev.Location != "" {
		q.Set("location", ev.Location)
	}
	return outlookCalendarBase + "?" + q.Encode()
}

// Links bundles every deep link for one event.
type Links struct {
	Google  string `json:"google"`
	Outlook string `json:"outlook"`
}

// BuildLinks returns the Google and Outlook links for ev.
func BuildLinks(ev Event) Links {
	return Links{
		Google:  BuildGoogleCalendarURL(ev),
		Outlook: BuildOutlookCalendarURL(ev),
	}
}

func formatOutlookDate(t time.Time) string {
	return t.UTC().Format(outlookDateLayout)
}
