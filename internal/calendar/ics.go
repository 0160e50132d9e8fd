// Package calendar renders team events as calendar documents and deep links.
package calendar

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// UIDDomain suffixes every calendar UID so clients can de-duplicate re-imports.
	UIDDomain = "pitwall.app"

	maxLineOctets = 75
	crlf          = "\r\n"
	icsDateLayout = "20060102T150405Z"
	slotSize      = 15 * time.Minute
)

// Event is the subset of an event a calendar entry needs.
type Event struct {
	ExternalID  string
	Title       string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
}

// CeilTo15Minutes rounds t up to the next quarter hour. Boundary values are returned unchanged.
func CeilTo15Minutes(t time.Time) time.Time {
	floor := t.Truncate(slotSize)
	if floor.Equal(t) {
		return t
	}
	return floor.Add(slotSize)
}

// FormatICSDate renders t in UTC basic format, e.g. 20260314T140000Z.
func FormatICSDate(t time.Time) string {
	return t.UTC().Format(icsDateLayout)
}

// EscapeText escapes a TEXT property value.
func EscapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\r\n", `\n`,
		"\n", `\n`,
		"\r", `\n`,
	)
	return r.Replace(s)
}

// FoldLine splits a content line into segments of at most 75 octets. Continuation
// segments start with a single space, which counts toward their limit. Multi-byte
// characters are never split across segments.
func FoldLine(line string) string {
	if len(line) <= maxLineOctets {
		return line
	}

	var b strings.Builder
	limit := maxLineOctets
	segment := 0

	for len(line) > 0 {
		_, size := utf8.DecodeRuneInString(line)
		if segment+size > limit {
			b.WriteString(crlf)
			b.WriteByte(' ')
			segment = 1
			continue
		}
		b.WriteString(line[:size])
		line = line[size:]
		segment += size
	}

	return b.String()
}

// BuildICS renders a single-event calendar document with CRLF line endings.
// The end time is rounded up to the next quarter hour.
func BuildICS(ev Event, stamp time.Time) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Pitwall//Team Events//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + ev.ExternalID + "@" + UIDDomain,
		"DTSTAMP:" + FormatICSDate(stamp),
		"DTSTART:" + FormatICSDate(ev.Start),
		"DTEND:" + FormatICSDate(CeilTo15Minutes(ev.End)),
		"SUMMARY:" + EscapeText(ev.Title),
	}
	if ev.Location != "" {
		lines = append(lines, "LOCATION:"+EscapeText(ev.Location))
	}
	if ev.Description != "" {
		lines = append(lines, "DESCRIPTION:"+EscapeText(ev.Description))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR")

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(FoldLine(l))
		b.WriteString(crlf)
	}
	return b.String()
}
