// Package ics renders calendar events as iCalendar documents for export.
package ics

import (
	"fmt"
	"strings"
	"time"

	"github.com/darby/hearth/internal/model"
)

const stampLayout = "20060102T150405"

// Generate renders the given events as a VCALENDAR document. Event dates are
// "YYYY-MM-DD" strings paired with "HH:MM" start times; each event gets a
// one-hour duration. Events whose date or time fail to parse are skipped.
func Generate(events []model.CalendarEvent, teamName string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	fmt.Fprintf(&b, "PRODID:-//%s//Calendar//EN\r\n", escape(teamName))
	b.WriteString("CALSCALE:GREGORIAN\r\n")

	slug := strings.ReplaceAll(strings.ToLower(teamName), " ", "-")
	for _, ev := range events {
		start, err := time.Parse("2006-01-02 15:04", ev.Date+" "+ev.Time)
		if err != nil {
			continue
		}
		end := start.Add(time.Hour)

		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%d@%s\r\n", ev.ID, slug)
		fmt.Fprintf(&b, "SUMMARY:%s\r\n", escape(ev.Title))
		if ev.Description != "" {
			fmt.Fprintf(&b, "DESCRIPTION:%s\r\n", escape(ev.Description))
		}
		fmt.Fprintf(&b, "DTSTART:%s\r\n", start.Format(stampLayout))
		fmt.Fprintf(&b, "DTEND:%s\r\n", end.Format(stampLayout))
		if ev.RecurrenceRule != "" {
			fmt.Fprintf(&b, "RRULE:%s\r\n", ev.RecurrenceRule)
		}
		for _, id := range ev.AttendeeIDs {
			fmt.Fprintf(&b, "ATTENDEE;ROLE=REQ-PARTICIPANT;PARTSTAT=NEEDS-ACTION:member-%d\r\n", id)
		}
		b.WriteString("END:VEVENT\r\n")
	}

	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

// escape applies the RFC 5545 TEXT escaping rules.
func escape(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(s)
}
