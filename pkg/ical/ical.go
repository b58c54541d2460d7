// Package ical renders merged shift records as an iCalendar document. The
// same encoder serves the local file export and the hosted feed, so both
// produce identical calendars for identical input.
package ical

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Belafone/VivSync/pkg/models"
)

const (
	productID       = "-//VivSync//Dienstplan//DE"
	descriptionNote = "Automatisch synchronisiert mit VivSync"

	dateLayout  = "2006-01-02"
	stampLayout = "20060102T150405Z"
	localLayout = "20060102T150405"
	dayLayout   = "20060102"
)

// Encode serializes the records into a VCALENDAR document. now is only used
// for the DTSTAMP fields. Records whose date or duty time cannot be parsed
// degrade (all-day) or are skipped, with a status line either way.
func Encode(dienste []models.Dienst, now time.Time, status models.StatusFunc) string {
	if status == nil {
		status = func(string) {}
	}

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+productID)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")

	stamp := now.UTC().Format(stampLayout)
	for _, d := range dienste {
		day, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			status(fmt.Sprintf("warning: skipping entry with unparseable date %q", d.Date))
			continue
		}

		writeLine(&b, "BEGIN:VEVENT")
		writeLine(&b, "UID:"+uuid.NewString()+"@vivsync")
		writeLine(&b, "DTSTAMP:"+stamp)
		writeLine(&b, "SUMMARY:"+escapeText(Title(d)))
		writeLine(&b, "DESCRIPTION:"+escapeText(description(d)))

		start, end, allDay, err := EventTimes(d)
		if err != nil {
			status(fmt.Sprintf("warning: duty time %q for %s: %v, writing all-day event", d.DutyTime, d.Date, err))
			allDay = true
		}
		if allDay {
			writeLine(&b, "DTSTART;VALUE=DATE:"+day.Format(dayLayout))
			writeLine(&b, "DTEND;VALUE=DATE:"+day.AddDate(0, 0, 1).Format(dayLayout))
		} else {
			writeLine(&b, "DTSTART:"+start.Format(localLayout))
			writeLine(&b, "DTEND:"+end.Format(localLayout))
		}
		// Shifts show as free time in subscribing calendars.
		writeLine(&b, "TRANSP:TRANSPARENT")
		writeLine(&b, "END:VEVENT")
	}

	writeLine(&b, "END:VCALENDAR")
	return b.String()
}

// WriteFile renders the records and writes the .ics document to path.
func WriteFile(dienste []models.Dienst, path string, status models.StatusFunc) error {
	doc := Encode(dienste, time.Now(), status)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write calendar file: %w", err)
	}
	return nil
}

// Title builds the event summary: the shift code, suffixed with the
// position when one was merged in.
func Title(d models.Dienst) string {
	title := d.Code
	if d.Position != "" {
		title += " - " + d.Position
	}
	return title
}

func description(d models.Dienst) string {
	desc := descriptionNote
	if d.DutyTime != "" {
		desc += "\nDienstzeit: " + d.DutyTime
	}
	return desc
}

// EventTimes resolves the concrete start/end instants of a record. Records
// without a duty time are all-day. An end clock numerically before the
// start clock means an overnight shift: the end hour is first bumped by
// twelve (a truncated PM reading), and if that still precedes the start the
// end rolls onto the next calendar day.
func EventTimes(d models.Dienst) (start, end time.Time, allDay bool, err error) {
	day, err := time.Parse(dateLayout, d.Date)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("date %q: %w", d.Date, err)
	}
	if d.DutyTime == "" {
		return day, day.AddDate(0, 0, 1), true, nil
	}

	parts := strings.Split(d.DutyTime, " - ")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, false, fmt.Errorf("malformed duty time %q", d.DutyTime)
	}
	startHour, startMinute, err := parseClock(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	endHour, endMinute, err := parseClock(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}

	if endHour < startHour {
		endHour += 12
	}

	start = time.Date(day.Year(), day.Month(), day.Day(), startHour, startMinute, 0, 0, time.UTC)
	end = time.Date(day.Year(), day.Month(), day.Day(), endHour, endMinute, 0, 0, time.UTC)
	if end.Before(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, false, nil
}

func parseClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock value %q", clock)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed clock value %q", clock)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed clock value %q", clock)
	}
	return hour, minute, nil
}

// writeLine terminates with CRLF as RFC 5545 requires.
func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
