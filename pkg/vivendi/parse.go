package vivendi

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Belafone/VivSync/pkg/models"
)

// validPositions is the whitelist of location tags the roster uses. Entry
// text matching one of these exactly is a position fragment, never a shift
// code.
var validPositions = []string{"Oben", "Unten", "Angebot", "Ingebo"}

const dateMarker = " am "

var (
	istDienstRe = regexp.MustCompile(`Ist-Dienst:\s*(\S+)`)
	startTimeRe = regexp.MustCompile(`(?i)(\d{1,2}:\d{2})\s*Uhr`)
	durationRe  = regexp.MustCompile(`(?i)(\d+([.,]\d+)?)\s*h`)
	longDateRe  = regexp.MustCompile(`^(\d{1,2})\.\s+(\p{L}+)\s+(\d{4})$`)
)

// germanMonths replaces the original's temporary locale switch: Go has no
// process locale, so the localized long form is matched against an explicit
// month table instead.
var germanMonths = map[string]time.Month{
	"januar":    time.January,
	"februar":   time.February,
	"märz":      time.March,
	"april":     time.April,
	"mai":       time.May,
	"juni":      time.June,
	"juli":      time.July,
	"august":    time.August,
	"september": time.September,
	"oktober":   time.October,
	"november":  time.November,
	"dezember":  time.December,
}

// ResolveDate extracts the calendar date from an ancestor accessible label
// of the form "... am <date>". The substring after the last marker is tried
// against the known date patterns. Returns the DateUnknown sentinel when the
// marker or every pattern fails.
func ResolveDate(ariaLabel string) (string, time.Time, bool) {
	idx := strings.LastIndex(ariaLabel, dateMarker)
	if idx < 0 {
		return models.DateUnknown, time.Time{}, false
	}
	raw := strings.TrimSpace(ariaLabel[idx+len(dateMarker):])
	return ParseDienstDate(raw)
}

// ParseDienstDate parses a raw date string against, in order: ISO
// YYYY-MM-DD, dotted DD.MM.YYYY, and the German long form "2. April 2025".
// First matching pattern wins.
func ParseDienstDate(raw string) (string, time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "02.01.2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), t, true
		}
	}
	if m := longDateRe.FindStringSubmatch(raw); m != nil {
		if month, ok := germanMonths[strings.ToLower(m[2])]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
			return t.Format("2006-01-02"), t, true
		}
	}
	return models.DateUnknown, time.Time{}, false
}

// ClassifyEntry decides what a shift-entry node's text represents: an exact
// whitelist match is a position, any other non-empty text is a shift code,
// and for empty text the code is recovered from the accessible label's
// "Ist-Dienst:" annotation if present.
func ClassifyEntry(text, ariaLabel string) (code, position string) {
	text = strings.TrimSpace(text)
	for _, p := range validPositions {
		if text == p {
			return "", p
		}
	}
	if text != "" {
		return text, ""
	}
	if m := istDienstRe.FindStringSubmatch(ariaLabel); m != nil {
		return strings.TrimSpace(m[1]), ""
	}
	return "", ""
}

// ComputeDutyTime derives "HH:MM - HH:MM" from an accessible label carrying
// a start time ("6:00 Uhr") and a duration ("7,5h" or "7.5h"). The end time
// is start plus duration on the fragment's date; single-digit start hours
// are zero-padded.
func ComputeDutyTime(date time.Time, ariaLabel string) (string, error) {
	sm := startTimeRe.FindStringSubmatch(ariaLabel)
	if sm == nil {
		return "", errors.New("no start time (HH:MM Uhr) in label")
	}
	start := sm[1]
	if strings.Index(start, ":") == 1 {
		start = "0" + start
	}

	dm := durationRe.FindStringSubmatch(ariaLabel)
	if dm == nil {
		return "", errors.New("no duration (x.xh) in label")
	}
	durationHours, err := strconv.ParseFloat(strings.ReplaceAll(dm[1], ",", "."), 64)
	if err != nil {
		return "", fmt.Errorf("duration %q: %w", dm[1], err)
	}
	hours := int(durationHours)
	minutes := int(math.Round((durationHours - float64(hours)) * 60))

	startHour, startMinute, err := splitClock(start)
	if err != nil {
		return "", err
	}
	startAt := time.Date(date.Year(), date.Month(), date.Day(), startHour, startMinute, 0, 0, date.Location())
	endAt := startAt.Add(time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute)
	return start + " - " + endAt.Format("15:04"), nil
}

func splitClock(clock string) (hour, minute int, err error) {
	parts := strings.Split(clock, ":")
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
