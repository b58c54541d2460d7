// Package schedule folds raw per-day roster fragments into canonical
// records, one per calendar date.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Belafone/VivSync/pkg/models"
)

// Merge groups fragments by date and builds one record per day. The first
// fragment carrying a shift code supplies the code and its duty time;
// further codes for the same day are logged and ignored (first wins, a
// deliberate tie-break). Positions are collected in discovery order and
// comma-joined. Days left with neither code nor position are dropped.
// Output is sorted by ascending date.
func Merge(fragments []models.RawDienst, username string, status models.StatusFunc) []models.Dienst {
	if status == nil {
		status = func(string) {}
	}

	buckets := make(map[string][]models.RawDienst)
	var dates []string
	for _, f := range fragments {
		if f.Date == "" || f.Date == models.DateUnknown {
			continue
		}
		if _, seen := buckets[f.Date]; !seen {
			dates = append(dates, f.Date)
		}
		buckets[f.Date] = append(buckets[f.Date], f)
	}
	status(fmt.Sprintf("days with entries: %d", len(dates)))

	// ISO dates sort correctly as strings.
	sort.Strings(dates)

	var merged []models.Dienst
	for _, date := range dates {
		record := models.Dienst{Date: date, Username: username}
		var positions []string

		for _, f := range buckets[date] {
			if f.Code != "" {
				if record.Code != "" {
					status(fmt.Sprintf("warning: multiple shift codes (%s, %s) for %s, keeping the first", record.Code, f.Code, date))
				} else {
					record.Code = f.Code
					record.DutyTime = f.DutyTime
				}
			}
			if f.Position != "" {
				positions = append(positions, f.Position)
			}
		}
		record.Position = strings.Join(positions, ", ")

		if record.Code == "" && record.Position == "" {
			status(fmt.Sprintf("no shift or position for %s after merge, dropping", date))
			continue
		}
		merged = append(merged, record)
	}
	status(fmt.Sprintf("shift entries after merge: %d", len(merged)))
	return merged
}
