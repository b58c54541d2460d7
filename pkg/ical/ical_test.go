package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/Belafone/VivSync/pkg/models"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		d    models.Dienst
		want string
	}{
		{"code and position", models.Dienst{Code: "D33", Position: "Oben"}, "D33 - Oben"},
		{"code only", models.Dienst{Code: "A102"}, "A102"},
		{"position only", models.Dienst{Position: "Unten"}, " - Unten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Title(tt.d); got != tt.want {
				t.Errorf("Title(%+v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestEventTimesDaytimeShift(t *testing.T) {
	start, end, allDay, err := EventTimes(models.Dienst{Date: "2025-04-02", DutyTime: "06:00 - 11:30"})
	if err != nil {
		t.Fatalf("EventTimes() error = %v", err)
	}
	if allDay {
		t.Fatal("allDay = true for a timed shift")
	}
	if got := start.Format("2006-01-02 15:04"); got != "2025-04-02 06:00" {
		t.Errorf("start = %s", got)
	}
	if got := end.Format("2006-01-02 15:04"); got != "2025-04-02 11:30" {
		t.Errorf("end = %s", got)
	}
}

func TestEventTimesOvernightShift(t *testing.T) {
	start, end, allDay, err := EventTimes(models.Dienst{Date: "2025-04-02", DutyTime: "22:00 - 06:00"})
	if err != nil {
		t.Fatalf("EventTimes() error = %v", err)
	}
	if allDay {
		t.Fatal("allDay = true for a timed shift")
	}
	if !end.After(start) {
		t.Errorf("end %v not after start %v", end, start)
	}
	if end.Day() == start.Day() {
		t.Errorf("overnight shift did not roll to the next day: start %v, end %v", start, end)
	}
}

func TestEventTimesAllDay(t *testing.T) {
	start, end, allDay, err := EventTimes(models.Dienst{Date: "2025-04-02"})
	if err != nil {
		t.Fatalf("EventTimes() error = %v", err)
	}
	if !allDay {
		t.Fatal("allDay = false for a record without a duty time")
	}
	if end.Sub(start) != 24*time.Hour {
		t.Errorf("all-day span = %v, want 24h", end.Sub(start))
	}
}

func TestEventTimesMalformed(t *testing.T) {
	if _, _, _, err := EventTimes(models.Dienst{Date: "2025-04-02", DutyTime: "frueh bis spaet"}); err == nil {
		t.Error("EventTimes() error = nil for malformed duty time")
	}
	if _, _, _, err := EventTimes(models.Dienst{Date: "irgendwann", DutyTime: "06:00 - 11:30"}); err == nil {
		t.Error("EventTimes() error = nil for malformed date")
	}
}

func TestEncode(t *testing.T) {
	dienste := []models.Dienst{
		{Date: "2025-04-02", Code: "D33", Position: "Oben", DutyTime: "06:00 - 11:30"},
		{Date: "2025-04-03", Code: "A102", Position: "Unten"},
	}

	doc := Encode(dienste, time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC), nil)

	for _, want := range []string{
		"BEGIN:VCALENDAR\r\n",
		"VERSION:2.0\r\n",
		"PRODID:-//VivSync//Dienstplan//DE\r\n",
		"METHOD:PUBLISH\r\n",
		"SUMMARY:D33 - Oben\r\n",
		"DTSTART:20250402T060000\r\n",
		"DTEND:20250402T113000\r\n",
		"SUMMARY:A102 - Unten\r\n",
		"DTSTART;VALUE=DATE:20250403\r\n",
		"DTEND;VALUE=DATE:20250404\r\n",
		"DESCRIPTION:Automatisch synchronisiert mit VivSync\\nDienstzeit: 06:00 - 11:30\r\n",
		"TRANSP:TRANSPARENT\r\n",
		"END:VCALENDAR\r\n",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}

	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("event count = %d, want 2", got)
	}
}

func TestEncodeSkipsUnparseableDates(t *testing.T) {
	var lines []string
	doc := Encode([]models.Dienst{
		{Date: "kein Datum", Code: "D33"},
		{Date: "2025-04-02", Code: "D33"},
	}, time.Now(), func(line string) { lines = append(lines, line) })

	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("event count = %d, want 1", got)
	}
	if len(lines) == 0 {
		t.Error("no warning status line for the skipped entry")
	}
}
