package vivendi

import (
	"testing"
	"time"

	"github.com/Belafone/VivSync/pkg/models"
)

func TestParseDienstDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"iso", "2025-04-02", "2025-04-02", true},
		{"dotted", "02.04.2025", "2025-04-02", true},
		{"german long form", "2. April 2025", "2025-04-02", true},
		{"german long form december", "24. Dezember 2025", "2025-12-24", true},
		{"unknown month name", "2. Avril 2025", models.DateUnknown, false},
		{"garbage", "kein Datum", models.DateUnknown, false},
		{"empty", "", models.DateUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := ParseDienstDate(tt.raw)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseDienstDate(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
		ok    bool
	}{
		{"iso after marker", "Dienst D33 am 2025-04-02", "2025-04-02", true},
		{"dotted after marker", "Dienst am 02.04.2025", "2025-04-02", true},
		{"last marker wins", "Team am Haus am 2. April 2025", "2025-04-02", true},
		{"no marker", "Dienst D33 2025-04-02", models.DateUnknown, false},
		{"marker but no date", "Dienst am irgendwann", models.DateUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, ok := ResolveDate(tt.label)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ResolveDate(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestClassifyEntry(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		label        string
		wantCode     string
		wantPosition string
	}{
		{"shift code", "D33", "", "D33", ""},
		{"position oben", "Oben", "", "", "Oben"},
		{"position ingebo", "Ingebo", "", "", "Ingebo"},
		{"whitespace trimmed", "  A102  ", "", "A102", ""},
		{"ist-dienst recovery", "", "Dienst Ist-Dienst: N1 am 2025-04-02", "N1", ""},
		{"empty without annotation", "", "Dienst am 2025-04-02", "", ""},
		{"position beats annotation", "Unten", "Ist-Dienst: D33", "", "Unten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, position := ClassifyEntry(tt.text, tt.label)
			if code != tt.wantCode || position != tt.wantPosition {
				t.Errorf("ClassifyEntry(%q, %q) = (%q, %q), want (%q, %q)",
					tt.text, tt.label, code, position, tt.wantCode, tt.wantPosition)
			}
		})
	}
}

func TestComputeDutyTime(t *testing.T) {
	date := time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		label   string
		want    string
		wantErr bool
	}{
		{"half hour duration", "Dienst D33, 06:00 Uhr, 5.5h", "06:00 - 11:30", false},
		{"comma decimal", "Dienst D33, 06:00 Uhr, 7,5h", "06:00 - 13:30", false},
		{"single digit start padded", "Dienst, 6:00 Uhr, 5.5h", "06:00 - 11:30", false},
		{"whole hours", "Spätdienst, 13:30 Uhr, 8h", "13:30 - 21:30", false},
		{"case insensitive uhr", "Dienst, 06:00 UHR, 2h", "06:00 - 08:00", false},
		{"no start time", "Dienst, 5.5h", "", true},
		{"no duration", "Dienst, 06:00 Uhr", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDutyTime(date, tt.label)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ComputeDutyTime(%q) error = %v, wantErr %v", tt.label, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ComputeDutyTime(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}
