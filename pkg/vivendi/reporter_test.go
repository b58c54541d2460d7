package vivendi

import (
	"testing"
)

func TestReporterProgressMonotonic(t *testing.T) {
	var got []int
	rep := NewReporter(nil, func(percent int) { got = append(got, percent) })

	for _, p := range []int{10, 30, 20, 30, 60, 150} {
		rep.Progress(p)
	}

	want := []int{10, 30, 30, 60, 100}
	if len(got) != len(want) {
		t.Fatalf("progress values = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress values = %v, want %v", got, want)
		}
	}
}

func TestReporterNilCallbacks(t *testing.T) {
	rep := NewReporter(nil, nil)
	rep.Status("no sink attached: %d", 1)
	rep.Progress(50)
}
