package vivendi

import (
	"fmt"

	"github.com/Belafone/VivSync/pkg/models"
)

// Reporter fans status lines and progress checkpoints out to the caller's
// sinks. Progress is clamped to 0..100 and never decreases within a run.
type Reporter struct {
	status      models.StatusFunc
	progress    models.ProgressFunc
	lastPercent int
}

// NewReporter wraps the given sinks; either may be nil.
func NewReporter(status models.StatusFunc, progress models.ProgressFunc) *Reporter {
	return &Reporter{status: status, progress: progress}
}

// Status emits one formatted status line.
func (r *Reporter) Status(format string, args ...interface{}) {
	if r == nil || r.status == nil {
		return
	}
	r.status(fmt.Sprintf(format, args...))
}

// Line returns the reporter's status sink as a plain StatusFunc, for code
// that takes the callback directly.
func (r *Reporter) Line() models.StatusFunc {
	return func(line string) { r.Status("%s", line) }
}

// Progress reports a checkpoint. Values below the last reported checkpoint
// are dropped to keep the stream monotonic.
func (r *Reporter) Progress(percent int) {
	if r == nil || r.progress == nil {
		return
	}
	if percent > 100 {
		percent = 100
	}
	if percent < r.lastPercent {
		return
	}
	r.lastPercent = percent
	r.progress(percent)
}
