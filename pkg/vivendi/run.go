package vivendi

import (
	"context"
	"fmt"

	"github.com/Belafone/VivSync/pkg/models"
	"github.com/Belafone/VivSync/pkg/schedule"
)

// Extract drives one full extraction run: login, force the monthly view,
// scan the current and the next month, and merge the raw fragments into one
// record per day. The browser is released on every exit path. Navigation and
// extraction are strictly sequential; callers must serialize concurrent runs
// themselves (one in-flight run per credential set).
func Extract(ctx context.Context, cfg Config, rep *Reporter) ([]models.Dienst, error) {
	rep.Status("=== starting browser ===")
	rep.Progress(10)

	if cfg.URL == "" {
		return nil, ErrMissingURL
	}
	if cfg.Username == "" {
		rep.Status("warning: no username configured")
	}

	s, err := newSession(ctx, cfg, rep)
	if err != nil {
		return nil, fmt.Errorf("browser start: %w", err)
	}
	defer s.close()
	rep.Progress(20)

	if err := s.login(cfg); err != nil {
		return nil, err
	}
	rep.Progress(30)

	s.ensureMonthView()
	rep.Status("=== scanning current month ===")
	rep.Progress(40)
	fragments := s.scanMonth("current month")
	rep.Progress(60)

	rep.Status("=== navigating to next month ===")
	if err := s.gotoNextMonth(); err != nil {
		rep.Status("warning: %v, continuing with current month only", err)
	} else {
		rep.Progress(70)
		rep.Status("=== scanning next month ===")
		fragments = append(fragments, s.scanMonth("next month")...)
		rep.Progress(90)
	}

	rep.Status("=== merging %d raw fragments ===", len(fragments))
	dienste := schedule.Merge(fragments, cfg.Username, rep.Line())

	if len(dienste) == 0 {
		rep.Status("no valid shifts extracted")
	}
	for _, d := range dienste {
		if d.DutyTime != "" {
			rep.Status("%s: %s - %s (%s)", d.Date, d.Code, d.Position, d.DutyTime)
		} else {
			rep.Status("%s: %s - %s", d.Date, d.Code, d.Position)
		}
	}
	rep.Status("%d merged shift entries extracted", len(dienste))
	rep.Progress(100)
	return dienste, nil
}
