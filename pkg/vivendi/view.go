package vivendi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// ViewState is the roster's current calendar layout.
type ViewState string

const (
	ViewWeek    ViewState = "week"
	ViewMonth   ViewState = "month"
	ViewUnknown ViewState = "unknown"
)

const (
	bodyReadyTimeout   = 20 * time.Second
	viewSettleDelay    = 2 * time.Second
	calendarExtraDelay = 3 * time.Second

	// Empirically determined focus-order distance from <body> to the
	// month-view control. Undocumented by the target UI; do not tune
	// without access to it.
	monthViewTabPresses = 14
)

const (
	weekButtonXPath      = `//button[@aria-label='Wochenansicht']`
	monthButtonXPath     = `//button[@aria-label='Monatsansicht']`
	weekIconXPath        = `//mat-icon[@data-mat-icon-name='calendar_view_week']`
	monthIconXPath       = `//mat-icon[@data-mat-icon-name='calendar_view_month']`
	monthIconButtonXPath = `//button[.//mat-icon[@data-mat-icon-name='calendar_view_month']]`
	dayColumnXPath       = `//div[contains(@class, 'day-column')]`
	calendarTableXPath   = `//table[contains(@class, 'calendar')]`
)

// activateMonthButtonJS scans every button for a month-view hint and clicks
// the first match, for the case where the control exists but is not
// directly clickable.
const activateMonthButtonJS = `() => {
	const buttons = document.querySelectorAll('button');
	for (const btn of buttons) {
		const label = btn.getAttribute('aria-label') || '';
		if (btn.textContent.includes('Monat') || label.includes('Monat')) {
			btn.click();
			return true;
		}
	}
	return false;
}`

// A detectStrategy inspects the page and either returns a definite view
// state or reports itself inconclusive.
type detectStrategy struct {
	name  string
	probe func() (ViewState, bool)
}

// A switchStrategy attempts one way of forcing the month view.
type switchStrategy struct {
	name  string
	apply func() error
}

// runDetect walks the cascade until a strategy is conclusive.
func runDetect(rep *Reporter, strategies []detectStrategy) ViewState {
	for _, st := range strategies {
		view, ok := st.probe()
		if !ok {
			continue
		}
		rep.Status("%s view detected (via %s)", view, st.name)
		return view
	}
	rep.Status("calendar view could not be determined")
	return ViewUnknown
}

// runSwitch tries each strategy in order, settling after a success. Returns
// false when every strategy failed.
func runSwitch(rep *Reporter, strategies []switchStrategy) bool {
	for _, st := range strategies {
		if err := st.apply(); err != nil {
			rep.Status("month view via %s failed: %v", st.name, err)
			continue
		}
		rep.Status("switched to month view (via %s)", st.name)
		time.Sleep(viewSettleDelay)
		return true
	}
	return false
}

// ensureMonthView waits for the calendar to load, detects the current view
// and forces the monthly grid when the weekly one is showing. Every failure
// here is degraded-but-continue: extraction proceeds in whatever view is
// active.
func (s *session) ensureMonthView() {
	s.rep.Status("waiting for calendar to finish loading")
	if _, err := s.page.Timeout(bodyReadyTimeout).ElementX("//body"); err != nil {
		s.rep.Status("warning: page body not ready: %v", err)
	}
	time.Sleep(calendarExtraDelay)

	s.rep.Status("checking current calendar view")
	switch view := runDetect(s.rep, s.detectStrategies()); view {
	case ViewMonth:
		s.rep.Status("already in month view, nothing to do")
	case ViewWeek:
		s.rep.Status("week view active, switching to month view")
		if !runSwitch(s.rep, s.switchStrategies()) {
			s.rep.Status("warning: could not switch to month view, continuing with current view")
		}
	default:
		s.rep.Status("view unknown, continuing with extraction")
	}
}

func (s *session) detectStrategies() []detectStrategy {
	return []detectStrategy{
		{"url marker", s.probeURLMarker},
		{"view-toggle button", s.probeToggleButtons},
		{"view icon", s.probeViewIcons},
		{"grid structure", s.probeGridStructure},
	}
}

// probeURLMarker: the SPA encodes the view in its route.
func (s *session) probeURLMarker() (ViewState, bool) {
	info, err := s.page.Info()
	if err != nil {
		return ViewUnknown, false
	}
	url := strings.ToLower(info.URL)
	s.rep.Status("current url: %s", url)
	switch {
	case strings.Contains(url, "/woche/"):
		return ViewWeek, true
	case strings.Contains(url, "/monat/"):
		return ViewMonth, true
	}
	return ViewUnknown, false
}

// probeToggleButtons: a visible control for leaving a view implies that
// view is the current one.
func (s *session) probeToggleButtons() (ViewState, bool) {
	if s.anyVisibleX(weekButtonXPath) {
		return ViewMonth, true
	}
	if s.anyVisibleX(monthButtonXPath) {
		return ViewWeek, true
	}
	return ViewUnknown, false
}

// probeViewIcons: same indirect signal, read from the toolbar icons.
func (s *session) probeViewIcons() (ViewState, bool) {
	if s.anyVisibleX(weekIconXPath) {
		return ViewMonth, true
	}
	if s.anyVisibleX(monthIconXPath) {
		return ViewWeek, true
	}
	return ViewUnknown, false
}

// probeGridStructure: the weekly grid renders one column per day, the
// monthly grid a calendar table.
func (s *session) probeGridStructure() (ViewState, bool) {
	if columns, err := s.page.ElementsX(dayColumnXPath); err == nil && len(columns) >= 5 {
		return ViewWeek, true
	}
	if tables, err := s.page.ElementsX(calendarTableXPath); err == nil && len(tables) > 0 {
		return ViewMonth, true
	}
	return ViewUnknown, false
}

func (s *session) switchStrategies() []switchStrategy {
	return []switchStrategy{
		{"month-view button", func() error { return s.clickFirstVisibleX(monthButtonXPath) }},
		{"month-view icon button", func() error { return s.clickFirstVisibleX(monthIconButtonXPath) }},
		{"url rewrite", s.switchByURLRewrite},
		{"in-page script", s.switchByScript},
		{"keyboard navigation", s.switchByKeyboard},
	}
}

func (s *session) switchByURLRewrite() error {
	info, err := s.page.Info()
	if err != nil {
		return err
	}
	if !strings.Contains(info.URL, "/woche/") {
		return errors.New("url carries no week marker to rewrite")
	}
	monthURL := strings.Replace(info.URL, "/woche/", "/monat/", 1)
	s.rep.Status("navigating directly to %s", monthURL)
	return s.page.Navigate(monthURL)
}

func (s *session) switchByScript() error {
	result, err := s.page.Eval(activateMonthButtonJS)
	if err != nil {
		return err
	}
	if !result.Value.Bool() {
		return errors.New("no month button found by script")
	}
	return nil
}

// switchByKeyboard is a blind focus-order guess and the most likely part to
// break silently when the target UI changes. Last resort only.
func (s *session) switchByKeyboard() error {
	s.rep.Status("trying keyboard navigation (blind guess over focus order)")
	body, err := s.page.ElementX("//body")
	if err != nil {
		return err
	}
	if err := body.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("focus page body: %w", err)
	}
	for i := 0; i < monthViewTabPresses; i++ {
		if err := s.page.Keyboard.Press(input.Tab); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return s.page.Keyboard.Press(input.Enter)
}
