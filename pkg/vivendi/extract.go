package vivendi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Belafone/VivSync/pkg/models"
)

const (
	dienstEntryXPath  = `//pep-dienstliste-dienst`
	dateAncestorXPath = `./ancestor::div[contains(@aria-label, ' am ')][1]`
	entryTextXPath    = `.//div[contains(@class, 'dienstliste-dienst__icon')] | .//span[contains(@class, 'dienst-text')]`

	nextMonthButtonXPath = `//button[contains(@aria-label, 'Nächster Monat')] | //button[descendant::mat-icon[@data-mat-icon-name='chevron_right']]`

	nextMonthTimeout = 10 * time.Second
	monthRenderDelay = 5 * time.Second
)

// scanMonth collects the raw fragments of the month currently on screen.
// Processing is isolated per node: a stale or malformed element is logged
// and skipped, never aborting the batch.
func (s *session) scanMonth(label string) []models.RawDienst {
	time.Sleep(monthRenderDelay)
	elements, err := s.page.ElementsX(dienstEntryXPath)
	if err != nil {
		s.rep.Status("warning: %s: listing shift entries failed: %v", label, err)
		return nil
	}
	s.rep.Status("%s: %d shift entry elements", label, len(elements))

	var fragments []models.RawDienst
	for i, el := range elements {
		fragment, err := s.extractEntry(el)
		if err != nil {
			s.rep.Status("%s: skipping element %d/%d: %v", label, i+1, len(elements), err)
			continue
		}
		fragments = append(fragments, fragment)
	}
	s.rep.Status("%s: %d fragments extracted", label, len(fragments))
	return fragments
}

// extractEntry turns one shift-entry node into a raw fragment: resolve the
// date from the nearest labelled ancestor, classify the node text, then try
// to derive the duty time. A duty-time failure only degrades the fragment;
// a missing date or an empty classification drops it.
func (s *session) extractEntry(el *rod.Element) (models.RawDienst, error) {
	parent, err := el.ElementX(dateAncestorXPath)
	if err != nil {
		return models.RawDienst{}, fmt.Errorf("date ancestor: %w", err)
	}
	parentLabel := s.attrOrEmpty(parent, "aria-label")
	date, dateObj, dateOK := ResolveDate(parentLabel)
	if !dateOK {
		return models.RawDienst{}, fmt.Errorf("no parseable date in label %q", parentLabel)
	}

	text := s.entryText(el)
	ariaLabel := s.attrOrEmpty(el, "aria-label")
	code, position := ClassifyEntry(text, ariaLabel)
	if code == "" && position == "" {
		return models.RawDienst{}, errors.New("neither shift code nor position recognized")
	}

	var dutyTime string
	if code != "" && strings.Contains(ariaLabel, "Uhr") {
		dutyTime, err = ComputeDutyTime(dateObj, ariaLabel)
		if err != nil {
			s.rep.Status("duty time for %s not derived: %v", date, err)
			dutyTime = ""
		}
	}

	return models.RawDienst{
		Date:     date,
		Code:     code,
		Position: position,
		DutyTime: dutyTime,
	}, nil
}

// entryText prefers the icon/text child node; the node's own text is the
// fallback for markup variants without one.
func (s *session) entryText(el *rod.Element) string {
	if child, err := el.ElementX(entryTextXPath); err == nil {
		if text, err := child.Text(); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (s *session) attrOrEmpty(el *rod.Element, name string) string {
	value, err := el.Attribute(name)
	if err != nil || value == nil {
		return ""
	}
	return *value
}

// gotoNextMonth advances the calendar one month forward. Failure is
// degraded-but-continue for the run: the caller keeps the current month's
// fragments.
func (s *session) gotoNextMonth() error {
	button, err := s.page.Timeout(nextMonthTimeout).ElementX(nextMonthButtonXPath)
	if err != nil {
		return fmt.Errorf("next month control: %w", err)
	}
	s.rep.Status("next month control found")
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click next month: %w", err)
	}
	return nil
}
