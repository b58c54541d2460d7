package vivendi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Fatal conditions: these abort the whole run with an empty result. Every
// other failure degrades and the extraction continues.
var (
	ErrMissingURL        = errors.New("vivendi: no entry url configured")
	ErrLoginFieldMissing = errors.New("vivendi: login field not found")
)

// IsFatal reports whether err is one of the two non-retryable run-aborting
// conditions.
func IsFatal(err error) bool {
	return errors.Is(err, ErrMissingURL) || errors.Is(err, ErrLoginFieldMissing)
}

// Config describes one extraction run.
type Config struct {
	URL          string
	Username     string
	Password     string
	WindowsLogin bool // federated continuation via keyboard focus traversal
	Headless     bool
	BrowserBin   string // optional explicit Chrome/Chromium binary
}

const (
	usernameFieldTimeout  = 30 * time.Second
	passwordFieldTimeout  = 20 * time.Second
	loginIndicatorTimeout = 30 * time.Second

	keyDelay   = 500 * time.Millisecond
	fieldDelay = 500 * time.Millisecond
)

// The login page has no stable ids; each field is located by an ordered
// union of candidates, first match wins.
const (
	usernameFieldXPath = `//input[contains(@aria-label, 'Benutzer') or contains(@id, 'Benutzer') or contains(@name, 'user') or @type='text']`
	passwordFieldXPath = `//input[@type='password' or contains(@aria-label, 'Kennwort') or contains(@id, 'Kennwort') or contains(@name, 'pass')]`

	// Best-effort post-login markers; their absence is a warning, not a
	// failure.
	loginIndicatorXPath = `//pep-calendar | //*[contains(text(),'Dienstplan')] | //*[contains(@class, 'dienstplan-container')]`
)

// session owns one headless browser for the duration of a run.
type session struct {
	browser *rod.Browser
	page    *rod.Page
	rep     *Reporter
}

func newSession(ctx context.Context, cfg Config, rep *Reporter) (*session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-extensions").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage")
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		if closeErr := browser.Close(); closeErr != nil {
			rep.Status("warning: closing browser after failed page create: %v", closeErr)
		}
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &session{
		browser: browser,
		page:    page.Context(ctx),
		rep:     rep,
	}, nil
}

// close releases the browser. Close errors are logged only; they must not
// mask the run's actual result.
func (s *session) close() {
	if err := s.browser.Close(); err != nil {
		s.rep.Status("warning: browser close failed: %v", err)
	} else {
		s.rep.Status("browser closed")
	}
}

// login navigates to the entry URL, fills both credential fields and
// submits. With WindowsLogin the submission is two focus advances plus an
// activate key: the identity provider's continue control is reachable only
// by keyboard, there is no stable submit element to click.
func (s *session) login(cfg Config) error {
	s.rep.Status("opening %s", cfg.URL)
	if err := s.page.Navigate(cfg.URL); err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	if err := s.page.WaitLoad(); err != nil {
		s.rep.Status("warning: page load wait: %v", err)
	}

	userField, err := s.page.Timeout(usernameFieldTimeout).ElementX(usernameFieldXPath)
	if err != nil {
		return fmt.Errorf("username field: %w", ErrLoginFieldMissing)
	}
	s.rep.Status("username field found")
	if err := s.fill(userField, cfg.Username); err != nil {
		return fmt.Errorf("username field: %w", ErrLoginFieldMissing)
	}

	passField, err := s.page.Timeout(passwordFieldTimeout).ElementX(passwordFieldXPath)
	if err != nil {
		return fmt.Errorf("password field: %w", ErrLoginFieldMissing)
	}
	s.rep.Status("password field found")
	if err := s.fill(passField, cfg.Password); err != nil {
		return fmt.Errorf("password field: %w", ErrLoginFieldMissing)
	}

	if cfg.WindowsLogin {
		s.rep.Status("submitting via keyboard continuation (Tab, Tab, Enter)")
		if err := s.pressSequence(input.Tab, input.Tab, input.Enter); err != nil {
			s.rep.Status("warning: keyboard continuation failed (%v), falling back to Enter", err)
			if err := s.page.Keyboard.Press(input.Enter); err != nil {
				s.rep.Status("warning: enter fallback failed: %v", err)
			}
		}
	} else {
		s.rep.Status("submitting via Enter")
		if err := s.page.Keyboard.Press(input.Enter); err != nil {
			s.rep.Status("warning: submit failed: %v", err)
		}
	}

	s.rep.Status("waiting for roster page (max %s)", loginIndicatorTimeout)
	if _, err := s.page.Timeout(loginIndicatorTimeout).ElementX(loginIndicatorXPath); err != nil {
		s.rep.Status("warning: no login success indicator within %s, continuing anyway", loginIndicatorTimeout)
	} else {
		s.rep.Status("login succeeded")
	}
	return nil
}

func (s *session) fill(field *rod.Element, value string) error {
	if err := field.SelectAllText(); err != nil {
		s.rep.Status("warning: clearing field: %v", err)
	}
	if err := field.Input(value); err != nil {
		return err
	}
	time.Sleep(fieldDelay)
	return nil
}

func (s *session) pressSequence(keys ...input.Key) error {
	for _, key := range keys {
		if err := s.page.Keyboard.Press(key); err != nil {
			return err
		}
		time.Sleep(keyDelay)
	}
	return nil
}

// anyVisibleX reports whether any element matching the xpath is currently
// visible.
func (s *session) anyVisibleX(xpath string) bool {
	elements, err := s.page.ElementsX(xpath)
	if err != nil {
		return false
	}
	for _, el := range elements {
		if visible, err := el.Visible(); err == nil && visible {
			return true
		}
	}
	return false
}

// clickFirstVisibleX clicks the first visible element matching the xpath.
func (s *session) clickFirstVisibleX(xpath string) error {
	elements, err := s.page.ElementsX(xpath)
	if err != nil {
		return err
	}
	for _, el := range elements {
		visible, err := el.Visible()
		if err != nil || !visible {
			continue
		}
		return el.Click(proto.InputMouseButtonLeft, 1)
	}
	return fmt.Errorf("no visible element for %s", xpath)
}
