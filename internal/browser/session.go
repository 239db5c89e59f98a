// Package browser drives a headless browser session against the vendor's
// back-office portal: login, dashboard navigation, and readiness detection.
// Every wait is bounded; an unreachable or slow portal degrades to a reported
// error, never a hung process.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	pw "github.com/playwright-community/playwright-go"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var (
	ErrLoginFormNotFound = eris.New("browser: login form not found")
	ErrAuthFailed        = eris.New("browser: authentication rejected")
	ErrDashboardTimeout  = eris.New("browser: dashboard never became ready")
)

// Credentials for the vendor portal.
type Credentials struct {
	Username string
	Password string
}

// Options controls session behavior. Timeouts are mandatory; zero values get
// the vendor-appropriate defaults.
type Options struct {
	BaseURL          string
	Headless         bool
	LoginTimeout     time.Duration
	DashboardTimeout time.Duration
	// SectionMarker is text expected on a fully rendered dashboard.
	SectionMarker string
}

const (
	defaultLoginTimeout     = 15 * time.Second
	defaultDashboardTimeout = 60 * time.Second

	loginPath     = "/login.do"
	dashboardPath = "/insightdashboard/dashboard.jsp#/"

	usernameSelector = `input[type="text"], input[name="username"]`
	passwordSelector = `input[type="password"], input[name="password"]`
	submitSelector   = `input[type="submit"], button[type="submit"], .btn-primary`

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Session is one authenticated browser session. Never shared across
// concurrent runs; Close is safe to call multiple times and on partially
// opened sessions.
type Session struct {
	pw      *pw.Playwright
	browser pw.Browser
	page    pw.Page
	opts    Options
	closed  bool
}

// Open launches a browser, logs in, and navigates to the sales dashboard.
// On any failure the partially opened session is closed before returning.
func Open(ctx context.Context, opts Options, creds Credentials) (*Session, error) {
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = defaultLoginTimeout
	}
	if opts.DashboardTimeout <= 0 {
		opts.DashboardTimeout = defaultDashboardTimeout
	}

	s := &Session{opts: opts}
	if err := s.launch(); err != nil {
		s.Close()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, eris.Wrap(err, "browser: open canceled")
	}
	if err := s.login(creds); err != nil {
		s.Close()
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		s.Close()
		return nil, eris.Wrap(err, "browser: open canceled")
	}
	if err := s.openDashboard(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) launch() error {
	runtime, err := pw.Run()
	if err != nil {
		return eris.Wrap(err, "browser: start playwright")
	}
	s.pw = runtime

	browser, err := runtime.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(s.opts.Headless),
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
		},
	})
	if err != nil {
		return eris.Wrap(err, "browser: launch chromium")
	}
	s.browser = browser

	page, err := browser.NewPage(pw.BrowserNewPageOptions{
		Viewport:  &pw.Size{Width: 1920, Height: 1080},
		UserAgent: pw.String(userAgent),
	})
	if err != nil {
		return eris.Wrap(err, "browser: create page")
	}
	page.SetDefaultTimeout(float64(s.opts.DashboardTimeout.Milliseconds()))
	s.page = page
	return nil
}

func (s *Session) login(creds Credentials) error {
	loginURL := strings.TrimRight(s.opts.BaseURL, "/") + loginPath
	zap.L().Info("browser: logging in", zap.String("url", loginURL))

	if _, err := s.page.Goto(loginURL, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateNetworkidle,
	}); err != nil {
		return eris.Wrap(err, "browser: navigate to login page")
	}

	username := s.page.Locator(usernameSelector).First()
	if err := username.WaitFor(pw.LocatorWaitForOptions{
		Timeout: pw.Float(float64(s.opts.LoginTimeout.Milliseconds())),
	}); err != nil {
		snap := s.snapshot("login form wait timed out")
		return eris.Wrapf(ErrLoginFormNotFound, "%v; %s", err, snap)
	}

	if err := s.fillCredentials(creds); err != nil {
		return err
	}
	if err := s.submitLogin(); err != nil {
		return err
	}

	// The portal renders auth failures on the same page instead of erroring.
	if text, err := s.BodyText(context.Background()); err == nil {
		lower := strings.ToLower(text)
		for _, phrase := range []string{"invalid username", "invalid password", "login failed", "incorrect password"} {
			if strings.Contains(lower, phrase) {
				snap := s.snapshot("auth failure phrase on page")
				return eris.Wrapf(ErrAuthFailed, "portal said %q; %s", phrase, snap)
			}
		}
	}

	s.dismissPostLoginModal()
	zap.L().Info("browser: login complete")
	return nil
}

// fillCredentials sets the fields directly in page context and fires
// synthetic input/change events so the portal's framework sees the values,
// then runs Fill as well for good measure.
func (s *Session) fillCredentials(creds Credentials) error {
	script := fmt.Sprintf(`() => {
		const set = (sel, value) => {
			const el = document.querySelector(sel);
			if (!el) return false;
			el.value = value;
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		};
		return set(%q, %q) && set(%q, %q);
	}`, usernameSelector, creds.Username, passwordSelector, creds.Password)

	if _, err := s.page.Evaluate(script); err != nil {
		zap.L().Debug("browser: scripted credential fill failed, using locator fill", zap.Error(err))
	}
	if err := s.page.Locator(usernameSelector).First().Fill(creds.Username); err != nil {
		return eris.Wrap(err, "browser: fill username")
	}
	if err := s.page.Locator(passwordSelector).First().Fill(creds.Password); err != nil {
		return eris.Wrap(err, "browser: fill password")
	}
	return nil
}

// submitLogin tries the submit button, then the Enter key, then a
// programmatic form submit. The portal has shipped all three variants.
func (s *Session) submitLogin() error {
	if err := s.page.Locator(submitSelector).First().Click(pw.LocatorClickOptions{
		Timeout: pw.Float(5000),
	}); err == nil {
		return s.waitForSettle()
	} else {
		zap.L().Debug("browser: submit button click failed, pressing Enter", zap.Error(err))
	}

	if err := s.page.Keyboard().Press("Enter"); err == nil {
		return s.waitForSettle()
	} else {
		zap.L().Debug("browser: Enter key failed, submitting form directly", zap.Error(err))
	}

	if _, err := s.page.Evaluate(`() => {
		const form = document.querySelector('form');
		if (form) form.submit();
	}`); err != nil {
		return eris.Wrap(err, "browser: submit login form")
	}
	return s.waitForSettle()
}

func (s *Session) waitForSettle() error {
	if err := s.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateNetworkidle,
		Timeout: pw.Float(30000),
	}); err != nil {
		return eris.Wrap(err, "browser: wait for post-login load")
	}
	return nil
}

// dismissPostLoginModal clicks through the "remember this device" style
// prompt when it appears. Best effort.
func (s *Session) dismissPostLoginModal() {
	no := s.page.Locator(`button:has-text("No"), input[value="No"]`).First()
	if visible, err := no.IsVisible(); err == nil && visible {
		if err := no.Click(pw.LocatorClickOptions{Timeout: pw.Float(3000)}); err != nil {
			zap.L().Debug("browser: modal dismiss click failed", zap.Error(err))
		}
	}
}

func (s *Session) openDashboard() error {
	dashURL := strings.TrimRight(s.opts.BaseURL, "/") + dashboardPath
	zap.L().Info("browser: opening dashboard", zap.String("url", dashURL))

	if _, err := s.page.Goto(dashURL, pw.PageGotoOptions{
		WaitUntil: pw.WaitUntilStateNetworkidle,
		Timeout:   pw.Float(float64(s.opts.DashboardTimeout.Milliseconds())),
	}); err != nil {
		return eris.Wrap(err, "browser: navigate to dashboard")
	}

	// Half the budget for the normal wait, the rest after escalation.
	half := s.opts.DashboardTimeout / 2
	if s.awaitReadiness(half) {
		return nil
	}

	// One-time escalation: reload with Angular debug info. Some portal
	// builds only expose scope data after this reload.
	zap.L().Warn("browser: dashboard not ready, reloading with debug info")
	if _, err := s.page.Evaluate(`() => {
		if (window.angular && window.angular.reloadWithDebugInfo) {
			window.angular.reloadWithDebugInfo();
			return true;
		}
		return false;
	}`); err != nil {
		zap.L().Debug("browser: debug reload evaluate failed", zap.Error(err))
	}
	if s.awaitReadiness(half) {
		return nil
	}

	snap := s.snapshot("dashboard readiness timed out")
	return eris.Wrap(ErrDashboardTimeout, snap)
}

// awaitReadiness polls until the Angular runtime is up and, when configured,
// the section marker is visible in the page text.
func (s *Session) awaitReadiness(budget time.Duration) bool {
	deadline := time.Now().Add(budget)
	for time.Now().Before(deadline) {
		ready, err := s.page.Evaluate(`() => !!(window.angular && document.body && document.body.innerText.length > 0)`)
		if err == nil {
			if b, ok := ready.(bool); ok && b {
				if s.opts.SectionMarker == "" {
					return true
				}
				if text, err := s.BodyText(context.Background()); err == nil &&
					strings.Contains(strings.ToLower(text), strings.ToLower(s.opts.SectionMarker)) {
					return true
				}
			}
		}
		time.Sleep(2 * time.Second)
	}
	return false
}

const snapshotPreviewLen = 500

// snapshot logs a diagnostic view of the current page and returns it as a
// one-liner for error messages, so the state that caused the failure travels
// with the error instead of living only in the log stream.
func (s *Session) snapshot(reason string) string {
	title, _ := s.page.Title()
	preview := ""
	if text, err := s.BodyText(context.Background()); err == nil {
		preview = text
	}
	snap := formatSnapshot(s.page.URL(), title, preview)
	zap.L().Warn("browser: page snapshot",
		zap.String("reason", reason),
		zap.String("snapshot", snap),
	)
	return snap
}

// formatSnapshot renders url, title, and a bounded body-text preview.
func formatSnapshot(url, title, preview string) string {
	preview = strings.Join(strings.Fields(preview), " ")
	if len(preview) > snapshotPreviewLen {
		preview = preview[:snapshotPreviewLen]
	}
	return fmt.Sprintf("url=%s title=%q text=%q", url, title, preview)
}

// --- extract.Page ---

func (s *Session) URL() string {
	if s.page == nil {
		return ""
	}
	return s.page.URL()
}

func (s *Session) Title() (string, error) {
	if s.page == nil {
		return "", eris.New("browser: no page")
	}
	return s.page.Title()
}

func (s *Session) BodyText(ctx context.Context) (string, error) {
	if s.page == nil {
		return "", eris.New("browser: no page")
	}
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "browser: body text")
	}
	text, err := s.page.Locator("body").InnerText()
	if err != nil {
		return "", eris.Wrap(err, "browser: read body text")
	}
	return text, nil
}

func (s *Session) Evaluate(ctx context.Context, expression string) (any, error) {
	if s.page == nil {
		return nil, eris.New("browser: no page")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "browser: evaluate")
	}
	return s.page.Evaluate(expression)
}

// Close releases the page, browser, and driver. Idempotent; runs on every
// exit path of a pipeline run.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			zap.L().Debug("browser: page close failed", zap.Error(err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			zap.L().Debug("browser: browser close failed", zap.Error(err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			zap.L().Debug("browser: playwright stop failed", zap.Error(err))
		}
	}
}
