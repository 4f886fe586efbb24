package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andybalholm/cascadia"

	"github.com/use-agent/scrapekit/cleaner"
	"github.com/use-agent/scrapekit/config"
	"github.com/use-agent/scrapekit/models"
)

// Step names, as reported in AUTOMATION_ERROR details.
const (
	StepLaunch         = "launch"
	StepNavigate       = "navigate"
	StepDismissConsent = "dismiss_consent"
	StepSetLanguage    = "set_language"
	StepSearchTarget   = "search_target"
	StepSelectResult   = "select_result"
	StepExtract        = "extract"
)

// Step is one stage of the interaction sequence. A failing optional step is
// logged and skipped; a failing required step aborts the sequence.
type Step struct {
	Name     string
	Required bool

	// Settle waits the configured settle delay after the step succeeds.
	Settle bool

	// Timeout bounds Run. Zero means the element wait.
	Timeout time.Duration

	Run func(ctx context.Context, s Session) error
}

// Driver runs the browser-automated strategy. Every Run owns one browser
// process from Launch to Teardown; processes are never shared.
type Driver struct {
	launcher Launcher
	cfg      config.BrowserConfig
	active   atomic.Int32
}

// NewDriver validates the configured selectors and returns a Driver.
func NewDriver(l Launcher, cfg config.BrowserConfig) (*Driver, error) {
	for name, sel := range map[string]string{
		"consent_selector": cfg.ConsentSelector,
		"search_selector":  cfg.SearchSelector,
	} {
		if _, err := cascadia.Parse(sel); err != nil {
			return nil, fmt.Errorf("browser: invalid %s %q: %w", name, sel, err)
		}
	}
	if cfg.ElementWait <= 0 {
		cfg.ElementWait = 5 * time.Second
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 30 * time.Second
	}
	return &Driver{launcher: l, cfg: cfg}, nil
}

// ActiveSessions reports the number of live browser processes.
func (d *Driver) ActiveSessions() int {
	return int(d.active.Load())
}

// MaxRunDuration is the longest a Run can take when every step uses its
// full budget: navigation, four element waits, three settle delays and the
// extract wait.
func (d *Driver) MaxRunDuration() time.Duration {
	return d.cfg.NavigationTimeout + 5*d.cfg.ElementWait + 3*d.cfg.SettleDelay
}

// Run launches a browser, performs the interaction sequence for label on
// targetURL and returns the page title followed by the prettified markup,
// or the cleaned outline when clean is set.
//
// The sequence is not cancelled with ctx: a caller that gives up still
// pays for the remaining steps and the teardown. Failures are returned as
// AUTOMATION_ERROR naming the step.
func (d *Driver) Run(ctx context.Context, targetURL, label string, clean bool) (content string, err error) {
	ctx = context.WithoutCancel(ctx)
	current := StepLaunch

	session, err := d.launcher.Launch(ctx)
	if err != nil {
		return "", models.AutomationFailure(StepLaunch, "failed to launch browser", err)
	}
	d.active.Add(1)
	defer func() {
		if cerr := session.Close(); cerr != nil {
			slog.Warn("browser teardown reported an error", "error", cerr)
		}
		d.active.Add(-1)
		slog.Debug("browser torn down", "url", targetURL)
	}()
	defer func() {
		if r := recover(); r != nil {
			content = ""
			err = models.AutomationFailure(current, "browser fault", fmt.Errorf("panic: %v", r))
		}
	}()

	for _, st := range d.Steps(targetURL, label) {
		current = st.Name
		timeout := st.Timeout
		if timeout <= 0 {
			timeout = d.cfg.ElementWait
		}

		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		start := time.Now()
		runErr := st.Run(stepCtx, session)
		cancel()

		if runErr != nil {
			if st.Required {
				return "", models.AutomationFailure(st.Name, "step failed", runErr)
			}
			slog.Info("optional browser step skipped", "step", st.Name, "error", runErr)
			continue
		}
		slog.Debug("browser step done", "step", st.Name, "duration", time.Since(start))

		if st.Settle {
			d.settle()
		}
	}

	current = StepExtract
	return d.extract(ctx, session, clean)
}

// Steps returns the interaction sequence for label on targetURL.
func (d *Driver) Steps(targetURL, label string) []Step {
	return []Step{
		{
			Name:     StepNavigate,
			Required: true,
			Settle:   true,
			Timeout:  d.cfg.NavigationTimeout,
			Run: func(ctx context.Context, s Session) error {
				return s.Navigate(ctx, targetURL)
			},
		},
		{
			Name: StepDismissConsent,
			Run: func(ctx context.Context, s Session) error {
				return s.Click(ctx, d.cfg.ConsentSelector)
			},
		},
		{
			Name:     StepSetLanguage,
			Required: true,
			Run: func(ctx context.Context, s Session) error {
				return s.SetLanguage(ctx, d.cfg.Language)
			},
		},
		{
			Name:     StepSearchTarget,
			Required: true,
			Settle:   true,
			Run: func(ctx context.Context, s Session) error {
				return s.Submit(ctx, d.cfg.SearchSelector, label)
			},
		},
		{
			Name:     StepSelectResult,
			Required: true,
			Settle:   true,
			Run: func(ctx context.Context, s Session) error {
				return s.Click(ctx, ResultSelector(d.cfg.ResultPathPrefix, label))
			},
		},
	}
}

func (d *Driver) extract(ctx context.Context, s Session, clean bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ElementWait)
	defer cancel()

	title, err := s.Title(ctx)
	if err != nil {
		return "", models.AutomationFailure(StepExtract, "read title", err)
	}
	markup, err := s.HTML(ctx)
	if err != nil {
		return "", models.AutomationFailure(StepExtract, "read rendered markup", err)
	}

	var body string
	if clean {
		body = cleaner.Clean(markup)
	} else {
		body = cleaner.Normalize(markup)
	}
	return title + "\n" + body, nil
}

func (d *Driver) settle() {
	if d.cfg.SettleDelay > 0 {
		time.Sleep(d.cfg.SettleDelay)
	}
}

// ResultPath derives the sub-page path for label: spaces become
// underscores under prefix.
func ResultPath(prefix, label string) string {
	return prefix + strings.ReplaceAll(strings.TrimSpace(label), " ", "_")
}

// ResultSelector matches links whose href ends with the derived path, in
// either its literal or path-escaped form.
func ResultSelector(prefix, label string) string {
	raw := ResultPath(prefix, label)
	escaped := prefix + url.PathEscape(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))

	sel := fmt.Sprintf(`a[href$=%s]`, cssString(raw))
	if escaped != raw {
		sel += fmt.Sprintf(`, a[href$=%s]`, cssString(escaped))
	}
	return sel
}

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\a `)
	return `"` + r.Replace(s) + `"`
}
