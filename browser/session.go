// Package browser drives an external automation-capable browser through a
// fixed sequence of interaction steps and extracts the rendered page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/scrapekit/config"
)

// Launcher starts one browser process per call.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is a single-use handle on one live browser process. Element
// lookups wait until the element appears or ctx is done.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error

	// Submit clears the input matched by selector, types text and presses Enter.
	Submit(ctx context.Context, selector, text string) error

	// SetLanguage sets the lang attribute of the document element.
	SetLanguage(ctx context.Context, lang string) error

	Title(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)

	// Close terminates the browser process. Calls after the first are no-ops.
	Close() error
}

// RodLauncher launches a local Chromium via rod.
type RodLauncher struct {
	cfg config.BrowserConfig
}

// NewRodLauncher creates a launcher bound to cfg.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg}
}

// Launch starts a browser process and opens a blank page with stealth,
// locale and resource blocking installed. On error nothing is left running.
func (r *RodLauncher) Launch(ctx context.Context) (Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.Bin != "" {
		l = l.Bin(r.cfg.Bin)
	}
	if r.cfg.Proxy != "" {
		l = l.Proxy(r.cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "TranslateUI")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		l.Kill()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to browser: %w", err)
	}

	s := &rodSession{launcher: l, browser: b}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page

	if r.cfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}
	if r.cfg.Locale != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": r.cfg.Locale}),
		}.Call(page)
	}
	s.router = setupHijack(page, r.cfg.BlockedResourceTypes)

	slog.Debug("browser launched", "controlURL", controlURL)
	return s, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter

	closeOnce sync.Once
	closeErr  error
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	return s.page.Context(ctx).Navigate(url)
}

func (s *rodSession) Click(ctx context.Context, selector string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodSession) Submit(ctx context.Context, selector, text string) error {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %q: %w", selector, err)
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("type into %q: %w", selector, err)
	}
	return el.Type(input.Enter)
}

func (s *rodSession) SetLanguage(ctx context.Context, lang string) error {
	_, err := s.page.Context(ctx).Eval(`(lang) => { document.documentElement.lang = lang }`, lang)
	return err
}

func (s *rodSession) Title(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.title`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

// Close stops the hijack router, closes the CDP connection and kills the
// process.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.router != nil {
			if err := s.router.Stop(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.launcher.Kill()
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
