package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/scrapekit/cleaner"
	"github.com/use-agent/scrapekit/models"
)

// ErrUnsupportedURL is the transport cause for targets that are not
// absolute http(s) URLs.
var ErrUnsupportedURL = errors.New("unsupported url")

// Dispatcher is the public entry point of the extraction pipeline. It holds
// no per-request state and is safe for concurrent use.
type Dispatcher struct {
	fetcher   Fetcher
	automator Automator
}

// NewDispatcher creates a Dispatcher. automator may be nil, in which case
// the browser strategy fails with AUTOMATION_ERROR.
func NewDispatcher(f Fetcher, a Automator) *Dispatcher {
	return &Dispatcher{fetcher: f, automator: a}
}

// Dispatch validates req, routes it to its backend and returns the result.
// Exactly one of the return values is non-nil, and a non-nil error is always
// a *models.ScrapeError. Validation completes before any network or browser
// activity starts.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.ScrapeRequest) (*models.ScrapeResult, error) {
	job, err := Validate(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := d.run(ctx, job)
	if err != nil {
		se := models.AsScrapeError(err)
		slog.Warn("dispatch failed",
			"url", job.URL,
			"strategy", job.Strategy.String(),
			"code", se.Code,
			"error", se,
			"duration", time.Since(start),
		)
		return nil, se
	}

	slog.Info("dispatch completed",
		"url", job.URL,
		"strategy", job.Strategy.String(),
		"bytes", len(result.Content),
		"duration", time.Since(start),
	)
	return result, nil
}

func (d *Dispatcher) run(ctx context.Context, job models.Job) (*models.ScrapeResult, error) {
	if err := checkReachable(job.URL); err != nil {
		return nil, err
	}

	switch job.Strategy {
	case models.PlainFetch:
		body, err := d.fetcher.Fetch(ctx, job.URL)
		if err != nil {
			return nil, err
		}
		return &models.ScrapeResult{
			Content:  body,
			Strategy: job.Strategy,
			URL:      job.URL,
			Metadata: cleaner.Metadata(body, job.URL),
		}, nil

	case models.ParsedFetch:
		body, err := d.fetcher.Fetch(ctx, job.URL)
		if err != nil {
			return nil, err
		}
		var content string
		if job.Clean {
			content = cleaner.Clean(body)
		} else {
			content = cleaner.Normalize(body)
		}
		return &models.ScrapeResult{
			Content:  content,
			Strategy: job.Strategy,
			URL:      job.URL,
			Metadata: cleaner.Metadata(body, job.URL),
		}, nil

	case models.BrowserAutomated:
		if d.automator == nil {
			return nil, models.AutomationFailure("launch", "browser automation is not configured", nil)
		}
		content, err := d.automator.Run(ctx, job.URL, job.TargetLabel, job.Clean)
		if err != nil {
			return nil, err
		}
		return &models.ScrapeResult{
			Content:  content,
			Strategy: job.Strategy,
			URL:      job.URL,
			Metadata: models.Metadata{Title: firstLine(content)},
		}, nil

	default:
		// Validate only lets dispatchable strategies through.
		panic(fmt.Sprintf("engine: unhandled strategy %d", job.Strategy))
	}
}

// Validate checks req and converts it to a Job. Checks run in order: url,
// strategy, then the target label for the browser strategy.
func Validate(req models.ScrapeRequest) (models.Job, error) {
	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return models.Job{}, models.BadRequest("url is required")
	}
	target := NormalizeURL(raw)

	name := req.StrategyName()
	if strings.TrimSpace(name) == "" {
		return models.Job{}, models.BadRequest("strategy is required")
	}
	strategy, err := models.ParseStrategy(name)
	if err != nil {
		return models.Job{}, models.BadRequest("unknown strategy")
	}

	label := strings.TrimSpace(req.TargetLabel)
	if strategy == models.BrowserAutomated && label == "" {
		return models.Job{}, models.BadRequest("target label required")
	}

	return models.Job{
		URL:         target,
		Strategy:    strategy,
		Clean:       req.Clean,
		TargetLabel: label,
	}, nil
}

// NormalizeURL rewrites a bare "www."-prefixed host to an https URL of the
// host without the "www." label. Other input is returned unchanged.
func NormalizeURL(raw string) string {
	if len(raw) >= 4 && strings.EqualFold(raw[:4], "www.") {
		return "https://" + raw[4:]
	}
	return raw
}

// checkReachable fails targets no backend can retrieve, such as a
// scheme-less "example.com" or a non-http scheme, as TRANSPORT_ERROR.
func checkReachable(target string) error {
	u, err := url.Parse(target)
	if err != nil {
		return models.TransportFailure(fmt.Sprintf("unusable url %q", target), err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return models.TransportFailure(fmt.Sprintf("unsupported url %q: want an absolute http(s) URL", target), ErrUnsupportedURL)
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return strings.TrimSpace(line)
}
