package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/scrapekit/api"
	"github.com/use-agent/scrapekit/api/handler"
	"github.com/use-agent/scrapekit/browser"
	"github.com/use-agent/scrapekit/config"
	"github.com/use-agent/scrapekit/engine"
	"github.com/use-agent/scrapekit/fetcher"
	"github.com/use-agent/scrapekit/history"
	"github.com/use-agent/scrapekit/models"
)

var version = "dev"

func main() {
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:     "scrapekit",
		Short:   "Web content acquisition service",
		Version: version,
		Long: `scrapekit fetches a page with one of three strategies (plain HTTP,
parsed HTTP, or browser automation) and returns raw markup, prettified
markup, or a cleaned readable outline.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			initLogger(cfg.Log, os.Stderr)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newServeCmd(&cfg), newScrapeCmd(&cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd(cfg **config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*cfg)
		},
	}
}

func newScrapeCmd(cfg **config.Config) *cobra.Command {
	var (
		strategy string
		clean    bool
		target   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "scrape URL",
		Short: "Scrape one URL and print the result",
		Example: `  scrapekit scrape www.example.com
  scrapekit scrape https://example.com --strategy parsed --clean
  scrapekit scrape https://en.wikipedia.org --strategy browser --target "Go (programming language)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.ScrapeRequest{
				URL:         args[0],
				Strategy:    strategy,
				Clean:       clean,
				TargetLabel: target,
			}
			return scrapeOnce(cmd.Context(), *cfg, req, asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&strategy, "strategy", "s", "plain", "Strategy: plain, parsed or browser")
	cmd.Flags().BoolVarP(&clean, "clean", "c", false, "Return the cleaned outline instead of prettified markup")
	cmd.Flags().StringVarP(&target, "target", "t", "", "Search term for the browser strategy")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response envelope as JSON")
	return cmd
}

// newDispatcher wires the fetcher and the browser driver.
func newDispatcher(cfg *config.Config) (*engine.Dispatcher, *fetcher.Fetcher, *browser.Driver, error) {
	f := fetcher.New(cfg.Fetcher)
	driver, err := browser.NewDriver(browser.NewRodLauncher(cfg.Browser), cfg.Browser)
	if err != nil {
		return nil, nil, nil, err
	}
	return engine.NewDispatcher(f, driver), f, driver, nil
}

func scrapeOnce(ctx context.Context, cfg *config.Config, req models.ScrapeRequest, asJSON bool, out io.Writer) error {
	d, f, _, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	result, err := d.Dispatch(ctx, req)
	timing := models.TimingInfo{TotalMs: time.Since(start).Milliseconds()}
	timing.DispatchMs = timing.TotalMs

	if asJSON {
		resp := models.ScrapeResponse{Timing: timing}
		if err != nil {
			resp.Error = models.AsScrapeError(err).ToDetail()
		} else {
			resp.Success = true
			resp.URL = result.URL
			resp.Strategy = result.Strategy.String()
			resp.Content = result.Content
			resp.Metadata = result.Metadata
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resp); encErr != nil {
			return encErr
		}
		return err
	}

	if err != nil {
		se := models.AsScrapeError(err)
		return fmt.Errorf("[%s] %s", se.Code, se.Message)
	}
	_, err = io.WriteString(out, result.Content)
	return err
}

func serve(cfg *config.Config) error {
	slog.Info("scrapekit starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"fetchTimeout", cfg.Fetcher.Timeout,
	)

	d, f, driver, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	defer f.Close()

	store := history.NewMemory(cfg.History.MaxPerUser)
	var recorder history.Recorder = store
	if cfg.History.WebhookURL != "" {
		recorder = history.Tee(store, history.NewWebhook(cfg.History.WebhookURL, cfg.History.WebhookSecret))
		slog.Info("history webhook enabled", "url", cfg.History.WebhookURL)
	}

	handler.Version = version
	router := api.NewRouter(cfg, api.Deps{
		Dispatcher: d,
		Store:      store,
		Recorder:   recorder,
		Sessions:   driver,
		StartTime:  time.Now(),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		slog.Error("HTTP server error", "error", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), drainWindow(driver))
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("scrapekit stopped", "browser_sessions", driver.ActiveSessions())
	return nil
}

// drainWindow is how long shutdown waits for in-flight requests: a
// worst-case browser run plus margin for the response write.
func drainWindow(d *browser.Driver) time.Duration {
	return d.MaxRunDuration() + shutdownMargin
}

const shutdownMargin = 10 * time.Second

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig, w io.Writer) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	slog.SetDefault(slog.New(h))
}
