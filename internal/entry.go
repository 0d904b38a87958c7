// Package internal provides the application wiring and the entry points of
// each command.
package internal

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
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/mdnotion/internal/api"
	"github.com/starford/mdnotion/internal/document"
	"github.com/starford/mdnotion/internal/ledger"
	"github.com/starford/mdnotion/internal/mcpserver"
	"github.com/starford/mdnotion/internal/notion"
	"github.com/starford/mdnotion/internal/properties"
	"github.com/starford/mdnotion/internal/sse"
	"github.com/starford/mdnotion/internal/storage"
	"github.com/starford/mdnotion/internal/syncservice"
	"github.com/starford/mdnotion/internal/watch"
)

// Version is reported by the MCP server.
var Version = "dev"

const shutdownTimeout = 10 * time.Second

// runtime is the wired application of one command.
type runtime struct {
	cfg    *Config
	root   string
	logger *slog.Logger
	out    io.Writer
	svc    *syncservice.Service
	ledger *ledger.DB
}

func (rt *runtime) Close() {
	if rt.ledger != nil {
		if err := rt.ledger.Close(); err != nil {
			rt.logger.Warn("close ledger", slog.String("error", err.Error()))
		}
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{out: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger installs the structured JSON logger. Logs go to stderr so that
// command output and the MCP protocol own stdout.
func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// setup validates the configuration and wires storage, the remote store, the
// ledger and the sync service.
func setup(opts []Option) (*runtime, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger := newLogger(cfg)

	fs, err := storage.NewFS(cfg.Markdown.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	loader := document.NewLoader(fs, document.WithPathPrefix(cfg.Markdown.PathPrefix()))

	logger.Info("Configuration loaded",
		slog.String("markdown_root", fs.Root()),
		slog.String("sync_root", cfg.Notion.SyncRootContainer),
		slog.String("base_url", cfg.Notion.BaseURL),
		slog.String("ledger_path", cfg.Ledger.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store := app.store
	if store == nil {
		store, err = notion.New(cfg.Notion.AuthToken, notion.Options{
			APIVersion: cfg.Notion.APIVersion,
			Endpoint:   cfg.Notion.Endpoint,
			MaxRetries: cfg.Notion.MaxRetries,
			Timeout:    cfg.Notion.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init notion client: %w", err)
		}
	}

	rt := &runtime{cfg: cfg, root: fs.Root(), logger: logger, out: app.out}
	svcOpts := []syncservice.Option{syncservice.WithLogger(logger)}
	if cfg.Ledger.Enabled() {
		db, err := ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("init ledger: %w", err)
		}
		rt.ledger = db
		svcOpts = append(svcOpts,
			syncservice.WithLedger(db),
			syncservice.WithBodyChangeDetection(cfg.Ledger.DetectBodyChanges),
		)
	}

	rt.svc = syncservice.NewService(loader, store,
		properties.NewMapper(cfg.Notion.BaseURL), cfg.Notion.SyncRootContainer, svcOpts...)
	return rt, nil
}

// Sync runs one reconciliation and prints its result.
func Sync(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.svc.Sync(ctx, syncservice.TriggerManual)
	if res != nil {
		if perr := printJSON(rt.out, res); perr != nil {
			return perr
		}
	}
	return err
}

// Plan prints what a sync would change without applying it.
func Plan(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	plan, err := rt.svc.Plan(ctx)
	if err != nil {
		return err
	}
	return printJSON(rt.out, plan.Summary())
}

// Watch runs an initial sync, re-syncs on markdown changes and on the
// configured schedule, and serves the status API until interrupted.
func Watch(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.cfg
	logger := rt.logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker := sse.NewBroker(15 * time.Second)
	defer broker.Close()
	rt.svc.Subscribe(broker.PublishRun)

	router := api.NewRouter(rt.svc, api.RouterConfig{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      broker,
	})
	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	w := watch.New(rt.root, func(ctx context.Context, trigger string) error {
		_, err := rt.svc.Sync(ctx, trigger)
		return err
	},
		watch.WithDebounce(cfg.Watch.Debounce),
		watch.WithSchedule(cfg.Watch.Schedule),
		watch.WithInitialRun(),
		watch.WithLogger(logger),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(gCtx)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		// Event streams never end on their own; closing the broker releases them.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped successfully")
	return nil
}

// ServeMCP serves the MCP tools over stdin and stdout.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	rt.logger.Info("Starting MCP server", slog.String("version", Version))
	return mcpserver.New(rt.svc, Version).Serve(ctx, os.Stdin, os.Stdout)
}

// History prints the most recent recorded runs. It only needs the ledger.
func History(ctx context.Context, limit int, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	if !cfg.Ledger.Enabled() {
		return fmt.Errorf("history: ledger path is not configured")
	}
	newLogger(cfg)

	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("init ledger: %w", err)
	}
	defer db.Close()

	runs, err := db.Runs(ctx, limit)
	if err != nil {
		return err
	}
	return printRuns(app.out, runs)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRuns(w io.Writer, runs []ledger.RunRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tID\tTRIGGER\tSTATUS\tARCHIVED\tCREATED\tUPDATED\tREPLACED\tDURATION\tERROR")
	for _, r := range runs {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.ID, r.Trigger, r.Status,
			r.Counts.Archived, r.Counts.Created, r.Counts.Updated, r.Counts.ContentReplaced,
			duration, r.Error)
	}
	return tw.Flush()
}
