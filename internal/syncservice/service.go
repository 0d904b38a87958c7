// Package syncservice runs reconciliations of the markdown tree against the
// remote store and keeps their history.
package syncservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/blocks"
	"github.com/starford/mdnotion/internal/document"
	"github.com/starford/mdnotion/internal/ledger"
	"github.com/starford/mdnotion/internal/metrics"
	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/properties"
	"github.com/starford/mdnotion/internal/reconcile"
)

// Run event types.
const (
	EventRunStarted   = "run.started"
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// Triggers name what started a run.
const (
	TriggerManual   = "manual"
	TriggerStartup  = "startup"
	TriggerWatch    = "watch"
	TriggerSchedule = "schedule"
	TriggerAPI      = "api"
	TriggerMCP      = "mcp"
)

const runName = "sync"

// Event describes a run state change.
type Event struct {
	Type    string            `json:"type"`
	RunID   string            `json:"run_id"`
	Trigger string            `json:"trigger"`
	Report  *reconcile.Report `json:"report,omitempty"`
	Error   string            `json:"error,omitempty"`
	At      time.Time         `json:"at"`
}

// RunResult is the outcome of one Sync call.
type RunResult struct {
	ID         string            `json:"id"`
	Trigger    string            `json:"trigger"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Plan       reconcile.Summary `json:"plan"`
	Report     reconcile.Report  `json:"report"`
}

// DocumentInfo is a loaded document with the properties it maps to.
type DocumentInfo struct {
	Path        string             `json:"path"`
	Title       string             `json:"title"`
	URL         string             `json:"url"`
	FrontMatter map[string]string  `json:"front_matter"`
	Properties  models.PropertyMap `json:"properties"`
	Blocks      int                `json:"blocks"`
}

// Service coordinates loading, indexing, planning and execution.
type Service struct {
	loader     *document.Loader
	store      reconcile.PageStore
	mapper     *properties.Mapper
	syncRoot   string
	ledger     ledger.Ledger
	detectBody bool
	logger     *slog.Logger
	now        func() time.Time

	guard runGuard

	mu     sync.RWMutex
	sinks  []func(Event)
	latest *RunResult
}

// Option configures a Service.
type Option func(*Service)

// WithLedger records runs and page checksums in l.
func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

// WithBodyChangeDetection replaces a page's content when its recorded
// checksum differs, even if its properties did not change. Requires a ledger.
func WithBodyChangeDetection(enabled bool) Option {
	return func(s *Service) { s.detectBody = enabled }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a sync service writing pages into syncRoot.
func NewService(loader *document.Loader, store reconcile.PageStore, mapper *properties.Mapper, syncRoot string, opts ...Option) *Service {
	s := &Service{
		loader:   loader,
		store:    store,
		mapper:   mapper,
		syncRoot: syncRoot,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Subscribe registers fn to receive run events. fn must not block.
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, fn)
}

// Running reports whether a run is in progress.
func (s *Service) Running() bool {
	return s.guard.Running(runName)
}

// Wait blocks until an in-progress run finishes or ctx is done.
func (s *Service) Wait(ctx context.Context) {
	s.guard.WaitAll(ctx)
}

// Latest returns the last completed run of this process, if any.
func (s *Service) Latest() *RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Plan computes the reconciliation plan without applying it.
func (s *Service) Plan(ctx context.Context) (reconcile.Plan, error) {
	plan, _, err := s.plan(ctx)
	return plan, err
}

func (s *Service) plan(ctx context.Context) (reconcile.Plan, int, error) {
	docs, err := s.loader.Load(ctx)
	if err != nil {
		return reconcile.Plan{}, 0, err
	}
	local, err := document.Index(docs)
	if err != nil {
		return reconcile.Plan{}, 0, err
	}
	idx, err := reconcile.BuildIndex(ctx, s.store, s.mapper)
	if err != nil {
		return reconcile.Plan{}, 0, err
	}
	return reconcile.PlanReconciliation(local, idx, s.syncRoot), len(docs), nil
}

// Sync performs one full reconciliation. It returns apperr.ErrRunInProgress
// when another run is active.
func (s *Service) Sync(ctx context.Context, trigger string) (*RunResult, error) {
	if !s.guard.TryLock(runName) {
		return nil, apperr.ErrRunInProgress
	}
	defer s.guard.Unlock(runName)

	res := &RunResult{ID: uuid.NewString(), Trigger: trigger, StartedAt: s.now()}
	logger := s.logger.With(slog.String("run_id", res.ID), slog.String("trigger", trigger))

	if s.ledger != nil {
		if err := s.ledger.BeginRun(ctx, res.ID, trigger, res.StartedAt); err != nil {
			return nil, fmt.Errorf("syncservice: %w", err)
		}
	}
	logger.Info("sync started")
	s.emit(Event{Type: EventRunStarted, RunID: res.ID, Trigger: trigger, At: res.StartedAt})

	runErr := s.run(ctx, res, logger)
	res.FinishedAt = s.now()

	status := ledger.StatusSucceeded
	if runErr != nil {
		status = ledger.StatusFailed
	}
	metrics.RecordRun(status, res.FinishedAt.Sub(res.StartedAt))
	metrics.RecordOperations(metrics.OpArchive, res.Report.Archived)
	metrics.RecordOperations(metrics.OpCreate, res.Report.Created)
	metrics.RecordOperations(metrics.OpUpdate, res.Report.Updated)
	metrics.RecordOperations(metrics.OpReplaceContent, res.Report.ContentReplaced)

	if s.ledger != nil {
		counts := ledger.Counts{
			Archived:        res.Report.Archived,
			Created:         res.Report.Created,
			Updated:         res.Report.Updated,
			ContentReplaced: res.Report.ContentReplaced,
		}
		// The run context may already be cancelled; the outcome is still recorded.
		if err := s.ledger.FinishRun(context.WithoutCancel(ctx), res.ID, res.FinishedAt, counts, runErr); err != nil {
			logger.Warn("failed to record run", slog.String("error", err.Error()))
		}
	}

	report := res.Report
	if runErr != nil {
		logger.Error("sync failed", slog.String("error", runErr.Error()))
		s.emit(Event{Type: EventRunFailed, RunID: res.ID, Trigger: trigger, Report: &report, Error: runErr.Error(), At: res.FinishedAt})
		return res, runErr
	}

	logger.Info("sync completed",
		slog.Int("archived", report.Archived),
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("content_replaced", report.ContentReplaced),
	)
	s.mu.Lock()
	s.latest = res
	s.mu.Unlock()
	s.emit(Event{Type: EventRunCompleted, RunID: res.ID, Trigger: trigger, Report: &report, At: res.FinishedAt})
	return res, nil
}

func (s *Service) run(ctx context.Context, res *RunResult, logger *slog.Logger) error {
	plan, ndocs, err := s.plan(ctx)
	if err != nil {
		return err
	}
	metrics.SetDocuments(ndocs)
	res.Plan = plan.Summary()
	logger.Info("plan computed",
		slog.Int("documents", ndocs),
		slog.Int("creates", len(plan.Creates)),
		slog.Int("updates", len(plan.Updates)),
		slog.Int("deletes", len(plan.Deletes)),
	)

	opts := []reconcile.ExecutorOption{reconcile.WithLogger(logger)}
	if s.ledger != nil {
		opts = append(opts, reconcile.WithLedger(s.ledger))
		if s.detectBody {
			opts = append(opts, reconcile.WithBodyChangeDetection())
		}
	}
	exec := reconcile.NewExecutor(s.store, s.mapper, s.syncRoot, opts...)
	report, err := exec.Execute(ctx, plan)
	res.Report = report
	return err
}

// Runs returns recorded runs, newest first. Without a ledger it is empty.
func (s *Service) Runs(ctx context.Context, limit int) ([]ledger.RunRow, error) {
	if s.ledger == nil {
		return []ledger.RunRow{}, nil
	}
	return s.ledger.Runs(ctx, limit)
}

// Documents loads the markdown tree and returns each document with the
// properties it would be written with.
func (s *Service) Documents(ctx context.Context) ([]DocumentInfo, error) {
	docs, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DocumentInfo, 0, len(docs))
	for _, d := range docs {
		props := s.mapper.Map(d.FrontMatter)
		title, _ := props.Title()
		out = append(out, DocumentInfo{
			Path:        d.Path,
			Title:       title,
			URL:         props[properties.URLLabel].URL,
			FrontMatter: d.FrontMatter,
			Properties:  props,
			Blocks:      blocks.Count(d.Blocks),
		})
	}
	return out, nil
}

func (s *Service) emit(e Event) {
	s.mu.RLock()
	sinks := append([]func(Event){}, s.sinks...)
	s.mu.RUnlock()
	for _, fn := range sinks {
		fn(e)
	}
}
