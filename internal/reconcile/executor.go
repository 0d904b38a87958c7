package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/checksum"
	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/properties"
)

// ContentLedger remembers the checksum of the content last written to each
// page, so body-only edits can be detected on update.
type ContentLedger interface {
	Checksum(ctx context.Context, key string) (sum string, ok bool, err error)
	RecordPage(ctx context.Context, key, pageID, sum string) error
	ForgetPage(ctx context.Context, pageID string) error
}

// Report counts what a run applied.
type Report struct {
	Archived        int      `json:"archived"`
	Created         int      `json:"created"`
	Updated         int      `json:"updated"`
	ContentReplaced int      `json:"content_replaced"`
	Replaced        []string `json:"replaced,omitempty"`
}

// Executor applies a plan to a PageStore.
type Executor struct {
	store      PageStore
	mapper     *properties.Mapper
	syncRoot   string
	ledger     ContentLedger
	detectBody bool
	logger     *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithLedger records the content checksum of every page written.
func WithLedger(l ContentLedger) ExecutorOption {
	return func(e *Executor) { e.ledger = l }
}

// WithBodyChangeDetection also replaces content when the ledger's checksum
// differs from the document's, even if the properties are unchanged.
// It has no effect without WithLedger.
func WithBodyChangeDetection() ExecutorOption {
	return func(e *Executor) { e.detectBody = true }
}

// WithLogger sets the logger for phase messages.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an Executor writing pages into syncRoot.
func NewExecutor(store PageStore, mapper *properties.Mapper, syncRoot string, opts ...ExecutorOption) *Executor {
	e := &Executor{store: store, mapper: mapper, syncRoot: syncRoot, logger: slog.Default()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Execute archives, creates, then updates, in that order. Each set is
// processed sequentially in key order and the first failure stops the run;
// the report then holds what was applied before it.
func (e *Executor) Execute(ctx context.Context, plan Plan) (Report, error) {
	var rep Report

	for _, id := range plan.DeleteIDs() {
		if err := e.archive(ctx, id, plan.Deletes[id]); err != nil {
			return rep, err
		}
		rep.Archived++
	}

	for _, key := range plan.CreateKeys() {
		if err := e.create(ctx, key, plan.Creates[key]); err != nil {
			return rep, err
		}
		rep.Created++
	}

	for _, key := range plan.UpdateKeys() {
		replaced, err := e.update(ctx, key, plan.Updates[key])
		if err != nil {
			return rep, err
		}
		rep.Updated++
		if replaced {
			rep.ContentReplaced++
			rep.Replaced = append(rep.Replaced, key)
		}
	}
	return rep, nil
}

func (e *Executor) archive(ctx context.Context, id, key string) error {
	e.logger.Info("deleting unknown page", slog.String("page_id", id), slog.String("key", key))
	if err := e.store.ArchivePage(ctx, id); err != nil {
		return &apperr.StoreError{Op: "archive", ID: id, Err: err}
	}
	if e.ledger != nil {
		if err := e.ledger.ForgetPage(ctx, id); err != nil {
			return fmt.Errorf("reconcile: forget page: %w", err)
		}
	}
	return nil
}

func (e *Executor) create(ctx context.Context, key string, doc models.Document) error {
	e.logger.Info("creating new page", slog.String("key", key))
	props := e.mapper.Map(doc.FrontMatter)
	ref, err := e.store.CreatePage(ctx, e.syncRoot, props, doc.Blocks)
	if err != nil {
		return &apperr.StoreError{Op: "create", ID: key, Err: err}
	}
	return e.record(ctx, key, ref.ID, doc)
}

func (e *Executor) update(ctx context.Context, key string, u Update) (bool, error) {
	e.logger.Info("updating existing page", slog.String("key", key), slog.String("page_id", u.Remote.ID))

	props := e.mapper.Map(u.Document.FrontMatter)
	push := properties.WithStaleCleared(u.Remote.Properties, props)

	e.logger.Debug("setting properties", slog.String("page_id", u.Remote.ID), slog.Any("labels", push.Labels()))
	if _, err := e.store.UpdatePageProperties(ctx, u.Remote.ID, push); err != nil {
		return false, &apperr.StoreError{Op: "update", ID: u.Remote.ID, Err: err}
	}

	changed, err := e.contentChanged(ctx, key, u, props)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	e.logger.Info("updating page content", slog.String("page_id", u.Remote.ID))
	if err := e.replaceContent(ctx, u); err != nil {
		return false, err
	}
	return true, e.record(ctx, key, u.Remote.ID, u.Document)
}

// contentChanged reports whether the page body must be rewritten: its
// properties moved or, with body change detection, the ledger holds a
// different content checksum.
func (e *Executor) contentChanged(ctx context.Context, key string, u Update, props models.PropertyMap) (bool, error) {
	if !u.Remote.Properties.Equivalent(props) {
		return true, nil
	}
	if e.ledger == nil || !e.detectBody {
		return false, nil
	}
	prev, ok, err := e.ledger.Checksum(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reconcile: read checksum: %w", err)
	}
	if !ok {
		return false, nil
	}
	sum, err := checksum.Tree(u.Document.Blocks)
	if err != nil {
		return false, fmt.Errorf("reconcile: checksum: %w", err)
	}
	return sum != prev, nil
}

func (e *Executor) replaceContent(ctx context.Context, u Update) error {
	pageID := u.Remote.ID
	children, err := Collect(ctx, func(ctx context.Context, cursor string) (Batch[models.ChildRef], error) {
		b, err := e.store.ListChildren(ctx, pageID, cursor)
		if err != nil {
			return b, &apperr.StoreError{Op: "list_children", ID: pageID, Err: err}
		}
		return b, nil
	})
	if err != nil {
		return err
	}

	for _, c := range children {
		if err := e.store.DeleteBlock(ctx, c.ID); err != nil {
			return &apperr.StoreError{Op: "delete_block", ID: c.ID, Err: err}
		}
	}

	if len(u.Document.Blocks) == 0 {
		return nil
	}
	if err := e.store.AppendChildren(ctx, pageID, u.Document.Blocks); err != nil {
		return &apperr.StoreError{Op: "append", ID: pageID, Err: err}
	}
	return nil
}

func (e *Executor) record(ctx context.Context, key, pageID string, doc models.Document) error {
	if e.ledger == nil {
		return nil
	}
	sum, err := checksum.Tree(doc.Blocks)
	if err != nil {
		return fmt.Errorf("reconcile: checksum: %w", err)
	}
	if err := e.ledger.RecordPage(ctx, key, pageID, sum); err != nil {
		return fmt.Errorf("reconcile: record page: %w", err)
	}
	return nil
}
