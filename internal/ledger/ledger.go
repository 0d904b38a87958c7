package ledger

import (
	"context"
	"time"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Counts summarizes what a run applied.
type Counts struct {
	Archived        int `json:"archived"`
	Created         int `json:"created"`
	Updated         int `json:"updated"`
	ContentReplaced int `json:"content_replaced"`
}

// RunRow represents a row in the runs table.
type RunRow struct {
	ID         string     `json:"id"`
	Trigger    string     `json:"trigger"`
	Status     string     `json:"status"`
	Counts     Counts     `json:"counts"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// PageRow represents a row in the pages table.
type PageRow struct {
	IdentityKey string    `json:"identity_key"`
	PageID      string    `json:"page_id"`
	Checksum    string    `json:"checksum"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Ledger is the persistence the sync service depends on.
type Ledger interface {
	BeginRun(ctx context.Context, id, trigger string, at time.Time) error
	FinishRun(ctx context.Context, id string, at time.Time, counts Counts, runErr error) error
	Runs(ctx context.Context, limit int) ([]RunRow, error)
	Checksum(ctx context.Context, key string) (string, bool, error)
	RecordPage(ctx context.Context, key, pageID, sum string) error
	ForgetPage(ctx context.Context, pageID string) error
	Pages(ctx context.Context) ([]PageRow, error)
	Close() error
}

var _ Ledger = (*DB)(nil)
