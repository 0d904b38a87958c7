// Package reconcile indexes the remote store, plans the create/update/delete
// diff against the local documents and applies it.
package reconcile

import (
	"context"
	"fmt"
	"iter"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/blocks"
	"github.com/starford/mdnotion/internal/models"
)

// PageStore is the remote hierarchical-block store the sync writes to.
type PageStore interface {
	Search(ctx context.Context, query, cursor string) (Batch[models.SearchResult], error)
	CreatePage(ctx context.Context, containerID string, props models.PropertyMap, children blocks.Tree) (models.PageRef, error)
	UpdatePageProperties(ctx context.Context, pageID string, props models.PropertyMap) (models.PageSnapshot, error)
	ArchivePage(ctx context.Context, pageID string) error
	ListChildren(ctx context.Context, pageID, cursor string) (Batch[models.ChildRef], error)
	DeleteBlock(ctx context.Context, blockID string) error
	AppendChildren(ctx context.Context, pageID string, children blocks.Tree) error
}

// Batch is one page of a cursor-paginated listing.
type Batch[T any] struct {
	Items      []T
	HasMore    bool
	NextCursor string
}

// FetchFunc loads the batch starting at cursor. The first call gets "".
type FetchFunc[T any] func(ctx context.Context, cursor string) (Batch[T], error)

// Pages returns a lazy sequence of batches driven by the has_more/next_cursor
// contract. Each range over the sequence starts again from the first batch.
// A batch claiming more results without a fresh cursor ends the sequence with
// apperr.ErrPaginationExhausted.
func Pages[T any](ctx context.Context, fetch FetchFunc[T]) iter.Seq2[Batch[T], error] {
	return func(yield func(Batch[T], error) bool) {
		cursor := ""
		seen := make(map[string]struct{})
		for {
			if err := ctx.Err(); err != nil {
				yield(Batch[T]{}, err)
				return
			}
			b, err := fetch(ctx, cursor)
			if err != nil {
				yield(Batch[T]{}, err)
				return
			}
			if !yield(b, nil) || !b.HasMore {
				return
			}
			if b.NextCursor == "" {
				yield(Batch[T]{}, fmt.Errorf("%w: has_more without next_cursor", apperr.ErrPaginationExhausted))
				return
			}
			if _, dup := seen[b.NextCursor]; dup {
				yield(Batch[T]{}, fmt.Errorf("%w: cursor %q repeated", apperr.ErrPaginationExhausted, b.NextCursor))
				return
			}
			seen[b.NextCursor] = struct{}{}
			cursor = b.NextCursor
		}
	}
}

// Collect drains every batch of fetch into one slice.
func Collect[T any](ctx context.Context, fetch FetchFunc[T]) ([]T, error) {
	var out []T
	for b, err := range Pages(ctx, fetch) {
		if err != nil {
			return nil, err
		}
		out = append(out, b.Items...)
	}
	return out, nil
}
