package reconcile

import (
	"context"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/properties"
)

// Index is the remote page set keyed by identity key.
type Index struct {
	Pages map[string]models.RemotePage
	// Duplicates holds pages whose identity key was already taken by an
	// earlier search result.
	Duplicates []models.RemotePage
}

// BuildIndex runs the unfiltered search to completion and indexes the pages.
func BuildIndex(ctx context.Context, store PageStore, mapper *properties.Mapper) (Index, error) {
	results, err := Collect(ctx, func(ctx context.Context, cursor string) (Batch[models.SearchResult], error) {
		b, err := store.Search(ctx, "", cursor)
		if err != nil {
			return b, &apperr.StoreError{Op: "search", Err: err}
		}
		return b, nil
	})
	if err != nil {
		return Index{}, err
	}
	return IndexResults(results, mapper), nil
}

// IndexResults partitions search results. Only pages are indexed; the first
// page seen for an identity key wins.
func IndexResults(results []models.SearchResult, mapper *properties.Mapper) Index {
	idx := Index{Pages: make(map[string]models.RemotePage)}
	for _, r := range results {
		if r.Kind != models.KindPage {
			continue
		}
		page := models.RemotePage{
			ID:          r.ID,
			IdentityKey: IdentityKey(r, mapper),
			Properties:  r.Properties,
			ParentID:    r.ParentID,
		}
		if _, taken := idx.Pages[page.IdentityKey]; taken {
			idx.Duplicates = append(idx.Duplicates, page)
			continue
		}
		idx.Pages[page.IdentityKey] = page
	}
	return idx
}

// IdentityKey derives the key a search result is matched on: its URL
// property without the base URL prefix, or its id when it has none.
func IdentityKey(r models.SearchResult, mapper *properties.Mapper) string {
	p, ok := r.Properties[properties.URLLabel]
	if !ok || p.Kind != models.PropertyURL || p.URL == "" {
		return r.ID
	}
	key, _ := mapper.IdentityKey(p.URL)
	return key
}
