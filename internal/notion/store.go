// Package notion implements the reconcile.PageStore over the Notion API.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jomei/notionapi"

	"github.com/starford/mdnotion/internal/blocks"
	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/reconcile"
)

// MaxChildrenPerRequest is the API limit on blocks sent in one request.
const MaxChildrenPerRequest = 100

// DefaultPageSize is the number of results requested per listing call.
const DefaultPageSize = 100

var errNotReplayable = errors.New("notion: request body cannot be replayed")

type searchService interface {
	Do(ctx context.Context, req *notionapi.SearchRequest) (*notionapi.SearchResponse, error)
}

type pageService interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	Update(ctx context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
}

type blockService interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, p *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
	AppendChildren(ctx context.Context, id notionapi.BlockID, req *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error)
	Delete(ctx context.Context, id notionapi.BlockID) (notionapi.Block, error)
}

// Store is a reconcile.PageStore backed by the Notion API.
type Store struct {
	search   searchService
	pages    pageService
	blocks   blockService
	pageSize int
}

var _ reconcile.PageStore = (*Store)(nil)

// Options configures New.
type Options struct {
	// APIVersion overrides the Notion-Version header when set.
	APIVersion string
	// Endpoint sends requests to another scheme and host, e.g. a proxy.
	Endpoint string
	// MaxRetries bounds retries of rate-limited or failed requests.
	MaxRetries int
	Timeout    time.Duration
}

// New creates a Store authenticated with token.
func New(token string, opts Options) (*Store, error) {
	tr := &retryTransport{
		next:       http.DefaultTransport,
		maxRetries: opts.MaxRetries,
		baseDelay:  250 * time.Millisecond,
		maxDelay:   10 * time.Second,
	}
	if tr.maxRetries <= 0 {
		tr.maxRetries = 3
	}
	if opts.Endpoint != "" {
		u, err := url.Parse(opts.Endpoint)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("notion: invalid endpoint %q", opts.Endpoint)
		}
		tr.endpoint = u
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientOpts := []notionapi.ClientOption{
		notionapi.WithHTTPClient(&http.Client{Transport: tr, Timeout: timeout}),
	}
	if opts.APIVersion != "" {
		clientOpts = append(clientOpts, notionapi.WithVersion(opts.APIVersion))
	}
	client := notionapi.NewClient(notionapi.Token(token), clientOpts...)
	return newStore(client.Search, client.Page, client.Block), nil
}

func newStore(s searchService, p pageService, b blockService) *Store {
	return &Store{search: s, pages: p, blocks: b, pageSize: DefaultPageSize}
}

// Search runs one page of the workspace search.
func (s *Store) Search(ctx context.Context, query, cursor string) (reconcile.Batch[models.SearchResult], error) {
	resp, err := s.search.Do(ctx, &notionapi.SearchRequest{
		Query:       query,
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    s.pageSize,
	})
	if err != nil {
		return reconcile.Batch[models.SearchResult]{}, fmt.Errorf("notion: search: %w", err)
	}

	b := reconcile.Batch[models.SearchResult]{
		HasMore:    resp.HasMore,
		NextCursor: string(resp.NextCursor),
	}
	for _, obj := range resp.Results {
		switch v := obj.(type) {
		case *notionapi.Page:
			b.Items = append(b.Items, models.SearchResult{
				ID:         string(v.ID),
				Kind:       models.KindPage,
				Properties: fromProperties(v.Properties),
				ParentID:   parentID(v.Parent),
			})
		default:
			b.Items = append(b.Items, models.SearchResult{Kind: string(obj.GetObject())})
		}
	}
	return b, nil
}

// CreatePage creates a database entry. Children beyond the request limit
// are appended in follow-up batches.
func (s *Store) CreatePage(ctx context.Context, containerID string, props models.PropertyMap, children blocks.Tree) (models.PageRef, error) {
	all := toBlocks(children)
	first, rest := splitBatch(all)

	page, err := s.pages.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(containerID),
		},
		Properties: toProperties(props),
		Children:   first,
	})
	if err != nil {
		return models.PageRef{}, fmt.Errorf("notion: create page: %w", err)
	}
	ref := models.PageRef{ID: string(page.ID)}
	if err := s.appendBatches(ctx, ref.ID, rest); err != nil {
		return ref, err
	}
	return ref, nil
}

// UpdatePageProperties writes props and returns the resulting properties.
func (s *Store) UpdatePageProperties(ctx context.Context, pageID string, props models.PropertyMap) (models.PageSnapshot, error) {
	page, err := s.pages.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: toProperties(props),
	})
	if err != nil {
		return models.PageSnapshot{}, fmt.Errorf("notion: update page: %w", err)
	}
	return models.PageSnapshot{ID: string(page.ID), Properties: fromProperties(page.Properties)}, nil
}

// ArchivePage moves the page to the trash.
func (s *Store) ArchivePage(ctx context.Context, pageID string) error {
	_, err := s.pages.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{},
		Archived:   true,
	})
	if err != nil {
		return fmt.Errorf("notion: archive page: %w", err)
	}
	return nil
}

// ListChildren returns one page of the block's children.
func (s *Store) ListChildren(ctx context.Context, pageID, cursor string) (reconcile.Batch[models.ChildRef], error) {
	resp, err := s.blocks.GetChildren(ctx, notionapi.BlockID(pageID), &notionapi.Pagination{
		StartCursor: notionapi.Cursor(cursor),
		PageSize:    s.pageSize,
	})
	if err != nil {
		return reconcile.Batch[models.ChildRef]{}, fmt.Errorf("notion: list children: %w", err)
	}
	b := reconcile.Batch[models.ChildRef]{
		HasMore:    resp.HasMore,
		NextCursor: string(resp.NextCursor),
		Items:      make([]models.ChildRef, 0, len(resp.Results)),
	}
	for _, blk := range resp.Results {
		b.Items = append(b.Items, models.ChildRef{ID: string(blk.GetID())})
	}
	return b, nil
}

// DeleteBlock deletes one block.
func (s *Store) DeleteBlock(ctx context.Context, blockID string) error {
	if _, err := s.blocks.Delete(ctx, notionapi.BlockID(blockID)); err != nil {
		return fmt.Errorf("notion: delete block: %w", err)
	}
	return nil
}

// AppendChildren appends the tree to the page in request-sized batches.
func (s *Store) AppendChildren(ctx context.Context, pageID string, children blocks.Tree) error {
	return s.appendBatches(ctx, pageID, toBlocks(children))
}

func (s *Store) appendBatches(ctx context.Context, pageID string, all []notionapi.Block) error {
	for len(all) > 0 {
		var batch []notionapi.Block
		batch, all = splitBatch(all)
		_, err := s.blocks.AppendChildren(ctx, notionapi.BlockID(pageID), &notionapi.AppendBlockChildrenRequest{
			Children: batch,
		})
		if err != nil {
			return fmt.Errorf("notion: append children: %w", err)
		}
	}
	return nil
}

func splitBatch(all []notionapi.Block) (head, rest []notionapi.Block) {
	if len(all) <= MaxChildrenPerRequest {
		return all, nil
	}
	return all[:MaxChildrenPerRequest], all[MaxChildrenPerRequest:]
}
