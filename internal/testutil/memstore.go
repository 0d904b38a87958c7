package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/blocks"
	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/reconcile"
)

// MemStore operation names, used for call counting and error injection.
const (
	OpSearch       = "search"
	OpCreate       = "create"
	OpUpdate       = "update"
	OpArchive      = "archive"
	OpListChildren = "list_children"
	OpDeleteBlock  = "delete_block"
	OpAppend       = "append"
)

// MemPage is a page held by MemStore.
type MemPage struct {
	ID         string
	Kind       string
	ParentID   string
	Properties models.PropertyMap
	Archived   bool
	children   []memBlock
}

type memBlock struct {
	id    string
	block blocks.Block
}

// MemStore is an in-memory reconcile.PageStore. Listings are paginated by
// PageSize so tests exercise the cursor contract.
type MemStore struct {
	PageSize int

	mu     sync.Mutex
	pages  []*MemPage
	calls  map[string]int
	fail   map[string]error
	nextID int
}

var _ reconcile.PageStore = (*MemStore)(nil)

// NewMemStore creates an empty store returning pageSize items per batch.
func NewMemStore(pageSize int) *MemStore {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &MemStore{PageSize: pageSize, calls: make(map[string]int), fail: make(map[string]error)}
}

// Seed adds a page under parentID and returns its id.
func (s *MemStore) Seed(parentID string, props models.PropertyMap, content ...blocks.Block) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.newPage(models.KindPage, parentID, props)
	for _, b := range content {
		p.children = append(p.children, memBlock{id: s.id("block"), block: b})
	}
	return p.ID
}

// SeedDatabase adds a non-page search result.
func (s *MemStore) SeedDatabase(parentID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newPage("database", parentID, nil).ID
}

// FailOn makes every later call of op return err. A nil err clears it.
func (s *MemStore) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, op)
		return
	}
	s.fail[op] = err
}

// Calls returns how often op was invoked.
func (s *MemStore) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// ResetCalls zeroes every call counter.
func (s *MemStore) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// Page returns a copy of the page with id.
func (s *MemStore) Page(id string) (MemPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(id)
	if p == nil {
		return MemPage{}, false
	}
	cp := *p
	cp.Properties = p.Properties.Clone()
	cp.children = nil
	return cp, true
}

// Live returns the non-archived pages in creation order.
func (s *MemStore) Live() []MemPage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []MemPage
	for _, p := range s.pages {
		if p.Archived || p.Kind != models.KindPage {
			continue
		}
		cp := *p
		cp.Properties = p.Properties.Clone()
		cp.children = nil
		out = append(out, cp)
	}
	return out
}

// Content returns the page's child blocks.
func (s *MemStore) Content(id string) blocks.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.find(id)
	if p == nil {
		return nil
	}
	out := make(blocks.Tree, 0, len(p.children))
	for _, c := range p.children {
		out = append(out, c.block)
	}
	return out.Clone()
}

// Search returns every non-archived entry regardless of query.
func (s *MemStore) Search(_ context.Context, _ string, cursor string) (reconcile.Batch[models.SearchResult], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpSearch); err != nil {
		return reconcile.Batch[models.SearchResult]{}, err
	}

	var all []models.SearchResult
	for _, p := range s.pages {
		if p.Archived {
			continue
		}
		all = append(all, models.SearchResult{
			ID:         p.ID,
			Kind:       p.Kind,
			Properties: p.Properties.Clone(),
			ParentID:   p.ParentID,
		})
	}
	return paginate(all, cursor, s.PageSize)
}

// CreatePage adds a page with content under containerID.
func (s *MemStore) CreatePage(_ context.Context, containerID string, props models.PropertyMap, children blocks.Tree) (models.PageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreate); err != nil {
		return models.PageRef{}, err
	}
	p := s.newPage(models.KindPage, containerID, dropEmpty(props))
	s.append(p, children)
	return models.PageRef{ID: p.ID}, nil
}

// UpdatePageProperties merges props into the page. Empty values remove a
// label, mirroring how a cleared remote property reads back.
func (s *MemStore) UpdatePageProperties(_ context.Context, pageID string, props models.PropertyMap) (models.PageSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdate); err != nil {
		return models.PageSnapshot{}, err
	}
	p := s.find(pageID)
	if p == nil || p.Archived {
		return models.PageSnapshot{}, fmt.Errorf("page %s: %w", pageID, apperr.ErrNotFound)
	}
	for label, v := range props {
		if v.Empty() {
			delete(p.Properties, label)
			continue
		}
		p.Properties[label] = v
	}
	return models.PageSnapshot{ID: p.ID, Properties: p.Properties.Clone()}, nil
}

// ArchivePage marks the page archived.
func (s *MemStore) ArchivePage(_ context.Context, pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpArchive); err != nil {
		return err
	}
	p := s.find(pageID)
	if p == nil {
		return fmt.Errorf("page %s: %w", pageID, apperr.ErrNotFound)
	}
	p.Archived = true
	return nil
}

// ListChildren pages through the page's child block ids.
func (s *MemStore) ListChildren(_ context.Context, pageID, cursor string) (reconcile.Batch[models.ChildRef], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpListChildren); err != nil {
		return reconcile.Batch[models.ChildRef]{}, err
	}
	p := s.find(pageID)
	if p == nil {
		return reconcile.Batch[models.ChildRef]{}, fmt.Errorf("page %s: %w", pageID, apperr.ErrNotFound)
	}
	refs := make([]models.ChildRef, 0, len(p.children))
	for _, c := range p.children {
		refs = append(refs, models.ChildRef{ID: c.id})
	}
	return paginate(refs, cursor, s.PageSize)
}

// DeleteBlock removes a child block from whichever page holds it.
func (s *MemStore) DeleteBlock(_ context.Context, blockID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDeleteBlock); err != nil {
		return err
	}
	for _, p := range s.pages {
		for i, c := range p.children {
			if c.id == blockID {
				p.children = append(p.children[:i], p.children[i+1:]...)
				return nil
			}
		}
	}
	return fmt.Errorf("block %s: %w", blockID, apperr.ErrNotFound)
}

// AppendChildren adds blocks to the end of the page.
func (s *MemStore) AppendChildren(_ context.Context, pageID string, children blocks.Tree) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpAppend); err != nil {
		return err
	}
	p := s.find(pageID)
	if p == nil {
		return fmt.Errorf("page %s: %w", pageID, apperr.ErrNotFound)
	}
	s.append(p, children)
	return nil
}

func (s *MemStore) enter(op string) error {
	s.calls[op]++
	return s.fail[op]
}

func (s *MemStore) newPage(kind, parentID string, props models.PropertyMap) *MemPage {
	if props == nil {
		props = models.PropertyMap{}
	}
	p := &MemPage{ID: s.id(kind), Kind: kind, ParentID: parentID, Properties: props.Clone()}
	s.pages = append(s.pages, p)
	return p
}

func (s *MemStore) append(p *MemPage, children blocks.Tree) {
	for _, b := range children.Clone() {
		p.children = append(p.children, memBlock{id: s.id("block"), block: b})
	}
}

func (s *MemStore) find(id string) *MemPage {
	for _, p := range s.pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *MemStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%04d", prefix, s.nextID)
}

func dropEmpty(props models.PropertyMap) models.PropertyMap {
	out := make(models.PropertyMap, len(props))
	for k, v := range props {
		if !v.Empty() {
			out[k] = v
		}
	}
	return out
}

func paginate[T any](all []T, cursor string, size int) (reconcile.Batch[T], error) {
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 || n > len(all) {
			return reconcile.Batch[T]{}, fmt.Errorf("invalid cursor %q", cursor)
		}
		start = n
	}
	end := min(start+size, len(all))
	b := reconcile.Batch[T]{Items: all[start:end]}
	if end < len(all) {
		b.HasMore = true
		b.NextCursor = strconv.Itoa(end)
	}
	return b, nil
}
