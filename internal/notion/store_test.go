package notion

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jomei/notionapi"

	"github.com/starford/mdnotion/internal/blocks"
	"github.com/starford/mdnotion/internal/models"
)

type fakeSearch struct {
	req  *notionapi.SearchRequest
	resp *notionapi.SearchResponse
	err  error
}

func (f *fakeSearch) Do(_ context.Context, req *notionapi.SearchRequest) (*notionapi.SearchResponse, error) {
	f.req = req
	return f.resp, f.err
}

type fakePages struct {
	creates []*notionapi.PageCreateRequest
	updates map[notionapi.PageID]*notionapi.PageUpdateRequest
}

func (f *fakePages) Create(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.creates = append(f.creates, req)
	return &notionapi.Page{ID: "new-page"}, nil
}

func (f *fakePages) Update(_ context.Context, id notionapi.PageID, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	if f.updates == nil {
		f.updates = map[notionapi.PageID]*notionapi.PageUpdateRequest{}
	}
	f.updates[id] = req
	return &notionapi.Page{ID: notionapi.ObjectID(id), Properties: req.Properties}, nil
}

type fakeBlocks struct {
	appends  [][]notionapi.Block
	deleted  []notionapi.BlockID
	children *notionapi.GetChildrenResponse
	cursor   notionapi.Cursor
}

func (f *fakeBlocks) GetChildren(_ context.Context, _ notionapi.BlockID, p *notionapi.Pagination) (*notionapi.GetChildrenResponse, error) {
	f.cursor = p.StartCursor
	return f.children, nil
}

func (f *fakeBlocks) AppendChildren(_ context.Context, _ notionapi.BlockID, req *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error) {
	f.appends = append(f.appends, req.Children)
	return &notionapi.AppendBlockChildrenResponse{}, nil
}

func (f *fakeBlocks) Delete(_ context.Context, id notionapi.BlockID) (notionapi.Block, error) {
	f.deleted = append(f.deleted, id)
	return nil, nil
}

func paragraphs(n int) blocks.Tree {
	t := make(blocks.Tree, n)
	for i := range t {
		t[i] = blocks.Paragraph(blocks.Text(fmt.Sprint(i)))
	}
	return t
}

func TestStore_Search(t *testing.T) {
	search := &fakeSearch{resp: &notionapi.SearchResponse{
		Results: []notionapi.Object{
			&notionapi.Page{
				ID:     "p1",
				Parent: notionapi.Parent{Type: notionapi.ParentTypeDatabaseID, DatabaseID: "db"},
				Properties: notionapi.Properties{
					"URL": &notionapi.URLProperty{URL: "https://e.com/a.md"},
				},
			},
		},
		HasMore:    true,
		NextCursor: "next",
	}}
	s := newStore(search, &fakePages{}, &fakeBlocks{})

	b, err := s.Search(context.Background(), "", "c1")
	if err != nil {
		t.Fatal(err)
	}
	if search.req.StartCursor != "c1" || search.req.PageSize != DefaultPageSize {
		t.Errorf("request = %+v", search.req)
	}
	if !b.HasMore || b.NextCursor != "next" || len(b.Items) != 1 {
		t.Fatalf("batch = %+v", b)
	}
	got := b.Items[0]
	if got.ID != "p1" || got.Kind != models.KindPage || got.ParentID != "db" || got.Properties["URL"].URL != "https://e.com/a.md" {
		t.Errorf("result = %+v", got)
	}
}

func TestStore_SearchError(t *testing.T) {
	boom := errors.New("unauthorized")
	s := newStore(&fakeSearch{err: boom}, &fakePages{}, &fakeBlocks{})
	if _, err := s.Search(context.Background(), "", ""); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}

func TestStore_CreatePageBatchesChildren(t *testing.T) {
	pages, blk := &fakePages{}, &fakeBlocks{}
	s := newStore(&fakeSearch{}, pages, blk)

	props := models.PropertyMap{"Title": {Kind: models.PropertyTitle, Text: "T"}}
	ref, err := s.CreatePage(context.Background(), "db", props, paragraphs(250))
	if err != nil {
		t.Fatal(err)
	}
	if ref.ID != "new-page" {
		t.Errorf("ref = %+v", ref)
	}
	req := pages.creates[0]
	if req.Parent.DatabaseID != "db" || req.Parent.Type != notionapi.ParentTypeDatabaseID {
		t.Errorf("parent = %+v", req.Parent)
	}
	if len(req.Children) != MaxChildrenPerRequest {
		t.Errorf("initial children = %d", len(req.Children))
	}
	if len(blk.appends) != 2 || len(blk.appends[0]) != 100 || len(blk.appends[1]) != 50 {
		t.Errorf("follow-up appends = %d", len(blk.appends))
	}
}

func TestStore_AppendChildrenSingleBatch(t *testing.T) {
	blk := &fakeBlocks{}
	s := newStore(&fakeSearch{}, &fakePages{}, blk)
	if err := s.AppendChildren(context.Background(), "p", paragraphs(3)); err != nil {
		t.Fatal(err)
	}
	if len(blk.appends) != 1 || len(blk.appends[0]) != 3 {
		t.Errorf("appends = %+v", blk.appends)
	}
}

func TestStore_ArchiveAndUpdate(t *testing.T) {
	pages := &fakePages{}
	s := newStore(&fakeSearch{}, pages, &fakeBlocks{})
	ctx := context.Background()

	if err := s.ArchivePage(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	if req := pages.updates["p1"]; !req.Archived || req.Properties == nil {
		t.Errorf("archive request = %+v", req)
	}

	snap, err := s.UpdatePageProperties(ctx, "p2", models.PropertyMap{
		"Title": {Kind: models.PropertyTitle, Text: "New"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if pages.updates["p2"].Archived {
		t.Error("property update must not archive")
	}
	if snap.ID != "p2" || snap.Properties["Title"].Text != "New" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestStore_ListAndDeleteChildren(t *testing.T) {
	blk := &fakeBlocks{children: &notionapi.GetChildrenResponse{
		Results: []notionapi.Block{
			&notionapi.ParagraphBlock{BasicBlock: notionapi.BasicBlock{ID: "b1"}},
			&notionapi.DividerBlock{BasicBlock: notionapi.BasicBlock{ID: "b2"}},
		},
		HasMore:    true,
		NextCursor: "more",
	}}
	s := newStore(&fakeSearch{}, &fakePages{}, blk)
	ctx := context.Background()

	b, err := s.ListChildren(ctx, "p", "c")
	if err != nil {
		t.Fatal(err)
	}
	if blk.cursor != "c" {
		t.Errorf("cursor = %q", blk.cursor)
	}
	if len(b.Items) != 2 || b.Items[1].ID != "b2" || !b.HasMore || b.NextCursor != "more" {
		t.Errorf("batch = %+v", b)
	}

	if err := s.DeleteBlock(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	if len(blk.deleted) != 1 || blk.deleted[0] != "b1" {
		t.Errorf("deleted = %v", blk.deleted)
	}
}

func TestNew_RejectsBadEndpoint(t *testing.T) {
	if _, err := New("tok", Options{Endpoint: "not a url"}); err == nil {
		t.Error("expected error for relative endpoint")
	}
	if _, err := New("tok", Options{APIVersion: "2022-06-28"}); err != nil {
		t.Errorf("New: %v", err)
	}
}
