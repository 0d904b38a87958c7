package reconcile

import (
	"testing"

	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/properties"
)

const (
	testBase = "https://github.com/o/r/blob/main"
	testRoot = "0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0"
)

func urlResult(id, parent, key string) models.SearchResult {
	return models.SearchResult{
		ID:       id,
		Kind:     models.KindPage,
		ParentID: parent,
		Properties: models.PropertyMap{
			properties.URLLabel: {Kind: models.PropertyURL, URL: testBase + "/" + key},
		},
	}
}

func TestIndexResults(t *testing.T) {
	mapper := properties.NewMapper(testBase)
	idx := IndexResults([]models.SearchResult{
		urlResult("p1", testRoot, "a.md"),
		{ID: "db1", Kind: "database"},
		{ID: "p2", Kind: models.KindPage, ParentID: testRoot},
		urlResult("p3", testRoot, "a.md"),
	}, mapper)

	if len(idx.Pages) != 2 {
		t.Fatalf("pages = %+v", idx.Pages)
	}
	if idx.Pages["a.md"].ID != "p1" {
		t.Errorf("a.md -> %s, want first result p1", idx.Pages["a.md"].ID)
	}
	if idx.Pages["p2"].ID != "p2" {
		t.Error("page without URL should be keyed by its id")
	}
	if len(idx.Duplicates) != 1 || idx.Duplicates[0].ID != "p3" {
		t.Errorf("duplicates = %+v", idx.Duplicates)
	}
}

func TestIdentityKey_ForeignURLKeptWhole(t *testing.T) {
	mapper := properties.NewMapper(testBase)
	r := models.SearchResult{ID: "p", Properties: models.PropertyMap{
		properties.URLLabel: {Kind: models.PropertyURL, URL: "https://elsewhere/x.md"},
	}}
	if got := IdentityKey(r, mapper); got != "https://elsewhere/x.md" {
		t.Errorf("key = %q", got)
	}
}

func TestPlanReconciliation(t *testing.T) {
	docs := map[string]models.Document{
		"a.md": {Path: "a.md"},
		"b.md": {Path: "b.md"},
	}
	idx := Index{Pages: map[string]models.RemotePage{
		"a.md":   {ID: "p1", IdentityKey: "a.md", ParentID: testRoot},
		"old.md": {ID: "p2", IdentityKey: "old.md", ParentID: testRoot},
		"far.md": {ID: "p3", IdentityKey: "far.md", ParentID: "other-container"},
	}}

	plan := PlanReconciliation(docs, idx, testRoot)

	if _, ok := plan.Creates["b.md"]; !ok || len(plan.Creates) != 1 {
		t.Errorf("creates = %v", plan.CreateKeys())
	}
	if u, ok := plan.Updates["a.md"]; !ok || u.Remote.ID != "p1" || len(plan.Updates) != 1 {
		t.Errorf("updates = %v", plan.UpdateKeys())
	}
	if plan.Deletes["p2"] != "old.md" || len(plan.Deletes) != 1 {
		t.Errorf("deletes = %v", plan.Deletes)
	}
}

func TestPlanReconciliation_EveryDocumentOnce(t *testing.T) {
	docs := map[string]models.Document{"a": {}, "b": {}, "c": {}}
	idx := Index{Pages: map[string]models.RemotePage{"b": {ID: "pb", ParentID: testRoot}}}
	plan := PlanReconciliation(docs, idx, testRoot)
	for key := range docs {
		_, c := plan.Creates[key]
		_, u := plan.Updates[key]
		if c == u {
			t.Errorf("%s: create=%v update=%v, want exactly one", key, c, u)
		}
	}
}

func TestPlanReconciliation_DeletionScope(t *testing.T) {
	idx := Index{Pages: map[string]models.RemotePage{
		"x": {ID: "p1", ParentID: "elsewhere"},
		"y": {ID: "p2"},
	}}
	plan := PlanReconciliation(nil, idx, testRoot)
	if len(plan.Deletes) != 0 {
		t.Errorf("pages outside the sync root were scheduled: %v", plan.Deletes)
	}
}

func TestPlanReconciliation_Duplicates(t *testing.T) {
	idx := Index{
		Pages: map[string]models.RemotePage{"a.md": {ID: "p1", IdentityKey: "a.md", ParentID: testRoot}},
		Duplicates: []models.RemotePage{
			{ID: "p2", IdentityKey: "a.md", ParentID: testRoot},
			{ID: "p3", IdentityKey: "a.md", ParentID: "elsewhere"},
		},
	}
	docs := map[string]models.Document{"a.md": {Path: "a.md"}}
	plan := PlanReconciliation(docs, idx, testRoot)

	if plan.Deletes["p2"] != "a.md" || len(plan.Deletes) != 1 {
		t.Errorf("deletes = %v", plan.Deletes)
	}
	if plan.Updates["a.md"].Remote.ID != "p1" {
		t.Error("first page should stay the update target")
	}
}

func TestSameContainer(t *testing.T) {
	if !SameContainer(testRoot, "0F1E2D3C4B5A69788796A5B4C3D2E1F0") {
		t.Error("dashed and undashed ids should match")
	}
	if SameContainer("", "") {
		t.Error("empty ids never match")
	}
	if SameContainer("a", "b") {
		t.Error("different ids matched")
	}
}

func TestPlan_SummaryAndEmpty(t *testing.T) {
	p := PlanReconciliation(nil, Index{}, testRoot)
	if !p.Empty() {
		t.Error("plan over nothing should be empty")
	}
	p = Plan{
		Creates: map[string]models.Document{"b": {}, "a": {}},
		Deletes: map[string]string{"id": "k"},
	}
	s := p.Summary()
	if len(s.Creates) != 2 || s.Creates[0] != "a" || s.Deletes["id"] != "k" || len(s.Updates) != 0 {
		t.Errorf("summary = %+v", s)
	}
}
