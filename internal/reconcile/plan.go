package reconcile

import (
	"sort"
	"strings"

	"github.com/starford/mdnotion/internal/models"
)

// Update pairs a local document with the remote page it replaces.
type Update struct {
	Document models.Document
	Remote   models.RemotePage
}

// Plan is the create/update/delete diff of one run.
type Plan struct {
	// Creates maps identity key to the document to create.
	Creates map[string]models.Document
	// Updates maps identity key to the document and its existing page.
	Updates map[string]Update
	// Deletes maps remote page id to its identity key.
	Deletes map[string]string
}

// Empty reports whether the plan has nothing to create, update or delete.
func (p Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// CreateKeys returns the create set's keys, sorted.
func (p Plan) CreateKeys() []string { return sortedKeys(p.Creates) }

// UpdateKeys returns the update set's keys, sorted.
func (p Plan) UpdateKeys() []string { return sortedKeys(p.Updates) }

// DeleteIDs returns the page ids to archive, sorted.
func (p Plan) DeleteIDs() []string { return sortedKeys(p.Deletes) }

// Summary is a serializable view of a plan.
type Summary struct {
	Creates []string          `json:"creates"`
	Updates []string          `json:"updates"`
	Deletes map[string]string `json:"deletes"`
}

// Summary returns the plan's keys for display.
func (p Plan) Summary() Summary {
	deletes := make(map[string]string, len(p.Deletes))
	for id, key := range p.Deletes {
		deletes[id] = key
	}
	return Summary{Creates: p.CreateKeys(), Updates: p.UpdateKeys(), Deletes: deletes}
}

// PlanReconciliation diffs the local documents against the remote index.
// Remote pages are only ever deleted when they live directly in syncRoot.
func PlanReconciliation(docs map[string]models.Document, idx Index, syncRoot string) Plan {
	plan := Plan{
		Creates: make(map[string]models.Document),
		Updates: make(map[string]Update),
		Deletes: make(map[string]string),
	}

	for key, doc := range docs {
		if page, ok := idx.Pages[key]; ok {
			plan.Updates[key] = Update{Document: doc, Remote: page}
			continue
		}
		plan.Creates[key] = doc
	}

	for key, page := range idx.Pages {
		if _, ok := docs[key]; ok {
			continue
		}
		if SameContainer(page.ParentID, syncRoot) {
			plan.Deletes[page.ID] = key
		}
	}

	for _, page := range idx.Duplicates {
		if SameContainer(page.ParentID, syncRoot) {
			plan.Deletes[page.ID] = page.IdentityKey
		}
	}
	return plan
}

// SameContainer compares container ids ignoring dashes and case.
func SameContainer(a, b string) bool {
	a, b = normalizeID(a), normalizeID(b)
	return a != "" && a == b
}

func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(id), "-", ""))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
