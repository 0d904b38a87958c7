package models

// KindPage is the search-result kind of pages.
const KindPage = "page"

// SearchResult is one entry returned by the remote store's search.
type SearchResult struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Properties PropertyMap `json:"properties"`
	ParentID   string      `json:"parent_id,omitempty"`
}

// RemotePage is an indexed page of the remote store.
type RemotePage struct {
	ID          string      `json:"id"`
	IdentityKey string      `json:"identity_key"`
	Properties  PropertyMap `json:"properties"`
	ParentID    string      `json:"parent_id,omitempty"`
}

// PageRef identifies a page the store created.
type PageRef struct {
	ID string `json:"id"`
}

// PageSnapshot is a page's property state returned after an update.
type PageSnapshot struct {
	ID         string      `json:"id"`
	Properties PropertyMap `json:"properties"`
}

// ChildRef identifies an existing child block of a page.
type ChildRef struct {
	ID string `json:"id"`
}
