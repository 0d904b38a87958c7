package models

import "sort"

// PropertyKind is the closed set of remote property types the sync writes.
type PropertyKind string

// Property kinds.
const (
	PropertyTitle    PropertyKind = "title"
	PropertyURL      PropertyKind = "url"
	PropertyRichText PropertyKind = "rich_text"
)

// Property is a typed remote property value. Text holds the single text run
// of title and rich_text properties; URL holds the value of url properties.
type Property struct {
	Kind PropertyKind `json:"type"`
	Text string       `json:"text,omitempty"`
	URL  string       `json:"url,omitempty"`
}

// Empty reports whether the property carries no value.
func (p Property) Empty() bool {
	return p.Text == "" && p.URL == ""
}

// Cleared returns a value of the same kind with no content.
func (p Property) Cleared() Property {
	return Property{Kind: p.Kind}
}

// PropertyMap maps a remote property label to its value.
type PropertyMap map[string]Property

// Title returns the title text, if any title property is present.
func (m PropertyMap) Title() (string, bool) {
	for _, p := range m {
		if p.Kind == PropertyTitle {
			return p.Text, true
		}
	}
	return "", false
}

// Equivalent reports structural equality where an absent label and a label
// holding an empty value are treated alike.
func (m PropertyMap) Equivalent(other PropertyMap) bool {
	for label, p := range m {
		q, ok := other[label]
		if !ok {
			if !p.Empty() {
				return false
			}
			continue
		}
		if p != q {
			return false
		}
	}
	for label, q := range other {
		if _, ok := m[label]; !ok && !q.Empty() {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of the map.
func (m PropertyMap) Clone() PropertyMap {
	if m == nil {
		return nil
	}
	out := make(PropertyMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Labels returns the labels in the map, sorted.
func (m PropertyMap) Labels() []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
