package properties

import (
	"strings"

	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/parser"
)

// Mapper builds property maps from front matter.
type Mapper struct {
	baseURL string
}

// NewMapper creates a Mapper whose URL properties point below baseURL.
func NewMapper(baseURL string) *Mapper {
	return &Mapper{baseURL: strings.TrimRight(baseURL, "/")}
}

// URL returns the link back to the source file at path.
func (m *Mapper) URL(path string) string {
	return m.baseURL + "/" + path
}

// IdentityKey strips the base URL from a URL property value. ok is false
// when url does not point below the base URL.
func (m *Mapper) IdentityKey(url string) (key string, ok bool) {
	prefix := m.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return url, false
	}
	return strings.TrimPrefix(url, prefix), true
}

// Map converts front matter into a property map. Keys are processed in
// sorted order, so two keys sharing a label resolve the same way every run.
// A title is synthesized from the path key when front matter provides none.
func (m *Mapper) Map(fm map[string]string) models.PropertyMap {
	props := make(models.PropertyMap, len(fm)+1)
	hasTitle := false

	for _, key := range parser.SortedKeys(fm) {
		value := fm[key]
		label := Label(key)
		switch label {
		case "":
			continue
		case PathLabel:
			props[URLLabel] = models.Property{Kind: models.PropertyURL, URL: m.URL(value)}
		case TitleLabel:
			props[TitleLabel] = models.Property{Kind: models.PropertyTitle, Text: value}
			hasTitle = true
		default:
			props[label] = models.Property{Kind: models.PropertyRichText, Text: value}
		}
	}

	if !hasTitle {
		props[TitleLabel] = models.Property{Kind: models.PropertyTitle, Text: fm[models.PathKey]}
	}
	return props
}

// WithStaleCleared returns next extended with an empty value for every label
// that previous holds a value for but next does not produce.
func WithStaleCleared(previous, next models.PropertyMap) models.PropertyMap {
	out := next.Clone()
	for label, p := range previous {
		if _, ok := out[label]; ok || p.Empty() {
			continue
		}
		if p.Kind == models.PropertyTitle {
			continue
		}
		out[label] = p.Cleared()
	}
	return out
}
