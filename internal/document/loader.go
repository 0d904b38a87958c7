// Package document loads markdown files into normalized documents.
package document

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/starford/mdnotion/internal/apperr"
	"github.com/starford/mdnotion/internal/blocks"
	"github.com/starford/mdnotion/internal/models"
	"github.com/starford/mdnotion/internal/parser"
	"github.com/starford/mdnotion/internal/storage"
)

// ConvertFunc turns a markdown body into a block tree.
type ConvertFunc func(body string) blocks.Tree

// Loader reads every markdown file of a storage.Provider.
type Loader struct {
	store   storage.Provider
	prefix  string
	convert ConvertFunc
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithPathPrefix joins prefix in front of every document path.
func WithPathPrefix(prefix string) LoaderOption {
	return func(l *Loader) {
		l.prefix = cleanPrefix(prefix)
	}
}

// WithConverter replaces the markdown-to-block converter.
func WithConverter(fn ConvertFunc) LoaderOption {
	return func(l *Loader) {
		l.convert = fn
	}
}

// NewLoader creates a Loader. Document paths are relative to the store root
// unless WithPathPrefix is given.
func NewLoader(store storage.Provider, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, convert: parser.ConvertMarkdown}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads, splits, converts and normalizes every markdown file. Documents
// are returned sorted by path.
func (l *Loader) Load(ctx context.Context) ([]models.Document, error) {
	files, err := l.store.List("")
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	docs := make([]models.Document, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := l.loadFile(f.Path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (l *Loader) loadFile(rel string) (models.Document, error) {
	docPath := rel
	if l.prefix != "" {
		docPath = path.Join(l.prefix, rel)
	}

	data, err := l.store.Read(rel)
	if err != nil {
		return models.Document{}, fmt.Errorf("document: %w", err)
	}

	res, err := parser.Parse(data)
	if err != nil {
		var fmErr *apperr.FrontMatterError
		if errors.As(err, &fmErr) {
			fmErr.Path = docPath
		}
		return models.Document{}, fmt.Errorf("document: %w", err)
	}

	fm := res.FrontMatter
	fm[models.PathKey] = docPath

	tree := l.convert(res.Body)
	Normalize(tree)

	return models.Document{
		Path:        docPath,
		FrontMatter: fm,
		Blocks:      tree,
	}, nil
}

// Index keys documents by identity (their path). Two documents resolving to
// the same key are rejected.
func Index(docs []models.Document) (map[string]models.Document, error) {
	out := make(map[string]models.Document, len(docs))
	for _, d := range docs {
		if _, dup := out[d.Path]; dup {
			return nil, fmt.Errorf("document: %w: %s", apperr.ErrIdentityCollision, d.Path)
		}
		out[d.Path] = d
	}
	return out, nil
}

func cleanPrefix(p string) string {
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return p
}
