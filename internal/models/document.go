// Package models defines the domain types shared by the sync pipeline.
package models

import "github.com/starford/mdnotion/internal/blocks"

// PathKey is the reserved front-matter key holding the document's file path.
const PathKey = "path"

// Document is one markdown file loaded from the local tree.
type Document struct {
	Path        string            `json:"path"`
	FrontMatter map[string]string `json:"front_matter"`
	Blocks      blocks.Tree       `json:"-"`
}

// FileInfo describes a markdown file found under the markdown root.
type FileInfo struct {
	// Path is slash-separated and relative to the markdown root.
	Path string `json:"path"`
	Size int64  `json:"size"`
}
