// Package storage defines the read-only markdown tree abstraction.
package storage

import "github.com/starford/mdnotion/internal/models"

// Provider is the interface for reading the markdown tree.
type Provider interface {
	// List returns every .md file under dir (relative to the root), sorted by path.
	List(dir string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
	// Root returns the absolute root directory.
	Root() string
}
