package internal

import (
	"io"

	"github.com/starford/mdnotion/internal/reconcile"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  reconcile.PageStore
	out    io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore replaces the Notion client, e.g. with an in-memory store.
func WithStore(s reconcile.PageStore) Option {
	return func(a *application) {
		a.store = s
	}
}

// WithOutput sets where command results are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}
