// Package kvstore provides the durable string-keyed store that backs survey state.
//
// A Store is scoped to one origin: every key read or written through it lives in
// that origin's namespace, the same way browser local storage is scoped to the
// page origin. Reads that follow a write on the same Store always observe it.
package kvstore

import (
	"context"
	"fmt"
)

// Store is the minimal get/set/remove contract the survey state layer depends on.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// DefaultOrigin is used when no origin is configured.
const DefaultOrigin = "local"

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Origin      string
	SQLitePath  string
	DatabaseURL string
}

// Handle is an opened Store plus the function that releases it.
type Handle struct {
	Store
	close func() error
}

// Close releases the backend's resources.
func (h *Handle) Close() error {
	if h.close == nil {
		return nil
	}
	return h.close()
}

// Open creates the backend named in opts.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	origin := opts.Origin
	if origin == "" {
		origin = DefaultOrigin
	}

	switch opts.Backend {
	case "", BackendMemory:
		return &Handle{Store: NewMemory()}, nil
	case BackendSQLite:
		if opts.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		s, err := OpenSQLite(opts.SQLitePath, origin)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: s, close: s.Close}, nil
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		s, err := ConnectPostgres(ctx, opts.DatabaseURL, origin)
		if err != nil {
			return nil, err
		}
		return &Handle{Store: s, close: func() error { s.Close(); return nil }}, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
