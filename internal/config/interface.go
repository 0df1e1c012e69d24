package config

import "context"

// Loader is the interface for a format-specific network loader.
type Loader interface {
	// Load reads every matching file under the given paths and merges them
	// into one format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
