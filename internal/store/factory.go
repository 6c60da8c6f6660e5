package store

import (
	"context"
	"errors"
	"strings"
)

// New creates a store for the requested backend. With backend "auto" it
// prefers postgres when a database URL is configured and falls back to the
// SQLite file otherwise.
func New(ctx context.Context, backend, databaseURL, sqlitePath string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "memory":
		return NewMemoryStore(), nil
	case "postgres":
		if strings.TrimSpace(databaseURL) == "" {
			return nil, errors.New("postgres backend requires DMHUB_DATABASE_URL")
		}
		return NewPostgresStore(ctx, databaseURL)
	case "sqlite":
		return NewSQLiteStore(ctx, sqlitePath)
	case "", "auto":
		if strings.TrimSpace(databaseURL) != "" {
			return NewPostgresStore(ctx, databaseURL)
		}
		return NewSQLiteStore(ctx, sqlitePath)
	default:
		return nil, errors.New("unsupported store backend: " + backend)
	}
}
