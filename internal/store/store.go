// Package store persists analysis and generation payloads. Backends
// share the AnalysisStore contract; the artifact store handles
// generated test bundles separately.
package store

import (
	"context"
	"errors"

	"qaforge/internal/schema"
)

// ErrNotFound reports a missing payload for the given id.
var ErrNotFound = errors.New("store: not found")

// AnalysisStore saves and loads run payloads keyed by an opaque id.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, id string, a *schema.RepositoryAnalysis) error
	LoadAnalysis(ctx context.Context, id string) (*schema.RepositoryAnalysis, error)
	SaveResult(ctx context.Context, id string, r *schema.GenerationResult) error
	LoadResult(ctx context.Context, id string) (*schema.GenerationResult, error)
	Close() error
}
