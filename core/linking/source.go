package linking

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
)

// Source identifies the item a linking invocation runs for.
// The embedding is supplied by the caller (typically a completed
// embedding event), it is not re-read from the store.
type Source struct {
	ID          uuid.UUID
	ContentType string
	Embedding   []float32
}

// CandidateSource provides approximate nearest neighbor lookups over
// the embedded items.
type CandidateSource interface {
	// FindSimilar returns up to limit candidates ordered by descending
	// similarity. If excludeID is non-nil, that item is excluded.
	FindSimilar(ctx context.Context, embedding []float32, limit int, excludeID *uuid.UUID) ([]*model.Candidate, error)
	// GetEmbedding returns the current embedding of an item, or nil
	// without an error when the item is gone or no longer embedded.
	GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error)
	// CountEmbedded returns the number of items that currently have an
	// embedding.
	CountEmbedded(ctx context.Context) (int, error)
}

// LinkStore persists links. All writes are idempotent: creating a link
// that already exists is a no-op success.
type LinkStore interface {
	// CreateLink creates a single directed link and reports whether a
	// new link was actually created.
	CreateLink(ctx context.Context, from uuid.UUID, to uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (bool, error)
	// CreateReciprocalLink creates the link in both directions and
	// returns the number of link rows actually created (0-2).
	CreateReciprocalLink(ctx context.Context, a uuid.UUID, b uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (int, error)
}
