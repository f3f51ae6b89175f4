package model

import (
	"time"

	"github.com/google/uuid"
)

// Item represents an embedded document (node in the link graph).
// The embedding is the most recent vector for the item; items without an
// embedding are never returned as link candidates.
type Item struct {
	ID          uuid.UUID `json:"id"`
	ContentType string    `json:"content_type"`
	Embedding   []float32 `json:"embedding,omitempty"`
	Metadata    Metadata  `json:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Candidate is a single approximate nearest neighbor hit.
// Score is cosine similarity in [0,1], higher is more similar.
type Candidate struct {
	ID    uuid.UUID `json:"id"`
	Score float64   `json:"score"`
}
