package model

import (
	"time"

	"github.com/google/uuid"
)

// LinkKind represents the type of relationship between items
type LinkKind string

const (
	LinkKindSemantic  LinkKind = "semantic"
	LinkKindReference LinkKind = "reference"
	LinkKindCustom    LinkKind = "custom"
)

// Link represents a directed, typed, scored edge between two items.
// At most one link exists per (from, to, kind) triple; inserting a
// duplicate is a no-op. Links created by the mutual k-NN strategy are
// always written as a reciprocal pair, so the semantic graph is
// effectively undirected for traversal purposes.
type Link struct {
	ID        uuid.UUID `json:"id"`
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	Kind      LinkKind  `json:"kind"`
	Score     float64   `json:"score"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LinkConnection represents a link with directional information
type LinkConnection struct {
	Link       *Link `json:"link"`
	IsOutgoing bool  `json:"is_outgoing"`
}

// LinkPair is a bare (from, to) endpoint pair, used for topology aggregation
type LinkPair struct {
	FromID uuid.UUID `json:"from_id"`
	ToID   uuid.UUID `json:"to_id"`
}
