package linking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
)

// fakeSource serves canned neighbor lists keyed by the item a lookup
// runs for (the excluded id), which is the source on forward lookups
// and the candidate on reverse lookups.
type fakeSource struct {
	neighbors       map[uuid.UUID][]*model.Candidate
	embeddings      map[uuid.UUID][]float32
	embeddedCount   int
	countErr        error
	findErrFor      map[uuid.UUID]error
	embeddingErrFor map[uuid.UUID]error
	findCalls       int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		neighbors:       map[uuid.UUID][]*model.Candidate{},
		embeddings:      map[uuid.UUID][]float32{},
		findErrFor:      map[uuid.UUID]error{},
		embeddingErrFor: map[uuid.UUID]error{},
	}
}

func (s *fakeSource) FindSimilar(ctx context.Context, embedding []float32, limit int, excludeID *uuid.UUID) ([]*model.Candidate, error) {
	s.findCalls++

	if excludeID == nil {
		return nil, fmt.Errorf("fake source expects an exclusion id")
	}
	if err, ok := s.findErrFor[*excludeID]; ok {
		return nil, err
	}

	candidates := s.neighbors[*excludeID]
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func (s *fakeSource) GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error) {
	if err, ok := s.embeddingErrFor[id]; ok {
		return nil, err
	}
	return s.embeddings[id], nil
}

func (s *fakeSource) CountEmbedded(ctx context.Context) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	return s.embeddedCount, nil
}

type storedLink struct {
	From     uuid.UUID
	To       uuid.UUID
	Kind     model.LinkKind
	Score    float64
	Metadata model.Metadata
}

// fakeStore keeps links in memory with the same idempotence semantics
// as the database handler.
type fakeStore struct {
	links map[string]*storedLink
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{links: map[string]*storedLink{}}
}

func (s *fakeStore) CreateLink(ctx context.Context, from uuid.UUID, to uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (bool, error) {
	if s.err != nil {
		return false, s.err
	}

	key := fmt.Sprintf("%s|%s|%s", from, to, kind)
	if _, exists := s.links[key]; exists {
		return false, nil
	}

	s.links[key] = &storedLink{
		From:     from,
		To:       to,
		Kind:     kind,
		Score:    score,
		Metadata: metadata,
	}
	return true, nil
}

func (s *fakeStore) CreateReciprocalLink(ctx context.Context, a uuid.UUID, b uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (int, error) {
	created := 0

	inserted, err := s.CreateLink(ctx, a, b, kind, score, metadata)
	if err != nil {
		return created, err
	}
	if inserted {
		created++
	}

	inserted, err = s.CreateLink(ctx, b, a, kind, score, metadata)
	if err != nil {
		return created, err
	}
	if inserted {
		created++
	}

	return created, nil
}

func (s *fakeStore) get(from uuid.UUID, to uuid.UUID, kind model.LinkKind) *storedLink {
	return s.links[fmt.Sprintf("%s|%s|%s", from, to, kind)]
}

// degree returns the number of distinct neighbors of an item
func (s *fakeStore) degree(id uuid.UUID) int {
	neighbors := map[uuid.UUID]bool{}
	for _, link := range s.links {
		if link.From == id {
			neighbors[link.To] = true
		}
		if link.To == id {
			neighbors[link.From] = true
		}
	}
	return len(neighbors)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
