package linking

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

// MutualKnnLinker links the source item to a candidate only if both
// appear in each other's k nearest neighbors. One-sided k-NN produces
// hub-dominated graphs because many items independently nominate the
// same popular neighbor; requiring mutual agreement bounds the degree
// added per invocation to k and favors locally dense structure.
type MutualKnnLinker struct {
	source CandidateSource
	store  LinkStore
	logger *slog.Logger
}

// NewMutualKnnLinker creates a new mutual k-NN linker
func NewMutualKnnLinker(source CandidateSource, store LinkStore, logger *slog.Logger) *MutualKnnLinker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MutualKnnLinker{
		source: source,
		store:  store,
		logger: logger,
	}
}

// Link links the source item to its mutual nearest neighbors.
//
// It requests k+1 candidates (the index may return the source itself),
// drops the source and every candidate below minSimilarity, and then
// verifies mutuality per candidate with a reverse lookup. The reverse
// lookups run sequentially so one invocation holds at most one index
// query at a time. If no candidate is mutual but at least one passed
// the floor, a single fallback link to the best candidate keeps the
// item from being silently isolated.
//
// A failing forward lookup is fatal; a failing reverse lookup or a
// concurrently removed candidate vector only skips that candidate.
// It returns the number of link rows actually created.
func (l *MutualKnnLinker) Link(ctx context.Context, src Source, k int, minSimilarity float64) (int, error) {
	candidates, err := l.source.FindSimilar(ctx, src.Embedding, k+1, &src.ID)
	if err != nil {
		return 0, helper.NewError("find candidates", err)
	}

	var passed []*model.Candidate
	for _, candidate := range candidates {
		if candidate.ID == src.ID {
			continue
		}
		if candidate.Score < minSimilarity {
			continue
		}
		passed = append(passed, candidate)
	}

	// Descending score with a stable tie-break on candidate id
	sort.SliceStable(passed, func(i, j int) bool {
		if passed[i].Score != passed[j].Score {
			return passed[i].Score > passed[j].Score
		}
		return strings.Compare(passed[i].ID.String(), passed[j].ID.String()) < 0
	})

	// The k+1 request covers an index that returns the source itself.
	// When it does not, cap at k to keep the degree bound.
	if len(passed) > k {
		passed = passed[:k]
	}

	created := 0
	mutualPairs := 0
	removed := map[uuid.UUID]bool{}
	for _, candidate := range passed {
		vector, err := l.source.GetEmbedding(ctx, candidate.ID)
		if err != nil {
			l.logger.Warn("Skipping candidate, embedding lookup failed",
				slog.String("candidate", candidate.ID.String()),
				slog.Any("error", err),
			)
			continue
		}
		if vector == nil {
			// Removed or re-embedded concurrently
			removed[candidate.ID] = true
			continue
		}

		reverse, err := l.source.FindSimilar(ctx, vector, k+1, &candidate.ID)
		if err != nil {
			l.logger.Warn("Skipping candidate, reverse lookup failed",
				slog.String("candidate", candidate.ID.String()),
				slog.Any("error", err),
			)
			continue
		}

		mutual := false
		for _, neighbor := range reverse {
			if neighbor.ID == src.ID {
				mutual = true
				break
			}
		}
		if !mutual {
			continue
		}

		metadata := model.Metadata{
			"strategy":      "mutual_knn",
			"k":             k,
			"forward_score": candidate.Score,
		}
		count, err := l.store.CreateReciprocalLink(ctx, src.ID, candidate.ID, model.LinkKindSemantic, candidate.Score, metadata)
		if err != nil {
			return created, helper.NewError("create link", err)
		}
		mutualPairs++
		created += count
	}

	if mutualPairs == 0 {
		// Best candidate that passed the floor and still exists
		var best *model.Candidate
		for _, candidate := range passed {
			if !removed[candidate.ID] {
				best = candidate
				break
			}
		}

		if best != nil {
			metadata := model.Metadata{
				"strategy": "fallback_best",
				"reason":   "no_mutual_neighbors",
			}
			count, err := l.store.CreateReciprocalLink(ctx, src.ID, best.ID, model.LinkKindSemantic, best.Score, metadata)
			if err != nil {
				return created, helper.NewError("create fallback link", err)
			}
			created += count

			l.logger.Info("No mutual neighbors, created fallback link",
				slog.String("item", src.ID.String()),
				slog.String("candidate", best.ID.String()),
				slog.Float64("score", best.Score),
			)
		}
	}

	l.logger.Debug("Mutual k-NN linking done",
		slog.String("item", src.ID.String()),
		slog.Int("k", k),
		slog.Int("mutual_pairs", mutualPairs),
		slog.Int("links_created", created),
	)

	return created, nil
}
