package linking

import (
	"context"
	"log/slog"

	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

// thresholdCandidateLimit is the fixed candidate count of the legacy strategy
const thresholdCandidateLimit = 10

// ThresholdFunc returns the similarity floor for a content type
type ThresholdFunc func(contentType string) float64

// DefaultThresholds is the default content-type-aware similarity floor.
// Code-like items need a stricter floor than prose because boilerplate
// makes unrelated code score high.
func DefaultThresholds(contentType string) float64 {
	switch contentType {
	case "code", "source_code":
		return 0.85
	default:
		return 0.75
	}
}

// ThresholdLinker is the legacy linking strategy: it links the source to
// every candidate scoring above the content-type threshold, in both
// directions, without a mutuality check or degree bound. Retained for
// backward compatibility, superseded by MutualKnnLinker.
type ThresholdLinker struct {
	source    CandidateSource
	store     LinkStore
	threshold ThresholdFunc
	logger    *slog.Logger
}

// NewThresholdLinker creates a new threshold linker. A nil threshold
// function falls back to DefaultThresholds.
func NewThresholdLinker(source CandidateSource, store LinkStore, threshold ThresholdFunc, logger *slog.Logger) *ThresholdLinker {
	if threshold == nil {
		threshold = DefaultThresholds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThresholdLinker{
		source:    source,
		store:     store,
		threshold: threshold,
		logger:    logger,
	}
}

// Link links the source item to all candidates above the threshold.
// It returns the number of link rows actually created.
func (l *ThresholdLinker) Link(ctx context.Context, src Source) (int, error) {
	candidates, err := l.source.FindSimilar(ctx, src.Embedding, thresholdCandidateLimit, &src.ID)
	if err != nil {
		return 0, helper.NewError("find candidates", err)
	}

	floor := l.threshold(src.ContentType)

	created := 0
	for _, candidate := range candidates {
		if candidate.ID == src.ID {
			continue
		}
		if candidate.Score < floor {
			continue
		}

		count, err := l.store.CreateReciprocalLink(ctx, src.ID, candidate.ID, model.LinkKindSemantic, candidate.Score, nil)
		if err != nil {
			return created, helper.NewError("create link", err)
		}
		created += count
	}

	l.logger.Debug("Threshold linking done",
		slog.String("item", src.ID.String()),
		slog.Float64("threshold", floor),
		slog.Int("links_created", created),
	)

	return created, nil
}
