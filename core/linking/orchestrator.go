package linking

import (
	"context"
	"log/slog"

	"github.com/siherrmann/linker/model"
)

// LinkResult reports what one linking invocation did
type LinkResult struct {
	LinksCreated int                   `json:"links_created"`
	Strategy     model.LinkingStrategy `json:"strategy"`
	K            int                   `json:"k"`
}

// Orchestrator resolves the configured strategy once per invocation and
// dispatches to the matching linker. Each invocation is one short-lived
// unit of work for a single source item; invocations for different
// items do not coordinate.
type Orchestrator struct {
	source    CandidateSource
	threshold *ThresholdLinker
	mutualKnn *MutualKnnLinker
	logger    *slog.Logger
}

// NewOrchestrator creates a new orchestrator over the given source and
// store. A nil threshold function falls back to DefaultThresholds.
func NewOrchestrator(source CandidateSource, store LinkStore, threshold ThresholdFunc, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		source:    source,
		threshold: NewThresholdLinker(source, store, threshold, logger),
		mutualKnn: NewMutualKnnLinker(source, store, logger),
		logger:    logger,
	}
}

// Link links the source item using the configured strategy. A failure
// retrieving candidates for the source itself is returned to the caller
// for external retry scheduling; per-candidate failures are logged and
// skipped inside the linkers. The threshold strategy has no k, it
// reports K as 0.
func (o *Orchestrator) Link(ctx context.Context, src Source, config model.LinkConfig) (*LinkResult, error) {
	switch config.Strategy {
	case model.StrategyThreshold:
		created, err := o.threshold.Link(ctx, src)
		if err != nil {
			return nil, err
		}
		return &LinkResult{
			LinksCreated: created,
			Strategy:     model.StrategyThreshold,
		}, nil
	default:
		k := config.EffectiveK(o.countEmbedded(ctx))
		created, err := o.mutualKnn.Link(ctx, src, k, config.MinSimilarity)
		if err != nil {
			return nil, err
		}
		return &LinkResult{
			LinksCreated: created,
			Strategy:     model.StrategyMutualKnn,
			K:            k,
		}, nil
	}
}

// countEmbedded resolves the corpus size for adaptive k. A failing
// count falls back to 0, which resolves to the minimum adaptive k.
func (o *Orchestrator) countEmbedded(ctx context.Context) int {
	count, err := o.source.CountEmbedded(ctx)
	if err != nil {
		o.logger.Warn("Counting embedded items failed, using minimum adaptive k", slog.Any("error", err))
		return 0
	}
	return count
}
