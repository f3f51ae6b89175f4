package topology

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

// DefaultSampleSize bounds the clustering coefficient sample. The bound
// keeps the cost near-linear in sample size instead of quadratic in
// corpus size, trading statistical precision for predictable latency.
const DefaultSampleSize = 500

// GraphReader is the read surface the analyzer works against
type GraphReader interface {
	// SemanticAdjacency returns the distinct directed endpoint pairs of
	// the semantic subgraph.
	SemanticAdjacency(ctx context.Context) ([]*model.LinkPair, error)
	// CountEmbedded returns the number of items that currently have an
	// embedding.
	CountEmbedded(ctx context.Context) (int, error)
}

// Analyzer computes topology statistics over the persisted semantic
// link graph. Degree aggregates are exact, the clustering coefficient
// is sampled.
type Analyzer struct {
	reader GraphReader
	logger *slog.Logger
	// SampleSize bounds the clustering coefficient sample
	SampleSize int
	// Rand drives the node sampling. Tests inject a seeded source.
	Rand *rand.Rand
}

// NewAnalyzer creates a new topology analyzer
func NewAnalyzer(reader GraphReader, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		reader:     reader,
		logger:     logger,
		SampleSize: DefaultSampleSize,
	}
}

// Stats computes a fresh snapshot of the semantic graph topology.
// Reciprocal link pairs collapse to one undirected edge, self-links are
// ignored. Nodes are all embedded items, so items without any link
// count as isolated. On an empty graph all numeric fields are zero.
func (a *Analyzer) Stats(ctx context.Context, config model.LinkConfig) (*model.TopologyStats, error) {
	pairs, err := a.reader.SemanticAdjacency(ctx)
	if err != nil {
		return nil, helper.NewError("read adjacency", err)
	}

	totalNodes, err := a.reader.CountEmbedded(ctx)
	if err != nil {
		return nil, helper.NewError("count nodes", err)
	}

	adjacency := map[uuid.UUID]map[uuid.UUID]bool{}
	for _, pair := range pairs {
		if pair.FromID == pair.ToID {
			continue
		}
		if adjacency[pair.FromID] == nil {
			adjacency[pair.FromID] = map[uuid.UUID]bool{}
		}
		if adjacency[pair.ToID] == nil {
			adjacency[pair.ToID] = map[uuid.UUID]bool{}
		}
		adjacency[pair.FromID][pair.ToID] = true
		adjacency[pair.ToID][pair.FromID] = true
	}

	// Linked nodes missing from the embedded count can happen while an
	// item is deleted concurrently
	if totalNodes < len(adjacency) {
		totalNodes = len(adjacency)
	}

	stats := &model.TopologyStats{
		TotalNodes: totalNodes,
		Strategy:   config.Strategy,
		K:          config.K,
		AdaptiveK:  config.AdaptiveK,
	}
	if config.AdaptiveK {
		stats.K = config.EffectiveK(totalNodes)
	}

	if totalNodes == 0 {
		return stats, nil
	}

	degreeSum := 0
	for _, neighbors := range adjacency {
		degree := len(neighbors)
		degreeSum += degree
		if degree > stats.MaxDegree {
			stats.MaxDegree = degree
		}
	}

	stats.TotalLinks = degreeSum / 2
	stats.IsolatedNodes = totalNodes - len(adjacency)
	stats.AvgDegree = float64(degreeSum) / float64(totalNodes)

	// Isolated nodes contribute degree 0 to the variance
	variance := 0.0
	for _, neighbors := range adjacency {
		diff := float64(len(neighbors)) - stats.AvgDegree
		variance += diff * diff
	}
	variance += float64(stats.IsolatedNodes) * stats.AvgDegree * stats.AvgDegree
	stats.DegreeStdDev = math.Sqrt(variance / float64(totalNodes))

	stats.ClusteringCoefficient = a.sampleClustering(adjacency)

	a.logger.Debug("Computed topology stats",
		slog.Int("total_nodes", stats.TotalNodes),
		slog.Int("total_links", stats.TotalLinks),
		slog.Int("isolated_nodes", stats.IsolatedNodes),
	)

	return stats, nil
}

// sampleClustering estimates the mean local clustering coefficient over
// a bounded random sample of nodes with degree >= 2
func (a *Analyzer) sampleClustering(adjacency map[uuid.UUID]map[uuid.UUID]bool) float64 {
	var eligible []uuid.UUID
	for id, neighbors := range adjacency {
		if len(neighbors) >= 2 {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return 0.0
	}

	// Sort before shuffling so the sample only depends on the seed
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].String() < eligible[j].String()
	})

	sampleSize := a.SampleSize
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}

	if len(eligible) > sampleSize {
		shuffle := func(i, j int) { eligible[i], eligible[j] = eligible[j], eligible[i] }
		if a.Rand != nil {
			a.Rand.Shuffle(len(eligible), shuffle)
		} else {
			rand.Shuffle(len(eligible), shuffle)
		}
		eligible = eligible[:sampleSize]
	}

	sum := 0.0
	for _, id := range eligible {
		neighbors := make([]uuid.UUID, 0, len(adjacency[id]))
		for neighbor := range adjacency[id] {
			neighbors = append(neighbors, neighbor)
		}

		closed := 0
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				if adjacency[neighbors[i]][neighbors[j]] {
					closed++
				}
			}
		}

		possible := len(neighbors) * (len(neighbors) - 1) / 2
		sum += float64(closed) / float64(possible)
	}

	return sum / float64(len(eligible))
}
