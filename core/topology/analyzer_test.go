package topology

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	pairs    []*model.LinkPair
	embedded int
	pairsErr error
	countErr error
}

func (r *fakeReader) SemanticAdjacency(ctx context.Context) ([]*model.LinkPair, error) {
	if r.pairsErr != nil {
		return nil, r.pairsErr
	}
	return r.pairs, nil
}

func (r *fakeReader) CountEmbedded(ctx context.Context) (int, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.embedded, nil
}

// reciprocal appends both directions of an undirected edge
func reciprocal(pairs []*model.LinkPair, a uuid.UUID, b uuid.UUID) []*model.LinkPair {
	return append(pairs,
		&model.LinkPair{FromID: a, ToID: b},
		&model.LinkPair{FromID: b, ToID: a},
	)
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestAnalyzerStats(t *testing.T) {
	ctx := context.Background()
	config := model.DefaultLinkConfig()

	t.Run("Empty graph is all zeros", func(t *testing.T) {
		analyzer := NewAnalyzer(&fakeReader{}, testLogger())

		stats, err := analyzer.Stats(ctx, config)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalNodes)
		assert.Zero(t, stats.TotalLinks)
		assert.Zero(t, stats.AvgDegree)
		assert.Zero(t, stats.DegreeStdDev)
		assert.Zero(t, stats.MaxDegree)
		assert.Zero(t, stats.IsolatedNodes)
		assert.Zero(t, stats.ClusteringCoefficient)
		assert.Equal(t, model.StrategyMutualKnn, stats.Strategy)
	})

	t.Run("Triangle", func(t *testing.T) {
		a, b, c := uuid.New(), uuid.New(), uuid.New()
		var pairs []*model.LinkPair
		pairs = reciprocal(pairs, a, b)
		pairs = reciprocal(pairs, b, c)
		pairs = reciprocal(pairs, c, a)

		analyzer := NewAnalyzer(&fakeReader{pairs: pairs, embedded: 3}, testLogger())

		stats, err := analyzer.Stats(ctx, config)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalNodes)
		assert.Equal(t, 3, stats.TotalLinks, "Expected reciprocal pairs to collapse to undirected edges")
		assert.Equal(t, 2.0, stats.AvgDegree)
		assert.Zero(t, stats.DegreeStdDev)
		assert.Equal(t, 2, stats.MaxDegree)
		assert.Zero(t, stats.IsolatedNodes)
		assert.Equal(t, 1.0, stats.ClusteringCoefficient, "Expected a triangle to be fully clustered")
	})

	t.Run("Star has no clustering", func(t *testing.T) {
		hub := uuid.New()
		var pairs []*model.LinkPair
		for i := 0; i < 4; i++ {
			pairs = reciprocal(pairs, hub, uuid.New())
		}

		analyzer := NewAnalyzer(&fakeReader{pairs: pairs, embedded: 5}, testLogger())

		stats, err := analyzer.Stats(ctx, config)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TotalNodes)
		assert.Equal(t, 4, stats.TotalLinks)
		assert.Equal(t, 4, stats.MaxDegree)
		assert.Zero(t, stats.IsolatedNodes)
		assert.Zero(t, stats.ClusteringCoefficient, "Expected no closed triangles in a star")
	})

	t.Run("Isolated nodes are embedded items without links", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		pairs := reciprocal(nil, a, b)

		// 5 embedded items, only 2 linked
		analyzer := NewAnalyzer(&fakeReader{pairs: pairs, embedded: 5}, testLogger())

		stats, err := analyzer.Stats(ctx, config)
		require.NoError(t, err)
		assert.Equal(t, 5, stats.TotalNodes)
		assert.Equal(t, 1, stats.TotalLinks)
		assert.Equal(t, 3, stats.IsolatedNodes)
		assert.InDelta(t, 0.4, stats.AvgDegree, 1e-9)
	})

	t.Run("Self links are ignored", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		pairs := reciprocal(nil, a, b)
		pairs = append(pairs, &model.LinkPair{FromID: a, ToID: a})

		analyzer := NewAnalyzer(&fakeReader{pairs: pairs, embedded: 2}, testLogger())

		stats, err := analyzer.Stats(ctx, config)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalLinks)
		assert.Equal(t, 1, stats.MaxDegree)
	})

	t.Run("Degree standard deviation", func(t *testing.T) {
		// Path a - b - c: degrees 1, 2, 1
		a, b, c := uuid.New(), uuid.New(), uuid.New()
		var pairs []*model.LinkPair
		pairs = reciprocal(pairs, a, b)
		pairs = reciprocal(pairs, b, c)

		analyzer := NewAnalyzer(&fakeReader{pairs: pairs, embedded: 3}, testLogger())

		stats, err := analyzer.Stats(ctx, config)
		require.NoError(t, err)
		assert.InDelta(t, 4.0/3.0, stats.AvgDegree, 1e-9)
		assert.InDelta(t, 0.4714045207910317, stats.DegreeStdDev, 1e-9)
	})

	t.Run("Adaptive k is resolved against the corpus size", func(t *testing.T) {
		a, b := uuid.New(), uuid.New()
		pairs := reciprocal(nil, a, b)

		adaptive := model.DefaultLinkConfig()
		adaptive.AdaptiveK = true

		analyzer := NewAnalyzer(&fakeReader{pairs: pairs, embedded: 1024}, testLogger())

		stats, err := analyzer.Stats(ctx, adaptive)
		require.NoError(t, err)
		assert.True(t, stats.AdaptiveK)
		assert.Equal(t, 10, stats.K)
	})

	t.Run("Clustering sample is bounded", func(t *testing.T) {
		// Many disjoint triangles, all perfectly clustered, so the
		// estimate is exact regardless of which nodes get sampled.
		var pairs []*model.LinkPair
		nodeCount := 0
		for i := 0; i < 40; i++ {
			a, b, c := uuid.New(), uuid.New(), uuid.New()
			pairs = reciprocal(pairs, a, b)
			pairs = reciprocal(pairs, b, c)
			pairs = reciprocal(pairs, c, a)
			nodeCount += 3
		}

		analyzer := NewAnalyzer(&fakeReader{pairs: pairs, embedded: nodeCount}, testLogger())
		analyzer.SampleSize = 10
		analyzer.Rand = rand.New(rand.NewSource(42))

		stats, err := analyzer.Stats(ctx, config)
		require.NoError(t, err)
		assert.Equal(t, 1.0, stats.ClusteringCoefficient)
	})

	t.Run("Reader failures propagate", func(t *testing.T) {
		analyzer := NewAnalyzer(&fakeReader{pairsErr: fmt.Errorf("unavailable")}, testLogger())
		_, err := analyzer.Stats(ctx, config)
		assert.Error(t, err)

		analyzer = NewAnalyzer(&fakeReader{countErr: fmt.Errorf("unavailable")}, testLogger())
		_, err = analyzer.Stats(ctx, config)
		assert.Error(t, err)
	})
}
