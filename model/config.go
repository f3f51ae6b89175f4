package model

import (
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

// LinkingStrategy selects how semantic links are constructed
type LinkingStrategy string

const (
	// StrategyThreshold is the legacy strategy: link every candidate above a
	// content-type-aware similarity threshold, without a degree bound.
	StrategyThreshold LinkingStrategy = "threshold"
	// StrategyMutualKnn links two items only if each appears among the
	// other's k nearest neighbors.
	StrategyMutualKnn LinkingStrategy = "mutual_knn"
)

const (
	// DefaultK is used when the configured k is missing or unparseable
	DefaultK = 7
	// MinK and MaxK bound the fixed k
	MinK = 3
	MaxK = 50
	// AdaptiveMinK and AdaptiveMaxK bound the adaptive k
	AdaptiveMinK = 5
	AdaptiveMaxK = 15
	// DefaultMinSimilarity is the default similarity floor for candidates
	DefaultMinSimilarity = 0.5
)

// LinkConfig is the resolved linking configuration for one invocation.
// It is constructed once per call and passed by parameter, so configuration
// changes take effect on the next invocation without restart or migration.
type LinkConfig struct {
	Strategy      LinkingStrategy `json:"strategy"`
	K             int             `json:"k"`
	AdaptiveK     bool            `json:"adaptive_k"`
	MinSimilarity float64         `json:"min_similarity"`
}

// DefaultLinkConfig returns the configuration used when nothing is set
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		Strategy:      StrategyMutualKnn,
		K:             DefaultK,
		AdaptiveK:     false,
		MinSimilarity: DefaultMinSimilarity,
	}
}

// ParseLinkConfig builds a LinkConfig from raw configuration text.
// Parsing never fails: unrecognized values are corrected to safe defaults
// and reported on the logger at warning level.
// A k of "0" (or "adaptive") enables adaptive k.
func ParseLinkConfig(strategy string, k string, minSimilarity string, logger *slog.Logger) LinkConfig {
	if logger == nil {
		logger = slog.Default()
	}

	config := DefaultLinkConfig()

	switch LinkingStrategy(strings.ToLower(strings.TrimSpace(strategy))) {
	case StrategyThreshold:
		config.Strategy = StrategyThreshold
	case StrategyMutualKnn, "":
		config.Strategy = StrategyMutualKnn
	default:
		logger.Warn("Unrecognized linking strategy, defaulting to mutual_knn", slog.String("strategy", strategy))
	}

	switch kTrimmed := strings.ToLower(strings.TrimSpace(k)); kTrimmed {
	case "":
		// keep the fixed default
	case "0", "adaptive":
		config.AdaptiveK = true
	default:
		kParsed, err := strconv.Atoi(kTrimmed)
		if err != nil {
			logger.Warn("Unparseable k, defaulting", slog.String("k", k), slog.Int("default", DefaultK))
			config.K = DefaultK
		} else if kParsed < MinK {
			logger.Warn("k below minimum, clamping", slog.Int("k", kParsed), slog.Int("min", MinK))
			config.K = MinK
		} else if kParsed > MaxK {
			logger.Warn("k above maximum, clamping", slog.Int("k", kParsed), slog.Int("max", MaxK))
			config.K = MaxK
		} else {
			config.K = kParsed
		}
	}

	if trimmed := strings.TrimSpace(minSimilarity); trimmed != "" {
		minParsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			logger.Warn("Unparseable similarity floor, defaulting", slog.String("min_similarity", minSimilarity), slog.Float64("default", DefaultMinSimilarity))
		} else if minParsed < 0.0 {
			config.MinSimilarity = 0.0
		} else if minParsed > 1.0 {
			config.MinSimilarity = 1.0
		} else {
			config.MinSimilarity = minParsed
		}
	}

	return config
}

// NewLinkConfigFromEnv resolves the linking configuration from the
// LINKER_STRATEGY, LINKER_K and LINKER_MIN_SIMILARITY environment variables.
// All values have safe defaults, see ParseLinkConfig.
func NewLinkConfigFromEnv(logger *slog.Logger) LinkConfig {
	return ParseLinkConfig(
		os.Getenv("LINKER_STRATEGY"),
		os.Getenv("LINKER_K"),
		os.Getenv("LINKER_MIN_SIMILARITY"),
		logger,
	)
}

// EffectiveK returns the k to use for the given corpus size.
// With adaptive k this is floor(log2(nodeCount)) clamped to
// [AdaptiveMinK, AdaptiveMaxK]; otherwise it is the fixed k.
func (c LinkConfig) EffectiveK(nodeCount int) int {
	if !c.AdaptiveK {
		return c.K
	}

	if nodeCount < 1 {
		nodeCount = 1
	}

	k := int(math.Floor(math.Log2(float64(nodeCount))))
	if k < AdaptiveMinK {
		return AdaptiveMinK
	}
	if k > AdaptiveMaxK {
		return AdaptiveMaxK
	}
	return k
}
