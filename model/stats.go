package model

// TopologyStats is a derived snapshot of the semantic link graph's health.
// It is recomputed on every request and never persisted.
//
// ClusteringCoefficient is an estimate: it is computed over a bounded
// random sample of nodes with degree >= 2, not over the full graph.
type TopologyStats struct {
	TotalNodes            int             `json:"total_nodes"`
	TotalLinks            int             `json:"total_links"`
	AvgDegree             float64         `json:"avg_degree"`
	DegreeStdDev          float64         `json:"degree_std_dev"`
	MaxDegree             int             `json:"max_degree"`
	IsolatedNodes         int             `json:"isolated_nodes"`
	ClusteringCoefficient float64         `json:"clustering_coefficient"`
	Strategy              LinkingStrategy `json:"strategy"`
	K                     int             `json:"k"`
	AdaptiveK             bool            `json:"adaptive_k"`
}
