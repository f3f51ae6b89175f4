package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/linker"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
)

var sampleItems = []struct {
	content     string
	contentType string
	topic       string
}{
	{
		content:     "Vector similarity search finds the nearest neighbors of an embedding using a distance metric like cosine similarity.",
		contentType: "text",
		topic:       "search",
	},
	{
		content:     "Approximate nearest neighbor indexes such as HNSW trade exact results for much faster similarity lookups.",
		contentType: "text",
		topic:       "search",
	},
	{
		content:     "pgvector adds a vector column type and similarity operators to PostgreSQL.",
		contentType: "text",
		topic:       "search",
	},
	{
		content:     "func main() {\n\tfmt.Println(\"hello world\")\n}",
		contentType: "code",
		topic:       "example",
	},
	{
		content:     "Sourdough bread needs a mature starter, patience and a hot oven.",
		contentType: "text",
		topic:       "baking",
	},
}

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "linker_test",
		Username: "postgres",
		Password: "postgres",
		Schema:   "public",
		SSLMode:  "disable",
	}

	l, err := linker.NewLinker(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create linker: %v", err)
	}
	defer l.Close()

	// Set up the default embedder (all-MiniLM-L6-v2 via hugot)
	if err := l.UseDefaultEmbedder(); err != nil {
		log.Fatalf("Failed to set up embedder: %v", err)
	}

	ctx := context.Background()

	// Embed and insert all sample items
	fmt.Println("Ingesting items...")
	items := make([]*model.Item, 0, len(sampleItems))
	for _, sample := range sampleItems {
		item, err := l.EmbedAndInsertItem(sample.content, sample.contentType, model.Metadata{
			"topic": sample.topic,
		})
		if err != nil {
			log.Fatalf("Failed to insert item: %v", err)
		}
		items = append(items, item)
		fmt.Printf("Inserted item %s (%s)\n", item.ID, sample.topic)
	}

	// Build semantic links for every item
	fmt.Println("\nLinking items...")
	for _, item := range items {
		result, err := l.LinkItem(ctx, item.ID)
		if err != nil {
			log.Fatalf("Failed to link item %s: %v", item.ID, err)
		}
		fmt.Printf("Item %s: %d links created (strategy %s, k=%d)\n",
			item.ID, result.LinksCreated, result.Strategy, result.K)
	}

	// Inspect the neighbors of the first item
	fmt.Println("\nNeighbors of the first item:")
	connections, err := l.Neighbors(ctx, items[0].ID, nil)
	if err != nil {
		log.Fatalf("Failed to query neighbors: %v", err)
	}
	for _, connection := range connections {
		if connection.IsOutgoing {
			fmt.Printf("-> %s (score %.3f)\n", connection.Link.ToID, connection.Link.Score)
		}
	}

	// Walk the graph starting from the first item
	fmt.Println("\nTraversal from the first item (2 hops):")
	results, err := l.BFSTraversal(ctx, items[0].ID, 2, nil)
	if err != nil {
		log.Fatalf("Failed to traverse graph: %v", err)
	}
	for _, result := range results {
		fmt.Printf("Distance %d: %s\n", result.Distance, result.Item.ID)
	}

	// Summarize the resulting link graph
	stats, err := l.TopologyStats(ctx)
	if err != nil {
		log.Fatalf("Failed to compute topology stats: %v", err)
	}
	fmt.Printf("\nTopology: %d nodes, %d links, %d isolated, avg degree %.2f, clustering %.2f\n",
		stats.TotalNodes, stats.TotalLinks, stats.IsolatedNodes, stats.AvgDegree, stats.ClusteringCoefficient)
}
