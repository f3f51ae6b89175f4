package linker

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/core/graph"
	"github.com/siherrmann/linker/core/linking"
	"github.com/siherrmann/linker/core/pipeline"
	"github.com/siherrmann/linker/core/topology"
	"github.com/siherrmann/linker/database"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
	loadSql "github.com/siherrmann/linker/sql"
)

// Linker provides a unified interface to the item store, the link
// construction strategies and the topology analyzer
type Linker struct {
	DB           *helper.Database
	Items        *database.ItemsDBHandler
	Links        *database.LinksDBHandler
	Orchestrator *linking.Orchestrator
	Analyzer     *topology.Analyzer
	Embedder     pipeline.EmbedFunc // Optional embedding pipeline
	Config       model.LinkConfig
	// Logging
	log *slog.Logger
}

// NewLinker creates a new Linker instance with all handlers initialized.
// The linking configuration is resolved from the LINKER_STRATEGY,
// LINKER_K and LINKER_MIN_SIMILARITY environment variables; invalid
// values fall back to safe defaults with a logged warning.
func NewLinker(config *helper.DatabaseConfiguration, embeddingDim int) (*Linker, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("linker", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create handlers in the correct order (items first, links reference items)
	// force=false to not reload if functions already exist
	items, err := database.NewItemsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create items handler", err)
	}

	links, err := database.NewLinksDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create links handler", err)
	}

	source := &dbCandidateSource{items: items}
	store := &dbLinkStore{links: links}

	return &Linker{
		DB:           db,
		Items:        items,
		Links:        links,
		Orchestrator: linking.NewOrchestrator(source, store, nil, logger),
		Analyzer:     topology.NewAnalyzer(&dbGraphReader{items: items, links: links}, logger),
		Config:       model.NewLinkConfigFromEnv(logger),
		log:          logger,
	}, nil
}

// Close closes the database connection
func (l *Linker) Close() error {
	return l.DB.Close()
}

// SetEmbedder sets the embedding function for item processing
func (l *Linker) SetEmbedder(embedder pipeline.EmbedFunc) {
	l.Embedder = embedder
}

// UseDefaultEmbedder sets up the default embedding pipeline with the
// all-MiniLM-L6-v2 model (384 dimensions)
func (l *Linker) UseDefaultEmbedder() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	l.Embedder = embedder
	return nil
}

// InsertItem inserts an item with a caller-provided embedding
func (l *Linker) InsertItem(item *model.Item) error {
	return l.Items.InsertItem(item)
}

// EmbedAndInsertItem embeds the given content and inserts it as a new
// item. The content itself is not stored, only its vector.
func (l *Linker) EmbedAndInsertItem(content string, contentType string, metadata model.Metadata) (*model.Item, error) {
	if l.Embedder == nil {
		return nil, helper.NewError("embed item", fmt.Errorf("embedder not set, use SetEmbedder() first"))
	}
	if content == "" {
		return nil, helper.NewError("embed item", fmt.Errorf("content is empty"))
	}

	embedding, err := l.Embedder(content)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	item := &model.Item{
		ContentType: contentType,
		Embedding:   embedding,
		Metadata:    metadata,
	}
	err = l.Items.InsertItem(item)
	if err != nil {
		return nil, helper.NewError("insert item", err)
	}

	l.log.Info("Embedded and inserted item", slog.String("item_id", item.ID.String()), slog.String("content_type", contentType))

	return item, nil
}

// LinkItem links an item into the semantic graph using the configured
// strategy. This is the entry point an embedding-completed event calls.
func (l *Linker) LinkItem(ctx context.Context, id uuid.UUID) (*linking.LinkResult, error) {
	return l.LinkItemWithConfig(ctx, id, l.Config)
}

// LinkItemWithConfig links an item using an explicit configuration
func (l *Linker) LinkItemWithConfig(ctx context.Context, id uuid.UUID, config model.LinkConfig) (*linking.LinkResult, error) {
	item, err := l.Items.SelectItem(id)
	if err != nil {
		return nil, helper.NewError("select item", err)
	}
	if item.Embedding == nil {
		return nil, helper.NewError("link item", fmt.Errorf("item %s has no embedding", id))
	}

	result, err := l.Orchestrator.Link(ctx, linking.Source{
		ID:          item.ID,
		ContentType: item.ContentType,
		Embedding:   item.Embedding,
	}, config)
	if err != nil {
		return nil, helper.NewError("link item", err)
	}

	l.log.Info("Linked item",
		slog.String("item_id", id.String()),
		slog.String("strategy", string(result.Strategy)),
		slog.Int("links_created", result.LinksCreated),
	)

	return result, nil
}

// TopologyStats computes a fresh snapshot of the semantic graph topology
func (l *Linker) TopologyStats(ctx context.Context) (*model.TopologyStats, error) {
	return l.Analyzer.Stats(ctx, l.Config)
}

// Neighbors returns all links connected to an item in either direction
func (l *Linker) Neighbors(ctx context.Context, id uuid.UUID, kind *model.LinkKind) ([]*model.LinkConnection, error) {
	return l.Links.SelectLinksConnectedToItem(id, kind)
}

// DeleteItem deletes an item and all links connected to it
func (l *Linker) DeleteItem(id uuid.UUID) error {
	err := l.Links.DeleteLinksForItem(id)
	if err != nil {
		return helper.NewError("delete links", err)
	}

	err = l.Items.DeleteItem(id)
	if err != nil {
		return helper.NewError("delete item", err)
	}

	return nil
}

// BFSTraversal performs breadth-first search over the link graph
func (l *Linker) BFSTraversal(ctx context.Context, sourceID uuid.UUID, maxHops int, kind *model.LinkKind) ([]*graph.TraversalResult, error) {
	return graph.BFS(ctx, &dbGraphDB{items: l.Items, links: l.Links}, sourceID, maxHops, kind)
}

// DFSTraversal performs depth-first search over the link graph
func (l *Linker) DFSTraversal(ctx context.Context, sourceID uuid.UUID, maxHops int, kind *model.LinkKind) ([]*graph.TraversalResult, error) {
	return graph.DFS(ctx, &dbGraphDB{items: l.Items, links: l.Links}, sourceID, maxHops, kind)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (l *Linker) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return l.Items.ChangeIndexType(ctx, indexType, params)
}

// dbCandidateSource adapts the items handler to the linking core
type dbCandidateSource struct {
	items *database.ItemsDBHandler
}

func (s *dbCandidateSource) FindSimilar(ctx context.Context, embedding []float32, limit int, excludeID *uuid.UUID) ([]*model.Candidate, error) {
	return s.items.SelectSimilarItems(embedding, limit, excludeID)
}

func (s *dbCandidateSource) GetEmbedding(ctx context.Context, id uuid.UUID) ([]float32, error) {
	return s.items.SelectItemEmbedding(id)
}

func (s *dbCandidateSource) CountEmbedded(ctx context.Context) (int, error) {
	return s.items.CountEmbeddedItems()
}

// dbLinkStore adapts the links handler to the linking core
type dbLinkStore struct {
	links *database.LinksDBHandler
}

func (s *dbLinkStore) CreateLink(ctx context.Context, from uuid.UUID, to uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (bool, error) {
	return s.links.InsertLink(&model.Link{
		FromID:   from,
		ToID:     to,
		Kind:     kind,
		Score:    score,
		Metadata: metadata,
	})
}

func (s *dbLinkStore) CreateReciprocalLink(ctx context.Context, a uuid.UUID, b uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (int, error) {
	return s.links.InsertReciprocalLink(a, b, kind, score, metadata)
}

// dbGraphReader adapts the handlers to the topology analyzer
type dbGraphReader struct {
	items *database.ItemsDBHandler
	links *database.LinksDBHandler
}

func (r *dbGraphReader) SemanticAdjacency(ctx context.Context) ([]*model.LinkPair, error) {
	return r.links.SelectSemanticAdjacency()
}

func (r *dbGraphReader) CountEmbedded(ctx context.Context) (int, error) {
	return r.items.CountEmbeddedItems()
}

// dbGraphDB adapts the handlers to the traversal functions
type dbGraphDB struct {
	items *database.ItemsDBHandler
	links *database.LinksDBHandler
}

func (d *dbGraphDB) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	return d.items.SelectItem(id)
}

func (d *dbGraphDB) GetLinksFromItem(ctx context.Context, itemID uuid.UUID, kind *model.LinkKind) ([]*model.Link, error) {
	return d.links.SelectLinksFromItem(itemID, kind)
}
