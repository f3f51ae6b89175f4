package graph

import (
	"context"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/model"
)

// GraphDB defines the read surface for traversing the link graph
type GraphDB interface {
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	GetLinksFromItem(ctx context.Context, itemID uuid.UUID, kind *model.LinkKind) ([]*model.Link, error)
}

// TraversalResult contains an item and its distance from the source
type TraversalResult struct {
	Item     *model.Item
	Distance int
	Path     []uuid.UUID // Path from source to this item
}

// BFS performs breadth-first search from a source item.
// Links written by the mutual k-NN strategy are reciprocal, so
// following outgoing links is enough to walk the semantic graph in
// both directions.
func BFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, kind *model.LinkKind) ([]*TraversalResult, error) {
	visited := make(map[uuid.UUID]bool)
	queue := []TraversalResult{{
		Item:     nil,
		Distance: 0,
		Path:     []uuid.UUID{sourceID},
	}}

	// Get source item
	sourceItem, err := db.GetItem(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	queue[0].Item = sourceItem

	var results []*TraversalResult
	visited[sourceID] = true

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		// Stop if we've reached max hops
		if current.Distance >= maxHops {
			continue
		}

		// Get links from current item
		links, err := db.GetLinksFromItem(ctx, current.Item.ID, kind)
		if err != nil {
			return nil, err
		}

		for _, link := range links {
			targetID := link.ToID

			// Skip if already visited
			if visited[targetID] {
				continue
			}

			// Get target item
			targetItem, err := db.GetItem(ctx, targetID)
			if err != nil {
				continue // Skip if item not found
			}

			visited[targetID] = true

			// Create new path
			newPath := make([]uuid.UUID, len(current.Path))
			copy(newPath, current.Path)
			newPath = append(newPath, targetID)

			queue = append(queue, TraversalResult{
				Item:     targetItem,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results, nil
}

// DFS performs depth-first search from a source item
func DFS(ctx context.Context, db GraphDB, sourceID uuid.UUID, maxHops int, kind *model.LinkKind) ([]*TraversalResult, error) {
	visited := make(map[uuid.UUID]bool)
	var results []*TraversalResult

	// Get source item
	sourceItem, err := db.GetItem(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	// Start recursive DFS
	dfsRecursive(ctx, db, sourceItem, 0, maxHops, []uuid.UUID{sourceID}, kind, visited, &results)

	return results, nil
}

// dfsRecursive is the recursive helper for DFS
func dfsRecursive(
	ctx context.Context,
	db GraphDB,
	current *model.Item,
	distance int,
	maxHops int,
	path []uuid.UUID,
	kind *model.LinkKind,
	visited map[uuid.UUID]bool,
	results *[]*TraversalResult,
) {
	// Mark as visited
	visited[current.ID] = true

	// Add to results
	pathCopy := make([]uuid.UUID, len(path))
	copy(pathCopy, path)
	*results = append(*results, &TraversalResult{
		Item:     current,
		Distance: distance,
		Path:     pathCopy,
	})

	// Stop if we've reached max hops
	if distance >= maxHops {
		return
	}

	// Get links from current item
	links, err := db.GetLinksFromItem(ctx, current.ID, kind)
	if err != nil {
		return
	}

	for _, link := range links {
		targetID := link.ToID

		// Skip if already visited
		if visited[targetID] {
			continue
		}

		// Get target item
		targetItem, err := db.GetItem(ctx, targetID)
		if err != nil {
			continue // Skip if item not found
		}

		// Create new path
		newPath := make([]uuid.UUID, len(path))
		copy(newPath, path)
		newPath = append(newPath, targetID)

		// Recurse
		dfsRecursive(ctx, db, targetItem, distance+1, maxHops, newPath, kind, visited, results)
	}
}

// GetNeighbors retrieves immediate neighbors (1-hop) of an item
func GetNeighbors(ctx context.Context, db GraphDB, itemID uuid.UUID, kind *model.LinkKind) ([]*model.Item, error) {
	results, err := BFS(ctx, db, itemID, 1, kind)
	if err != nil {
		return nil, err
	}

	// Skip the source item itself (first result)
	neighbors := make([]*model.Item, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		neighbors = append(neighbors, results[i].Item)
	}

	return neighbors, nil
}
