package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
	loadSql "github.com/siherrmann/linker/sql"
)

// ItemsDBHandlerFunctions defines the interface for Items database operations.
type ItemsDBHandlerFunctions interface {
	InsertItem(item *model.Item) error
	SelectItem(id uuid.UUID) (*model.Item, error)
	SelectItemEmbedding(id uuid.UUID) ([]float32, error)
	UpdateItemEmbedding(item *model.Item) error
	SelectSimilarItems(embedding []float32, limit int, excludeID *uuid.UUID) ([]*model.Candidate, error)
	CountEmbeddedItems() (int, error)
	DeleteItem(id uuid.UUID) error
}

// ItemsDBHandler handles item-related database operations
type ItemsDBHandler struct {
	db *helper.Database
}

// NewItemsDBHandler creates a new items database handler.
// It initializes the database connection and loads item-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewItemsDBHandler(db *helper.Database, embeddingDim int, force bool) (*ItemsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	itemsDbHandler := &ItemsDBHandler{
		db: db,
	}

	err := loadSql.LoadItemsSql(itemsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load items sql", err)
	}

	err = itemsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ItemsDBHandler")

	return itemsDbHandler, nil
}

// CreateTable creates the 'items' table in the database.
// If the table already exists, it does not create it again.
// It also creates the vector index and all other necessary indexes.
func (h *ItemsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_items($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing items table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table items")

	return nil
}

// InsertItem inserts a new item
func (h *ItemsDBHandler) InsertItem(item *model.Item) error {
	var idParam interface{}
	if item.ID != uuid.Nil {
		idParam = item.ID
	}

	var embeddingParam interface{}
	if item.Embedding != nil {
		embeddingParam = pgvector.NewVector(item.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_item($1, $2, $3, $4)`,
		idParam,
		item.ContentType,
		embeddingParam,
		item.Metadata,
	)

	var embedding sql.NullString
	err := row.Scan(
		&item.ID,
		&item.ContentType,
		&embedding,
		&item.Metadata,
		&item.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	item.Embedding, err = parseNullVector(embedding)
	if err != nil {
		return helper.NewError("parsing embedding", err)
	}

	return nil
}

// SelectItem retrieves an item by ID
func (h *ItemsDBHandler) SelectItem(id uuid.UUID) (*model.Item, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_item($1)`,
		id,
	)

	item := &model.Item{}
	var embedding sql.NullString

	err := row.Scan(
		&item.ID,
		&item.ContentType,
		&embedding,
		&item.Metadata,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	item.Embedding, err = parseNullVector(embedding)
	if err != nil {
		return nil, helper.NewError("parsing embedding", err)
	}

	return item, nil
}

// SelectItemEmbedding retrieves the current embedding of an item.
// It returns nil without an error when the item does not exist or has
// no embedding, which signals the item is no longer embedded.
func (h *ItemsDBHandler) SelectItemEmbedding(id uuid.UUID) ([]float32, error) {
	row := h.db.Instance.QueryRow(
		`SELECT select_item_embedding($1)`,
		id,
	)

	var embedding sql.NullString
	err := row.Scan(&embedding)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	vector, err := parseNullVector(embedding)
	if err != nil {
		return nil, helper.NewError("parsing embedding", err)
	}

	return vector, nil
}

// UpdateItemEmbedding updates the embedding of an item
func (h *ItemsDBHandler) UpdateItemEmbedding(item *model.Item) error {
	embeddingVector := pgvector.NewVector(item.Embedding)
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_item_embedding($1, $2)`,
		item.ID,
		embeddingVector,
	)

	var embedding sql.NullString
	err := row.Scan(
		&item.ID,
		&item.ContentType,
		&embedding,
		&item.Metadata,
		&item.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	item.Embedding, err = parseNullVector(embedding)
	if err != nil {
		return helper.NewError("parsing embedding", err)
	}

	return nil
}

// SelectSimilarItems performs an approximate nearest neighbor search by
// cosine similarity, ordered by descending score with a deterministic
// tie-break on item id. If excludeID is non-nil, that item is excluded
// from the results.
func (h *ItemsDBHandler) SelectSimilarItems(embedding []float32, limit int, excludeID *uuid.UUID) ([]*model.Candidate, error) {
	embeddingVector := pgvector.NewVector(embedding)

	var excludeParam interface{}
	if excludeID != nil {
		excludeParam = *excludeID
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_similar_items($1, $2, $3)`,
		embeddingVector,
		limit,
		excludeParam,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var candidates []*model.Candidate
	for rows.Next() {
		candidate := &model.Candidate{}
		err := rows.Scan(
			&candidate.ID,
			&candidate.Score,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		candidates = append(candidates, candidate)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}

// CountEmbeddedItems counts items that currently have an embedding
func (h *ItemsDBHandler) CountEmbeddedItems() (int, error) {
	var count int
	err := h.db.Instance.QueryRow(`SELECT count_embedded_items()`).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// DeleteItem deletes an item by ID
func (h *ItemsDBHandler) DeleteItem(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_item($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// parseNullVector parses a nullable pgvector text representation
func parseNullVector(value sql.NullString) ([]float32, error) {
	if !value.Valid {
		return nil, nil
	}

	var vector pgvector.Vector
	if err := vector.Parse(value.String); err != nil {
		return nil, err
	}

	return vector.Slice(), nil
}
