package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/linker/helper"
	"github.com/siherrmann/linker/model"
	loadSql "github.com/siherrmann/linker/sql"
)

// LinksDBHandlerFunctions defines the interface for Links database operations.
type LinksDBHandlerFunctions interface {
	InsertLink(link *model.Link) (bool, error)
	InsertReciprocalLink(a uuid.UUID, b uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (int, error)
	SelectLinksFromItem(itemID uuid.UUID, kind *model.LinkKind) ([]*model.Link, error)
	SelectLinksToItem(itemID uuid.UUID, kind *model.LinkKind) ([]*model.Link, error)
	SelectLinksConnectedToItem(itemID uuid.UUID, kind *model.LinkKind) ([]*model.LinkConnection, error)
	SelectSemanticAdjacency() ([]*model.LinkPair, error)
	CountLinks(kind *model.LinkKind) (int64, error)
	DeleteLinksForItem(itemID uuid.UUID) error
}

// LinksDBHandler handles link-related database operations
type LinksDBHandler struct {
	db *helper.Database
}

// NewLinksDBHandler creates a new links database handler.
// It initializes the database connection and loads link-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewLinksDBHandler(db *helper.Database, force bool) (*LinksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	linksDbHandler := &LinksDBHandler{
		db: db,
	}

	err := loadSql.LoadLinksSql(linksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load links sql", err)
	}

	err = linksDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized LinksDBHandler")

	return linksDbHandler, nil
}

// CreateTable creates the 'links' table in the database.
// If the table already exists, it does not create it again.
// It also creates the unique (from, to, kind) constraint and all indexes.
func (h *LinksDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables, triggers, and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_links();`)
	if err != nil {
		log.Panicf("error initializing links table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table links")

	return nil
}

// InsertLink inserts a link if the (from, to, kind) triple does not exist yet.
// It returns true when a new link row was created and false when the link
// already existed; an existing link is success, not an error.
func (h *LinksDBHandler) InsertLink(link *model.Link) (bool, error) {
	if link.Kind == "" {
		link.Kind = model.LinkKindSemantic
	}

	row := h.db.Instance.QueryRow(
		`SELECT insert_link($1, $2, $3, $4, $5)`,
		link.FromID,
		link.ToID,
		link.Kind,
		link.Score,
		link.Metadata,
	)

	var created bool
	err := row.Scan(&created)
	if err != nil {
		return false, helper.NewError("scan", err)
	}

	return created, nil
}

// InsertReciprocalLink creates the link in both directions (a->b and b->a)
// as one logical operation. Either direction may already exist; both writes
// are idempotent. It returns the number of link rows actually created (0-2).
func (h *LinksDBHandler) InsertReciprocalLink(a uuid.UUID, b uuid.UUID, kind model.LinkKind, score float64, metadata model.Metadata) (int, error) {
	created := 0

	forward := &model.Link{FromID: a, ToID: b, Kind: kind, Score: score, Metadata: metadata}
	inserted, err := h.InsertLink(forward)
	if err != nil {
		return created, helper.NewError("insert forward link", err)
	}
	if inserted {
		created++
	}

	backward := &model.Link{FromID: b, ToID: a, Kind: kind, Score: score, Metadata: metadata}
	inserted, err = h.InsertLink(backward)
	if err != nil {
		return created, helper.NewError("insert backward link", err)
	}
	if inserted {
		created++
	}

	return created, nil
}

// SelectLinksFromItem retrieves links originating from an item
func (h *LinksDBHandler) SelectLinksFromItem(itemID uuid.UUID, kind *model.LinkKind) ([]*model.Link, error) {
	return h.selectLinks(`SELECT * FROM select_links_from_item($1, $2)`, itemID, kind)
}

// SelectLinksToItem retrieves links targeting an item
func (h *LinksDBHandler) SelectLinksToItem(itemID uuid.UUID, kind *model.LinkKind) ([]*model.Link, error) {
	return h.selectLinks(`SELECT * FROM select_links_to_item($1, $2)`, itemID, kind)
}

// selectLinks runs a link query taking (item id, optional kind) parameters
func (h *LinksDBHandler) selectLinks(query string, itemID uuid.UUID, kind *model.LinkKind) ([]*model.Link, error) {
	var rows *sql.Rows
	var err error

	if kind != nil {
		rows, err = h.db.Instance.Query(query, itemID, *kind)
	} else {
		rows, err = h.db.Instance.Query(query, itemID, nil)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var links []*model.Link
	for rows.Next() {
		link := &model.Link{}

		err := rows.Scan(
			&link.ID,
			&link.FromID,
			&link.ToID,
			&link.Kind,
			&link.Score,
			&link.Metadata,
			&link.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		links = append(links, link)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return links, nil
}

// SelectLinksConnectedToItem retrieves all links connected to an item (both directions)
func (h *LinksDBHandler) SelectLinksConnectedToItem(itemID uuid.UUID, kind *model.LinkKind) ([]*model.LinkConnection, error) {
	var rows *sql.Rows
	var err error

	if kind != nil {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_links_connected_to_item($1, $2)`,
			itemID,
			*kind,
		)
	} else {
		rows, err = h.db.Instance.Query(
			`SELECT * FROM select_links_connected_to_item($1, NULL)`,
			itemID,
		)
	}

	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var connections []*model.LinkConnection
	for rows.Next() {
		link := &model.Link{}
		var isOutgoing bool
		err := rows.Scan(
			&link.ID,
			&link.FromID,
			&link.ToID,
			&link.Kind,
			&link.Score,
			&link.Metadata,
			&link.CreatedAt,
			&isOutgoing,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		connections = append(connections, &model.LinkConnection{
			Link:       link,
			IsOutgoing: isOutgoing,
		})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return connections, nil
}

// SelectSemanticAdjacency retrieves the distinct directed endpoint pairs of
// the semantic subgraph, used by the topology analyzer
func (h *LinksDBHandler) SelectSemanticAdjacency() ([]*model.LinkPair, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_semantic_adjacency()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var pairs []*model.LinkPair
	for rows.Next() {
		pair := &model.LinkPair{}
		err := rows.Scan(
			&pair.FromID,
			&pair.ToID,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		pairs = append(pairs, pair)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return pairs, nil
}

// CountLinks counts links, optionally restricted to a kind
func (h *LinksDBHandler) CountLinks(kind *model.LinkKind) (int64, error) {
	var row *sql.Row
	if kind != nil {
		row = h.db.Instance.QueryRow(`SELECT count_links($1)`, *kind)
	} else {
		row = h.db.Instance.QueryRow(`SELECT count_links(NULL)`)
	}

	var count int64
	err := row.Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

// DeleteLinksForItem deletes all links connected to an item
func (h *LinksDBHandler) DeleteLinksForItem(itemID uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_links_for_item($1)`,
		itemID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
