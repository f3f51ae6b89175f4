package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed items.sql
var itemsSQL string

//go:embed links.sql
var linksSQL string

// Function lists for verification
var ItemsFunctions = []string{
	"init_items",
	"insert_item",
	"select_item",
	"select_item_embedding",
	"update_item_embedding",
	"select_similar_items",
	"count_embedded_items",
	"delete_item",
}

var LinksFunctions = []string{
	"init_links",
	"insert_link",
	"select_links_from_item",
	"select_links_to_item",
	"select_links_connected_to_item",
	"select_semantic_adjacency",
	"count_links",
	"delete_links_for_item",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadItemsSql loads item-related SQL functions
func LoadItemsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, ItemsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing items functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(itemsSQL)
	if err != nil {
		return fmt.Errorf("error executing items SQL: %w", err)
	}

	exist, err := checkFunctions(db, ItemsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL items functions loaded successfully")
	return nil
}

// LoadLinksSql loads link-related SQL functions
func LoadLinksSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, LinksFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing links functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(linksSQL)
	if err != nil {
		return fmt.Errorf("error executing links SQL: %w", err)
	}

	exist, err := checkFunctions(db, LinksFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL links functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadItemsSql(db, force); err != nil {
		return err
	}

	if err := LoadLinksSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
