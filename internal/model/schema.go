package model

import (
	"database/sql"
	"fmt"
)

// Schema identifies a collection database generation. The classification is
// two-way only: a notetypes table means modern, anything else is legacy.
type Schema int

const (
	SchemaLegacy Schema = iota
	SchemaModern
)

// String returns the schema name.
func (s Schema) String() string {
	if s == SchemaModern {
		return "modern"
	}
	return "legacy"
}

// DetectSchema classifies the open database by its table set.
func DetectSchema(db *sql.DB) (Schema, error) {
	tables, err := tableSet(db)
	if err != nil {
		return SchemaLegacy, err
	}
	if tables["notetypes"] {
		return SchemaModern, nil
	}
	return SchemaLegacy, nil
}

// Load extracts every note type from the database using the generation's own
// extraction path.
func (s Schema) Load(db *sql.DB) (map[int64]*Model, error) {
	if s == SchemaModern {
		return loadModern(db)
	}
	return loadLegacy(db)
}

// tableSet returns the names of all tables in the database.
func tableSet(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables[name] = true
	}
	return tables, rows.Err()
}
