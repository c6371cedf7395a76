package model

import (
	"database/sql"
	"fmt"

	"github.com/hpungsan/deckpack/internal/protowire"
)

// Field numbers inspected inside opaque config blobs. The notetype config
// carries its stylesheet as field 8; a template config carries its question
// and answer formats as fields 2 and 3.
const (
	notetypeCSSField  = 8
	templateQFmtField = 2
	templateAFmtField = 3
)

// Modern collections keep one row per note type plus per-notetype fields and
// (in most variants) templates tables. The templates table is optional;
// its absence yields empty template lists, never an error.
func loadModern(db *sql.DB) (map[int64]*Model, error) {
	tables, err := tableSet(db)
	if err != nil {
		return nil, err
	}
	hasTemplates := tables["templates"]

	rows, err := db.Query("SELECT id, name, config FROM notetypes")
	if err != nil {
		return nil, fmt.Errorf("read notetypes: %w", err)
	}
	defer rows.Close()

	models := make(map[int64]*Model)
	for rows.Next() {
		var (
			id     int64
			name   string
			config []byte
		)
		if err := rows.Scan(&id, &name, &config); err != nil {
			return nil, fmt.Errorf("scan notetype: %w", err)
		}
		models[id] = &Model{
			ID:   id,
			Name: name,
			CSS:  protowire.StringField(config, notetypeCSSField),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for id, m := range models {
		fields, err := notetypeFields(db, id)
		if err != nil {
			return nil, err
		}
		m.Fields = fields

		if hasTemplates {
			templates, err := notetypeTemplates(db, id)
			if err != nil {
				return nil, err
			}
			m.Templates = templates
		}
	}
	return models, nil
}

func notetypeFields(db *sql.DB, ntid int64) ([]string, error) {
	rows, err := db.Query("SELECT name FROM fields WHERE ntid = ? ORDER BY ord", ntid)
	if err != nil {
		return nil, fmt.Errorf("read fields for notetype %d: %w", ntid, err)
	}
	defer rows.Close()

	var fields []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan field name: %w", err)
		}
		fields = append(fields, name)
	}
	return fields, rows.Err()
}

func notetypeTemplates(db *sql.DB, ntid int64) ([]Template, error) {
	rows, err := db.Query("SELECT name, config FROM templates WHERE ntid = ? ORDER BY ord", ntid)
	if err != nil {
		return nil, fmt.Errorf("read templates for notetype %d: %w", ntid, err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var (
			name   string
			config []byte
		)
		if err := rows.Scan(&name, &config); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, Template{
			Name: name,
			QFmt: protowire.StringField(config, templateQFmtField),
			AFmt: protowire.StringField(config, templateAFmtField),
			Ord:  len(templates),
		})
	}
	return templates, rows.Err()
}
