package model

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "collection.anki2"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// encField appends a length-delimited config field (payloads < 128 bytes).
func encField(num byte, payload string) []byte {
	out := []byte{num<<3 | 2, byte(len(payload))}
	return append(out, payload...)
}

func seedLegacy(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec("CREATE TABLE col (id INTEGER PRIMARY KEY, models TEXT)"); err != nil {
		t.Fatalf("create col: %v", err)
	}
	models := map[string]any{
		"1": map[string]any{
			"name": "Basic",
			"flds": []map[string]any{
				{"name": "Back", "ord": 1},
				{"name": "Front", "ord": 0},
			},
			"tmpls": []map[string]any{
				{"name": "Card 2", "qfmt": "{{Back}}", "afmt": "{{Front}}", "ord": 1},
				{"name": "Card 1", "qfmt": "{{Front}}", "afmt": "{{Back}}", "ord": 0},
			},
			"css": ".card { color: black; }",
		},
	}
	blob, err := json.Marshal(models)
	if err != nil {
		t.Fatalf("marshal models: %v", err)
	}
	if _, err := db.Exec("INSERT INTO col VALUES (1, ?)", string(blob)); err != nil {
		t.Fatalf("insert col: %v", err)
	}
}

func seedModern(t *testing.T, db *sql.DB, withTemplates bool) {
	t.Helper()
	stmts := []string{
		"CREATE TABLE notetypes (id INTEGER PRIMARY KEY, name TEXT, config BLOB)",
		"CREATE TABLE fields (ntid INTEGER, ord INTEGER, name TEXT)",
	}
	if withTemplates {
		stmts = append(stmts, "CREATE TABLE templates (ntid INTEGER, ord INTEGER, name TEXT, config BLOB)")
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	config := encField(1, "ignored")
	config = append(config, encField(8, "body{}")...)
	if _, err := db.Exec("INSERT INTO notetypes VALUES (7, 'Cloze', ?)", config); err != nil {
		t.Fatalf("insert notetype: %v", err)
	}
	for i, name := range []string{"Text", "Extra"} {
		if _, err := db.Exec("INSERT INTO fields VALUES (7, ?, ?)", i, name); err != nil {
			t.Fatalf("insert field: %v", err)
		}
	}
	if withTemplates {
		tmplConfig := append(encField(2, "{{cloze:Text}}"), encField(3, "{{cloze:Text}}<br>{{Extra}}")...)
		if _, err := db.Exec("INSERT INTO templates VALUES (7, 0, 'Cloze', ?)", tmplConfig); err != nil {
			t.Fatalf("insert template: %v", err)
		}
	}
}

func TestDetectSchema(t *testing.T) {
	legacy := openTestDB(t)
	seedLegacy(t, legacy)

	schema, err := DetectSchema(legacy)
	if err != nil {
		t.Fatalf("DetectSchema failed: %v", err)
	}
	if schema != SchemaLegacy {
		t.Errorf("schema = %v, want legacy", schema)
	}

	modern := openTestDB(t)
	seedModern(t, modern, true)

	schema, err = DetectSchema(modern)
	if err != nil {
		t.Fatalf("DetectSchema failed: %v", err)
	}
	if schema != SchemaModern {
		t.Errorf("schema = %v, want modern", schema)
	}
}

func TestLoadLegacy(t *testing.T) {
	db := openTestDB(t)
	seedLegacy(t, db)

	models, err := SchemaLegacy.Load(db)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	m, ok := models[1]
	if !ok {
		t.Fatalf("model 1 missing; got %v", models)
	}
	if m.Name != "Basic" {
		t.Errorf("Name = %q, want Basic", m.Name)
	}
	// Declared ordinals win over JSON declaration order.
	if len(m.Fields) != 2 || m.Fields[0] != "Front" || m.Fields[1] != "Back" {
		t.Errorf("Fields = %v, want [Front Back]", m.Fields)
	}
	if len(m.Templates) != 2 || m.Templates[0].Name != "Card 1" || m.Templates[1].Name != "Card 2" {
		t.Errorf("Templates = %v, want Card 1 before Card 2", m.Templates)
	}
	if m.Templates[0].QFmt != "{{Front}}" || m.Templates[0].AFmt != "{{Back}}" {
		t.Errorf("Template formats = %q / %q", m.Templates[0].QFmt, m.Templates[0].AFmt)
	}
	if m.CSS != ".card { color: black; }" {
		t.Errorf("CSS = %q", m.CSS)
	}
}

func TestLoadModern(t *testing.T) {
	db := openTestDB(t)
	seedModern(t, db, true)

	models, err := SchemaModern.Load(db)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	m, ok := models[7]
	if !ok {
		t.Fatalf("model 7 missing; got %v", models)
	}
	if m.Name != "Cloze" {
		t.Errorf("Name = %q, want Cloze", m.Name)
	}
	if len(m.Fields) != 2 || m.Fields[0] != "Text" || m.Fields[1] != "Extra" {
		t.Errorf("Fields = %v, want [Text Extra]", m.Fields)
	}
	if m.CSS != "body{}" {
		t.Errorf("CSS = %q, want body{}", m.CSS)
	}
	if len(m.Templates) != 1 {
		t.Fatalf("Templates = %v, want one", m.Templates)
	}
	tmpl := m.Templates[0]
	if tmpl.QFmt != "{{cloze:Text}}" || tmpl.AFmt != "{{cloze:Text}}<br>{{Extra}}" {
		t.Errorf("Template formats = %q / %q", tmpl.QFmt, tmpl.AFmt)
	}
	if tmpl.Ord != 0 {
		t.Errorf("Ord = %d, want 0", tmpl.Ord)
	}
}

func TestLoadModern_NoTemplatesTable(t *testing.T) {
	db := openTestDB(t)
	seedModern(t, db, false)

	models, err := SchemaModern.Load(db)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(models[7].Templates) != 0 {
		t.Errorf("Templates = %v, want empty without a templates table", models[7].Templates)
	}
}

func TestFieldIndex(t *testing.T) {
	m := &Model{Fields: []string{"Front", "Back"}}

	if got := m.FieldIndex("Back"); got != 1 {
		t.Errorf("FieldIndex(Back) = %d, want 1", got)
	}
	if got := m.FieldIndex("Missing"); got != -1 {
		t.Errorf("FieldIndex(Missing) = %d, want -1", got)
	}
}
