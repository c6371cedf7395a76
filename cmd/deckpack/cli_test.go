package main

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/deckpack/internal/config"
	"github.com/hpungsan/deckpack/internal/deck"
)

// makePackage writes a minimal single-note deck package and returns its path.
func makePackage(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "collection.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}

	stmts := []string{
		"CREATE TABLE col (id INTEGER PRIMARY KEY, models TEXT)",
		`CREATE TABLE notes (id INTEGER PRIMARY KEY, guid TEXT, mid INTEGER, mod INTEGER,
			usn INTEGER, tags TEXT, flds TEXT, sfld TEXT, csum INTEGER, flags INTEGER, data TEXT)`,
		`CREATE TABLE cards (id INTEGER PRIMARY KEY, nid INTEGER, did INTEGER, ord INTEGER,
			mod INTEGER, usn INTEGER, type INTEGER, queue INTEGER, due INTEGER, ivl INTEGER,
			factor INTEGER, reps INTEGER, lapses INTEGER, left INTEGER, odue INTEGER,
			odid INTEGER, flags INTEGER, data TEXT)`,
		`INSERT INTO col VALUES (1, '{"1": {"name": "Basic",
			"flds": [{"name": "Front", "ord": 0}, {"name": "Back", "ord": 1}],
			"tmpls": [{"name": "Card 1", "qfmt": "{{Front}}", "afmt": "{{Back}}", "ord": 0}],
			"css": ""}}')`,
		"INSERT INTO notes VALUES (1, 'g', 1, 0, 0, '', 'Question" + "\x1f" + "Answer', '', 0, 0, '')",
		"INSERT INTO cards VALUES (10, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, '')",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close fixture db: %v", err)
	}

	path := filepath.Join(dir, "test.apkg")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create package: %v", err)
	}
	zw := zip.NewWriter(out)
	dbBytes, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("read fixture db: %v", err)
	}
	for name, content := range map[string][]byte{
		"collection.anki2": dbBytes,
		"media":            []byte("{}"),
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry: %v", err)
		}
		if _, err := w.Write(content); err != nil {
			t.Fatalf("write entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close package: %v", err)
	}
	return path
}

// runApp runs the CLI app with stdout captured and returns its output.
func runApp(t *testing.T, args []string) (string, error) {
	t.Helper()

	app := newCLIApp(config.DefaultSettings())

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := app.Run(args)

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	return buf.String(), err
}

func TestParseID(t *testing.T) {
	if id, err := parseID("1678901234567"); err != nil || id != 1678901234567 {
		t.Errorf("parseID = %d, %v", id, err)
	}
	if _, err := parseID("abc"); err == nil {
		t.Error("parseID should reject non-numeric input")
	}
}

func TestCLICards(t *testing.T) {
	pkg := makePackage(t)

	out, err := runApp(t, []string{"deckpack", "cards", pkg})
	if err != nil {
		t.Fatalf("cards command failed: %v", err)
	}

	var payload struct {
		OK    bool        `json:"ok"`
		Cards []deck.Card `json:"cards"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, out)
	}
	if !payload.OK || len(payload.Cards) != 1 {
		t.Fatalf("payload = %+v, want ok with 1 card", payload)
	}
	if payload.Cards[0].Fields["Front"] != "Question" {
		t.Errorf("Front = %q, want Question", payload.Cards[0].Fields["Front"])
	}
}

func TestCLICards_MissingArg(t *testing.T) {
	if _, err := runApp(t, []string{"deckpack", "cards"}); err == nil {
		t.Error("cards without a package path should fail")
	}
}

func TestCLISetField(t *testing.T) {
	pkg := makePackage(t)
	out := filepath.Join(t.TempDir(), "edited.apkg")

	stdout, err := runApp(t, []string{"deckpack", "set-field", "--out", out, pkg, "1", "Back", "Edited"})
	if err != nil {
		t.Fatalf("set-field command failed: %v", err)
	}
	if !strings.Contains(stdout, `"ok": true`) {
		t.Errorf("output = %q, want ok payload", stdout)
	}

	cards, err := deck.Parse(out)
	if err != nil {
		t.Fatalf("parse edited package: %v", err)
	}
	if cards[0].Fields["Back"] != "Edited" {
		t.Errorf("Back = %q, want Edited", cards[0].Fields["Back"])
	}
}

func TestCLINewCard(t *testing.T) {
	pkg := makePackage(t)
	out := filepath.Join(t.TempDir(), "edited.apkg")

	stdout, err := runApp(t, []string{"deckpack", "new-card", "--out", out, pkg, "1"})
	if err != nil {
		t.Fatalf("new-card command failed: %v", err)
	}

	var payload struct {
		OK   bool      `json:"ok"`
		Card deck.Card `json:"card"`
	}
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("failed to parse output: %v\nOutput: %s", err, stdout)
	}
	if payload.Card.Model != "Basic" {
		t.Errorf("Model = %q, want Basic", payload.Card.Model)
	}

	cards, err := deck.Parse(out)
	if err != nil {
		t.Fatalf("parse edited package: %v", err)
	}
	if len(cards) != 2 {
		t.Errorf("got %d cards, want 2", len(cards))
	}
}

func TestCLIDeleteCard(t *testing.T) {
	pkg := makePackage(t)
	out := filepath.Join(t.TempDir(), "edited.apkg")

	if _, err := runApp(t, []string{"deckpack", "delete-card", "--out", out, pkg, "1"}); err != nil {
		t.Fatalf("delete-card command failed: %v", err)
	}

	cards, err := deck.Parse(out)
	if err != nil {
		t.Fatalf("parse edited package: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("got %d cards, want 0", len(cards))
	}
}

func TestCLIAddImage(t *testing.T) {
	pkg := makePackage(t)
	img := filepath.Join(t.TempDir(), "pic.png")
	if err := os.WriteFile(img, []byte("\x89PNG fake"), 0600); err != nil {
		t.Fatalf("write image: %v", err)
	}
	out := filepath.Join(t.TempDir(), "edited.apkg")

	stdout, err := runApp(t, []string{"deckpack", "add-image", "--out", out, pkg, "1", "Back", img})
	if err != nil {
		t.Fatalf("add-image command failed: %v", err)
	}
	if !strings.Contains(stdout, "data:image/png;base64,") {
		t.Errorf("output = %q, want data URI", stdout)
	}

	cards, err := deck.Parse(out)
	if err != nil {
		t.Fatalf("parse edited package: %v", err)
	}
	if !strings.Contains(cards[0].Fields["Back"], "data:image/png;base64,") {
		t.Errorf("Back = %q, want inlined image", cards[0].Fields["Back"])
	}
}

func TestIsCLIMode(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"deckpack", "cards", "x.apkg"}
	if !isCLIMode() {
		t.Error("known subcommand should select CLI mode")
	}

	os.Args = []string{"deckpack"}
	if isCLIMode() {
		t.Error("no args should select MCP mode")
	}
}
