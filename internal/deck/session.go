// Package deck implements the stateful session over an opened deck package:
// extraction, card materialization, field edits, card creation and deletion,
// and export back to a package archive.
package deck

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/deckpack/internal/apkg"
	"github.com/hpungsan/deckpack/internal/errors"
	"github.com/hpungsan/deckpack/internal/media"
	"github.com/hpungsan/deckpack/internal/model"
)

// fieldSep joins a note's field values in storage.
const fieldSep = "\x1f"

// Card is the materialized view of one note handed to the shell. Field
// values are keyed by the model's field names; image references are inlined
// as data URIs and sound directives stripped.
type Card struct {
	NoteID    int64             `json:"note_id"`
	ModelID   int64             `json:"model_id"`
	Model     string            `json:"model"`
	Fields    map[string]string `json:"fields"`
	CreatedTS int64             `json:"created_ts"`
	ModTS     int64             `json:"mod_ts"`
	CardOrd   int               `json:"card_ord"`
}

// Session owns an extracted deck package: the working directory, the open
// database handle, the note-type registry, the media index, and the reverse
// inlining table. A single mutex serializes every operation so the session
// may be driven from any goroutine.
type Session struct {
	mu sync.Mutex

	path    string
	dir     string
	db      *sql.DB
	dbName  string
	schema  model.Schema
	models  map[int64]*model.Model
	media   *media.Index
	inliner *media.Inliner
	opened  bool
}

// NewSession creates a closed session for the package at path.
func NewSession(path string) *Session {
	return &Session{path: path}
}

// Open extracts the package, opens its database, builds the model registry,
// and returns the ordered card list. Due positions are rewritten to a dense
// 0..N-1 sequence matching the returned order and persisted immediately.
// Open is the one operation that fails hard: on any error the session is
// fully torn down and may be retried with a different file.
func (s *Session) Open() ([]Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opened {
		return nil, errors.NewInternal(fmt.Errorf("session already open"))
	}

	cards, err := s.open()
	if err != nil {
		s.teardown()
		return nil, err
	}
	s.opened = true
	return cards, nil
}

func (s *Session) open() ([]Card, error) {
	dir, err := apkg.Extract(s.path)
	if err != nil {
		return nil, err
	}
	s.dir = dir

	idx, err := media.LoadIndex(dir)
	if err != nil {
		return nil, err
	}
	s.media = idx

	dbPath, dbName, err := apkg.LocateDatabase(dir)
	if err != nil {
		return nil, err
	}
	s.dbName = dbName

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s.db = db
	// Keep the database in a single self-contained file so export can zip it.
	if _, err := db.Exec("PRAGMA journal_mode=DELETE"); err != nil {
		return nil, errors.NewInternal(err)
	}

	schema, err := model.DetectSchema(db)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s.schema = schema

	models, err := schema.Load(db)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	s.models = models

	s.inliner = media.NewInliner(dir, idx)
	return s.materializeCards()
}

// Close releases the database handle and removes the working directory.
// Idempotent; close and removal errors are swallowed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teardown()
	s.opened = false
}

func (s *Session) teardown() {
	if s.db != nil {
		_ = s.db.Close()
		s.db = nil
	}
	if s.dir != "" {
		_ = os.RemoveAll(s.dir)
		s.dir = ""
	}
}

// requireOpen must be called with the mutex held.
func (s *Session) requireOpen() error {
	if !s.opened {
		return errors.NewInternal(fmt.Errorf("session is not open"))
	}
	return nil
}

// Path returns the package path this session was created for.
func (s *Session) Path() string {
	return s.path
}

// Parse opens the package at path, harvests its cards, and closes again.
func Parse(path string) ([]Card, error) {
	session := NewSession(path)
	defer session.Close()
	return session.Open()
}
