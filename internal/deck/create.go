package deck

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/deckpack/internal/errors"
)

// CreateCard inserts a new empty note and card for the given model. When
// position is non-nil, cards at or after the position shift up by one and
// the new card takes that due value; otherwise it is appended after the
// current maximum. The deck association is inferred from any existing card.
func (s *Session) CreateCard(modelID int64, position *int) (*Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}

	m, ok := s.models[modelID]
	if !ok {
		return nil, errors.NewModelNotFound(modelID)
	}

	var deckID int64
	err := s.db.QueryRow("SELECT did FROM cards LIMIT 1").Scan(&deckID)
	if err == sql.ErrNoRows {
		return nil, errors.NewNoDeckTarget()
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	// Note ids are millisecond timestamps; bump past collisions from creates
	// landing in the same millisecond.
	noteID := time.Now().UnixMilli()
	for {
		var count int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM notes WHERE id = ?", noteID).Scan(&count); err != nil {
			return nil, errors.NewInternal(err)
		}
		if count == 0 {
			break
		}
		noteID++
	}
	cardID := noteID + 1
	guid, err := newGUID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	now := time.Now().Unix()

	var due int64
	if position != nil {
		if _, err := s.db.Exec("UPDATE cards SET due = due + 1 WHERE due >= ?", *position); err != nil {
			return nil, errors.NewInternal(err)
		}
		due = int64(*position)
	} else {
		var maxDue sql.NullInt64
		if err := s.db.QueryRow("SELECT MAX(due) FROM cards").Scan(&maxDue); err != nil {
			return nil, errors.NewInternal(err)
		}
		if maxDue.Valid {
			due = maxDue.Int64 + 1
		}
	}

	emptyFields := strings.Join(make([]string, len(m.Fields)), fieldSep)
	_, err = s.db.Exec(
		`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		 VALUES (?, ?, ?, ?, -1, '', ?, '', 0, 0, '')`,
		noteID, guid, modelID, now, emptyFields,
	)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("insert note: %w", err))
	}
	_, err = s.db.Exec(
		`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
		 VALUES (?, ?, ?, 0, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`,
		cardID, noteID, deckID, now, due,
	)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("insert card: %w", err))
	}

	fields := make(map[string]string, len(m.Fields))
	for _, name := range m.Fields {
		fields[name] = ""
	}
	return &Card{
		NoteID:    noteID,
		ModelID:   modelID,
		Model:     m.Name,
		Fields:    fields,
		CreatedTS: noteID / 1000,
		ModTS:     now,
	}, nil
}

// DeleteCard removes a note and its card, then shifts later due positions
// down by one to keep the sequence dense.
func (s *Session) DeleteCard(noteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return err
	}

	var id int64
	err := s.db.QueryRow("SELECT id FROM notes WHERE id = ?", noteID).Scan(&id)
	if err == sql.ErrNoRows {
		return errors.NewNoteNotFound(noteID)
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	var due sql.NullInt64
	err = s.db.QueryRow("SELECT due FROM cards WHERE nid = ?", noteID).Scan(&due)
	if err != nil && err != sql.ErrNoRows {
		return errors.NewInternal(err)
	}

	if _, err := s.db.Exec("DELETE FROM cards WHERE nid = ?", noteID); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := s.db.Exec("DELETE FROM notes WHERE id = ?", noteID); err != nil {
		return errors.NewInternal(err)
	}
	if due.Valid {
		if _, err := s.db.Exec("UPDATE cards SET due = due - 1 WHERE due > ?", due.Int64); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// newGUID generates a note guid. The upstream format wants a short unique
// string; the first ten ULID characters carry the timestamp plus entropy.
func newGUID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String()[:10], nil
}
