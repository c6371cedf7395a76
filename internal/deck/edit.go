package deck

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/hpungsan/deckpack/internal/errors"
	"github.com/hpungsan/deckpack/internal/media"
	"github.com/hpungsan/deckpack/internal/model"
)

var imgTagRe = regexp.MustCompile(`<img\s[^>]*>`)

// AddImage stores image bytes as a new media file, appends an image
// reference to the named field, and returns a data URI for immediate
// display. The URI is recorded for exact deinlining of later edits.
func (s *Session) AddImage(noteID int64, fieldName string, data []byte, ext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return "", err
	}

	m, values, err := s.noteFields(noteID)
	if err != nil {
		return "", err
	}
	idx := m.FieldIndex(fieldName)
	if idx < 0 {
		return "", errors.NewFieldNotFound(fieldName)
	}

	name := s.media.PasteName(ext)
	key := s.media.Add(name)
	if err := os.WriteFile(filepath.Join(s.dir, key), data, 0600); err != nil {
		return "", errors.NewIOFailure(err)
	}
	uri := media.DataURI(name, data)

	values = padFields(values, idx)
	values[idx] += fmt.Sprintf(`<img src=%q>`, name)

	if err := s.writeFields(noteID, values); err != nil {
		return "", err
	}
	s.inliner.Record(uri, name)
	return uri, nil
}

// RemoveImage deletes the image reference at the given zero-based document
// position from the named field. An index at or past the current image count
// fails with INDEX_OUT_OF_RANGE and mutates nothing.
func (s *Session) RemoveImage(noteID int64, fieldName string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return err
	}

	m, values, err := s.noteFields(noteID)
	if err != nil {
		return err
	}
	idx := m.FieldIndex(fieldName)
	if idx < 0 {
		return errors.NewFieldNotFound(fieldName)
	}
	if idx >= len(values) {
		return errors.NewIndexOutOfRange(index, 0)
	}

	text := values[idx]
	matches := imgTagRe.FindAllStringIndex(text, -1)
	if index < 0 || index >= len(matches) {
		return errors.NewIndexOutOfRange(index, len(matches))
	}
	match := matches[index]
	values[idx] = text[:match[0]] + text[match[1]:]

	return s.writeFields(noteID, values)
}

// UpdateField replaces the named field's value. The value is deinlined
// first, so storage never retains data URIs produced by this session.
func (s *Session) UpdateField(noteID int64, fieldName, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return err
	}

	m, values, err := s.noteFields(noteID)
	if err != nil {
		return err
	}
	idx := m.FieldIndex(fieldName)
	if idx < 0 {
		return errors.NewFieldNotFound(fieldName)
	}
	values = padFields(values, idx)
	values[idx] = s.inliner.Deinline(value)

	return s.writeFields(noteID, values)
}

// noteFields loads a note's model and its current field values.
func (s *Session) noteFields(noteID int64) (*model.Model, []string, error) {
	var (
		mid  int64
		flds string
	)
	err := s.db.QueryRow("SELECT mid, flds FROM notes WHERE id = ?", noteID).Scan(&mid, &flds)
	if err == sql.ErrNoRows {
		return nil, nil, errors.NewNoteNotFound(noteID)
	}
	if err != nil {
		return nil, nil, errors.NewInternal(err)
	}

	m, ok := s.models[mid]
	if !ok {
		return nil, nil, errors.NewModelNotFound(mid)
	}
	return m, strings.Split(flds, fieldSep), nil
}

// writeFields persists the joined field values and bumps the note's modified
// timestamp, marking it pending for sync.
func (s *Session) writeFields(noteID int64, values []string) error {
	_, err := s.db.Exec(
		"UPDATE notes SET flds = ?, mod = ?, usn = -1 WHERE id = ?",
		strings.Join(values, fieldSep), time.Now().Unix(), noteID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// padFields extends values with empty strings so index idx is addressable.
func padFields(values []string, idx int) []string {
	for len(values) <= idx {
		values = append(values, "")
	}
	return values
}
