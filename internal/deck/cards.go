package deck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hpungsan/deckpack/internal/errors"
	"github.com/hpungsan/deckpack/internal/media"
)

// Cards re-reads the open database and returns the current ordered card
// list, reflecting any edits made since open.
func (s *Session) Cards() ([]Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	return s.materializeCards()
}

// materializeCards joins notes to their models, splits and transforms field
// values, orders the result by due position, and rewrites due values to a
// dense sequence persisted back to the database. Notes referencing an
// unknown model are silently skipped.
func (s *Session) materializeCards() ([]Card, error) {
	duePositions, ordinals, err := s.cardPositions()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query("SELECT id, mid, flds, mod FROM notes")
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("read notes: %w", err))
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		var (
			noteID, mid, mod int64
			flds             string
		)
		if err := rows.Scan(&noteID, &mid, &flds, &mod); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("scan note: %w", err))
		}

		m, ok := s.models[mid]
		if !ok {
			continue
		}

		values := strings.Split(flds, fieldSep)
		fields := make(map[string]string, len(m.Fields))
		for i, name := range m.Fields {
			value := ""
			if i < len(values) {
				value = values[i]
			}
			value = media.StripSound(value)
			fields[name] = s.inliner.Inline(value)
		}

		cards = append(cards, Card{
			NoteID:    noteID,
			ModelID:   mid,
			Model:     m.Name,
			Fields:    fields,
			CreatedTS: noteID / 1000,
			ModTS:     mod,
			CardOrd:   ordinals[noteID],
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return duePositions[cards[i].NoteID] < duePositions[cards[j].NoteID]
	})

	if err := s.normalizeDue(cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// cardPositions reads each note's first card's due position and ordinal,
// scanning in due order so the first card per note wins.
func (s *Session) cardPositions() (due map[int64]int64, ord map[int64]int, err error) {
	rows, err := s.db.Query("SELECT nid, due, ord FROM cards ORDER BY due")
	if err != nil {
		return nil, nil, errors.NewInternal(fmt.Errorf("read cards: %w", err))
	}
	defer rows.Close()

	due = make(map[int64]int64)
	ord = make(map[int64]int)
	for rows.Next() {
		var (
			nid, d int64
			o      int
		)
		if err := rows.Scan(&nid, &d, &o); err != nil {
			return nil, nil, errors.NewInternal(fmt.Errorf("scan card: %w", err))
		}
		if _, seen := due[nid]; !seen {
			due[nid] = d
			ord[nid] = o
		}
	}
	return due, ord, rows.Err()
}

// normalizeDue persists due = position-in-list for every materialized card.
func (s *Session) normalizeDue(cards []Card) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	for i, card := range cards {
		if _, err := tx.Exec("UPDATE cards SET due = ? WHERE nid = ?", i, card.NoteID); err != nil {
			tx.Rollback()
			return errors.NewInternal(fmt.Errorf("normalize due: %w", err))
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
