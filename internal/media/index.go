// Package media maintains the mapping between numeric storage keys and
// original media filenames, and rewrites field HTML between filename
// references and self-contained data URIs.
package media

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/hpungsan/deckpack/internal/apkg"
	"github.com/hpungsan/deckpack/internal/errors"
)

// IndexFile is the index's filename inside a package and working directory.
const IndexFile = "media"

// Index is a bidirectional mapping between numeric storage keys and original
// filenames. Keys double as the literal file names in the working directory.
// Both directions are maintained incrementally; new keys are allocated as
// max existing key + 1.
type Index struct {
	names map[string]string // storage key -> original filename
	keys  map[string]string // original filename -> storage key
	next  int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		names: make(map[string]string),
		keys:  make(map[string]string),
	}
}

// LoadIndex reads the media index from dir. A missing or empty index file
// yields an empty index; the file may itself be zstd-compressed.
func LoadIndex(dir string) (*Index, error) {
	idx := NewIndex()

	raw, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, errors.NewIOFailure(err)
	}

	data, err := apkg.MaybeDecompress(raw)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return idx, nil
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.NewPackageCorrupt(fmt.Errorf("media index: %w", err))
	}
	for key, name := range entries {
		idx.names[key] = name
		idx.keys[name] = key
		if n, convErr := strconv.Atoi(key); convErr == nil && n >= idx.next {
			idx.next = n + 1
		}
	}
	return idx, nil
}

// Save serializes the index to dir, replacing the file atomically.
func (idx *Index) Save(dir string) error {
	data, err := json.Marshal(idx.names)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := atomic.WriteFile(filepath.Join(dir, IndexFile), bytes.NewReader(data)); err != nil {
		return errors.NewIOFailure(err)
	}
	return nil
}

// Name resolves a storage key to its original filename.
func (idx *Index) Name(key string) (string, bool) {
	name, ok := idx.names[key]
	return name, ok
}

// Key resolves an original filename to its storage key.
func (idx *Index) Key(name string) (string, bool) {
	key, ok := idx.keys[name]
	return key, ok
}

// NextKey returns the key the next Add will allocate.
func (idx *Index) NextKey() int {
	return idx.next
}

// Add registers name under a freshly allocated storage key and returns the key.
func (idx *Index) Add(name string) string {
	key := strconv.Itoa(idx.next)
	idx.next++
	idx.names[key] = name
	idx.keys[name] = key
	return key
}

// Keys returns all storage keys, in no particular order.
func (idx *Index) Keys() []string {
	keys := make([]string, 0, len(idx.names))
	for key := range idx.names {
		keys = append(keys, key)
	}
	return keys
}

// Len returns the number of indexed files.
func (idx *Index) Len() int {
	return len(idx.names)
}

// PasteName builds the generated filename for pasted image bytes, keyed by
// the next storage key so names stay unique within the deck.
func (idx *Index) PasteName(ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("paste_%d%s", idx.next, ext)
}
