package apkg

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/hpungsan/deckpack/internal/errors"
)

// Known database filenames, newest format first.
const (
	dbNameZstd    = "collection.anki21b"
	dbNameCurrent = "collection.anki21"
	dbNameLegacy  = "collection.anki2"
)

// LocateDatabase finds the collection database inside an extracted package
// directory. The zstd-compressed variant is decompressed to a plain file
// first, overwriting any plain file already carrying that name, so later
// exports write back under the plain name. Returns the database path and its
// filename, or DATABASE_NOT_FOUND if no known variant exists.
func LocateDatabase(dir string) (path, name string, err error) {
	compressed := filepath.Join(dir, dbNameZstd)
	if _, statErr := os.Stat(compressed); statErr == nil && ZstdAvailable() {
		raw, readErr := os.ReadFile(compressed)
		if readErr != nil {
			return "", "", errors.NewIOFailure(readErr)
		}
		data, decErr := MaybeDecompress(raw)
		if decErr != nil {
			return "", "", decErr
		}
		plain := filepath.Join(dir, dbNameCurrent)
		if writeErr := atomic.WriteFile(plain, bytes.NewReader(data)); writeErr != nil {
			return "", "", errors.NewIOFailure(writeErr)
		}
		return plain, dbNameCurrent, nil
	}

	for _, candidate := range []string{dbNameCurrent, dbNameLegacy} {
		p := filepath.Join(dir, candidate)
		if _, statErr := os.Stat(p); statErr == nil {
			return p, candidate, nil
		}
	}
	return "", "", errors.NewDatabaseNotFound()
}
