package deck

import (
	"os"
	"path/filepath"

	"github.com/hpungsan/deckpack/internal/apkg"
	"github.com/hpungsan/deckpack/internal/media"
)

// Export writes the current deck state as a new package archive at outPath:
// the database under its originally chosen filename, the serialized media
// index, and every media file still indexed. Database writes preceding the
// archive step are already committed; a failed export only affects the
// output archive, never the live working directory.
func (s *Session) Export(outPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpen(); err != nil {
		return err
	}

	// Fold any journal state into the main database file. Best effort: some
	// journal modes have nothing to checkpoint.
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	if err := s.media.Save(s.dir); err != nil {
		return err
	}

	files := []string{s.dbName, media.IndexFile}
	for _, key := range s.media.Keys() {
		if _, err := os.Stat(filepath.Join(s.dir, key)); err == nil {
			files = append(files, key)
		}
	}
	return apkg.Pack(s.dir, files, outPath)
}
