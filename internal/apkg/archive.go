// Package apkg reads and writes deck package archives: a zip bundle holding
// a collection database, a media index, and media files named by numeric key.
package apkg

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/hpungsan/deckpack/internal/errors"
)

// Extract unpacks the package at path into a fresh temporary directory and
// returns the directory. The caller owns the directory and must remove it.
func Extract(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", errors.NewPackageCorrupt(err)
	}
	defer zr.Close()

	dir, err := os.MkdirTemp("", "deckpack_")
	if err != nil {
		return "", errors.NewIOFailure(err)
	}

	for _, f := range zr.File {
		if err := extractEntry(dir, f); err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}
	return dir, nil
}

// extractEntry writes a single archive entry under dir, rejecting names that
// would escape it.
func extractEntry(dir string, f *zip.File) error {
	name := filepath.Clean(f.Name)
	if name == ".." || strings.HasPrefix(name, ".."+string(os.PathSeparator)) || filepath.IsAbs(name) {
		return errors.NewPackageCorrupt(fmt.Errorf("unsafe entry name %q", f.Name))
	}
	dest := filepath.Join(dir, name)

	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(dest, 0700); err != nil {
			return errors.NewIOFailure(err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return errors.NewIOFailure(err)
	}

	rc, err := f.Open()
	if err != nil {
		return errors.NewPackageCorrupt(err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewIOFailure(err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.NewPackageCorrupt(err)
	}
	if err := out.Close(); err != nil {
		return errors.NewIOFailure(err)
	}
	return nil
}

// Pack writes a new package archive at outPath containing the named files
// from dir, stored under their bare names with deflate compression. The
// archive is assembled in a temp file and atomically moved into place, so a
// failed pack never leaves a truncated archive at outPath.
func Pack(dir string, files []string, outPath string) error {
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".deckpack-*.apkg")
	if err != nil {
		return errors.NewIOFailure(err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, name := range files {
		if err := packEntry(zw, dir, name); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return errors.NewIOFailure(err)
	}
	if err := tmp.Sync(); err != nil {
		return errors.NewIOFailure(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewIOFailure(err)
	}

	if err := atomic.ReplaceFile(tmpPath, outPath); err != nil {
		return errors.NewIOFailure(err)
	}
	success = true
	return nil
}

// packEntry copies dir/name into the archive under its bare name.
func packEntry(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return errors.NewIOFailure(err)
	}
	defer src.Close()

	w, err := zw.Create(name)
	if err != nil {
		return errors.NewIOFailure(err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return errors.NewIOFailure(err)
	}
	return nil
}
