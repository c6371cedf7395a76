package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/hpungsan/deckpack/internal/errors"
)

func writeIndex(t *testing.T, dir string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, IndexFile), content, 0600); err != nil {
		t.Fatalf("write index: %v", err)
	}
}

func TestLoadIndex_Missing(t *testing.T) {
	idx, err := LoadIndex(t.TempDir())
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if idx.Len() != 0 {
		t.Errorf("Len = %d, want 0", idx.Len())
	}
	if idx.NextKey() != 0 {
		t.Errorf("NextKey = %d, want 0", idx.NextKey())
	}
}

func TestLoadIndex_Empty(t *testing.T) {
	for _, content := range []string{"", "   \n"} {
		dir := t.TempDir()
		writeIndex(t, dir, []byte(content))

		idx, err := LoadIndex(dir)
		if err != nil {
			t.Fatalf("LoadIndex(%q) failed: %v", content, err)
		}
		if idx.Len() != 0 {
			t.Errorf("Len = %d, want 0", idx.Len())
		}
	}
}

func TestLoadIndex_Entries(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, []byte(`{"0":"cat.png","4":"dog.jpg"}`))

	idx, err := LoadIndex(dir)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}

	if name, ok := idx.Name("4"); !ok || name != "dog.jpg" {
		t.Errorf("Name(4) = %q, %v", name, ok)
	}
	if key, ok := idx.Key("cat.png"); !ok || key != "0" {
		t.Errorf("Key(cat.png) = %q, %v", key, ok)
	}
	if idx.NextKey() != 5 {
		t.Errorf("NextKey = %d, want 5", idx.NextKey())
	}
}

func TestLoadIndex_Compressed(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()

	dir := t.TempDir()
	writeIndex(t, dir, enc.EncodeAll([]byte(`{"0":"cat.png"}`), nil))

	idx, err := LoadIndex(dir)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if name, ok := idx.Name("0"); !ok || name != "cat.png" {
		t.Errorf("Name(0) = %q, %v", name, ok)
	}
}

func TestLoadIndex_BadJSON(t *testing.T) {
	dir := t.TempDir()
	writeIndex(t, dir, []byte("{broken"))

	_, err := LoadIndex(dir)
	if !errors.Is(err, errors.ErrPackageCorrupt) {
		t.Errorf("err = %v, want PACKAGE_CORRUPT", err)
	}
}

func TestAdd_MonotonicKeys(t *testing.T) {
	idx := NewIndex()

	if key := idx.Add("a.png"); key != "0" {
		t.Errorf("first key = %q, want 0", key)
	}
	if key := idx.Add("b.png"); key != "1" {
		t.Errorf("second key = %q, want 1", key)
	}
	if idx.NextKey() != 2 {
		t.Errorf("NextKey = %d, want 2", idx.NextKey())
	}
	if key, ok := idx.Key("b.png"); !ok || key != "1" {
		t.Errorf("reverse lookup = %q, %v", key, ok)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	idx := NewIndex()
	idx.Add("a.png")
	idx.Add("b.jpg")

	if err := idx.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadIndex(dir)
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if loaded.Len() != 2 {
		t.Errorf("Len = %d, want 2", loaded.Len())
	}
	if name, ok := loaded.Name("1"); !ok || name != "b.jpg" {
		t.Errorf("Name(1) = %q, %v", name, ok)
	}
	if loaded.NextKey() != 2 {
		t.Errorf("NextKey = %d, want 2", loaded.NextKey())
	}
}

func TestPasteName(t *testing.T) {
	idx := NewIndex()
	idx.Add("existing.png")

	if got := idx.PasteName(".png"); got != "paste_1.png" {
		t.Errorf("PasteName(.png) = %q, want paste_1.png", got)
	}
	if got := idx.PasteName("gif"); got != "paste_1.gif" {
		t.Errorf("PasteName(gif) = %q, want paste_1.gif", got)
	}
}
