package media

import (
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	srcAttrRe  = regexp.MustCompile(`src="([^"]+)"`)
	dataAttrRe = regexp.MustCompile(`src="(data:[^"]+)"`)
	soundRe    = regexp.MustCompile(`\[sound:[^\]]+\]`)
)

// Inliner rewrites field HTML between filename references and data URIs.
// It records every substitution it makes so edits can be deinlined exactly;
// URIs it never produced are left untouched on the way back.
type Inliner struct {
	dir   string
	idx   *Index
	byURI map[string]string // data URI -> original filename
}

// NewInliner creates an inliner over a working directory and its media index.
func NewInliner(dir string, idx *Index) *Inliner {
	return &Inliner{
		dir:   dir,
		idx:   idx,
		byURI: make(map[string]string),
	}
}

// Inline replaces every resolvable src="filename" reference with a data URI
// carrying the file's MIME type and base64 bytes. References that don't
// resolve through the index, or whose file is missing, are left as-is.
func (in *Inliner) Inline(html string) string {
	return srcAttrRe.ReplaceAllStringFunc(html, func(match string) string {
		name := srcAttrRe.FindStringSubmatch(match)[1]
		key, ok := in.idx.Key(name)
		if !ok {
			return match
		}
		data, err := os.ReadFile(filepath.Join(in.dir, key))
		if err != nil {
			return match
		}
		uri := DataURI(name, data)
		in.byURI[uri] = name
		return fmt.Sprintf("src=%q", uri)
	})
}

// Deinline replaces src="data:..." attributes recorded by this inliner with
// their original filenames. Unrecorded URIs were not produced here and must
// not be guessed at.
func (in *Inliner) Deinline(html string) string {
	return dataAttrRe.ReplaceAllStringFunc(html, func(match string) string {
		uri := dataAttrRe.FindStringSubmatch(match)[1]
		name, ok := in.byURI[uri]
		if !ok {
			return match
		}
		return fmt.Sprintf("src=%q", name)
	})
}

// Record registers a URI produced outside Inline (e.g. for a freshly pasted
// image) so a later Deinline can reverse it.
func (in *Inliner) Record(uri, name string) {
	in.byURI[uri] = name
}

// StripSound removes bracketed sound directives from field text. This is
// one-way: directives are not restored on write.
func StripSound(text string) string {
	return soundRe.ReplaceAllString(text, "")
}

// DataURI builds a self-contained data URI for the named file's bytes.
func DataURI(name string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", MIMEForName(name), base64.StdEncoding.EncodeToString(data))
}

// MIMEForName guesses a MIME type from the filename extension, defaulting to
// application/octet-stream.
func MIMEForName(name string) string {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if mt == "" {
		return "application/octet-stream"
	}
	// TypeByExtension may append parameters (e.g. "; charset=utf-8").
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	return mt
}
