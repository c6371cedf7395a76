// Package model loads note-type definitions from a collection database,
// tolerating the two schema generations the package format has shipped with.
package model

// Model is a note type: an ordered field list, ordered templates, and a
// stylesheet. Models are immutable for the lifetime of a session.
type Model struct {
	ID        int64
	Name      string
	Fields    []string
	Templates []Template
	CSS       string
}

// Template is one rendering of a note's fields.
type Template struct {
	Name string
	QFmt string
	AFmt string
	Ord  int
}

// FieldIndex returns the position of name in the model's field order, or -1.
func (m *Model) FieldIndex(name string) int {
	for i, f := range m.Fields {
		if f == name {
			return i
		}
	}
	return -1
}
