package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Legacy collections store every note type as one JSON blob in the col row,
// keyed by model id string.
type legacyModel struct {
	Name  string           `json:"name"`
	Flds  []legacyField    `json:"flds"`
	Tmpls []legacyTemplate `json:"tmpls"`
	CSS   string           `json:"css"`
}

type legacyField struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

type legacyTemplate struct {
	Name string `json:"name"`
	QFmt string `json:"qfmt"`
	AFmt string `json:"afmt"`
	Ord  int    `json:"ord"`
}

func loadLegacy(db *sql.DB) (map[int64]*Model, error) {
	var blob string
	if err := db.QueryRow("SELECT models FROM col").Scan(&blob); err != nil {
		return nil, fmt.Errorf("read col.models: %w", err)
	}

	var raw map[string]legacyModel
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("parse col.models: %w", err)
	}

	models := make(map[int64]*Model, len(raw))
	for key, lm := range raw {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("model id %q: %w", key, err)
		}

		sort.Slice(lm.Flds, func(i, j int) bool { return lm.Flds[i].Ord < lm.Flds[j].Ord })
		fields := make([]string, len(lm.Flds))
		for i, f := range lm.Flds {
			fields[i] = f.Name
		}

		sort.Slice(lm.Tmpls, func(i, j int) bool { return lm.Tmpls[i].Ord < lm.Tmpls[j].Ord })
		templates := make([]Template, len(lm.Tmpls))
		for i, tp := range lm.Tmpls {
			templates[i] = Template{Name: tp.Name, QFmt: tp.QFmt, AFmt: tp.AFmt, Ord: tp.Ord}
		}

		models[id] = &Model{
			ID:        id,
			Name:      lm.Name,
			Fields:    fields,
			Templates: templates,
			CSS:       lm.CSS,
		}
	}
	return models, nil
}
