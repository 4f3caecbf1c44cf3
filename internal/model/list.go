package model

import (
	"maps"
	"time"
)

// List is an imported contact list. Columns defines the schema of every row
// in the list; its order is display order.
type List struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Columns   []string  `json:"columns"`
	RowCount  int       `json:"row_count"`
	Cleaned   bool      `json:"cleaned"`
	Enriched  bool      `json:"enriched"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Row is one record of a list. An absent key in Data and an empty string
// both mean "no value".
type Row struct {
	ID          string            `json:"id"`
	ListID      string            `json:"list_id"`
	Index       int               `json:"row_index"`
	Data        map[string]string `json:"data"`
	Flags       map[string]Flag   `json:"flags"`
	IsDuplicate bool              `json:"is_duplicate"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Clone returns a deep copy of the row so stages can mutate it freely.
func (r Row) Clone() Row {
	out := r
	out.Data = maps.Clone(r.Data)
	if out.Data == nil {
		out.Data = make(map[string]string)
	}
	out.Flags = maps.Clone(r.Flags)
	if out.Flags == nil {
		out.Flags = make(map[string]Flag)
	}
	return out
}

// Set writes a value and its flag together.
func (r *Row) Set(col, value string, flag Flag) {
	if r.Data == nil {
		r.Data = make(map[string]string)
	}
	if r.Flags == nil {
		r.Flags = make(map[string]Flag)
	}
	r.Data[col] = value
	r.Flags[col] = flag
}

// HasTerminalFlag reports whether any field carries a terminal enrichment flag.
func (r Row) HasTerminalFlag() bool {
	for _, f := range r.Flags {
		if f.IsTerminal() {
			return true
		}
	}
	return false
}

// RowUpdate is a partial row write. Data and Flags are merged key by key into
// the stored row; IsDuplicate is only written when non-nil.
type RowUpdate struct {
	Data        map[string]string `json:"data,omitempty"`
	Flags       map[string]Flag   `json:"flags,omitempty"`
	IsDuplicate *bool             `json:"is_duplicate,omitempty"`
}

// Empty reports whether the update carries nothing to write.
func (u RowUpdate) Empty() bool {
	return len(u.Data) == 0 && len(u.Flags) == 0 && u.IsDuplicate == nil
}

// MergeColumns appends, in first-seen row order, any data keys the rows carry
// that the column set does not yet list. Keys added within one row are
// appended in sorted order so the result is deterministic.
func MergeColumns(columns []string, rows []Row) []string {
	out := append([]string(nil), columns...)
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}
	for _, r := range rows {
		for _, k := range sortedKeys(r.Data) {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
