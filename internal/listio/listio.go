// Package listio imports contact lists from CSV and XLSX files and exports
// them back out.
package listio

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/model"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = eris.New("listio: unsupported file format")

// Table is a parsed file: trimmed, unique headers and one map per record.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// Format identifies a list file type by extension.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat returns the format implied by path's extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Wrapf(ErrUnsupportedFormat, "listio: %s", filepath.Base(path))
	}
}

// ReadFile parses a CSV or XLSX file.
func ReadFile(ctx context.Context, path string) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(path)
	}
	return ReadCSVFile(ctx, path)
}

// ExportOptions controls which rows are written.
type ExportOptions struct {
	SkipDuplicates bool
}

// WriteFile writes rows to a CSV or XLSX file chosen by path's extension.
func WriteFile(path string, columns []string, rows []model.Row, opts ExportOptions) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if format == FormatXLSX {
		return WriteXLSX(path, columns, rows, opts)
	}
	return WriteCSVFile(path, columns, rows, opts)
}

// buildTable turns raw records into a Table. The first record is the
// header; records whose cells are all blank are skipped. Short records leave
// trailing columns absent and extra cells are dropped.
func buildTable(records [][]string) *Table {
	t := &Table{}
	if len(records) == 0 {
		return t
	}
	t.Headers = normalizeHeaders(records[0])

	for _, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		row := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// normalizeHeaders trims header names, names blank ones by position and
// suffixes repeats so every column key is unique.
func normalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[h]; n > 0 {
			seen[h] = n + 1
			h = fmt.Sprintf("%s_%d", h, n)
		}
		seen[h]++
		out[i] = h
	}
	return out
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// exportRecords renders rows in column order.
func exportRecords(columns []string, rows []model.Row, opts ExportOptions) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		if opts.SkipDuplicates && r.IsDuplicate {
			continue
		}
		rec := make([]string, len(columns))
		for i, c := range columns {
			rec[i] = r.Data[c]
		}
		out = append(out, rec)
	}
	return out
}
