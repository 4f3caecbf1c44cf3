// Package store persists lists, their rows and enrichment runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/model"
)

// ErrNotFound is returned when a list, row or run does not exist.
var ErrNotFound = eris.New("store: not found")

// DefaultBatchSize is the number of rows written per transaction by SaveRows.
const DefaultBatchSize = 500

// Store defines the persistence interface for lists and enrichment.
type Store interface {
	// Lists
	CreateList(ctx context.Context, name string, columns []string) (*model.List, error)
	GetList(ctx context.Context, id string) (*model.List, error)
	ListLists(ctx context.Context) ([]model.List, error)
	UpdateListColumns(ctx context.Context, id string, columns []string) error
	MarkListCleaned(ctx context.Context, id string) error
	MarkListEnriched(ctx context.Context, id string) error
	DeleteList(ctx context.Context, id string) error

	// Rows
	InsertRows(ctx context.Context, listID string, data []map[string]string) (int, error)
	GetRow(ctx context.Context, id string) (*model.Row, error)
	UpdateRow(ctx context.Context, id string, upd model.RowUpdate) error
	ListRows(ctx context.Context, listID string) ([]model.Row, error)
	SaveRows(ctx context.Context, rows []model.Row) error

	// Runs
	CreateRun(ctx context.Context, listID string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.EnrichmentSummary, runErr error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func notFound(entity, id string) error {
	return eris.Wrapf(ErrNotFound, "store: %s %s", entity, id)
}

// runOutcome maps a run error onto the stored status and message.
func runOutcome(runErr error) (model.RunStatus, string) {
	if runErr != nil {
		return model.RunStatusFailed, runErr.Error()
	}
	return model.RunStatusComplete, ""
}

// batches splits rows into chunks of at most size.
func batches(rows []model.Row, size int) [][]model.Row {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][]model.Row
	for len(rows) > 0 {
		n := min(size, len(rows))
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	return out
}

// nonNil returns m, or an empty map when m is nil, so JSON columns never
// store null.
func nonNil[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}
