package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/dataforge/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db        *sql.DB
	batchSize int
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, batchSize: DefaultBatchSize}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	columns    TEXT NOT NULL DEFAULT '[]',
	cleaned    INTEGER NOT NULL DEFAULT 0,
	enriched   INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS list_rows (
	id           TEXT PRIMARY KEY,
	list_id      TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	row_index    INTEGER NOT NULL,
	data         TEXT NOT NULL DEFAULT '{}',
	flags        TEXT NOT NULL DEFAULT '{}',
	is_duplicate INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id         TEXT PRIMARY KEY,
	list_id    TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_list_rows_list_index ON list_rows(list_id, row_index);
CREATE INDEX IF NOT EXISTS idx_enrichment_runs_list ON enrichment_runs(list_id);
`

// SetBatchSize sets the rows per SaveRows transaction. Non-positive values
// keep the current size.
func (s *SQLiteStore) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Lists ---

const sqliteListColumns = `id, name, columns, cleaned, enriched, created_at, updated_at,
	(SELECT COUNT(*) FROM list_rows r WHERE r.list_id = lists.id)`

func (s *SQLiteStore) CreateList(ctx context.Context, name string, columns []string) (*model.List, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	columns = nonNilSlice(columns)

	colsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal columns")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lists (id, name, columns, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, string(colsJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert list")
	}

	return &model.List{
		ID:        id,
		Name:      name,
		Columns:   columns,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetList(ctx context.Context, id string) (*model.List, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteListColumns+` FROM lists WHERE id = ?`, id)
	l, err := scanList(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("list", id)
	}
	return l, eris.Wrapf(err, "sqlite: get list %s", id)
}

func (s *SQLiteStore) ListLists(ctx context.Context) ([]model.List, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteListColumns+` FROM lists ORDER BY rowid DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lists")
	}
	defer func() { _ = rows.Close() }()

	var lists []model.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan list")
		}
		lists = append(lists, *l)
	}
	return lists, eris.Wrap(rows.Err(), "sqlite: list lists iterate")
}

func (s *SQLiteStore) UpdateListColumns(ctx context.Context, id string, columns []string) error {
	colsJSON, err := json.Marshal(nonNilSlice(columns))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal columns")
	}
	return s.updateList(ctx, id, `columns = ?`, string(colsJSON))
}

func (s *SQLiteStore) MarkListCleaned(ctx context.Context, id string) error {
	return s.updateList(ctx, id, `cleaned = 1`)
}

func (s *SQLiteStore) MarkListEnriched(ctx context.Context, id string) error {
	return s.updateList(ctx, id, `enriched = 1`)
}

func (s *SQLiteStore) updateList(ctx context.Context, id, set string, args ...any) error {
	args = append(args, time.Now().UTC(), id)
	res, err := s.db.ExecContext(ctx, `UPDATE lists SET `+set+`, updated_at = ? WHERE id = ?`, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update list %s", id)
	}
	return checkRowsAffected(res, "list", id)
}

// DeleteList removes the list together with its rows and runs.
func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete list")
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM list_rows WHERE list_id = ?`,
		`DELETE FROM enrichment_runs WHERE list_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return eris.Wrapf(err, "sqlite: delete list %s", id)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete list %s", id)
	}
	if err := checkRowsAffected(res, "list", id); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete list")
}

// --- Rows ---

func (s *SQLiteStore) InsertRows(ctx context.Context, listID string, data []map[string]string) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert rows")
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_index) + 1, 0) FROM list_rows WHERE list_id = ?`, listID,
	).Scan(&next); err != nil {
		return 0, eris.Wrapf(err, "sqlite: next row index of list %s", listID)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO list_rows (id, list_id, row_index, data, flags, is_duplicate, created_at) VALUES (?, ?, ?, ?, '{}', 0, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert rows")
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i, d := range data {
		dataJSON, err := json.Marshal(nonNil(d))
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal row data")
		}
		if _, err := stmt.ExecContext(ctx, uuid.New().String(), listID, next+i, string(dataJSON), now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert row %d of list %s", i, listID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert rows")
	}
	return len(data), nil
}

const sqliteRowColumns = `id, list_id, row_index, data, flags, is_duplicate, created_at`

func (s *SQLiteStore) GetRow(ctx context.Context, id string) (*model.Row, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteRowColumns+` FROM list_rows WHERE id = ?`, id)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("row", id)
	}
	return r, eris.Wrapf(err, "sqlite: get row %s", id)
}

// UpdateRow merges upd into the stored row with json_patch in a single
// statement. Patch values are strings, never null, so no key is removed.
func (s *SQLiteStore) UpdateRow(ctx context.Context, id string, upd model.RowUpdate) error {
	dataJSON, err := json.Marshal(nonNil(upd.Data))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal row data")
	}
	flagsJSON, err := json.Marshal(nonNil(upd.Flags))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal row flags")
	}

	var dup sql.NullBool
	if upd.IsDuplicate != nil {
		dup = sql.NullBool{Bool: *upd.IsDuplicate, Valid: true}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE list_rows SET
			data = json_patch(data, ?),
			flags = json_patch(flags, ?),
			is_duplicate = COALESCE(?, is_duplicate)
		 WHERE id = ?`,
		string(dataJSON), string(flagsJSON), dup, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update row %s", id)
	}
	return checkRowsAffected(res, "row", id)
}

func (s *SQLiteStore) ListRows(ctx context.Context, listID string) ([]model.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteRowColumns+` FROM list_rows WHERE list_id = ? ORDER BY row_index`, listID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list rows %s", listID)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list rows iterate")
}

// SaveRows replaces data, flags and the duplicate marker of existing rows,
// one transaction per batch.
func (s *SQLiteStore) SaveRows(ctx context.Context, rows []model.Row) error {
	for _, batch := range batches(rows, s.batchSize) {
		if err := s.saveBatch(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) saveBatch(ctx context.Context, rows []model.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save rows")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE list_rows SET data = ?, flags = ?, is_duplicate = ? WHERE id = ?`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare save rows")
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		dataJSON, flagsJSON, err := marshalRow(r)
		if err != nil {
			return err
		}
		res, err := stmt.ExecContext(ctx, string(dataJSON), string(flagsJSON), r.IsDuplicate, r.ID)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save row %s", r.ID)
		}
		if err := checkRowsAffected(res, "row", r.ID); err != nil {
			return err
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit save rows")
}

// --- Runs ---

func (s *SQLiteStore) CreateRun(ctx context.Context, listID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_runs (id, list_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, listID, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run for list %s", listID)
	}

	return &model.Run{
		ID:        id,
		ListID:    listID,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, summary *model.EnrichmentSummary, runErr error) error {
	var summaryJSON sql.NullString
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal summary")
		}
		summaryJSON = sql.NullString{String: string(b), Valid: true}
	}
	status, msg := runOutcome(runErr)

	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_runs SET status = ?, summary = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), summaryJSON, msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var summaryJSON sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, list_id, status, summary, error, created_at, updated_at FROM enrichment_runs WHERE id = ?`,
		runID,
	).Scan(&r.ID, &r.ListID, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("run", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}

	if summaryJSON.Valid {
		r.Summary = &model.EnrichmentSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), r.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	return &r, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return notFound(entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanList(row scannable) (*model.List, error) {
	var l model.List
	var colsJSON string
	if err := row.Scan(&l.ID, &l.Name, &colsJSON, &l.Cleaned, &l.Enriched, &l.CreatedAt, &l.UpdatedAt, &l.RowCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(colsJSON), &l.Columns); err != nil {
		return nil, eris.Wrap(err, "unmarshal columns")
	}
	return &l, nil
}

func scanRow(row scannable) (*model.Row, error) {
	var r model.Row
	var dataJSON, flagsJSON string
	if err := row.Scan(&r.ID, &r.ListID, &r.Index, &dataJSON, &flagsJSON, &r.IsDuplicate, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := unmarshalRow(&r, []byte(dataJSON), []byte(flagsJSON)); err != nil {
		return nil, err
	}
	return &r, nil
}

func marshalRow(r model.Row) (data, flags []byte, err error) {
	data, err = json.Marshal(nonNil(r.Data))
	if err != nil {
		return nil, nil, eris.Wrapf(err, "marshal data of row %s", r.ID)
	}
	flags, err = json.Marshal(nonNil(r.Flags))
	if err != nil {
		return nil, nil, eris.Wrapf(err, "marshal flags of row %s", r.ID)
	}
	return data, flags, nil
}

func unmarshalRow(r *model.Row, data, flags []byte) error {
	if err := json.Unmarshal(data, &r.Data); err != nil {
		return eris.Wrapf(err, "unmarshal data of row %s", r.ID)
	}
	if err := json.Unmarshal(flags, &r.Flags); err != nil {
		return eris.Wrapf(err, "unmarshal flags of row %s", r.ID)
	}
	r.Data = nonNil(r.Data)
	r.Flags = nonNil(r.Flags)
	return nil
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
