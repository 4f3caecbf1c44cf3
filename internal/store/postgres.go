package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/dataforge/internal/db"
	"github.com/sells-group/dataforge/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool      db.Pool
	closeFn   func()
	batchSize int
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection; they back the
// per-row reads and writes issued during enrichment.
var preparedStatements = map[string]string{
	stmtGetRow:    `SELECT ` + pgRowColumns + ` FROM list_rows WHERE id = $1`,
	stmtUpdateRow: pgUpdateRow,
}

const (
	stmtGetRow    = "get_row"
	stmtUpdateRow = "update_row"
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close, batchSize: DefaultBatchSize}, nil
}

// SetBatchSize sets the rows per SaveRows batch. Non-positive values keep
// the current size.
func (s *PostgresStore) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lists (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	columns    JSONB NOT NULL DEFAULT '[]',
	cleaned    BOOLEAN NOT NULL DEFAULT false,
	enriched   BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS list_rows (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	list_id      TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	row_index    INTEGER NOT NULL,
	data         JSONB NOT NULL DEFAULT '{}',
	flags        JSONB NOT NULL DEFAULT '{}',
	is_duplicate BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS enrichment_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	list_id    TEXT NOT NULL REFERENCES lists(id) ON DELETE CASCADE,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_list_rows_list_index ON list_rows(list_id, row_index);
CREATE INDEX IF NOT EXISTS idx_enrichment_runs_list ON enrichment_runs(list_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Lists ---

const pgListColumns = `id, name, columns, cleaned, enriched, created_at, updated_at,
	(SELECT COUNT(*) FROM list_rows r WHERE r.list_id = lists.id)`

func (s *PostgresStore) CreateList(ctx context.Context, name string, columns []string) (*model.List, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	columns = nonNilSlice(columns)

	colsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal columns")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO lists (id, name, columns, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, name, colsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert list")
	}

	return &model.List{
		ID:        id,
		Name:      name,
		Columns:   columns,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetList(ctx context.Context, id string) (*model.List, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgListColumns+` FROM lists WHERE id = $1`, id)
	l, err := scanPgList(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("list", id)
	}
	return l, eris.Wrapf(err, "postgres: get list %s", id)
}

func (s *PostgresStore) ListLists(ctx context.Context) ([]model.List, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+pgListColumns+` FROM lists ORDER BY created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lists")
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		l, err := scanPgList(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan list")
		}
		lists = append(lists, *l)
	}
	return lists, eris.Wrap(rows.Err(), "postgres: list lists iterate")
}

func (s *PostgresStore) UpdateListColumns(ctx context.Context, id string, columns []string) error {
	colsJSON, err := json.Marshal(nonNilSlice(columns))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal columns")
	}
	return s.updateList(ctx, id, `UPDATE lists SET columns = $2, updated_at = $3 WHERE id = $1`, colsJSON)
}

func (s *PostgresStore) MarkListCleaned(ctx context.Context, id string) error {
	return s.updateList(ctx, id, `UPDATE lists SET cleaned = true, updated_at = $2 WHERE id = $1`)
}

func (s *PostgresStore) MarkListEnriched(ctx context.Context, id string) error {
	return s.updateList(ctx, id, `UPDATE lists SET enriched = true, updated_at = $2 WHERE id = $1`)
}

func (s *PostgresStore) updateList(ctx context.Context, id, sql string, args ...any) error {
	args = append([]any{id}, append(args, time.Now().UTC())...)
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update list %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("list", id)
	}
	return nil
}

// DeleteList removes the list; rows and runs go with it by cascade.
func (s *PostgresStore) DeleteList(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lists WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete list %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("list", id)
	}
	return nil
}

// --- Rows ---

const pgRowColumns = `id, list_id, row_index, data, flags, is_duplicate, created_at`

var pgRowCopyColumns = []string{"id", "list_id", "row_index", "data", "flags", "is_duplicate", "created_at"}

// InsertRows bulk-loads rows with COPY, continuing the list's row index.
func (s *PostgresStore) InsertRows(ctx context.Context, listID string, data []map[string]string) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	var next int
	if err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(row_index) + 1, 0) FROM list_rows WHERE list_id = $1`, listID,
	).Scan(&next); err != nil {
		return 0, eris.Wrapf(err, "postgres: next row index of list %s", listID)
	}

	now := time.Now().UTC()
	rows := make([][]any, len(data))
	for i, d := range data {
		dataJSON, err := json.Marshal(nonNil(d))
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal row data")
		}
		rows[i] = []any{uuid.New().String(), listID, next + i, dataJSON, []byte(`{}`), false, now}
	}

	n, err := db.CopyFrom(ctx, s.pool, "list_rows", pgRowCopyColumns, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert rows of list %s", listID)
	}
	return int(n), nil
}

func (s *PostgresStore) GetRow(ctx context.Context, id string) (*model.Row, error) {
	row := s.pool.QueryRow(ctx, stmtGetRow, id)
	r, err := scanPgRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("row", id)
	}
	return r, eris.Wrapf(err, "postgres: get row %s", id)
}

const pgUpdateRow = `UPDATE list_rows SET
	data = data || $2::jsonb,
	flags = flags || $3::jsonb,
	is_duplicate = COALESCE($4, is_duplicate)
 WHERE id = $1`

// UpdateRow merges upd into the stored row with JSONB concatenation in a
// single statement.
func (s *PostgresStore) UpdateRow(ctx context.Context, id string, upd model.RowUpdate) error {
	dataJSON, err := json.Marshal(nonNil(upd.Data))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal row data")
	}
	flagsJSON, err := json.Marshal(nonNil(upd.Flags))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal row flags")
	}

	tag, err := s.pool.Exec(ctx, stmtUpdateRow, id, dataJSON, flagsJSON, upd.IsDuplicate)
	if err != nil {
		return eris.Wrapf(err, "postgres: update row %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound("row", id)
	}
	return nil
}

func (s *PostgresStore) ListRows(ctx context.Context, listID string) ([]model.Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgRowColumns+` FROM list_rows WHERE list_id = $1 ORDER BY row_index`, listID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list rows %s", listID)
	}
	defer rows.Close()

	var out []model.Row
	for rows.Next() {
		r, err := scanPgRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list rows iterate")
}

var rowsUpsert = db.UpsertConfig{
	Table:        "list_rows",
	Columns:      []string{"id", "list_id", "row_index", "data", "flags", "is_duplicate"},
	ConflictKeys: []string{"id"},
	UpdateCols:   []string{"data", "flags", "is_duplicate"},
}

// SaveRows replaces data, flags and the duplicate marker of existing rows,
// one upsert transaction per batch.
func (s *PostgresStore) SaveRows(ctx context.Context, rows []model.Row) error {
	for _, batch := range batches(rows, s.batchSize) {
		values := make([][]any, len(batch))
		for i, r := range batch {
			dataJSON, flagsJSON, err := marshalRow(r)
			if err != nil {
				return err
			}
			values[i] = []any{r.ID, r.ListID, r.Index, dataJSON, flagsJSON, r.IsDuplicate}
		}
		if _, err := db.BulkUpsert(ctx, s.pool, rowsUpsert, values); err != nil {
			return eris.Wrap(err, "postgres: save rows")
		}
	}
	return nil
}

// --- Runs ---

func (s *PostgresStore) CreateRun(ctx context.Context, listID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_runs (id, list_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, listID, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert run for list %s", listID)
	}

	return &model.Run{
		ID:        id,
		ListID:    listID,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, summary *model.EnrichmentSummary, runErr error) error {
	var summaryJSON []byte
	if summary != nil {
		b, err := json.Marshal(summary)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal summary")
		}
		summaryJSON = b
	}
	status, msg := runOutcome(runErr)

	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_runs SET status = $1, summary = $2, error = $3, updated_at = $4 WHERE id = $5`,
		string(status), summaryJSON, msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return notFound("run", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	var summaryJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, list_id, status, summary, error, created_at, updated_at FROM enrichment_runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.ListID, &r.Status, &summaryJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("run", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}

	if len(summaryJSON) > 0 {
		r.Summary = &model.EnrichmentSummary{}
		if err := json.Unmarshal(summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	return &r, nil
}

func scanPgList(row pgx.Row) (*model.List, error) {
	var l model.List
	var colsJSON []byte
	var count int64
	if err := row.Scan(&l.ID, &l.Name, &colsJSON, &l.Cleaned, &l.Enriched, &l.CreatedAt, &l.UpdatedAt, &count); err != nil {
		return nil, err
	}
	l.RowCount = int(count)
	if err := json.Unmarshal(colsJSON, &l.Columns); err != nil {
		return nil, eris.Wrap(err, "unmarshal columns")
	}
	return &l, nil
}

func scanPgRow(row pgx.Row) (*model.Row, error) {
	var r model.Row
	var dataJSON, flagsJSON []byte
	var index int32
	if err := row.Scan(&r.ID, &r.ListID, &index, &dataJSON, &flagsJSON, &r.IsDuplicate, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Index = int(index)
	if err := unmarshalRow(&r, dataJSON, flagsJSON); err != nil {
		return nil, err
	}
	return &r, nil
}
