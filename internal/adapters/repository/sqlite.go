package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/bautagebuch/internal/domain/model"
	"github.com/okian/bautagebuch/pkg/logger"
)

// Timestamps are stored as fixed-width UTC text so that string order equals time order.
const (
	tsLayout  = "2006-01-02T15:04:05.000000000Z07:00"
	dayLayout = "2006-01-02"
	memoryDSN = ":memory:"
)

const schema = `
CREATE TABLE IF NOT EXISTS measurements (
	id                TEXT PRIMARY KEY,
	date              TEXT NOT NULL,
	day               TEXT NOT NULL,
	location          TEXT NOT NULL,
	room_number       TEXT NOT NULL DEFAULT '',
	material          TEXT NOT NULL,
	unit              TEXT NOT NULL DEFAULT '',
	employee          TEXT NOT NULL,
	quantity          REAL NOT NULL,
	remarks           TEXT NOT NULL DEFAULT '',
	duplicate_checked INTEGER NOT NULL DEFAULT 0,
	deleted           INTEGER NOT NULL DEFAULT 0,
	deleted_at        TEXT,
	created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_measurements_day ON measurements(deleted, day);

CREATE TABLE IF NOT EXISTS logbook (
	id             TEXT PRIMARY KEY,
	measurement_id TEXT NOT NULL UNIQUE REFERENCES measurements(id),
	date           TEXT NOT NULL,
	text           TEXT NOT NULL,
	year           INTEGER NOT NULL,
	week           INTEGER NOT NULL,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_logbook_week ON logbook(year, week);

CREATE TABLE IF NOT EXISTS cable_categories (
	name        TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cable_types (
	category       TEXT NOT NULL REFERENCES cable_categories(name) ON DELETE CASCADE,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	technical_data TEXT NOT NULL DEFAULT '',
	active         INTEGER NOT NULL DEFAULT 1,
	sort_order     INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL,
	PRIMARY KEY (category, name)
);
CREATE INDEX IF NOT EXISTS idx_cable_types_active ON cable_types(active, name);

CREATE TABLE IF NOT EXISTS materials (
	name        TEXT PRIMARY KEY,
	category    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	unit        TEXT NOT NULL DEFAULT '',
	active      INTEGER NOT NULL DEFAULT 1,
	sort_order  INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_materials_active_category ON materials(active, category);
`

const measurementColumns = `id, date, location, room_number, material, unit, employee,
	quantity, remarks, duplicate_checked, deleted, deleted_at, created_at`

// SQLiteStore is a Store backed by a single SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	closed atomic.Bool
	cfg    settings
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path and migrates
// the schema. Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	cfg := newSettings(opts)

	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, path: path, cfg: cfg}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	cfg.info(ctx, "sqlite store opened", logger.String("path", path))
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	pragmas := fmt.Sprintf("PRAGMA busy_timeout = %d; PRAGMA foreign_keys = ON;", s.cfg.busyTimeout.Milliseconds())
	if _, err := s.db.ExecContext(ctx, pragmas); err != nil {
		return fmt.Errorf("configure database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, e model.MeasurementEntry, le model.LogbookEntry) (err error) {
	start := time.Now()
	defer func() { observe("add", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements WHERE id = ?`, e.ID).Scan(&n); err != nil {
			return fmt.Errorf("lookup entry: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %s", ErrExists, e.ID)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO measurements (`+measurementColumns+`, day)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, formatTS(e.Date), e.Location, e.RoomNumber, e.MaterialName, e.Unit, e.EmployeeName,
			e.Quantity, e.Remarks, e.DuplicateChecked, e.Deleted, formatNullTS(e.DeletedAt), formatTS(e.CreatedAt),
			model.Day(e.Date).Format(dayLayout))
		if err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		le.MeasurementID = e.ID
		return insertLogbook(ctx, tx, le)
	})
}

func (s *SQLiteStore) Update(ctx context.Context, e model.MeasurementEntry, le model.LogbookEntry) (err error) {
	start := time.Now()
	defer func() { observe("update", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE measurements SET
				date = ?, day = ?, location = ?, room_number = ?, material = ?, unit = ?,
				employee = ?, quantity = ?, remarks = ?, duplicate_checked = ?
			WHERE id = ? AND deleted = 0`,
			formatTS(e.Date), model.Day(e.Date).Format(dayLayout), e.Location, e.RoomNumber, e.MaterialName,
			e.Unit, e.EmployeeName, e.Quantity, e.Remarks, e.DuplicateChecked, e.ID)
		if err != nil {
			return fmt.Errorf("update entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, e.ID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM logbook WHERE measurement_id = ?`, e.ID); err != nil {
			return fmt.Errorf("replace logbook entry: %w", err)
		}
		le.MeasurementID = e.ID
		return insertLogbook(ctx, tx, le)
	})
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (model.MeasurementEntry, error) {
	if s.closed.Load() {
		return model.MeasurementEntry{}, ErrClosed
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+measurementColumns+` FROM measurements WHERE id = ? AND deleted = 0`, id)
	e, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MeasurementEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.MeasurementEntry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

func (s *SQLiteStore) Active(ctx context.Context) ([]model.MeasurementEntry, error) {
	return s.Search(ctx, Query{})
}

func (s *SQLiteStore) SoftDelete(ctx context.Context, id string, at time.Time) (err error) {
	start := time.Now()
	defer func() { observe("soft_delete", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE measurements SET deleted = 1, deleted_at = ? WHERE id = ? AND deleted = 0`,
			formatTS(at), id)
		if err != nil {
			return fmt.Errorf("delete entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM logbook WHERE measurement_id = ?`, id); err != nil {
			return fmt.Errorf("delete logbook entry: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) MarkChecked(ctx context.Context, id string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE measurements SET duplicate_checked = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("mark checked: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Search narrows by day range in SQL. Text filters run in Go because SQLite's
// lower() only folds ASCII and German site names are not.
func (s *SQLiteStore) Search(ctx context.Context, q Query) (_ []model.MeasurementEntry, err error) {
	start := time.Now()
	defer func() { observe("search", start, err) }()
	if s.closed.Load() {
		return nil, ErrClosed
	}

	stmt := `SELECT ` + measurementColumns + ` FROM measurements WHERE deleted = 0`
	var args []any
	if !q.From.IsZero() {
		stmt += ` AND day >= ?`
		args = append(args, model.Day(q.From).Format(dayLayout))
	}
	if !q.To.IsZero() {
		stmt += ` AND day <= ?`
		args = append(args, model.Day(q.To).Format(dayLayout))
	}
	stmt += ` ORDER BY date DESC, created_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.MeasurementEntry{}
	for rows.Next() {
		e, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if !q.matches(e) {
			continue
		}
		out = append(out, e)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Logbook(ctx context.Context, year, week int) ([]model.LogbookEntry, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, measurement_id, date, text, year, week, created_at
		FROM logbook WHERE year = ? AND week = ? ORDER BY date ASC, created_at ASC, id ASC`, year, week)
	if err != nil {
		return nil, fmt.Errorf("query logbook: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.LogbookEntry
	for rows.Next() {
		var (
			le             model.LogbookEntry
			date, created string
		)
		if err := rows.Scan(&le.ID, &le.MeasurementID, &date, &le.Text, &le.Year, &le.Week, &created); err != nil {
			return nil, fmt.Errorf("scan logbook entry: %w", err)
		}
		if le.Date, err = parseTS(date); err != nil {
			return nil, err
		}
		if le.CreatedAt, err = parseTS(created); err != nil {
			return nil, err
		}
		out = append(out, le)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Weeks(ctx context.Context) ([]model.WeekCount, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT year, week, COUNT(*) FROM logbook
		GROUP BY year, week ORDER BY year DESC, week DESC`)
	if err != nil {
		return nil, fmt.Errorf("query weeks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.WeekCount{}
	for rows.Next() {
		var w model.WeekCount
		if err := rows.Scan(&w.Year, &w.Week, &w.Count); err != nil {
			return nil, fmt.Errorf("scan week: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) int {
	if s.closed.Load() {
		return 0
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements WHERE deleted = 0`).Scan(&n); err != nil {
		s.cfg.warn(ctx, "count entries failed", logger.Error(err))
		return 0
	}
	return n
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertLogbook(ctx context.Context, tx *sql.Tx, le model.LogbookEntry) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO logbook (id, measurement_id, date, text, year, week, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		le.ID, le.MeasurementID, formatTS(le.Date), le.Text, le.Year, le.Week, formatTS(le.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert logbook entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(r rowScanner) (model.MeasurementEntry, error) {
	var (
		e                model.MeasurementEntry
		date, created    string
		deletedAt        sql.NullString
		checked, deleted bool
	)
	err := r.Scan(&e.ID, &date, &e.Location, &e.RoomNumber, &e.MaterialName, &e.Unit, &e.EmployeeName,
		&e.Quantity, &e.Remarks, &checked, &deleted, &deletedAt, &created)
	if err != nil {
		return e, err
	}
	e.DuplicateChecked, e.Deleted = checked, deleted
	if e.Date, err = parseTS(date); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTS(created); err != nil {
		return e, err
	}
	if deletedAt.Valid {
		at, err := parseTS(deletedAt.String)
		if err != nil {
			return e, err
		}
		e.DeletedAt = &at
	}
	return e, nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func formatNullTS(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTS(*t), Valid: true}
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
