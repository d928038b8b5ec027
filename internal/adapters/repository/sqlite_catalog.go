package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/bautagebuch/internal/domain/model"
)

const (
	categoryColumns  = `name, description, active, sort_order, created_at, updated_at`
	cableTypeColumns = `category, name, description, technical_data, active, sort_order, created_at, updated_at`
	materialColumns  = `name, category, description, unit, active, sort_order, created_at, updated_at`
)

func (s *SQLiteStore) AddCategory(ctx context.Context, c model.CableCategory) (err error) {
	start := time.Now()
	defer func() { observe("add_category", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM cable_categories WHERE name = ?`, c.Name); err != nil || ok {
			return existsErr(err, "cable category "+c.Name)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO cable_categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
			c.Name, c.Description, c.Active, c.SortOrder, formatTS(c.CreatedAt), formatTS(c.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert cable category: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateCategory(ctx context.Context, c model.CableCategory) (err error) {
	start := time.Now()
	defer func() { observe("update_category", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `UPDATE cable_categories
		SET description = ?, active = ?, sort_order = ?, updated_at = ? WHERE name = ?`,
		c.Description, c.Active, c.SortOrder, formatTS(c.UpdatedAt), c.Name)
	if err != nil {
		return fmt.Errorf("update cable category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: cable category %s", ErrNotFound, c.Name)
	}
	return nil
}

func (s *SQLiteStore) Category(ctx context.Context, name string) (model.CableCategory, error) {
	if s.closed.Load() {
		return model.CableCategory{}, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM cable_categories WHERE name = ?`, name)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CableCategory{}, fmt.Errorf("%w: cable category %s", ErrNotFound, name)
	}
	if err != nil {
		return model.CableCategory{}, fmt.Errorf("get cable category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) Categories(ctx context.Context, activeOnly bool) ([]model.CableCategory, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	stmt := `SELECT ` + categoryColumns + ` FROM cable_categories`
	if activeOnly {
		stmt += ` WHERE active = 1`
	}
	stmt += ` ORDER BY sort_order ASC, name ASC`

	rows, err := s.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("query cable categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.CableCategory{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cable category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddCableType(ctx context.Context, t model.CableType) (err error) {
	start := time.Now()
	defer func() { observe("add_cable_type", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM cable_categories WHERE name = ?`, t.Category)
		if err != nil {
			return fmt.Errorf("lookup cable category: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: cable category %s", ErrNotFound, t.Category)
		}
		if ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM cable_types WHERE category = ? AND name = ?`,
			t.Category, t.Name); err != nil || ok {
			return existsErr(err, "cable type "+t.Name+" in "+t.Category)
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO cable_types (`+cableTypeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Category, t.Name, t.Description, t.TechnicalData, t.Active, t.SortOrder,
			formatTS(t.CreatedAt), formatTS(t.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert cable type: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateCableType(ctx context.Context, t model.CableType) (err error) {
	start := time.Now()
	defer func() { observe("update_cable_type", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `UPDATE cable_types
		SET description = ?, technical_data = ?, active = ?, sort_order = ?, updated_at = ?
		WHERE category = ? AND name = ?`,
		t.Description, t.TechnicalData, t.Active, t.SortOrder, formatTS(t.UpdatedAt), t.Category, t.Name)
	if err != nil {
		return fmt.Errorf("update cable type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: cable type %s in %s", ErrNotFound, t.Name, t.Category)
	}
	return nil
}

func (s *SQLiteStore) CableType(ctx context.Context, category, name string) (model.CableType, error) {
	if s.closed.Load() {
		return model.CableType{}, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+cableTypeColumns+` FROM cable_types
		WHERE category = ? AND name = ?`, category, name)
	t, err := scanCableType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CableType{}, fmt.Errorf("%w: cable type %s in %s", ErrNotFound, name, category)
	}
	if err != nil {
		return model.CableType{}, fmt.Errorf("get cable type: %w", err)
	}
	return t, nil
}

// CableTypes filters by name in Go for the same reason Search does.
func (s *SQLiteStore) CableTypes(ctx context.Context, q CatalogQuery) (_ []model.CableType, err error) {
	start := time.Now()
	defer func() { observe("cable_types", start, err) }()
	if s.closed.Load() {
		return nil, ErrClosed
	}

	stmt := `SELECT t.category, t.name, t.description, t.technical_data, t.active, t.sort_order,
			t.created_at, t.updated_at
		FROM cable_types t JOIN cable_categories c ON c.name = t.category WHERE 1 = 1`
	var args []any
	if q.Category != "" {
		stmt += ` AND t.category = ?`
		args = append(args, q.Category)
	}
	if q.ActiveOnly {
		stmt += ` AND t.active = 1 AND c.active = 1`
	}
	stmt += ` ORDER BY t.category ASC, t.sort_order ASC, t.name ASC`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query cable types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.CableType{}
	for rows.Next() {
		t, err := scanCableType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cable type: %w", err)
		}
		if q.matches(t.Category, t.Name) {
			out = append(out, t)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddMaterial(ctx context.Context, m model.Material) (err error) {
	start := time.Now()
	defer func() { observe("add_material", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if ok, err := exists(ctx, tx, `SELECT COUNT(*) FROM materials WHERE name = ?`, m.Name); err != nil || ok {
			return existsErr(err, "material "+m.Name)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO materials (`+materialColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Name, m.Category, m.Description, m.Unit, m.Active, m.SortOrder,
			formatTS(m.CreatedAt), formatTS(m.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert material: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateMaterial(ctx context.Context, m model.Material) (err error) {
	start := time.Now()
	defer func() { observe("update_material", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `UPDATE materials
		SET category = ?, description = ?, unit = ?, active = ?, sort_order = ?, updated_at = ?
		WHERE name = ?`,
		m.Category, m.Description, m.Unit, m.Active, m.SortOrder, formatTS(m.UpdatedAt), m.Name)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: material %s", ErrNotFound, m.Name)
	}
	return nil
}

func (s *SQLiteStore) Material(ctx context.Context, name string) (model.Material, error) {
	if s.closed.Load() {
		return model.Material{}, ErrClosed
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materials WHERE name = ?`, name)
	m, err := scanMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Material{}, fmt.Errorf("%w: material %s", ErrNotFound, name)
	}
	if err != nil {
		return model.Material{}, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) Materials(ctx context.Context, q CatalogQuery) (_ []model.Material, err error) {
	start := time.Now()
	defer func() { observe("materials", start, err) }()
	if s.closed.Load() {
		return nil, ErrClosed
	}

	stmt := `SELECT ` + materialColumns + ` FROM materials WHERE 1 = 1`
	var args []any
	if q.Category != "" {
		stmt += ` AND category = ?`
		args = append(args, q.Category)
	}
	if q.ActiveOnly {
		stmt += ` AND active = 1`
	}
	stmt += ` ORDER BY category ASC, sort_order ASC, name ASC`

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query materials: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		if q.matches(m.Category, m.Name) {
			out = append(out, m)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteMaterial(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { observe("delete_material", start, err) }()
	if s.closed.Load() {
		return ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM materials WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: material %s", ErrNotFound, name)
	}
	return nil
}

func exists(ctx context.Context, tx *sql.Tx, query string, args ...any) (bool, error) {
	var n int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// existsErr turns the result of a failed or positive exists check into the
// error Add returns.
func existsErr(err error, what string) error {
	if err != nil {
		return fmt.Errorf("lookup %s: %w", what, err)
	}
	return fmt.Errorf("%w: %s", ErrExists, what)
}

func scanCategory(r rowScanner) (model.CableCategory, error) {
	var (
		c                model.CableCategory
		created, updated string
	)
	if err := r.Scan(&c.Name, &c.Description, &c.Active, &c.SortOrder, &created, &updated); err != nil {
		return c, err
	}
	return c, scanStamps(created, updated, &c.CreatedAt, &c.UpdatedAt)
}

func scanCableType(r rowScanner) (model.CableType, error) {
	var (
		t                model.CableType
		created, updated string
	)
	if err := r.Scan(&t.Category, &t.Name, &t.Description, &t.TechnicalData, &t.Active, &t.SortOrder,
		&created, &updated); err != nil {
		return t, err
	}
	return t, scanStamps(created, updated, &t.CreatedAt, &t.UpdatedAt)
}

func scanMaterial(r rowScanner) (model.Material, error) {
	var (
		m                model.Material
		created, updated string
	)
	if err := r.Scan(&m.Name, &m.Category, &m.Description, &m.Unit, &m.Active, &m.SortOrder,
		&created, &updated); err != nil {
		return m, err
	}
	return m, scanStamps(created, updated, &m.CreatedAt, &m.UpdatedAt)
}

func scanStamps(created, updated string, createdAt, updatedAt *time.Time) error {
	var err error
	if *createdAt, err = parseTS(created); err != nil {
		return err
	}
	*updatedAt, err = parseTS(updated)
	return err
}
