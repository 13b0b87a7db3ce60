package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

const namedColumns = "id, name, created_at, updated_at"

var namedSorts = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// namedTable implements the queries shared by tables shaped (id, name UNIQUE, created_at, updated_at).
type namedTable struct {
	db    *sqlx.DB
	table string
}

func (t namedTable) list(ctx context.Context, dest interface{}, filter models.NameFilter) (int, error) {
	var conds conditions
	if filter.Search != "" {
		conds.add("LOWER(name) LIKE ?", likePattern(filter.Search))
	}
	base := conds.apply(fmt.Sprintf("FROM %s WHERE 1=1", t.table))
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s %s LIMIT %d OFFSET %d", namedColumns, base,
		orderClause(filter.SortBy, filter.SortOrder, namedSorts, "name"), size, offset)
	if err := t.db.SelectContext(ctx, dest, query, conds.args...); err != nil {
		return 0, fmt.Errorf("list %s: %w", t.table, err)
	}

	var total int
	if err := t.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, conds.args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.table, err)
	}
	return total, nil
}

func (t namedTable) findByID(ctx context.Context, dest interface{}, id string) error {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", namedColumns, t.table)
	return t.db.GetContext(ctx, dest, query, id)
}

func (t namedTable) existsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE LOWER(name) = LOWER($1)", t.table)
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}

	var exists int
	if err := t.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s name: %w", t.table, err)
	}
	return true, nil
}

// create and update bind the :id, :name, :created_at, :updated_at fields of record.
func (t namedTable) create(ctx context.Context, record interface{}) error {
	query := fmt.Sprintf("INSERT INTO %s (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)", t.table)
	if _, err := t.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create %s: %w", t.table, err)
	}
	return nil
}

func (t namedTable) update(ctx context.Context, record interface{}) error {
	query := fmt.Sprintf("UPDATE %s SET name = :name, updated_at = :updated_at WHERE id = :id", t.table)
	res, err := t.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update %s: %w", t.table, err)
	}
	return requireAffected(res)
}

func (t namedTable) delete(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", t.table), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.table, err)
	}
	return requireAffected(res)
}

// requireAffected maps a zero-row write to sql.ErrNoRows.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
