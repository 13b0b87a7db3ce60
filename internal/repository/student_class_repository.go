package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

const classSelect = `SELECT c.id, c.name, c.school_id, s.name AS school_name, c.created_at, c.updated_at FROM student_classes c JOIN schools s ON s.id = c.school_id`

var classSorts = map[string]string{
	"name":        "c.name",
	"school_name": "s.name",
	"created_at":  "c.created_at",
	"updated_at":  "c.updated_at",
}

// StudentClassRepository handles persistence for student classes.
type StudentClassRepository struct {
	db *sqlx.DB
}

// NewStudentClassRepository creates a new repository instance.
func NewStudentClassRepository(db *sqlx.DB) *StudentClassRepository {
	return &StudentClassRepository{db: db}
}

// List returns classes with their school name, optionally scoped to one school.
func (r *StudentClassRepository) List(ctx context.Context, filter models.StudentClassFilter) ([]models.StudentClass, int, error) {
	var conds conditions
	if filter.SchoolID != "" {
		conds.add("c.school_id = ?", filter.SchoolID)
	}
	if filter.Search != "" {
		conds.add("LOWER(c.name) LIKE ?", likePattern(filter.Search))
	}
	where := conds.apply(" WHERE 1=1")
	_, size, offset := normalizePage(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s%s %s LIMIT %d OFFSET %d", classSelect, where,
		orderClause(filter.SortBy, filter.SortOrder, classSorts, "name"), size, offset)
	var classes []models.StudentClass
	if err := r.db.SelectContext(ctx, &classes, query, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list student classes: %w", err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM student_classes c JOIN schools s ON s.id = c.school_id" + where
	if err := r.db.GetContext(ctx, &total, countQuery, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count student classes: %w", err)
	}
	return classes, total, nil
}

// FindByID returns a class by id.
func (r *StudentClassRepository) FindByID(ctx context.Context, id string) (*models.StudentClass, error) {
	var class models.StudentClass
	if err := r.db.GetContext(ctx, &class, classSelect+" WHERE c.id = $1", id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ExistsByName checks class name uniqueness across all schools.
func (r *StudentClassRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return namedTable{db: r.db, table: "student_classes"}.existsByName(ctx, name, excludeID)
}

// Create persists a new class.
func (r *StudentClassRepository) Create(ctx context.Context, class *models.StudentClass) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO student_classes (id, name, school_id, created_at, updated_at) VALUES (:id, :name, :school_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create student class: %w", err)
	}
	return nil
}

// Update modifies the class name and school.
func (r *StudentClassRepository) Update(ctx context.Context, class *models.StudentClass) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_classes SET name = :name, school_id = :school_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update student class: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a class and reports how many users referenced it. Those users
// keep their rows; the foreign key clears student_class_id.
func (r *StudentClassRepository) Delete(ctx context.Context, id string) (*models.StudentClassDeleteResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete student class tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result := &models.StudentClassDeleteResult{ID: id}
	if err = tx.GetContext(ctx, &result.UsersDetached, `SELECT COUNT(*) FROM users WHERE student_class_id = $1`, id); err != nil {
		return nil, fmt.Errorf("count class users: %w", err)
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM student_classes WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete student class: %w", err)
	}
	if err = requireAffected(res); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete student class tx: %w", err)
	}
	return result, nil
}

// Exists reports whether a class id is present.
func (r *StudentClassRepository) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	if err := r.db.GetContext(ctx, &one, `SELECT 1 FROM student_classes WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check student class: %w", err)
	}
	return true, nil
}
