package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

// SchoolRepository handles persistence for schools.
type SchoolRepository struct {
	db    *sqlx.DB
	table namedTable
}

// NewSchoolRepository creates a new repository instance.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db, table: namedTable{db: db, table: "schools"}}
}

// List returns schools matching the filter with the total count.
func (r *SchoolRepository) List(ctx context.Context, filter models.NameFilter) ([]models.School, int, error) {
	var schools []models.School
	total, err := r.table.list(ctx, &schools, filter)
	if err != nil {
		return nil, 0, err
	}
	return schools, total, nil
}

// FindByID returns a school by id.
func (r *SchoolRepository) FindByID(ctx context.Context, id string) (*models.School, error) {
	var school models.School
	if err := r.table.findByID(ctx, &school, id); err != nil {
		return nil, err
	}
	return &school, nil
}

// ExistsByName checks school name uniqueness.
func (r *SchoolRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return r.table.existsByName(ctx, name, excludeID)
}

// Create persists a new school.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School) error {
	if school.ID == "" {
		school.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if school.CreatedAt.IsZero() {
		school.CreatedAt = now
	}
	school.UpdatedAt = now
	return r.table.create(ctx, school)
}

// Update renames a school.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	return r.table.update(ctx, school)
}

// Delete removes a school. The database cascades the delete to its classes and
// clears the class reference of their users; the counts are taken inside the
// same transaction so they describe exactly what the cascade removed.
func (r *SchoolRepository) Delete(ctx context.Context, id string) (*models.SchoolDeleteResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete school tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result := &models.SchoolDeleteResult{ID: id}
	if err = tx.GetContext(ctx, &result.ClassesDeleted, `SELECT COUNT(*) FROM student_classes WHERE school_id = $1`, id); err != nil {
		return nil, fmt.Errorf("count school classes: %w", err)
	}
	const usersQuery = `SELECT COUNT(*) FROM users u JOIN student_classes c ON c.id = u.student_class_id WHERE c.school_id = $1`
	if err = tx.GetContext(ctx, &result.UsersDetached, usersQuery, id); err != nil {
		return nil, fmt.Errorf("count school users: %w", err)
	}

	var res sql.Result
	if res, err = tx.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete school: %w", err)
	}
	if err = requireAffected(res); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete school tx: %w", err)
	}
	return result, nil
}
