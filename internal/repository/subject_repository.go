package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

// SubjectRepository handles persistence for subjects.
type SubjectRepository struct {
	table namedTable
}

// NewSubjectRepository creates a new repository instance.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{table: namedTable{db: db, table: "subjects"}}
}

// List returns subjects matching the filter with the total count.
func (r *SubjectRepository) List(ctx context.Context, filter models.NameFilter) ([]models.Subject, int, error) {
	var items []models.Subject
	total, err := r.table.list(ctx, &items, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindByID returns a single record or sql.ErrNoRows.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	var item models.Subject
	if err := r.table.findByID(ctx, &item, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByName checks name uniqueness case-insensitively, ignoring excludeID.
func (r *SubjectRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return r.table.existsByName(ctx, name, excludeID)
}

// Create persists a new record.
func (r *SubjectRepository) Create(ctx context.Context, item *models.Subject) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	return r.table.create(ctx, item)
}

// Update renames a record.
func (r *SubjectRepository) Update(ctx context.Context, item *models.Subject) error {
	item.UpdatedAt = time.Now().UTC()
	return r.table.update(ctx, item)
}

// Delete removes a record.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
