package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

// AcademicTermRepository handles persistence for academic terms.
type AcademicTermRepository struct {
	table namedTable
}

// NewAcademicTermRepository creates a new repository instance.
func NewAcademicTermRepository(db *sqlx.DB) *AcademicTermRepository {
	return &AcademicTermRepository{table: namedTable{db: db, table: "academic_terms"}}
}

// List returns academic terms matching the filter with the total count.
func (r *AcademicTermRepository) List(ctx context.Context, filter models.NameFilter) ([]models.AcademicTerm, int, error) {
	var items []models.AcademicTerm
	total, err := r.table.list(ctx, &items, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindByID returns a single record or sql.ErrNoRows.
func (r *AcademicTermRepository) FindByID(ctx context.Context, id string) (*models.AcademicTerm, error) {
	var item models.AcademicTerm
	if err := r.table.findByID(ctx, &item, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByName checks name uniqueness case-insensitively, ignoring excludeID.
func (r *AcademicTermRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return r.table.existsByName(ctx, name, excludeID)
}

// Create persists a new record.
func (r *AcademicTermRepository) Create(ctx context.Context, item *models.AcademicTerm) error {
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
func (r *AcademicTermRepository) Update(ctx context.Context, item *models.AcademicTerm) error {
	item.UpdatedAt = time.Now().UTC()
	return r.table.update(ctx, item)
}

// Delete removes a record.
func (r *AcademicTermRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
