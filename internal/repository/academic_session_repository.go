package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-registry-api/internal/models"
)

// AcademicSessionRepository handles persistence for academic sessions.
type AcademicSessionRepository struct {
	table namedTable
}

// NewAcademicSessionRepository creates a new repository instance.
func NewAcademicSessionRepository(db *sqlx.DB) *AcademicSessionRepository {
	return &AcademicSessionRepository{table: namedTable{db: db, table: "academic_sessions"}}
}

// List returns academic sessions matching the filter with the total count.
func (r *AcademicSessionRepository) List(ctx context.Context, filter models.NameFilter) ([]models.AcademicSession, int, error) {
	var items []models.AcademicSession
	total, err := r.table.list(ctx, &items, filter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindByID returns a single record or sql.ErrNoRows.
func (r *AcademicSessionRepository) FindByID(ctx context.Context, id string) (*models.AcademicSession, error) {
	var item models.AcademicSession
	if err := r.table.findByID(ctx, &item, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ExistsByName checks name uniqueness case-insensitively, ignoring excludeID.
func (r *AcademicSessionRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return r.table.existsByName(ctx, name, excludeID)
}

// Create persists a new record.
func (r *AcademicSessionRepository) Create(ctx context.Context, item *models.AcademicSession) error {
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
func (r *AcademicSessionRepository) Update(ctx context.Context, item *models.AcademicSession) error {
	item.UpdatedAt = time.Now().UTC()
	return r.table.update(ctx, item)
}

// Delete removes a record.
func (r *AcademicSessionRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
