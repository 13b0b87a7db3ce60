package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/sma-registry-api/internal/models"
	"github.com/noah-isme/sma-registry-api/pkg/database"
	appErrors "github.com/noah-isme/sma-registry-api/pkg/errors"
)

// lookupError maps sql.ErrNoRows and malformed identifiers to NOT_FOUND and
// anything else to INTERNAL_ERROR.
func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) || database.IsInvalidText(err) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Internal(err, "failed to load "+entity)
}

// writeError translates constraint violations raised by the schema into API errors.
func writeError(err error, entity, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	ce, ok := database.Constraint(err)
	if !ok {
		return appErrors.Internal(err, fmt.Sprintf("failed to %s %s", action, entity))
	}
	switch ce.Kind {
	case database.KindUnique:
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictMessage(entity, ce.Constraint))
	case database.KindForeignKey:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "referenced record does not exist")
	case database.KindCheck:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, checkMessage(ce.Constraint))
	case database.KindInvalidText:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid identifier")
	default:
		column := ce.Column
		if column == "" {
			column = "field"
		}
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, column+" is required")
	}
}

func conflictMessage(entity, constraint string) string {
	switch constraint {
	case "users_username_key", "idx_users_lower_username":
		return "username already exists"
	}
	return entity + " name already exists"
}

func checkMessage(constraint string) string {
	switch constraint {
	case "users_gender_check":
		return fmt.Sprintf("gender must be one of %q, %q", models.GenderMale, models.GenderFemale)
	case "users_role_check":
		return "role must be one of ADMIN, STAFF, STUDENT"
	}
	return "value violates " + constraint
}

// validationError wraps a validator failure.
func validationError(err error, entity string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid "+entity+" payload")
}

// conflict builds the pre-check conflict error mirroring the unique constraints.
func conflict(message string) error {
	return appErrors.Clone(appErrors.ErrConflict, message)
}

// pagination reports the page the repository actually served.
func pagination(page, size, total int) *models.Pagination {
	page, size = models.NormalizePage(page, size)
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// ListInfo carries pagination and cache provenance for a listing.
type ListInfo struct {
	Pagination *models.Pagination
	CacheHit   bool
}
