package database

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQL SQLSTATE codes surfaced by schema constraints.
const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
	codeInvalidTextRep      = "22P02"
)

// ConstraintError describes a violated schema constraint.
type ConstraintError struct {
	Kind       string
	Constraint string
	Column     string
	Detail     string
}

// Kinds reported by Constraint. KindInvalidText is a value the column type
// rejected, such as a malformed uuid.
const (
	KindUnique      = "unique"
	KindForeignKey  = "foreign_key"
	KindCheck       = "check"
	KindNotNull     = "not_null"
	KindInvalidText = "invalid_text"
)

// Constraint extracts constraint details from a lib/pq error. ok is false for any other error.
func Constraint(err error) (ConstraintError, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ConstraintError{}, false
	}

	ce := ConstraintError{Constraint: pqErr.Constraint, Column: pqErr.Column, Detail: pqErr.Detail}
	switch string(pqErr.Code) {
	case codeUniqueViolation:
		ce.Kind = KindUnique
	case codeForeignKeyViolation:
		ce.Kind = KindForeignKey
	case codeCheckViolation:
		ce.Kind = KindCheck
	case codeNotNullViolation:
		ce.Kind = KindNotNull
	case codeInvalidTextRep:
		ce.Kind = KindInvalidText
	default:
		return ConstraintError{}, false
	}
	return ce, true
}

// IsUniqueViolation reports whether err is a unique violation, optionally for a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	ce, ok := Constraint(err)
	if !ok || ce.Kind != KindUnique {
		return false
	}
	return constraint == "" || ce.Constraint == constraint
}

// IsInvalidText reports whether PostgreSQL rejected a value's text representation.
func IsInvalidText(err error) bool {
	ce, ok := Constraint(err)
	return ok && ce.Kind == KindInvalidText
}
