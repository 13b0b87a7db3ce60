package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStaff   UserRole = "STAFF"
	RoleStudent UserRole = "STUDENT"
)

// Gender is constrained by the users_gender_check constraint.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether g is one of the accepted values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User represents an application user stored in the users table.
type User struct {
	ID             string     `db:"id" json:"id"`
	Username       string     `db:"username" json:"username"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Role           UserRole   `db:"role" json:"role"`
	Gender         Gender     `db:"gender" json:"gender"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	StudentClassID *string    `db:"student_class_id" json:"student_class_id"`
	LastLogin      *time.Time `db:"last_login" json:"last_login,omitempty"`
	DateJoined     time.Time  `db:"date_joined" json:"date_joined"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

func (u User) String() string {
	return u.Username
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role           *UserRole
	Active         *bool
	StudentClassID string
	Search         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// CreateUserRequest is the payload for provisioning a user.
type CreateUserRequest struct {
	Username       string   `json:"username" validate:"required,max=150"`
	Email          string   `json:"email" validate:"omitempty,email,max=254"`
	Password       string   `json:"password" validate:"required,min=6"`
	FirstName      string   `json:"first_name" validate:"max=150"`
	LastName       string   `json:"last_name" validate:"max=150"`
	Role           UserRole `json:"role" validate:"required,oneof=ADMIN STAFF STUDENT"`
	Gender         Gender   `json:"gender" validate:"required,oneof=male female"`
	IsActive       *bool    `json:"is_active"`
	StudentClassID *string  `json:"student_class_id" validate:"omitempty,uuid"`
}

// UpdateUserRequest carries the mutable user fields. Nil fields are left untouched.
type UpdateUserRequest struct {
	Email     *string   `json:"email" validate:"omitempty,email,max=254"`
	FirstName *string   `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string   `json:"last_name" validate:"omitempty,max=150"`
	Role      *UserRole `json:"role" validate:"omitempty,oneof=ADMIN STAFF STUDENT"`
	Gender    *Gender   `json:"gender" validate:"omitempty,oneof=male female"`
	IsActive  *bool     `json:"is_active"`
}

// AssignClassRequest sets or clears a user's class. A null id detaches the user.
type AssignClassRequest struct {
	StudentClassID *string `json:"student_class_id" validate:"omitempty,uuid"`
}

// AssignSubjectsRequest replaces the subjects a staff member teaches. An empty list clears them.
type AssignSubjectsRequest struct {
	SubjectIDs []string `json:"subject_ids" validate:"required,dive,uuid"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// Page size bounds shared by handlers, services and repositories.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage defaults a missing page or size and clamps size to MaxPageSize.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}
