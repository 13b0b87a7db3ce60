package models

import "time"

// StudentClass is a class group belonging to a school.
type StudentClass struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	SchoolID   string    `db:"school_id" json:"school_id"`
	SchoolName string    `db:"school_name" json:"school_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func (c StudentClass) String() string {
	return c.Name
}

// StudentClassFilter narrows class listings.
type StudentClassFilter struct {
	NameFilter
	SchoolID string
}

// StudentClassRequest is the create/update payload for a class.
type StudentClassRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	SchoolID string `json:"school_id" validate:"required,uuid"`
}

// StudentClassDeleteResult reports how many users lost their class reference.
type StudentClassDeleteResult struct {
	ID            string `json:"id"`
	UsersDetached int    `json:"users_detached"`
}
