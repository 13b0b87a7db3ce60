package models

import "time"

// School owns one or more student classes.
type School struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (s School) String() string {
	return s.Name
}

// SchoolDeleteResult reports what the cascade removed alongside the school.
type SchoolDeleteResult struct {
	ID             string `json:"id"`
	ClassesDeleted int    `json:"classes_deleted"`
	UsersDetached  int    `json:"users_detached"`
}
