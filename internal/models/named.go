package models

// NameFilter is shared by every list endpoint over a uniquely named table.
type NameFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// NameRequest is the create/update payload for subjects, schools, terms and sessions.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}
