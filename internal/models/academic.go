package models

import "time"

// AcademicTerm is a named term such as "First Term".
type AcademicTerm struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (t AcademicTerm) String() string {
	return t.Name
}

// AcademicSession is a named school year such as "2024/2025".
type AcademicSession struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (s AcademicSession) String() string {
	return s.Name
}

// CurrentAcademicPeriod pairs the configured current term and session.
type CurrentAcademicPeriod struct {
	Term    *AcademicTerm    `json:"term"`
	Session *AcademicSession `json:"session"`
}
