package models

import "time"

// Teacher represents an instructor record.
type Teacher struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	FullName       string    `db:"full_name" json:"full_name"`
	Email          *string   `db:"email" json:"email,omitempty"`
	Phone          *string   `db:"phone" json:"phone,omitempty"`
	ContractType   *string   `db:"contract_type" json:"contract_type,omitempty"`
	MaxWeeklyHours *int      `db:"max_weekly_hours" json:"max_weekly_hours,omitempty"`
	UnitID         *string   `db:"unit_id" json:"unit_id,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherSpecialty links a teacher to one specialty tag.
type TeacherSpecialty struct {
	TeacherID   string `db:"teacher_id" json:"teacher_id"`
	SpecialtyID string `db:"specialty_id" json:"specialty_id"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search    string
	Active    *bool
	UnitID    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
