package models

import "time"

// Group is a scheduled offering of a subject within a program and period. It
// is the unit the generator places into teacher/room/time slots.
type Group struct {
	ID                string    `db:"id" json:"id"`
	Code              string    `db:"code" json:"code"`
	SubjectID         string    `db:"subject_id" json:"subject_id"`
	ProgramID         string    `db:"program_id" json:"program_id"`
	PeriodID          string    `db:"period_id" json:"period_id"`
	EstimatedStudents *int      `db:"estimated_students" json:"estimated_students,omitempty"`
	PreferredShift    *Shift    `db:"preferred_shift" json:"preferred_shift,omitempty"`
	AssignedTeacherID *string   `db:"assigned_teacher_id" json:"assigned_teacher_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// GroupFilter captures query params for listing groups.
type GroupFilter struct {
	PeriodID  string
	ProgramID string
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
