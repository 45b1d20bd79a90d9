package models

import "time"

// Subject represents an academic subject from the catalog.
type Subject struct {
	ID               string    `db:"id" json:"id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	TheoryHours      int       `db:"theory_hours" json:"theory_hours"`
	PracticeHours    int       `db:"practice_hours" json:"practice_hours"`
	LabHours         int       `db:"lab_hours" json:"lab_hours"`
	RequiredRoomType *string   `db:"required_room_type" json:"required_room_type,omitempty"`
	Active           bool      `db:"active" json:"active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// TotalHours is the weekly instructional demand, one session per hour.
func (s Subject) TotalHours() int {
	return s.TheoryHours + s.PracticeHours + s.LabHours
}

// SubjectSpecialty declares a specialty a subject requires from its teacher.
type SubjectSpecialty struct {
	SubjectID   string `db:"subject_id" json:"subject_id"`
	SpecialtyID string `db:"specialty_id" json:"specialty_id"`
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
