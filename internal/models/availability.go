package models

import "time"

// AvailabilitySource marks how an availability record was loaded.
type AvailabilitySource string

const (
	AvailabilitySourceManual   AvailabilitySource = "MANUAL"
	AvailabilitySourceImported AvailabilitySource = "IMPORTED"
)

// AvailabilityRecord declares whether a teacher can take a (day, block) slot
// in a period, with a signed preference weight. Absence of a record means the
// slot is unknown and excluded from generation.
type AvailabilityRecord struct {
	ID          string             `db:"id" json:"id"`
	TeacherID   string             `db:"teacher_id" json:"teacher_id"`
	PeriodID    string             `db:"period_id" json:"period_id"`
	DayOfWeek   int                `db:"day_of_week" json:"day_of_week"`
	TimeBlockID string             `db:"time_block_id" json:"time_block_id"`
	Available   bool               `db:"available" json:"available"`
	Preference  int                `db:"preference" json:"preference"`
	Source      AvailabilitySource `db:"source" json:"source"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updated_at"`
}

// AvailabilityFilter captures query params for listing availability records.
type AvailabilityFilter struct {
	TeacherID string
	PeriodID  string
	DayOfWeek *int
	Available *bool
	Page      int
	PageSize  int
}
