package models

import "time"

// AssignmentStatus tracks the lifecycle of a committed assignment.
type AssignmentStatus string

const (
	AssignmentStatusScheduled AssignmentStatus = "SCHEDULED"
	AssignmentStatusConfirmed AssignmentStatus = "CONFIRMED"
	AssignmentStatusCancelled AssignmentStatus = "CANCELLED"
)

// Assignment binds a group to a (teacher, room, day, time block) slot within
// a period. For a fixed period no two assignments may share the teacher, the
// room, or the group on the same (day, block).
type Assignment struct {
	ID          string           `db:"id" json:"id"`
	GroupID     string           `db:"group_id" json:"group_id"`
	TeacherID   string           `db:"teacher_id" json:"teacher_id"`
	RoomID      string           `db:"room_id" json:"room_id"`
	PeriodID    string           `db:"period_id" json:"period_id"`
	DayOfWeek   int              `db:"day_of_week" json:"day_of_week"`
	TimeBlockID string           `db:"time_block_id" json:"time_block_id"`
	Status      AssignmentStatus `db:"status" json:"status"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter captures query params for listing assignments.
type AssignmentFilter struct {
	PeriodID  string
	TeacherID string
	RoomID    string
	GroupID   string
	DayOfWeek *int
	Status    AssignmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ConflictKind names the axis on which a proposed slot collides, either with
// the persisted store or with assignments made earlier in the same run
// (the _session variants).
type ConflictKind string

const (
	ConflictNone           ConflictKind = ""
	ConflictTeacher        ConflictKind = "teacher_conflict"
	ConflictRoom           ConflictKind = "room_conflict"
	ConflictGroup          ConflictKind = "group_conflict"
	ConflictTeacherSession ConflictKind = "teacher_session_conflict"
	ConflictRoomSession    ConflictKind = "room_session_conflict"
	ConflictGroupSession   ConflictKind = "group_session_conflict"
)
