package dto

// TimetableEntry is one assignment joined with its catalog display fields,
// used by timetable views and exports.
type TimetableEntry struct {
	AssignmentID string `json:"assignmentId" db:"assignment_id"`
	GroupCode    string `json:"groupCode" db:"group_code"`
	SubjectCode  string `json:"subjectCode" db:"subject_code"`
	SubjectName  string `json:"subjectName" db:"subject_name"`
	TeacherName  string `json:"teacherName" db:"teacher_name"`
	RoomName     string `json:"roomName" db:"room_name"`
	DayOfWeek    int    `json:"dayOfWeek" db:"day_of_week"`
	BlockName    string `json:"blockName" db:"block_name"`
	StartTime    string `json:"startTime" db:"start_time"`
	EndTime      string `json:"endTime" db:"end_time"`
	Status       string `json:"status" db:"status"`
}

// TimetableView is the cached, ordered timetable of one period.
type TimetableView struct {
	PeriodID string           `json:"periodId"`
	Entries  []TimetableEntry `json:"entries"`
}
