package dto

import "time"

// GenerateScheduleRequest asks the engine to rebuild the timetable of one period.
type GenerateScheduleRequest struct {
	PeriodID string `json:"periodId" validate:"required"`
}

// GenerationStats aggregates the outcome of one generation run.
type GenerationStats struct {
	SuccessfulAssignments   int `json:"successfulAssignments"`
	FailedAttempts          int `json:"failedAttempts"`
	GroupsFullyScheduled    int `json:"groupsFullyScheduled"`
	GroupsNotFullyScheduled int `json:"groupsNotFullyScheduled"`
}

// GenerateScheduleResponse reports the committed run back to the caller.
// UnresolvedConflicts is always present, possibly empty: partial scheduling
// is a normal reported outcome, not an error.
type GenerateScheduleResponse struct {
	PeriodID            string          `json:"periodId"`
	Stats               GenerationStats `json:"stats"`
	UnresolvedConflicts []string        `json:"unresolvedConflicts"`
	StartedAt           time.Time       `json:"startedAt"`
	FinishedAt          time.Time       `json:"finishedAt"`
}
