package dto

// AvailabilitySlotInput is one (day, block) entry of a bulk availability load.
type AvailabilitySlotInput struct {
	DayOfWeek   int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	TimeBlockID string `json:"timeBlockId" validate:"required"`
	Available   bool   `json:"available"`
	Preference  int    `json:"preference" validate:"min=-2,max=2"`
}

// ReplaceAvailabilityRequest replaces all availability records of one teacher
// for a period in a single operation.
type ReplaceAvailabilityRequest struct {
	TeacherID string                  `json:"teacherId" validate:"required"`
	PeriodID  string                  `json:"periodId" validate:"required"`
	Slots     []AvailabilitySlotInput `json:"slots" validate:"required,dive"`
}

// UpsertAvailabilityRequest creates or updates a single availability record.
type UpsertAvailabilityRequest struct {
	TeacherID   string `json:"teacherId" validate:"required"`
	PeriodID    string `json:"periodId" validate:"required"`
	DayOfWeek   int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	TimeBlockID string `json:"timeBlockId" validate:"required"`
	Available   bool   `json:"available"`
	Preference  int    `json:"preference" validate:"min=-2,max=2"`
}
