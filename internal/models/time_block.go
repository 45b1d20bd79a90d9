package models

import "time"

// Shift tags a time block with the part of day it belongs to.
type Shift string

const (
	ShiftMorning   Shift = "MORNING"
	ShiftAfternoon Shift = "AFTERNOON"
	ShiftEvening   Shift = "EVENING"
)

// TimeBlock is a named (day, start, end) interval occupancy is tracked against.
// Day of week runs 1 (Monday) through 7 (Sunday). Start and end are "HH:MM".
type TimeBlock struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Shift     Shift     `db:"shift" json:"shift"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Before reports whether b sorts ahead of other in canonical (day, start) order.
func (b TimeBlock) Before(other TimeBlock) bool {
	if b.DayOfWeek != other.DayOfWeek {
		return b.DayOfWeek < other.DayOfWeek
	}
	if b.StartTime != other.StartTime {
		return b.StartTime < other.StartTime
	}
	return b.ID < other.ID
}

// TimeBlockFilter captures query params for listing time blocks.
type TimeBlockFilter struct {
	DayOfWeek *int
	Shift     Shift
}

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
	6: "Saturday",
	7: "Sunday",
}

// DayName returns the English name for a 1-7 day index.
func DayName(day int) string {
	if name, ok := dayNames[day]; ok {
		return name
	}
	return "Unknown"
}
