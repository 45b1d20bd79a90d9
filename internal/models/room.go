package models

import "time"

// Room is a physical space that sessions are scheduled into.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	RoomType  string    `db:"room_type" json:"room_type"`
	Capacity  *int      `db:"capacity" json:"capacity,omitempty"`
	Location  *string   `db:"location" json:"location,omitempty"`
	UnitID    *string   `db:"unit_id" json:"unit_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter captures supported filters for listing rooms.
type RoomFilter struct {
	RoomType  string
	UnitID    string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
