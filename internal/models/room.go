package models

// Room represents a rentable unit inside a building.
// RoomNumber is unique within its building.
type Room struct {
	ID         string
	BuildingID string
	RoomNumber string // e.g. "A-101"
	IsOccupied bool
	CreatedAt  int64
}
