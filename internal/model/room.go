package model

import "time"

// Room represents a monitored office room.
type Room struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"uniqueIndex;size:128;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// Associations
	Limits []Limit `gorm:"foreignKey:RoomID"`
}

// Limit is the configured acceptable range for one sensor type in a room.
type Limit struct {
	ID           int64      `gorm:"primaryKey"`
	RoomID       int64      `gorm:"index:idx_limits_room_type;not null"`
	SensorType   SensorType `gorm:"index:idx_limits_room_type;size:32;not null"`
	LowerBound   float64    `gorm:"not null"`
	UpperBound   float64    `gorm:"not null"`
	MessageLower string     `gorm:"size:256"`
	MessageUpper string     `gorm:"size:256"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid reports whether the range is well-formed.
func (l Limit) Valid() bool {
	return l.UpperBound >= l.LowerBound
}

// Violates reports whether the value falls outside the configured range.
func (l Limit) Violates(value float64) bool {
	return value < l.LowerBound || value > l.UpperBound
}
