package model

import "time"

// User is a notification recipient. Employees own at most one sensor device.
type User struct {
	ID        int64    `gorm:"primaryKey"`
	Username  string   `gorm:"uniqueIndex;size:64;not null"`
	Email     string   `gorm:"size:128;not null"`
	Role      UserRole `gorm:"size:16;not null;default:employee"`
	DeviceID  *int64   `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
