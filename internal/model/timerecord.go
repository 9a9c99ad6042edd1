package model

import "time"

// TimeRecord is one span of tracked work time. An open record (EndTime nil)
// carries the user's current work mode.
type TimeRecord struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	UserID      int64      `gorm:"index;not null"`
	StartTime   time.Time  `gorm:"not null"`
	EndTime     *time.Time `gorm:"index"`
	WorkMode    WorkMode   `gorm:"size:16;not null"`
	Project     string     `gorm:"size:128"`
	WorkGroup   string     `gorm:"size:128"`
	Description string     `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
