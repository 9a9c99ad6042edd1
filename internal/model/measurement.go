package model

import "time"

// Measurement is one recorded sensor value. Rows are immutable once written
// and retained for history queries.
type Measurement struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SensorID  int64     `gorm:"index:idx_measurements_sensor_ts;not null"`
	Timestamp time.Time `gorm:"index:idx_measurements_sensor_ts;not null"`
	Value     float64   `gorm:"not null"`
}
