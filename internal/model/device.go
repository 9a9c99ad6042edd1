package model

import "time"

// AccessPoint is the room gateway that uploads measurements for its sensor
// devices and reports its liveness via heartbeats.
type AccessPoint struct {
	ID             int64        `gorm:"primaryKey"`
	RoomID         *int64       `gorm:"index"`
	Status         DeviceStatus `gorm:"size:16;not null;default:unregistered"`
	Connected      bool         `gorm:"not null;default:false"`
	LastConnection time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Associations
	Devices []SensorDevice `gorm:"foreignKey:AccessPointID"`
}

// SensorDevice is a desk unit carrying one sensor per climate dimension.
type SensorDevice struct {
	ID            int64        `gorm:"primaryKey"`
	AccessPointID *int64       `gorm:"index"`
	Status        DeviceStatus `gorm:"size:16;not null;default:unregistered"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Associations
	Sensors []Sensor `gorm:"foreignKey:DeviceID"`
}

// Sensor is a single measuring element of a sensor device.
type Sensor struct {
	ID       int64      `gorm:"primaryKey"`
	DeviceID int64      `gorm:"index;not null"`
	Type     SensorType `gorm:"size:32;not null"`
	Unit     string     `gorm:"size:16"`
}
