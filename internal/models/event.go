package models

import (
	"time"
)

// SystemErrorType is the detail type devices use to report service failures.
const SystemErrorType = "systemError"

// DetailSnapshot is a deduplicated event description shared by many events.
type DetailSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Type      string    `json:"type" gorm:"not null;index"`
	Details   JSONB     `json:"details" gorm:"type:jsonb"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Event records that a device saw something described by a DetailSnapshot at DateTime.
type Event struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	DateTime      time.Time       `json:"dateTime" gorm:"not null;index"`
	DeviceID      uint            `json:"deviceId" gorm:"not null;index"`
	Device        *Device         `json:"device,omitempty" gorm:"foreignKey:DeviceID"`
	EventDetailID uint            `json:"eventDetailId" gorm:"not null;index"`
	EventDetail   *DetailSnapshot `json:"eventDetail,omitempty" gorm:"foreignKey:EventDetailID"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (DetailSnapshot) TableName() string {
	return "detail_snapshots"
}

func (Event) TableName() string {
	return "events"
}
