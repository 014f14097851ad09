package models

import (
	"time"

	"gorm.io/gorm"
)

type Group struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"groupname" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Devices []Device `json:"devices,omitempty" gorm:"foreignKey:GroupID"`
	Users   []User   `json:"users,omitempty" gorm:"many2many:group_users"`
}

type Device struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	DeviceName string         `json:"devicename" gorm:"column:device_name;not null;index"`
	GroupID    uint           `json:"groupId" gorm:"not null;index"`
	Group      *Group         `json:"group,omitempty" gorm:"foreignKey:GroupID"`
	Active     bool           `json:"active" gorm:"default:true"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Group) TableName() string {
	return "groups"
}

func (Device) TableName() string {
	return "devices"
}
