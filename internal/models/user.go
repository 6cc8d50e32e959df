package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(128);not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organizations []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
	Observations  []Observation        `gorm:"foreignKey:UserID" json:"-"`
}
