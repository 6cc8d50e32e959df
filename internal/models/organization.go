package models

import (
	"time"

	"gorm.io/gorm"
)

type Organization struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Projects     []Project            `gorm:"foreignKey:OwnerID" json:"projects,omitempty"`
	Members      []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Associations []TaskOrgAssociation `gorm:"foreignKey:OrganizationID" json:"associations,omitempty"`
}
