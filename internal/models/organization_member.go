package models

import "time"

// OrganizationMember links users to the organizations they act for.
type OrganizationMember struct {
	OrganizationID uint64    `gorm:"primarykey" json:"organization_id"`
	UserID         uint64    `gorm:"primarykey" json:"user_id"`
	JoinedAt       time.Time `json:"joined_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
