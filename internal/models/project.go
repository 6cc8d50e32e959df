package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrInvalidTransition is returned when a status change is not allowed by the
// entity's transition table.
var ErrInvalidTransition = errors.New("invalid status transition")

type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusWaiting   ProjectStatus = "waiting"
	ProjectStatusExecution ProjectStatus = "execution"
	ProjectStatusFinished  ProjectStatus = "finished"
)

// projectTransitions is the allowed transition table for project statuses.
// "active" can jump straight to "execution" when no collaboration is needed.
var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusActive:    {ProjectStatusWaiting, ProjectStatusExecution},
	ProjectStatusWaiting:   {ProjectStatusExecution},
	ProjectStatusExecution: {ProjectStatusFinished},
	ProjectStatusFinished:  {},
}

// CanTransitionTo reports whether moving to next is allowed.
func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	for _, allowed := range projectTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Project struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"type:varchar(255);index;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	StartDate   time.Time      `json:"start_date"`
	EndDate     time.Time      `json:"end_date"`
	OwnerID     uint64         `gorm:"not null" json:"owner_id"`
	Status      ProjectStatus  `gorm:"type:varchar(50);not null;default:'active'" json:"status"`
	CaseID      *int64         `json:"case_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Owner Organization `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Tasks []Task       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"tasks,omitempty"`
}

// TransitionTo validates the change against the transition table before
// applying it. Same-status transitions are a no-op so re-evaluation stays
// idempotent.
func (p *Project) TransitionTo(next ProjectStatus) error {
	if p.Status == next {
		return nil
	}
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: project %q -> %q", ErrInvalidTransition, p.Status, next)
	}
	p.Status = next
	return nil
}
