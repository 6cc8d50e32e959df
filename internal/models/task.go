package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending  TaskStatus = "pending"
	TaskStatusResolved TaskStatus = "resolved"
)

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:  {TaskStatusResolved},
	TaskStatusResolved: {},
}

// CanTransitionTo reports whether moving to next is allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range taskTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Task struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Necessity string    `gorm:"type:text;not null" json:"necessity"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// ResolvesByItself is decided at project creation and never changes:
	// tasks with it set are fulfilled by the owner and are never offered to
	// the collaboration marketplace.
	ResolvesByItself bool           `gorm:"not null;default:false" json:"resolves_by_itself"`
	Status           TaskStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ProjectID        uint64         `gorm:"not null;index" json:"project_id"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project      Project              `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Associations []TaskOrgAssociation `gorm:"foreignKey:TaskID" json:"associations,omitempty"`
}

// TransitionTo validates the change against the transition table.
func (t *Task) TransitionTo(next TaskStatus) error {
	if t.Status == next {
		return nil
	}
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: task %q -> %q", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	return nil
}
