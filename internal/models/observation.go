package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type ObservationStatus string

const (
	ObservationStatusPending  ObservationStatus = "pending"
	ObservationStatusAccepted ObservationStatus = "accepted"
)

var observationTransitions = map[ObservationStatus][]ObservationStatus{
	ObservationStatusPending:  {ObservationStatusAccepted},
	ObservationStatusAccepted: {},
}

// CanTransitionTo reports whether moving to next is allowed.
func (s ObservationStatus) CanTransitionTo(next ObservationStatus) bool {
	for _, allowed := range observationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Observation is an oversight remark raised against a project. It runs
// through its own control workflow case on the BPM engine.
type Observation struct {
	ID         uint64            `gorm:"primarykey" json:"id"`
	ProjectID  uint64            `gorm:"not null;index" json:"project_id"`
	UserID     uint64            `gorm:"not null" json:"user_id"`
	Content    string            `gorm:"type:text;not null" json:"content"`
	Status     ObservationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CaseID     *int64            `json:"case_id"`
	AcceptedAt *time.Time        `json:"accepted_at"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	DeletedAt  gorm.DeletedAt    `gorm:"index" json:"-"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TransitionTo validates the change against the transition table.
func (o *Observation) TransitionTo(next ObservationStatus, now time.Time) error {
	if o.Status == next {
		return nil
	}
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: observation %q -> %q", ErrInvalidTransition, o.Status, next)
	}
	o.Status = next
	if next == ObservationStatusAccepted {
		o.AcceptedAt = &now
	}
	return nil
}
