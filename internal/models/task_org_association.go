package models

import (
	"fmt"
	"time"
)

type AssociationStatus string

const (
	AssociationStatusInterested AssociationStatus = "interested"
	AssociationStatusSelected   AssociationStatus = "selected"
	AssociationStatusRejected   AssociationStatus = "rejected"
)

var associationTransitions = map[AssociationStatus][]AssociationStatus{
	AssociationStatusInterested: {AssociationStatusSelected, AssociationStatusRejected},
	AssociationStatusSelected:   {},
	AssociationStatusRejected:   {},
}

// CanTransitionTo reports whether moving to next is allowed.
func (s AssociationStatus) CanTransitionTo(next AssociationStatus) bool {
	for _, allowed := range associationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TaskOrgAssociation tracks one organization's interest in one task. At most
// one association per (task, organization) pair exists, and at most one
// association per task can be "selected".
type TaskOrgAssociation struct {
	TaskID         uint64            `gorm:"primarykey" json:"task_id"`
	OrganizationID uint64            `gorm:"primarykey" json:"organization_id"`
	Status         AssociationStatus `gorm:"type:varchar(50);not null;default:'interested'" json:"status"`
	SelectedAt     *time.Time        `json:"selected_at"`
	CreatedAt      time.Time         `json:"created_at"`

	// Relations
	Task         Task         `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// TransitionTo validates the change against the transition table. SelectedAt
// is stamped only on the transition into "selected".
func (a *TaskOrgAssociation) TransitionTo(next AssociationStatus, now time.Time) error {
	if a.Status == next {
		return nil
	}
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: association %q -> %q", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	if next == AssociationStatusSelected {
		a.SelectedAt = &now
	}
	return nil
}
