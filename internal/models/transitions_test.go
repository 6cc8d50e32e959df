package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProjectTransitions(t *testing.T) {
	allowed := map[ProjectStatus][]ProjectStatus{
		ProjectStatusActive:    {ProjectStatusWaiting, ProjectStatusExecution},
		ProjectStatusWaiting:   {ProjectStatusExecution},
		ProjectStatusExecution: {ProjectStatusFinished},
		ProjectStatusFinished:  {},
	}
	all := []ProjectStatus{ProjectStatusActive, ProjectStatusWaiting, ProjectStatusExecution, ProjectStatusFinished}

	for from, targets := range allowed {
		ok := map[ProjectStatus]bool{}
		for _, to := range targets {
			ok[to] = true
		}
		for _, to := range all {
			require.Equal(t, ok[to], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestProjectTransitionToSameStatusIsNoOp(t *testing.T) {
	project := Project{Status: ProjectStatusWaiting}
	require.NoError(t, project.TransitionTo(ProjectStatusWaiting))
	require.Equal(t, ProjectStatusWaiting, project.Status)
}

func TestProjectTransitionToInvalid(t *testing.T) {
	project := Project{Status: ProjectStatusFinished}
	err := project.TransitionTo(ProjectStatusActive)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.Equal(t, ProjectStatusFinished, project.Status)
}

func TestTaskTransitions(t *testing.T) {
	task := Task{Status: TaskStatusPending}
	require.NoError(t, task.TransitionTo(TaskStatusResolved))
	require.Equal(t, TaskStatusResolved, task.Status)

	// Resolved is terminal, but re-applying it is a no-op
	require.NoError(t, task.TransitionTo(TaskStatusResolved))
	require.ErrorIs(t, task.TransitionTo(TaskStatusPending), ErrInvalidTransition)
}

func TestAssociationTransitions(t *testing.T) {
	now := time.Now()

	selected := TaskOrgAssociation{Status: AssociationStatusInterested}
	require.NoError(t, selected.TransitionTo(AssociationStatusSelected, now))
	require.Equal(t, AssociationStatusSelected, selected.Status)
	require.NotNil(t, selected.SelectedAt)
	require.Equal(t, now, *selected.SelectedAt)

	rejected := TaskOrgAssociation{Status: AssociationStatusInterested}
	require.NoError(t, rejected.TransitionTo(AssociationStatusRejected, now))
	require.Nil(t, rejected.SelectedAt)

	// Both outcomes are terminal
	require.ErrorIs(t, selected.TransitionTo(AssociationStatusRejected, now), ErrInvalidTransition)
	require.ErrorIs(t, rejected.TransitionTo(AssociationStatusSelected, now), ErrInvalidTransition)
	require.ErrorIs(t, rejected.TransitionTo(AssociationStatusInterested, now), ErrInvalidTransition)
}

func TestObservationTransitions(t *testing.T) {
	now := time.Now()

	obs := Observation{Status: ObservationStatusPending}
	require.NoError(t, obs.TransitionTo(ObservationStatusAccepted, now))
	require.Equal(t, ObservationStatusAccepted, obs.Status)
	require.NotNil(t, obs.AcceptedAt)

	// Accepting twice is a no-op and keeps the first timestamp
	later := now.Add(time.Hour)
	require.NoError(t, obs.TransitionTo(ObservationStatusAccepted, later))
	require.Equal(t, now, *obs.AcceptedAt)

	require.ErrorIs(t, obs.TransitionTo(ObservationStatusPending, later), ErrInvalidTransition)
}
