package services

import (
	"context"
	"testing"

	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newObservationService(t *testing.T, db *gorm.DB, state *engineState) *ObservationService {
	t.Helper()
	return NewObservationService(
		repository.NewObservationRepository(db),
		repository.NewProjectRepository(db),
		newTestGateway(t, state),
		"p",
	)
}

func TestCreateObservation(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestOrg(t, db, "Red Umbrella")
	project := seedProject(t, db, owner.ID, models.ProjectStatusExecution)
	state := &engineState{caseID: 500}
	svc := newObservationService(t, db, state)

	obs, err := svc.Create(context.Background(), CreateObservationInput{
		ProjectID:      project.ID,
		UserID:         7,
		OrganizationID: owner.ID,
		Content:        "Deliveries are behind schedule",
	})
	require.NoError(t, err)
	require.Equal(t, models.ObservationStatusPending, obs.Status)
	require.NotNil(t, obs.CaseID)
	require.Equal(t, int64(500), *obs.CaseID)
	require.Positive(t, state.requestCount())

	var stored models.Observation
	require.NoError(t, db.First(&stored, obs.ID).Error)
	require.Equal(t, project.ID, stored.ProjectID)
}

func TestCreateObservationValidation(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestOrg(t, db, "Red Umbrella")
	project := seedProject(t, db, owner.ID, models.ProjectStatusExecution)
	state := &engineState{}
	svc := newObservationService(t, db, state)

	_, err := svc.Create(context.Background(), CreateObservationInput{
		ProjectID: project.ID,
		UserID:    7,
		Content:   "   ",
	})
	require.ErrorIs(t, err, ErrObservationContentMissing)
	require.Zero(t, state.requestCount())

	_, err = svc.Create(context.Background(), CreateObservationInput{
		ProjectID: project.ID + 99,
		UserID:    7,
		Content:   "something",
	})
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestCreateObservationEngineFailureLeavesNoRow(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestOrg(t, db, "Red Umbrella")
	project := seedProject(t, db, owner.ID, models.ProjectStatusExecution)
	svc := newObservationService(t, db, &engineState{failInstantiation: true})

	_, err := svc.Create(context.Background(), CreateObservationInput{
		ProjectID: project.ID,
		UserID:    7,
		Content:   "something",
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Observation{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestAcceptObservation(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestOrg(t, db, "Red Umbrella")
	project := seedProject(t, db, owner.ID, models.ProjectStatusExecution)
	svc := newObservationService(t, db, &engineState{caseID: 500})

	obs, err := svc.Create(context.Background(), CreateObservationInput{
		ProjectID:      project.ID,
		UserID:         7,
		OrganizationID: owner.ID,
		Content:        "Deliveries are behind schedule",
	})
	require.NoError(t, err)

	accepted, err := svc.Accept(context.Background(), obs.ID)
	require.NoError(t, err)
	require.Equal(t, models.ObservationStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	var stored models.Observation
	require.NoError(t, db.First(&stored, obs.ID).Error)
	require.Equal(t, models.ObservationStatusAccepted, stored.Status)
}

func TestAcceptObservationNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := newObservationService(t, db, &engineState{})

	_, err := svc.Accept(context.Background(), 12345)
	require.ErrorIs(t, err, ErrObservationNotFound)
}

func TestListObservationsByProject(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestOrg(t, db, "Red Umbrella")
	project := seedProject(t, db, owner.ID, models.ProjectStatusExecution)
	svc := newObservationService(t, db, &engineState{caseID: 500})

	for _, content := range []string{"first remark", "second remark"} {
		_, err := svc.Create(context.Background(), CreateObservationInput{
			ProjectID:      project.ID,
			UserID:         7,
			OrganizationID: owner.ID,
			Content:        content,
		})
		require.NoError(t, err)
	}

	observations, err := svc.ListByProject(project.ID)
	require.NoError(t, err)
	require.Len(t, observations, 2)
}
