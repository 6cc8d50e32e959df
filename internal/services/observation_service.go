package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrObservationNotFound       = errors.New("observation not found")
	ErrObservationContentMissing = errors.New("observation content is required")
	ErrObservationHasNoCase      = errors.New("observation has no workflow case")
)

// ObservationService layers the oversight workflow on top of projects. It
// follows the same engine handoff pattern as project creation, against the
// control process.
type ObservationService struct {
	obsRepo     repository.ObservationRepository
	projectRepo repository.ProjectRepository
	gateway     *bpm.Client
	processName string
}

// NewObservationService creates a new ObservationService.
func NewObservationService(obsRepo repository.ObservationRepository, projectRepo repository.ProjectRepository, gateway *bpm.Client, processName string) *ObservationService {
	return &ObservationService{
		obsRepo:     obsRepo,
		projectRepo: projectRepo,
		gateway:     gateway,
		processName: processName,
	}
}

// CreateObservationInput represents input for raising an observation.
type CreateObservationInput struct {
	ProjectID      uint64
	UserID         uint64
	OrganizationID uint64
	Content        string
}

// Create starts a control case for the observation and persists the record
// with its case id. The observation is stored only after the engine accepted
// the form, so a failed handoff leaves no local row.
func (s *ObservationService) Create(ctx context.Context, input CreateObservationInput) (*models.Observation, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrObservationContentMissing
	}

	project, err := s.projectRepo.FindByID(input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	processID, err := s.gateway.FindProcessID(ctx, s.processName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve control process: %w", err)
	}

	caseID, err := s.gateway.Instantiate(ctx, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to start control case: %w", err)
	}

	payload := bpm.ObservationPayload{
		Input: bpm.ObservationInput{
			Content:        input.Content,
			ProjectName:    project.Name,
			CreatedAt:      bpm.FormatDate(time.Now()),
			UserID:         input.UserID,
			OrganizationID: input.OrganizationID,
		},
	}
	if err := s.gateway.SubmitToNextTask(ctx, caseID, payload); err != nil {
		return nil, fmt.Errorf("failed to submit observation form: %w", err)
	}

	obs := &models.Observation{
		ProjectID: project.ID,
		UserID:    input.UserID,
		Content:   input.Content,
		Status:    models.ObservationStatusPending,
		CaseID:    &caseID,
	}
	if err := s.obsRepo.Create(obs); err != nil {
		return nil, fmt.Errorf("failed to store observation: %w", err)
	}

	return obs, nil
}

// Accept resolves a pending observation through its control case and stamps
// the acceptance locally.
func (s *ObservationService) Accept(ctx context.Context, observationID uint64) (*models.Observation, error) {
	obs, err := s.obsRepo.FindByID(observationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrObservationNotFound
		}
		return nil, fmt.Errorf("failed to find observation: %w", err)
	}
	if obs.CaseID == nil {
		return nil, ErrObservationHasNoCase
	}

	now := time.Now()
	payload := bpm.AcceptObservationPayload{
		Input: bpm.AcceptObservationInput{
			ObservationID: obs.ID,
			AcceptedAt:    bpm.FormatDate(now),
		},
	}
	if err := s.gateway.SubmitToNextTask(ctx, *obs.CaseID, payload); err != nil {
		return nil, fmt.Errorf("failed to submit acceptance form: %w", err)
	}

	if err := obs.TransitionTo(models.ObservationStatusAccepted, now); err != nil {
		return nil, err
	}
	if err := s.obsRepo.Update(obs); err != nil {
		return nil, fmt.Errorf("failed to store acceptance: %w", err)
	}

	return obs, nil
}

// ListByProject lists the observations raised against a project.
func (s *ObservationService) ListByProject(projectID uint64) ([]models.Observation, error) {
	observations, err := s.obsRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observations: %w", err)
	}
	return observations, nil
}
