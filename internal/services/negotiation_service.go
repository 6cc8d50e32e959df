package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrTaskNotCollaborative = errors.New("task is resolved by its owner and not open for collaboration")
	ErrDuplicateApplication = errors.New("organization already applied to this task")
	ErrNotApplied           = errors.New("organization never applied to this task")
	ErrApplicationClosed    = errors.New("application was already rejected for this task")
)

// NegotiationService runs the task/organization association state machine
// and the project status transitions derived from it.
type NegotiationService struct {
	taskRepo    repository.TaskRepository
	assocRepo   repository.AssociationRepository
	projectRepo repository.ProjectRepository
	orgRepo     repository.OrganizationRepository
	gateway     *bpm.Client
}

// NewNegotiationService creates a new NegotiationService.
func NewNegotiationService(taskRepo repository.TaskRepository, assocRepo repository.AssociationRepository, projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository, gateway *bpm.Client) *NegotiationService {
	return &NegotiationService{
		taskRepo:    taskRepo,
		assocRepo:   assocRepo,
		projectRepo: projectRepo,
		orgRepo:     orgRepo,
		gateway:     gateway,
	}
}

// Apply records an organization's interest in a collaboration task. A second
// application by the same organization fails with ErrDuplicateApplication.
func (s *NegotiationService) Apply(ctx context.Context, taskID, orgID uint64) (*models.TaskOrgAssociation, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.ResolvesByItself {
		return nil, ErrTaskNotCollaborative
	}

	if _, err := s.orgRepo.FindByID(orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if _, err := s.assocRepo.Find(taskID, orgID); err == nil {
		return nil, ErrDuplicateApplication
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing application: %w", err)
	}

	assoc := &models.TaskOrgAssociation{
		TaskID:         taskID,
		OrganizationID: orgID,
		Status:         models.AssociationStatusInterested,
	}
	if err := s.assocRepo.Create(assoc); err != nil {
		// A concurrent application can slip past the Find check and hit the
		// composite primary key instead.
		if isDuplicateKey(err) {
			return nil, ErrDuplicateApplication
		}
		return nil, fmt.Errorf("failed to record application: %w", err)
	}

	s.notifyCase(ctx, task.ProjectID, bpm.CompromisePayload{
		Input: bpm.CompromiseInput{TaskID: taskID, OrganizationID: orgID},
	})

	// Once every collaboration task has at least one applicant the project
	// moves from active to waiting.
	if err := s.maybeMarkWaiting(task.ProjectID); err != nil {
		return nil, err
	}

	return assoc, nil
}

// Select marks one applicant as the chosen collaborator for a task. Every
// sibling application is rejected in the same transaction. Re-selecting the
// winner is idempotent; selecting an organization that never applied fails
// with ErrNotApplied.
func (s *NegotiationService) Select(ctx context.Context, taskID, orgID uint64) (*models.TaskOrgAssociation, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	assoc, err := s.assocRepo.SelectExclusive(taskID, orgID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrNotApplied
		case errors.Is(err, models.ErrInvalidTransition):
			return nil, ErrApplicationClosed
		default:
			return nil, fmt.Errorf("failed to select organization: %w", err)
		}
	}

	if err := s.taskRepo.UpdateStatus(taskID, models.TaskStatusResolved); err != nil {
		return nil, fmt.Errorf("failed to resolve task: %w", err)
	}

	s.notifyCase(ctx, task.ProjectID, bpm.SelectCompromisePayload{
		Input: bpm.SelectCompromiseInput{TaskID: taskID, OrganizationID: orgID},
	})

	if _, err := s.evaluateCoverage(task.ProjectID); err != nil {
		return nil, err
	}

	return assoc, nil
}

// ListApplications lists every association of a task.
func (s *NegotiationService) ListApplications(taskID uint64) ([]models.TaskOrgAssociation, error) {
	if _, err := s.findTask(taskID); err != nil {
		return nil, err
	}
	return s.assocRepo.ListByTask(taskID)
}

// ListTasksWithRequests lists collaboration tasks that have pending
// applications awaiting the owner's decision.
func (s *NegotiationService) ListTasksWithRequests() ([]models.Task, error) {
	return s.taskRepo.ListWithPendingApplications()
}

// AllTasksHaveAssociation reports whether every collaboration task of the
// named project has at least one application. Read-only.
func (s *NegotiationService) AllTasksHaveAssociation(projectName string) (bool, error) {
	project, err := s.findProjectByName(projectName)
	if err != nil {
		return false, err
	}
	missing, err := s.taskRepo.CountWithoutAssociation(project.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count unapplied tasks: %w", err)
	}
	return missing == 0, nil
}

// AllTasksAreCovered reports whether every task of the named project is
// either self-resolved or has a selected collaborator. When it returns true
// it also performs the project's transition to execution; the check is
// idempotent and safe to re-run.
func (s *NegotiationService) AllTasksAreCovered(projectName string) (bool, error) {
	project, err := s.findProjectByName(projectName)
	if err != nil {
		return false, err
	}
	return s.evaluateCoverage(project.ID)
}

// evaluateCoverage re-checks a project's coverage and moves it to execution
// once nothing is left uncovered.
func (s *NegotiationService) evaluateCoverage(projectID uint64) (bool, error) {
	uncovered, err := s.taskRepo.CountUncovered(projectID)
	if err != nil {
		return false, fmt.Errorf("failed to count uncovered tasks: %w", err)
	}
	if uncovered > 0 {
		return false, nil
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return false, fmt.Errorf("failed to find project: %w", err)
	}
	switch project.Status {
	case models.ProjectStatusActive, models.ProjectStatusWaiting:
		if _, err := s.projectRepo.UpdateStatus(projectID, models.ProjectStatusExecution); err != nil {
			return false, fmt.Errorf("failed to move project to execution: %w", err)
		}
	}
	return true, nil
}

func (s *NegotiationService) maybeMarkWaiting(projectID uint64) error {
	missing, err := s.taskRepo.CountWithoutAssociation(projectID)
	if err != nil {
		return fmt.Errorf("failed to count unapplied tasks: %w", err)
	}
	if missing > 0 {
		return nil
	}

	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		return fmt.Errorf("failed to find project: %w", err)
	}
	if project.Status != models.ProjectStatusActive {
		return nil
	}
	if _, err := s.projectRepo.UpdateStatus(projectID, models.ProjectStatusWaiting); err != nil {
		return fmt.Errorf("failed to move project to waiting: %w", err)
	}
	return nil
}

// notifyCase mirrors a negotiation step onto the project's workflow case.
// The local store is the source of truth; an engine failure here is an
// accepted inconsistency window, logged and not propagated.
func (s *NegotiationService) notifyCase(ctx context.Context, projectID uint64, payload bpm.FormPayload) {
	if s.gateway == nil {
		return
	}
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil || project.CaseID == nil {
		return
	}
	if err := s.gateway.SubmitToNextTask(ctx, *project.CaseID, payload); err != nil {
		log.Printf("failed to notify case %d of negotiation step: %v", *project.CaseID, err)
	}
}

// isDuplicateKey detects a primary/unique key violation across the postgres
// and sqlite drivers; gorm only reports gorm.ErrDuplicatedKey when error
// translation is enabled.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

func (s *NegotiationService) findTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *NegotiationService) findProjectByName(name string) (*models.Project, error) {
	project, err := s.projectRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}
