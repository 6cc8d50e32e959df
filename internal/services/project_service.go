package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/constants"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrProjectNameTooShort  = errors.New("project name is too short")
	ErrDescriptionTooShort  = errors.New("project description is too short")
	ErrEndBeforeStart       = errors.New("end date must not precede start date")
	ErrTaskTitleRequired    = errors.New("every task needs a title")
	ErrTaskEndBeforeStart   = errors.New("task end date must not precede its start date")
	ErrInvalidTaskQuantity  = errors.New("task quantity must be positive")
	ErrOwnerNotFound        = errors.New("owner organization not found")
	ErrProjectHandoffFailed = errors.New("workflow case handoff failed")
)

// ProjectService orchestrates project creation across the local store and
// the BPM engine.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	orgRepo     repository.OrganizationRepository
	gateway     *bpm.Client
	processName string
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository, gateway *bpm.Client, processName string) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		orgRepo:     orgRepo,
		gateway:     gateway,
		processName: processName,
	}
}

// TaskInput is one proposed task inside a project creation request.
type TaskInput struct {
	Title            string
	Necessity        string
	Quantity         int
	StartDate        time.Time
	EndDate          time.Time
	ResolvesByItself bool
}

// CreateProjectInput represents input for creating a project.
type CreateProjectInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	OwnerID     uint64
	Tasks       []TaskInput
}

func (in CreateProjectInput) validate() error {
	if len(strings.TrimSpace(in.Name)) < constants.MinProjectNameLength {
		return ErrProjectNameTooShort
	}
	if len(strings.TrimSpace(in.Description)) < constants.MinProjectDescriptionLength {
		return ErrDescriptionTooShort
	}
	if in.EndDate.Before(in.StartDate) {
		return ErrEndBeforeStart
	}
	for _, task := range in.Tasks {
		if strings.TrimSpace(task.Title) == "" {
			return ErrTaskTitleRequired
		}
		if task.EndDate.Before(task.StartDate) {
			return ErrTaskEndBeforeStart
		}
		if task.Quantity <= 0 {
			return ErrInvalidTaskQuantity
		}
	}
	return nil
}

// CreateProject validates the input, persists the project with its tasks and
// hands the collaboration-needed tasks to the BPM engine. The engine handoff
// runs inside the local transaction: if it fails the project does not
// survive, so readers never observe a half-created project. When no task
// needs collaboration the project jumps straight to execution and the engine
// is never contacted.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	owner, err := s.orgRepo.FindByID(input.OwnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to find owner organization: %w", err)
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		OwnerID:     owner.ID,
		Status:      models.ProjectStatusActive,
	}

	tasks := make([]models.Task, len(input.Tasks))
	for i, t := range input.Tasks {
		tasks[i] = models.Task{
			Title:            t.Title,
			Necessity:        t.Necessity,
			Quantity:         t.Quantity,
			StartDate:        t.StartDate,
			EndDate:          t.EndDate,
			ResolvesByItself: t.ResolvesByItself,
		}
	}

	_, needsCollaboration := SplitTasks(tasks)

	var handoff repository.ProjectHandoff
	if len(needsCollaboration) == 0 {
		project.Status = models.ProjectStatusExecution
	} else {
		handoff = func(persisted *models.Project, persistedTasks []models.Task) (*int64, error) {
			caseID, err := s.instantiateCase(ctx, persisted, persistedTasks, owner.Name)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrProjectHandoffFailed, err)
			}
			return &caseID, nil
		}
	}

	if err := s.projectRepo.CreateWithTasks(project, tasks, handoff); err != nil {
		if errors.Is(err, ErrProjectHandoffFailed) {
			// The engine may have instantiated a case the rollback cannot
			// reach. Accepted inconsistency window; an operator has to clean
			// it up.
			log.Printf("project creation rolled back after engine failure, case may be orphaned: %v", err)
		}
		return nil, err
	}

	return s.projectRepo.FindByID(project.ID, "Tasks", "Owner")
}

// instantiateCase drives the engine through the login, find-process,
// instantiate, wait, assign, submit-form sequence and returns the case id.
func (s *ProjectService) instantiateCase(ctx context.Context, project *models.Project, tasks []models.Task, ownerName string) (int64, error) {
	processID, err := s.gateway.FindProcessID(ctx, s.processName)
	if err != nil {
		return 0, err
	}

	caseID, err := s.gateway.Instantiate(ctx, processID)
	if err != nil {
		return 0, err
	}

	payload := buildProjectCreationPayload(project, tasks, ownerName)
	if err := s.gateway.SubmitToNextTask(ctx, caseID, payload); err != nil {
		return 0, err
	}

	return caseID, nil
}

func buildProjectCreationPayload(project *models.Project, tasks []models.Task, ownerName string) bpm.ProjectCreationPayload {
	inputs := make([]bpm.TaskInput, 0, len(tasks))
	for _, task := range tasks {
		if task.ResolvesByItself {
			continue
		}
		inputs = append(inputs, bpm.TaskInput{
			Title:            task.Title,
			Necessity:        task.Necessity,
			StartDate:        bpm.FormatDate(task.StartDate),
			EndDate:          bpm.FormatDate(task.EndDate),
			ResolvesByItself: task.ResolvesByItself,
			Quantity:         task.Quantity,
			Status:           string(task.Status),
		})
	}

	return bpm.ProjectCreationPayload{
		Input: bpm.ProjectDataInput{
			Name:        project.Name,
			Description: project.Description,
			StartDate:   bpm.FormatDate(project.StartDate),
			EndDate:     bpm.FormatDate(project.EndDate),
			Status:      string(project.Status),
			Owner:       ownerName,
			Tasks:       inputs,
		},
	}
}

// GetProject returns a project with its tasks and owner.
func (s *ProjectService) GetProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, "Tasks", "Owner")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// ListProjects returns projects matching the filter.
func (s *ProjectService) ListProjects(filter repository.ProjectFilter) ([]models.Project, int64, error) {
	projects, total, err := s.projectRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, total, nil
}
