package dto

import (
	"time"

	"github.com/reliefhub/reliefhub/internal/models"
)

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	StartDate   string               `json:"start_date"`
	EndDate     string               `json:"end_date"`
	OwnerID     uint64               `json:"owner_id"`
	Status      models.ProjectStatus `json:"status"`
	CaseID      *int64               `json:"case_id"`
	CreatedAt   time.Time            `json:"created_at"`
	Owner       *OrganizationDTO     `json:"owner,omitempty"`
	Tasks       []TaskDTO            `json:"tasks,omitempty"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID               uint64            `json:"id"`
	Title            string            `json:"title"`
	Necessity        string            `json:"necessity"`
	Quantity         int               `json:"quantity"`
	StartDate        string            `json:"start_date"`
	EndDate          string            `json:"end_date"`
	ResolvesByItself bool              `json:"resolves_by_itself"`
	Status           models.TaskStatus `json:"status"`
	ProjectID        uint64            `json:"project_id"`
	Associations     []AssociationDTO  `json:"associations,omitempty"`
}

// AssociationDTO represents a task/organization association in API responses
type AssociationDTO struct {
	TaskID         uint64                   `json:"task_id"`
	OrganizationID uint64                   `json:"organization_id"`
	Status         models.AssociationStatus `json:"status"`
	SelectedAt     *time.Time               `json:"selected_at,omitempty"`
	Organization   *OrganizationDTO         `json:"organization,omitempty"`
}

// ProjectListResponse represents a paginated list of projects
type ProjectListResponse struct {
	Projects   []ProjectDTO `json:"projects"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
}

const dateLayout = "2006-01-02"

// ToProjectDTO converts a Project model to ProjectDTO
func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		StartDate:   project.StartDate.Format(dateLayout),
		EndDate:     project.EndDate.Format(dateLayout),
		OwnerID:     project.OwnerID,
		Status:      project.Status,
		CaseID:      project.CaseID,
		CreatedAt:   project.CreatedAt,
	}

	if project.Owner.ID != 0 {
		owner := ToOrganizationDTO(project.Owner)
		dto.Owner = &owner
	}

	if len(project.Tasks) > 0 {
		dto.Tasks = make([]TaskDTO, len(project.Tasks))
		for i, task := range project.Tasks {
			dto.Tasks[i] = ToTaskDTO(task)
		}
	}

	return dto
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:               task.ID,
		Title:            task.Title,
		Necessity:        task.Necessity,
		Quantity:         task.Quantity,
		StartDate:        task.StartDate.Format(dateLayout),
		EndDate:          task.EndDate.Format(dateLayout),
		ResolvesByItself: task.ResolvesByItself,
		Status:           task.Status,
		ProjectID:        task.ProjectID,
	}

	if len(task.Associations) > 0 {
		dto.Associations = make([]AssociationDTO, len(task.Associations))
		for i, assoc := range task.Associations {
			dto.Associations[i] = ToAssociationDTO(assoc)
		}
	}

	return dto
}

// ToAssociationDTO converts a TaskOrgAssociation model to AssociationDTO
func ToAssociationDTO(assoc models.TaskOrgAssociation) AssociationDTO {
	dto := AssociationDTO{
		TaskID:         assoc.TaskID,
		OrganizationID: assoc.OrganizationID,
		Status:         assoc.Status,
		SelectedAt:     assoc.SelectedAt,
	}

	if assoc.Organization.ID != 0 {
		org := ToOrganizationDTO(assoc.Organization)
		dto.Organization = &org
	}

	return dto
}

// ToProjectListResponse converts a slice of projects to ProjectListResponse
func ToProjectListResponse(projects []models.Project, page, pageSize int, totalCount int64) ProjectListResponse {
	items := make([]ProjectDTO, len(projects))
	for i, project := range projects {
		items[i] = ToProjectDTO(project)
	}

	return ProjectListResponse{
		Projects:   items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}
}
