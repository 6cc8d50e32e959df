package repository

import (
	"time"

	"github.com/reliefhub/reliefhub/internal/models"
)

// ProjectHandoff runs inside the project creation transaction, after the rows
// are written but before commit. It returns the external case id to persist
// on the project, or nil when no case was created. Returning an error rolls
// the whole creation back.
type ProjectHandoff func(project *models.Project, tasks []models.Task) (*int64, error)

// ProjectFilter holds filtering options for listing projects
type ProjectFilter struct {
	OwnerID  *uint64
	Status   *models.ProjectStatus
	Page     int
	PageSize int
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// CreateWithTasks persists a project and all of its tasks atomically,
	// running handoff before commit.
	CreateWithTasks(project *models.Project, tasks []models.Task, handoff ProjectHandoff) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// FindByName finds a project by exact name
	FindByName(name string) (*models.Project, error)

	// List retrieves projects with filtering and pagination
	List(filter ProjectFilter) ([]models.Project, int64, error)

	// UpdateStatus applies a validated status transition
	UpdateStatus(projectID uint64, next models.ProjectStatus) (*models.Project, error)

	// SolvedWithoutCollaboration returns projects in execution whose every
	// task resolves by itself
	SolvedWithoutCollaboration() ([]models.Project, error)
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// ListByProject lists all tasks of a project
	ListByProject(projectID uint64) ([]models.Task, error)

	// ListWithPendingApplications lists collaboration tasks that have at
	// least one interested association
	ListWithPendingApplications() ([]models.Task, error)

	// UpdateStatus applies a validated status transition
	UpdateStatus(taskID uint64, next models.TaskStatus) error

	// CountWithoutAssociation counts a project's collaboration tasks with no
	// association at all
	CountWithoutAssociation(projectID uint64) (int64, error)

	// CountUncovered counts a project's collaboration tasks lacking a
	// selected association
	CountUncovered(projectID uint64) (int64, error)
}

// AssociationRepository defines the interface for task/organization
// association data access
type AssociationRepository interface {
	// Create records a new association
	Create(assoc *models.TaskOrgAssociation) error

	// Find finds the association for a (task, organization) pair
	Find(taskID, orgID uint64) (*models.TaskOrgAssociation, error)

	// ListByTask lists all associations of a task
	ListByTask(taskID uint64) ([]models.TaskOrgAssociation, error)

	// SelectExclusive marks the (task, organization) association selected and
	// every sibling rejected, in a single transaction. Re-selecting the
	// already selected organization is a no-op.
	SelectExclusive(taskID, orgID uint64, now time.Time) (*models.TaskOrgAssociation, error)
}

// OrgResolvedCount is one row of the per-organization self-resolved task count
type OrgResolvedCount struct {
	OrgName       string `json:"ong_name"`
	ResolvedCount int64  `json:"resolved_tasks"`
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByName finds an organization by exact name
	FindByName(name string) (*models.Organization, error)

	// List lists all organizations
	List() ([]models.Organization, error)

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)

	// SelfResolvedTaskCounts groups, per owning organization, the number of
	// tasks marked resolves-by-itself
	SelfResolvedTaskCounts() ([]OrgResolvedCount, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithMembership creates a user and the membership linking them to
	// their organization within a single transaction
	CreateWithMembership(user *models.User, member *models.OrganizationMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// ObservationRepository defines the interface for observation data access
type ObservationRepository interface {
	// Create creates a new observation
	Create(obs *models.Observation) error

	// FindByID finds an observation by ID
	FindByID(id uint64) (*models.Observation, error)

	// ListByProject lists the observations raised against a project
	ListByProject(projectID uint64) ([]models.Observation, error)

	// Update updates an observation
	Update(obs *models.Observation) error
}
