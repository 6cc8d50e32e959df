package repository

import (
	"time"

	"github.com/reliefhub/reliefhub/internal/database"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/utils"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithTasks persists the project and its tasks in one transaction.
// The handoff callback (the BPM case creation) runs inside the transaction so
// an engine failure leaves no local rows behind. Self-resolved tasks are
// committed already resolved, with an owner-side selected association.
func (r *GormProjectRepository) CreateWithTasks(project *models.Project, tasks []models.Task, handoff ProjectHandoff) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}

		now := time.Now()
		for i := range tasks {
			tasks[i].ProjectID = project.ID
			if tasks[i].ResolvesByItself {
				tasks[i].Status = models.TaskStatusResolved
			} else {
				tasks[i].Status = models.TaskStatusPending
			}
		}
		if len(tasks) > 0 {
			if err := tx.Create(&tasks).Error; err != nil {
				return err
			}
		}

		for i := range tasks {
			if !tasks[i].ResolvesByItself {
				continue
			}
			assoc := models.TaskOrgAssociation{
				TaskID:         tasks[i].ID,
				OrganizationID: project.OwnerID,
				Status:         models.AssociationStatusSelected,
				SelectedAt:     &now,
			}
			if err := tx.Create(&assoc).Error; err != nil {
				return err
			}
		}

		if handoff != nil {
			caseID, err := handoff(project, tasks)
			if err != nil {
				return err
			}
			if caseID != nil {
				project.CaseID = caseID
				if err := tx.Model(project).Update("case_id", *caseID).Error; err != nil {
					return err
				}
			}
		}

		return tx.Model(project).Update("status", project.Status).Error
	})
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByName finds a project by exact name
func (r *GormProjectRepository) FindByName(name string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Where("name = ?", name).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// List retrieves projects with filtering and pagination
func (r *GormProjectRepository) List(filter ProjectFilter) ([]models.Project, int64, error) {
	query := r.db.Model(&models.Project{})

	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("projects.created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	var projects []models.Project
	if err := listQuery.Preload("Tasks").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

// UpdateStatus applies a validated status transition
func (r *GormProjectRepository) UpdateStatus(projectID uint64, next models.ProjectStatus) (*models.Project, error) {
	var project models.Project
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&project, projectID).Error; err != nil {
			return err
		}
		if err := project.TransitionTo(next); err != nil {
			return err
		}
		return tx.Model(&project).Update("status", project.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// SolvedWithoutCollaboration returns projects in execution whose every task
// resolves by itself
func (r *GormProjectRepository) SolvedWithoutCollaboration() ([]models.Project, error) {
	var projects []models.Project
	err := r.db.
		Where("projects.status = ?", models.ProjectStatusExecution).
		Where(`NOT EXISTS (
			SELECT 1 FROM tasks
			WHERE tasks.project_id = projects.id
			  AND tasks.resolves_by_itself = ?
			  AND tasks.deleted_at IS NULL
		)`, false).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}
