package repository

import (
	"github.com/reliefhub/reliefhub/internal/models"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByProject lists all tasks of a project
func (r *GormTaskRepository) ListByProject(projectID uint64) ([]models.Task, error) {
	var tasks []models.Task
	if err := r.db.Where("project_id = ?", projectID).
		Order("tasks.id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListWithPendingApplications lists collaboration tasks with at least one
// interested association
func (r *GormTaskRepository) ListWithPendingApplications() ([]models.Task, error) {
	var tasks []models.Task
	sub := r.db.Model(&models.TaskOrgAssociation{}).
		Select("1").
		Where("task_org_associations.task_id = tasks.id").
		Where("task_org_associations.status = ?", models.AssociationStatusInterested)

	err := r.db.
		Where("tasks.resolves_by_itself = ?", false).
		Where("EXISTS (?)", sub).
		Preload("Associations").
		Preload("Associations.Organization").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateStatus applies a validated status transition
func (r *GormTaskRepository) UpdateStatus(taskID uint64, next models.TaskStatus) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, taskID).Error; err != nil {
			return err
		}
		if err := task.TransitionTo(next); err != nil {
			return err
		}
		return tx.Model(&task).Update("status", task.Status).Error
	})
}

// CountWithoutAssociation counts a project's collaboration tasks that no
// organization has applied to yet
func (r *GormTaskRepository) CountWithoutAssociation(projectID uint64) (int64, error) {
	var count int64
	sub := r.db.Model(&models.TaskOrgAssociation{}).
		Select("1").
		Where("task_org_associations.task_id = tasks.id")

	err := r.db.Model(&models.Task{}).
		Where("tasks.project_id = ?", projectID).
		Where("tasks.resolves_by_itself = ?", false).
		Where("NOT EXISTS (?)", sub).
		Count(&count).Error
	return count, err
}

// CountUncovered counts a project's collaboration tasks that still lack a
// selected association
func (r *GormTaskRepository) CountUncovered(projectID uint64) (int64, error) {
	var count int64
	sub := r.db.Model(&models.TaskOrgAssociation{}).
		Select("1").
		Where("task_org_associations.task_id = tasks.id").
		Where("task_org_associations.status = ?", models.AssociationStatusSelected)

	err := r.db.Model(&models.Task{}).
		Where("tasks.project_id = ?", projectID).
		Where("tasks.resolves_by_itself = ?", false).
		Where("NOT EXISTS (?)", sub).
		Count(&count).Error
	return count, err
}
