package repository

import (
	"time"

	"github.com/reliefhub/reliefhub/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAssociationRepository is a GORM implementation of AssociationRepository
type GormAssociationRepository struct {
	db *gorm.DB
}

// NewAssociationRepository creates a new AssociationRepository
func NewAssociationRepository(db *gorm.DB) AssociationRepository {
	return &GormAssociationRepository{db: db}
}

// Create records a new association
func (r *GormAssociationRepository) Create(assoc *models.TaskOrgAssociation) error {
	return r.db.Create(assoc).Error
}

// Find finds the association for a (task, organization) pair
func (r *GormAssociationRepository) Find(taskID, orgID uint64) (*models.TaskOrgAssociation, error) {
	var assoc models.TaskOrgAssociation
	if err := r.db.Where("task_id = ? AND organization_id = ?", taskID, orgID).
		First(&assoc).Error; err != nil {
		return nil, err
	}
	return &assoc, nil
}

// ListByTask lists all associations of a task
func (r *GormAssociationRepository) ListByTask(taskID uint64) ([]models.TaskOrgAssociation, error) {
	var assocs []models.TaskOrgAssociation
	if err := r.db.Preload("Organization").
		Where("task_id = ?", taskID).
		Find(&assocs).Error; err != nil {
		return nil, err
	}
	return assocs, nil
}

// SelectExclusive promotes the (task, organization) association to selected
// and rejects every sibling in the same transaction, so two concurrent
// selections cannot both win. Row locks keep the read-then-write stable on
// engines that support them.
func (r *GormAssociationRepository) SelectExclusive(taskID, orgID uint64, now time.Time) (*models.TaskOrgAssociation, error) {
	var selected models.TaskOrgAssociation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var assocs []models.TaskOrgAssociation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("task_id = ?", taskID).
			Find(&assocs).Error; err != nil {
			return err
		}

		targetIdx := -1
		for i := range assocs {
			if assocs[i].OrganizationID == orgID {
				targetIdx = i
			}
		}
		if targetIdx == -1 {
			return gorm.ErrRecordNotFound
		}

		// Re-selecting the winner is a no-op.
		if assocs[targetIdx].Status == models.AssociationStatusSelected {
			selected = assocs[targetIdx]
			return nil
		}

		if err := assocs[targetIdx].TransitionTo(models.AssociationStatusSelected, now); err != nil {
			return err
		}
		if err := tx.Model(&models.TaskOrgAssociation{}).
			Where("task_id = ? AND organization_id = ?", taskID, orgID).
			Updates(map[string]any{
				"status":      assocs[targetIdx].Status,
				"selected_at": assocs[targetIdx].SelectedAt,
			}).Error; err != nil {
			return err
		}

		for i := range assocs {
			if i == targetIdx || assocs[i].Status == models.AssociationStatusRejected {
				continue
			}
			if err := assocs[i].TransitionTo(models.AssociationStatusRejected, now); err != nil {
				return err
			}
			if err := tx.Model(&models.TaskOrgAssociation{}).
				Where("task_id = ? AND organization_id = ?", taskID, assocs[i].OrganizationID).
				Update("status", models.AssociationStatusRejected).Error; err != nil {
				return err
			}
		}

		selected = assocs[targetIdx]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &selected, nil
}
