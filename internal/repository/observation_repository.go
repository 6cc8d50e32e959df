package repository

import (
	"github.com/reliefhub/reliefhub/internal/models"
	"gorm.io/gorm"
)

// GormObservationRepository is a GORM implementation of ObservationRepository
type GormObservationRepository struct {
	db *gorm.DB
}

// NewObservationRepository creates a new ObservationRepository
func NewObservationRepository(db *gorm.DB) ObservationRepository {
	return &GormObservationRepository{db: db}
}

// Create creates a new observation
func (r *GormObservationRepository) Create(obs *models.Observation) error {
	return r.db.Create(obs).Error
}

// FindByID finds an observation by ID
func (r *GormObservationRepository) FindByID(id uint64) (*models.Observation, error) {
	var obs models.Observation
	if err := r.db.First(&obs, id).Error; err != nil {
		return nil, err
	}
	return &obs, nil
}

// ListByProject lists the observations raised against a project
func (r *GormObservationRepository) ListByProject(projectID uint64) ([]models.Observation, error) {
	var observations []models.Observation
	if err := r.db.Preload("User").
		Where("project_id = ?", projectID).
		Order("observations.created_at DESC").
		Find(&observations).Error; err != nil {
		return nil, err
	}
	return observations, nil
}

// Update updates an observation
func (r *GormObservationRepository) Update(obs *models.Observation) error {
	return r.db.Save(obs).Error
}
