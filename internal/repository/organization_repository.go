package repository

import (
	"github.com/reliefhub/reliefhub/internal/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates a new organization
func (r *GormOrganizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(id uint64) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByName finds an organization by exact name
func (r *GormOrganizationRepository) FindByName(name string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("name = ?", name).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// List lists all organizations
func (r *GormOrganizationRepository) List() ([]models.Organization, error) {
	var orgs []models.Organization
	if err := r.db.Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// AddMember adds a member to an organization
func (r *GormOrganizationRepository) AddMember(member *models.OrganizationMember) error {
	return r.db.Create(member).Error
}

// FindMember finds a specific organization member
func (r *GormOrganizationRepository) FindMember(organizationID, userID uint64) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	if err := r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembersByUserID lists all organizations a user is a member of
func (r *GormOrganizationRepository) ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error) {
	var memberships []models.OrganizationMember
	if err := r.db.Preload("Organization").
		Where("user_id = ?", userID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// SelfResolvedTaskCounts groups the self-resolved task count by the owning
// organization of each task's project
func (r *GormOrganizationRepository) SelfResolvedTaskCounts() ([]OrgResolvedCount, error) {
	var rows []OrgResolvedCount
	err := r.db.Model(&models.Organization{}).
		Select(`organizations.name AS org_name,
			SUM(CASE WHEN tasks.resolves_by_itself THEN 1 ELSE 0 END) AS resolved_count`).
		Joins("JOIN projects ON projects.owner_id = organizations.id").
		Joins("JOIN tasks ON tasks.project_id = projects.id").
		Group("organizations.id, organizations.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
