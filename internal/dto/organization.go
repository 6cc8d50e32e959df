package dto

import (
	"time"

	"github.com/reliefhub/reliefhub/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// ObservationDTO represents an observation in API responses
type ObservationDTO struct {
	ID         uint64                   `json:"id"`
	ProjectID  uint64                   `json:"project_id"`
	UserID     uint64                   `json:"user_id"`
	Content    string                   `json:"content"`
	Status     models.ObservationStatus `json:"status"`
	CaseID     *int64                   `json:"case_id"`
	AcceptedAt *time.Time               `json:"accepted_at,omitempty"`
	CreatedAt  time.Time                `json:"created_at"`
}

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		CreatedAt: org.CreatedAt,
	}
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// ToObservationDTO converts an Observation model to ObservationDTO
func ToObservationDTO(obs models.Observation) ObservationDTO {
	return ObservationDTO{
		ID:         obs.ID,
		ProjectID:  obs.ProjectID,
		UserID:     obs.UserID,
		Content:    obs.Content,
		Status:     obs.Status,
		CaseID:     obs.CaseID,
		AcceptedAt: obs.AcceptedAt,
		CreatedAt:  obs.CreatedAt,
	}
}

// ToObservationDTOs converts a slice of observations
func ToObservationDTOs(observations []models.Observation) []ObservationDTO {
	items := make([]ObservationDTO, len(observations))
	for i, obs := range observations {
		items[i] = ToObservationDTO(obs)
	}
	return items
}
