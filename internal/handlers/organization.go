package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reliefhub/reliefhub/internal/dto"
	apierrors "github.com/reliefhub/reliefhub/internal/errors"
	"github.com/reliefhub/reliefhub/internal/middleware"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"gorm.io/gorm"
)

// OrganizationHandler coordinates organization-related HTTP handlers.
type OrganizationHandler struct {
	orgRepo repository.OrganizationRepository
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgRepo repository.OrganizationRepository) *OrganizationHandler {
	return &OrganizationHandler{
		orgRepo: orgRepo,
	}
}

// CreateOrganization creates a new organization and enrolls the creator as a
// member.
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateOrgRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if _, err := h.orgRepo.FindByName(req.Name); err == nil {
		apierrors.Conflict(c, "", "Organization name already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		apierrors.InternalError(c, "Failed to check organization name")
		return
	}

	org := models.Organization{
		Name: req.Name,
	}
	if err := h.orgRepo.Create(&org); err != nil {
		apierrors.InternalError(c, "Failed to create organization")
		return
	}

	member := models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         userID,
		JoinedAt:       time.Now(),
	}
	if err := h.orgRepo.AddMember(&member); err != nil {
		apierrors.InternalError(c, "Failed to add user to organization")
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationDTO(org))
}

// ListOrganizations returns all organizations.
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	organizations, err := h.orgRepo.List()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch organizations")
		return
	}

	items := make([]dto.OrganizationDTO, len(organizations))
	for i, org := range organizations {
		items[i] = dto.ToOrganizationDTO(org)
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": items,
	})
}

// GetOrganization returns a specific organization by ID.
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	orgID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	org, err := h.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.NotFound(c, "Organization not found")
			return
		}
		apierrors.InternalError(c, "Failed to fetch organization")
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org))
}

// ListMyOrganizations returns the organizations the current user belongs to.
func (h *OrganizationHandler) ListMyOrganizations(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch memberships")
		return
	}

	items := make([]dto.OrganizationDTO, len(memberships))
	for i, membership := range memberships {
		items[i] = dto.ToOrganizationDTO(membership.Organization)
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": items,
	})
}
