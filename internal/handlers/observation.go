package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/dto"
	apierrors "github.com/reliefhub/reliefhub/internal/errors"
	"github.com/reliefhub/reliefhub/internal/middleware"
	"github.com/reliefhub/reliefhub/internal/services"
)

// ObservationHandler exposes the oversight workflow over projects.
type ObservationHandler struct {
	observationService *services.ObservationService
}

// NewObservationHandler creates a new ObservationHandler.
func NewObservationHandler(observationService *services.ObservationService) *ObservationHandler {
	return &ObservationHandler{
		observationService: observationService,
	}
}

// CreateObservation raises an observation against a project and starts its
// control case on the workflow engine.
func (h *ObservationHandler) CreateObservation(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateObservationRequest struct {
		ProjectID      uint64 `json:"project_id" binding:"required"`
		OrganizationID uint64 `json:"organization_id" binding:"required"`
		Content        string `json:"content" binding:"required"`
	}

	var req CreateObservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	obs, err := h.observationService.Create(c.Request.Context(), services.CreateObservationInput{
		ProjectID:      req.ProjectID,
		UserID:         userID,
		OrganizationID: req.OrganizationID,
		Content:        req.Content,
	})
	if err != nil {
		respondObservationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToObservationDTO(*obs))
}

// AcceptObservation resolves a pending observation through its control case.
func (h *ObservationHandler) AcceptObservation(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	observationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid observation ID")
		return
	}

	obs, err := h.observationService.Accept(c.Request.Context(), observationID)
	if err != nil {
		respondObservationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToObservationDTO(*obs))
}

// ListObservations lists the observations raised against a project.
func (h *ObservationHandler) ListObservations(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	observations, err := h.observationService.ListByProject(projectID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch observations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"observations": dto.ToObservationDTOs(observations),
	})
}

func respondObservationError(c *gin.Context, err error) {
	var extErr *bpm.ExternalServiceError
	switch {
	case errors.Is(err, services.ErrObservationContentMissing):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrObservationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrObservationHasNoCase):
		apierrors.Conflict(c, "", err.Error())
	case errors.As(err, &extErr),
		errors.Is(err, bpm.ErrProcessNotFound),
		errors.Is(err, bpm.ErrTaskNotMaterialized):
		apierrors.BadGateway(c, "Workflow engine rejected the observation")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
