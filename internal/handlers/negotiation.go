package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reliefhub/reliefhub/internal/dto"
	apierrors "github.com/reliefhub/reliefhub/internal/errors"
	"github.com/reliefhub/reliefhub/internal/middleware"
	"github.com/reliefhub/reliefhub/internal/services"
)

// NegotiationHandler exposes the task application and selection flow.
type NegotiationHandler struct {
	negotiationService *services.NegotiationService
}

// NewNegotiationHandler creates a new NegotiationHandler.
func NewNegotiationHandler(negotiationService *services.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{
		negotiationService: negotiationService,
	}
}

// Apply records an organization's interest in a collaboration task.
func (h *NegotiationHandler) Apply(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	type ApplyRequest struct {
		OrganizationID uint64 `json:"organization_id" binding:"required"`
	}

	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	assoc, err := h.negotiationService.Apply(c.Request.Context(), taskID, req.OrganizationID)
	if err != nil {
		respondNegotiationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToAssociationDTO(*assoc))
}

// Select marks one applicant as the chosen collaborator for a task. Every
// other applicant is rejected.
func (h *NegotiationHandler) Select(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	orgID, err := strconv.ParseUint(c.Param("org_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	assoc, err := h.negotiationService.Select(c.Request.Context(), taskID, orgID)
	if err != nil {
		respondNegotiationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToAssociationDTO(*assoc))
}

// ListApplications lists every application made against a task.
func (h *NegotiationHandler) ListApplications(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	associations, err := h.negotiationService.ListApplications(taskID)
	if err != nil {
		respondNegotiationError(c, err)
		return
	}

	items := make([]dto.AssociationDTO, len(associations))
	for i, assoc := range associations {
		items[i] = dto.ToAssociationDTO(assoc)
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": items,
	})
}

// ListTasksWithRequests lists collaboration tasks with applications awaiting
// a decision.
func (h *NegotiationHandler) ListTasksWithRequests(c *gin.Context) {
	tasks, err := h.negotiationService.ListTasksWithRequests()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	items := make([]dto.TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = dto.ToTaskDTO(task)
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": items,
	})
}

// CheckApplications reports whether every collaboration task of the named
// project has at least one applicant.
func (h *NegotiationHandler) CheckApplications(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		apierrors.BadRequest(c, "Missing project name")
		return
	}

	complete, err := h.negotiationService.AllTasksHaveAssociation(name)
	if err != nil {
		respondNegotiationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"all_tasks_have_association": complete,
	})
}

// EvaluateCoverage re-checks whether every task of the named project is
// covered and, when it is, moves the project to execution.
func (h *NegotiationHandler) EvaluateCoverage(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		apierrors.BadRequest(c, "Missing project name")
		return
	}

	covered, err := h.negotiationService.AllTasksAreCovered(name)
	if err != nil {
		respondNegotiationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"all_tasks_covered": covered,
	})
}

func respondNegotiationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskNotCollaborative):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrDuplicateApplication):
		apierrors.Conflict(c, apierrors.ErrCodeDuplicateApplication, err.Error())
	case errors.Is(err, services.ErrNotApplied):
		apierrors.Conflict(c, apierrors.ErrCodeNotApplied, err.Error())
	case errors.Is(err, services.ErrApplicationClosed):
		apierrors.Conflict(c, "", err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
