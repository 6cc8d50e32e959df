package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/database"
	"github.com/reliefhub/reliefhub/internal/dto"
	apierrors "github.com/reliefhub/reliefhub/internal/errors"
	"github.com/reliefhub/reliefhub/internal/middleware"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"github.com/reliefhub/reliefhub/internal/services"
	"github.com/reliefhub/reliefhub/internal/utils"
)

// ProjectHandler coordinates project-related HTTP handlers.
type ProjectHandler struct {
	projectService    *services.ProjectService
	suggestionService *services.SuggestionService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService, suggestionService *services.SuggestionService) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		suggestionService: suggestionService,
	}
}

// TaskRequest is one proposed task in a project creation request.
type TaskRequest struct {
	Title            string `json:"title" binding:"required"`
	Necessity        string `json:"necessity" binding:"required"`
	Quantity         int    `json:"quantity"`
	StartDate        string `json:"start_date" binding:"required"`
	EndDate          string `json:"end_date" binding:"required"`
	ResolvesByItself bool   `json:"resolves_by_itself"`
}

// CreateProject creates a project with its tasks and hands the
// collaboration-needed part to the workflow engine.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Name        string        `json:"name" binding:"required"`
		Description string        `json:"description" binding:"required"`
		StartDate   string        `json:"start_date" binding:"required"`
		EndDate     string        `json:"end_date" binding:"required"`
		OwnerID     uint64        `json:"owner_id" binding:"required"`
		Tasks       []TaskRequest `json:"tasks"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	// Only members of the owning organization can create its projects
	var member models.OrganizationMember
	if err := database.GetDB().
		Where("organization_id = ? AND user_id = ?", req.OwnerID, userID).
		First(&member).Error; err != nil {
		apierrors.RespondWithError(c, http.StatusForbidden,
			apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "You are not a member of this organization"))
		return
	}

	startDate, err := time.Parse(bpm.DateFormat, req.StartDate)
	if err != nil {
		apierrors.BadRequest(c, "Invalid start_date, expected YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(bpm.DateFormat, req.EndDate)
	if err != nil {
		apierrors.BadRequest(c, "Invalid end_date, expected YYYY-MM-DD")
		return
	}

	tasks := make([]services.TaskInput, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		taskStart, err := time.Parse(bpm.DateFormat, t.StartDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task start_date, expected YYYY-MM-DD")
			return
		}
		taskEnd, err := time.Parse(bpm.DateFormat, t.EndDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task end_date, expected YYYY-MM-DD")
			return
		}
		quantity := t.Quantity
		if quantity == 0 {
			quantity = 1
		}
		tasks = append(tasks, services.TaskInput{
			Title:            t.Title,
			Necessity:        t.Necessity,
			Quantity:         quantity,
			StartDate:        taskStart,
			EndDate:          taskEnd,
			ResolvesByItself: t.ResolvesByItself,
		})
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   startDate,
		EndDate:     endDate,
		OwnerID:     req.OwnerID,
		Tasks:       tasks,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// GetProject returns a project with its tasks and owner.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid project ID")
		return
	}

	project, err := h.projectService.GetProject(projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// ListProjects returns projects, optionally filtered by owner or status.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.ProjectFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if ownerStr := c.Query("owner_id"); ownerStr != "" {
		ownerID, err := strconv.ParseUint(ownerStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid owner_id")
			return
		}
		filter.OwnerID = &ownerID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ProjectStatus(statusStr)
		filter.Status = &status
	}

	projects, total, err := h.projectService.ListProjects(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch projects")
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectListResponse(projects, params.Page, params.Limit, total))
}

// SuggestTasks drafts candidate tasks for a project description using the
// OpenAI API.
func (h *ProjectHandler) SuggestTasks(c *gin.Context) {
	if _, exists := middleware.GetUserID(c); !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type SuggestTasksRequest struct {
		Description string `json:"description" binding:"required"`
	}

	var req SuggestTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if h.suggestionService == nil {
		apierrors.RespondWithError(c, http.StatusServiceUnavailable,
			apierrors.NewAPIError(apierrors.ErrCodeExternalService, "Task suggestion is not configured"))
		return
	}

	suggestions, err := h.suggestionService.DraftTasks(c.Request.Context(), req.Description)
	if err != nil {
		apierrors.BadGateway(c, "Failed to draft tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": suggestions,
	})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNameTooShort),
		errors.Is(err, services.ErrDescriptionTooShort),
		errors.Is(err, services.ErrEndBeforeStart),
		errors.Is(err, services.ErrTaskTitleRequired),
		errors.Is(err, services.ErrTaskEndBeforeStart),
		errors.Is(err, services.ErrInvalidTaskQuantity):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrOwnerNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProjectHandoffFailed):
		apierrors.BadGateway(c, "Workflow engine rejected the project")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
