package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reliefhub/reliefhub/internal/dto"
	apierrors "github.com/reliefhub/reliefhub/internal/errors"
	"github.com/reliefhub/reliefhub/internal/services"
)

// StatsHandler exposes the aggregate indicators reconciled from the engine's
// archived history and the local store.
type StatsHandler struct {
	statsService *services.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
	}
}

// SuccessRatio returns the percentage of completed projects that finished on
// or before their deadline.
func (h *StatsHandler) SuccessRatio(c *gin.Context) {
	percent := h.statsService.SuccessfulOnTimeRatio(c.Request.Context())

	c.JSON(http.StatusOK, dto.SuccessRatioResponse{
		Percent: percent,
	})
}

// NoCollaborationStats returns how many completed projects were resolved
// without outside collaboration.
func (h *StatsHandler) NoCollaborationStats(c *gin.Context) {
	stats, err := h.statsService.NoCollaborationNeededStats(c.Request.Context())
	if err != nil {
		apierrors.InternalError(c, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, dto.ToNoCollaborationStatsResponse(stats))
}

// OrganizationRanking returns organizations ranked by self-resolved task
// count.
func (h *StatsHandler) OrganizationRanking(c *gin.Context) {
	rows, err := h.statsService.OrganizationsBySelfResolvedTaskCount()
	if err != nil {
		apierrors.InternalError(c, "Failed to compute statistics")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": dto.ToOrgResolvedCountDTOs(rows),
	})
}
