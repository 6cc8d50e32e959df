package dto

import (
	"github.com/reliefhub/reliefhub/internal/repository"
	"github.com/reliefhub/reliefhub/internal/services"
)

// SuccessRatioResponse reports the percentage of completed projects that
// finished on or before their deadline.
type SuccessRatioResponse struct {
	Percent float64 `json:"percent"`
}

// NoCollaborationStatsResponse reports how many archived projects were
// resolved without outside collaboration.
type NoCollaborationStatsResponse struct {
	Count   int64   `json:"count"`
	Total   int64   `json:"total"`
	Percent float64 `json:"percent"`
}

// OrgResolvedCountDTO represents one row of the self-resolved task ranking
type OrgResolvedCountDTO struct {
	OrgName       string `json:"org_name"`
	ResolvedCount int64  `json:"resolved_count"`
}

// ToNoCollaborationStatsResponse converts service stats to the response shape
func ToNoCollaborationStatsResponse(stats services.NoCollaborationStats) NoCollaborationStatsResponse {
	return NoCollaborationStatsResponse{
		Count:   stats.Count,
		Total:   stats.Total,
		Percent: stats.Percent,
	}
}

// ToOrgResolvedCountDTOs converts repository rows to DTOs
func ToOrgResolvedCountDTOs(rows []repository.OrgResolvedCount) []OrgResolvedCountDTO {
	items := make([]OrgResolvedCountDTO, len(rows))
	for i, row := range rows {
		items[i] = OrgResolvedCountDTO{
			OrgName:       row.OrgName,
			ResolvedCount: row.ResolvedCount,
		}
	}
	return items
}
