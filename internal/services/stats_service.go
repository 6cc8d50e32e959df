package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/repository"
)

const (
	archivedCaseTimeLayout = "2006-01-02 15:04:05.000"
	deadlineVariableName   = "project_end_date"
	archivedStateCompleted = "completed"
)

// StatsService reconciles archived engine history with locally stored
// project data into aggregate indicators. The whole surface is advisory:
// engine failures degrade to zero-valued results instead of propagating.
type StatsService struct {
	gateway     *bpm.Client
	projectRepo repository.ProjectRepository
	orgRepo     repository.OrganizationRepository
	processName string
}

// NewStatsService creates a new StatsService.
func NewStatsService(gateway *bpm.Client, projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository, processName string) *StatsService {
	return &StatsService{
		gateway:     gateway,
		projectRepo: projectRepo,
		orgRepo:     orgRepo,
		processName: processName,
	}
}

// SuccessfulOnTimeRatio computes the percentage of completed archived cases
// that finished on or before the deadline stored on their originating case.
// Cases with unparsable completion dates, no originating-case link, or a
// missing/unparseable deadline variable are excluded from both sides of the
// ratio. No completed cases means 0, not an error.
func (s *StatsService) SuccessfulOnTimeRatio(ctx context.Context) float64 {
	completed, ok := s.completedCases(ctx)
	if !ok || len(completed) == 0 {
		return 0
	}

	evaluated := 0
	successes := 0
	for _, archived := range completed {
		completedAt, err := time.Parse(archivedCaseTimeLayout, archived.EndDate)
		if err != nil {
			log.Printf("skipping archived case %s: bad end date %q", archived.ID, archived.EndDate)
			continue
		}

		if archived.SourceObjectID == "" {
			log.Printf("skipping archived case %s: no originating case link", archived.ID)
			continue
		}

		variable, err := s.gateway.GetArchivedCaseVariable(ctx, archived.SourceObjectID, deadlineVariableName)
		if err != nil {
			log.Printf("skipping archived case %s: deadline variable unavailable: %v", archived.ID, err)
			continue
		}

		deadline, err := time.Parse(bpm.DateFormat, variable.Value)
		if err != nil {
			log.Printf("skipping archived case %s: bad deadline %q", archived.ID, variable.Value)
			continue
		}

		evaluated++
		if !dateOf(completedAt).After(deadline) {
			successes++
		}
	}

	if evaluated == 0 {
		return 0
	}
	return float64(successes) / float64(evaluated) * 100
}

// NoCollaborationStats describes how many projects needed no outside help.
type NoCollaborationStats struct {
	Count   int64   `json:"projects_no_collab"`
	Total   int64   `json:"total_projects"`
	Percent float64 `json:"percent"`
}

// NoCollaborationNeededStats compares the locally stored count of projects in
// execution whose every task is self-resolved against the engine's completed
// archived-case count.
func (s *StatsService) NoCollaborationNeededStats(ctx context.Context) (NoCollaborationStats, error) {
	completed, ok := s.completedCases(ctx)
	if !ok {
		return NoCollaborationStats{}, nil
	}

	projects, err := s.projectRepo.SolvedWithoutCollaboration()
	if err != nil {
		return NoCollaborationStats{}, fmt.Errorf("failed to query projects without collaboration: %w", err)
	}

	stats := NoCollaborationStats{
		Count: int64(len(projects)),
		Total: int64(len(completed)),
	}
	if stats.Total > 0 {
		stats.Percent = float64(stats.Count) / float64(stats.Total) * 100
	}
	return stats, nil
}

// OrganizationsBySelfResolvedTaskCount groups the self-resolved task count by
// each task's owning organization.
func (s *StatsService) OrganizationsBySelfResolvedTaskCount() ([]repository.OrgResolvedCount, error) {
	rows, err := s.orgRepo.SelfResolvedTaskCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate resolved tasks per organization: %w", err)
	}
	return rows, nil
}

// completedCases resolves the process and returns its completed archived
// cases. Any engine failure is logged and reported as "no data".
func (s *StatsService) completedCases(ctx context.Context) ([]bpm.ArchivedCase, bool) {
	processID, err := s.gateway.FindProcessID(ctx, s.processName)
	if err != nil {
		log.Printf("stats degraded to zero values: cannot resolve process %q: %v", s.processName, err)
		return nil, false
	}

	archived, err := s.gateway.ListArchivedCases(ctx, processID)
	if err != nil {
		log.Printf("stats degraded to zero values: cannot list archived cases: %v", err)
		return nil, false
	}

	completed := make([]bpm.ArchivedCase, 0, len(archived))
	for _, c := range archived {
		if c.State == archivedStateCompleted {
			completed = append(completed, c)
		}
	}
	return completed, true
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
