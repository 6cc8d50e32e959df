package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// statsEngine serves archived history for stats tests.
type statsEngine struct {
	down      bool
	archived  []bpm.ArchivedCase
	deadlines map[string]string // source case id -> project_end_date value
}

func newStatsGateway(t *testing.T, state *statsEngine) *bpm.Client {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/loginservice", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "X-Bonita-API-Token", Value: "t"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/API/", func(w http.ResponseWriter, r *http.Request) {
		if state.down {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		switch {
		case r.URL.Path == "/API/bpm/process":
			writeJSON(w, []map[string]string{{"id": "42", "name": "p"}})
		case r.URL.Path == "/API/bpm/archivedCase":
			writeJSON(w, state.archived)
		case strings.HasPrefix(r.URL.Path, "/API/bpm/archivedCaseVariable/"):
			parts := strings.Split(r.URL.Path, "/")
			sourceID := parts[len(parts)-2]
			value, ok := state.deadlines[sourceID]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			writeJSON(w, map[string]string{"name": "project_end_date", "value": value, "type": "java.lang.String"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return bpm.NewClient(server.URL, "walter.bates", "bpm",
		bpm.WithPollBounds(2, time.Millisecond),
		bpm.WithRetryBounds(2, time.Millisecond))
}

func newStatsService(t *testing.T, db *gorm.DB, state *statsEngine) *StatsService {
	t.Helper()
	return NewStatsService(
		newStatsGateway(t, state),
		repository.NewProjectRepository(db),
		repository.NewOrganizationRepository(db),
		"p",
	)
}

func archivedCompleted(id, sourceID, endDate string) bpm.ArchivedCase {
	return bpm.ArchivedCase{
		ID:                  id,
		SourceObjectID:      sourceID,
		State:               "completed",
		EndDate:             endDate,
		ProcessDefinitionID: "42",
	}
}

func TestSuccessfulOnTimeRatio(t *testing.T) {
	db := setupTestDB(t)
	state := &statsEngine{
		archived: []bpm.ArchivedCase{
			// finished a day early
			archivedCompleted("1", "11", "2026-04-30 10:00:00.000"),
			// finished on the deadline day, still counts as on time
			archivedCompleted("2", "12", "2026-05-01 23:30:00.000"),
			// finished a day late
			archivedCompleted("3", "13", "2026-05-02 08:00:00.000"),
			// still running, ignored entirely
			{ID: "4", SourceObjectID: "14", State: "started", EndDate: "2026-05-02 08:00:00.000", ProcessDefinitionID: "42"},
		},
		deadlines: map[string]string{
			"11": "2026-05-01",
			"12": "2026-05-01",
			"13": "2026-05-01",
		},
	}
	svc := newStatsService(t, db, state)

	percent := svc.SuccessfulOnTimeRatio(context.Background())
	require.InDelta(t, 100.0*2/3, percent, 0.001)
}

func TestSuccessfulOnTimeRatioSkipsUnusableCases(t *testing.T) {
	db := setupTestDB(t)
	state := &statsEngine{
		archived: []bpm.ArchivedCase{
			// bad completion date
			archivedCompleted("1", "11", "yesterday"),
			// no link back to the original case
			archivedCompleted("2", "", "2026-04-30 10:00:00.000"),
			// deadline variable missing on the engine
			archivedCompleted("3", "13", "2026-04-30 10:00:00.000"),
			// the only evaluable case, on time
			archivedCompleted("4", "14", "2026-04-30 10:00:00.000"),
		},
		deadlines: map[string]string{
			"11": "2026-05-01",
			"14": "2026-05-01",
		},
	}
	svc := newStatsService(t, db, state)

	percent := svc.SuccessfulOnTimeRatio(context.Background())
	require.InDelta(t, 100.0, percent, 0.001)
}

func TestSuccessfulOnTimeRatioNoData(t *testing.T) {
	db := setupTestDB(t)

	empty := newStatsService(t, db, &statsEngine{})
	require.Zero(t, empty.SuccessfulOnTimeRatio(context.Background()))

	down := newStatsService(t, db, &statsEngine{down: true})
	require.Zero(t, down.SuccessfulOnTimeRatio(context.Background()))
}

func TestNoCollaborationNeededStats(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestOrg(t, db, "Red Umbrella")

	// One project fully self-resolved, one that needed help
	solo := seedProject(t, db, owner.ID, models.ProjectStatusExecution)
	solo.Name = "Solo effort"
	require.NoError(t, db.Save(&solo).Error)
	seedTask(t, db, solo.ID, "dig", true)

	helped := seedProject(t, db, owner.ID, models.ProjectStatusExecution)
	seedTask(t, db, helped.ID, "transport", false)

	state := &statsEngine{
		archived: []bpm.ArchivedCase{
			archivedCompleted("1", "11", "2026-04-30 10:00:00.000"),
			archivedCompleted("2", "12", "2026-04-30 10:00:00.000"),
		},
	}
	svc := newStatsService(t, db, state)

	stats, err := svc.NoCollaborationNeededStats(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Count)
	require.Equal(t, int64(2), stats.Total)
	require.InDelta(t, 50.0, stats.Percent, 0.001)
}

func TestNoCollaborationNeededStatsEngineDown(t *testing.T) {
	db := setupTestDB(t)
	svc := newStatsService(t, db, &statsEngine{down: true})

	stats, err := svc.NoCollaborationNeededStats(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.Count)
	require.Zero(t, stats.Total)
	require.Zero(t, stats.Percent)
}

func TestOrganizationsBySelfResolvedTaskCount(t *testing.T) {
	db := setupTestDB(t)
	first := createTestOrg(t, db, "Red Umbrella")
	second := createTestOrg(t, db, "Helping Hands")

	firstProject := seedProject(t, db, first.ID, models.ProjectStatusExecution)
	seedTask(t, db, firstProject.ID, "dig", true)
	seedTask(t, db, firstProject.ID, "line", true)
	seedTask(t, db, firstProject.ID, "transport", false)

	secondProject := seedProject(t, db, second.ID, models.ProjectStatusExecution)
	secondProject.Name = "Shelter drive"
	require.NoError(t, db.Save(&secondProject).Error)
	seedTask(t, db, secondProject.ID, "build", true)

	svc := newStatsService(t, db, &statsEngine{})

	rows, err := svc.OrganizationsBySelfResolvedTaskCount()
	require.NoError(t, err)

	counts := map[string]int64{}
	for _, row := range rows {
		counts[row.OrgName] = row.ResolvedCount
	}
	require.Equal(t, int64(2), counts["Red Umbrella"])
	require.Equal(t, int64(1), counts["Helping Hands"])
}

func TestSuccessfulOnTimeRatioBadDeadline(t *testing.T) {
	db := setupTestDB(t)
	state := &statsEngine{
		archived: []bpm.ArchivedCase{
			archivedCompleted("1", "11", "2026-04-30 10:00:00.000"),
		},
		deadlines: map[string]string{
			"11": "soon",
		},
	}
	svc := newStatsService(t, db, state)

	require.Zero(t, svc.SuccessfulOnTimeRatio(context.Background()))
}
