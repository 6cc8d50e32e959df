package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reliefhub/reliefhub/internal/constants"
	"github.com/reliefhub/reliefhub/internal/models"
	"github.com/reliefhub/reliefhub/internal/repository"
	"github.com/reliefhub/reliefhub/internal/services"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type negotiationTestEnv struct {
	db     *gorm.DB
	router *gin.Engine
	owner  models.Organization
	helper models.Organization
	task   models.Task
}

func setupNegotiationTestEnv(t *testing.T) negotiationTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Project{},
		&models.Task{},
		&models.TaskOrgAssociation{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	owner := models.Organization{Name: "Red Umbrella"}
	require.NoError(t, db.Create(&owner).Error)
	helper := models.Organization{Name: "Helping Hands"}
	require.NoError(t, db.Create(&helper).Error)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	project := models.Project{
		Name:        "Water wells",
		Description: "Build water wells in the affected region",
		StartDate:   start,
		EndDate:     start.AddDate(0, 6, 0),
		OwnerID:     owner.ID,
		Status:      models.ProjectStatusActive,
	}
	require.NoError(t, db.Create(&project).Error)

	task := models.Task{
		Title:     "transport",
		Necessity: "trucks",
		Quantity:  2,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, 0),
		Status:    models.TaskStatusPending,
		ProjectID: project.ID,
	}
	require.NoError(t, db.Create(&task).Error)

	negotiationService := services.NewNegotiationService(
		repository.NewTaskRepository(db),
		repository.NewAssociationRepository(db),
		repository.NewProjectRepository(db),
		repository.NewOrganizationRepository(db),
		nil,
	)
	handler := NewNegotiationHandler(negotiationService)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(constants.ContextKeyUserID, uint64(1))
	})
	router.POST("/api/tasks/:id/applications", handler.Apply)
	router.POST("/api/tasks/:id/applications/:org_id/select", handler.Select)
	router.GET("/api/tasks/:id/applications", handler.ListApplications)

	return negotiationTestEnv{
		db:     db,
		router: router,
		owner:  owner,
		helper: helper,
		task:   task,
	}
}

func (env negotiationTestEnv) apply(t *testing.T, orgID uint64) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]uint64{"organization_id": orgID})
	require.NoError(t, err)

	url := fmt.Sprintf("/api/tasks/%d/applications", env.task.ID)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestNegotiationHandler_Apply(t *testing.T) {
	env := setupNegotiationTestEnv(t)

	w := env.apply(t, env.helper.ID)
	require.Equal(t, http.StatusCreated, w.Code)

	// A duplicate application is a conflict
	w = env.apply(t, env.helper.ID)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestNegotiationHandler_SelectNeverApplied(t *testing.T) {
	env := setupNegotiationTestEnv(t)

	url := fmt.Sprintf("/api/tasks/%d/applications/%d/select", env.task.ID, env.helper.ID)
	req := httptest.NewRequest(http.MethodPost, url, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
}

func TestNegotiationHandler_SelectWinner(t *testing.T) {
	env := setupNegotiationTestEnv(t)

	require.Equal(t, http.StatusCreated, env.apply(t, env.helper.ID).Code)

	url := fmt.Sprintf("/api/tasks/%d/applications/%d/select", env.task.ID, env.helper.ID)
	req := httptest.NewRequest(http.MethodPost, url, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Task
	require.NoError(t, env.db.First(&reloaded, env.task.ID).Error)
	require.Equal(t, models.TaskStatusResolved, reloaded.Status)
}

func TestNegotiationHandler_ListApplications(t *testing.T) {
	env := setupNegotiationTestEnv(t)

	require.Equal(t, http.StatusCreated, env.apply(t, env.helper.ID).Code)
	require.Equal(t, http.StatusCreated, env.apply(t, env.owner.ID).Code)

	url := fmt.Sprintf("/api/tasks/%d/applications", env.task.ID)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Applications []struct {
			OrganizationID uint64 `json:"organization_id"`
			Status         string `json:"status"`
		} `json:"applications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Applications, 2)
}
