package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/reliefhub/reliefhub/internal/bpm"
	"github.com/reliefhub/reliefhub/internal/config"
	"github.com/reliefhub/reliefhub/internal/constants"
	"github.com/reliefhub/reliefhub/internal/database"
	"github.com/reliefhub/reliefhub/internal/handlers"
	"github.com/reliefhub/reliefhub/internal/middleware"
	"github.com/reliefhub/reliefhub/internal/repository"
	"github.com/reliefhub/reliefhub/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.AddIndexes(database.GetDB()); err != nil {
		log.Fatalf("Failed to add indexes: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // SameSite=Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Workflow engine gateway
	gateway := bpm.NewClient(cfg.BonitaURL, cfg.BonitaUsername, cfg.BonitaPassword)

	// Repositories
	db := database.GetDB()
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	assocRepo := repository.NewAssociationRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	obsRepo := repository.NewObservationRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, orgRepo)
	projectService := services.NewProjectService(projectRepo, orgRepo, gateway, cfg.ProjectProcessName)
	negotiationService := services.NewNegotiationService(taskRepo, assocRepo, projectRepo, orgRepo, gateway)
	statsService := services.NewStatsService(gateway, projectRepo, orgRepo, cfg.ProjectProcessName)
	observationService := services.NewObservationService(obsRepo, projectRepo, gateway, cfg.ControlProcessName)

	var suggestionService *services.SuggestionService
	if cfg.OpenAIAPIKey != "" {
		suggestionService = services.NewSuggestionService(cfg.OpenAIAPIKey)
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	projectHandler := handlers.NewProjectHandler(projectService, suggestionService)
	negotiationHandler := handlers.NewNegotiationHandler(negotiationService)
	statsHandler := handlers.NewStatsHandler(statsService)
	observationHandler := handlers.NewObservationHandler(observationService)
	orgHandler := handlers.NewOrganizationHandler(orgRepo)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "ReliefHub API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Organization routes
		orgs := api.Group("/organizations")
		{
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.GET("/:id", orgHandler.GetOrganization)
			orgs.Use(middleware.RequireAuth())
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("/mine", orgHandler.ListMyOrganizations)
		}

		// Project routes (protected)
		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.POST("/suggest-tasks", projectHandler.SuggestTasks)
			projects.GET("/:id/observations", observationHandler.ListObservations)
			projects.GET("/applications-complete", negotiationHandler.CheckApplications)
			projects.POST("/evaluate-coverage", negotiationHandler.EvaluateCoverage)
		}

		// Task negotiation routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("/with-requests", negotiationHandler.ListTasksWithRequests)
			tasks.GET("/:id/applications", negotiationHandler.ListApplications)
			tasks.POST("/:id/applications", negotiationHandler.Apply)
			tasks.POST("/:id/applications/:org_id/select", negotiationHandler.Select)
		}

		// Observation routes (protected)
		observations := api.Group("/observations")
		observations.Use(middleware.RequireAuth())
		{
			observations.POST("", observationHandler.CreateObservation)
			observations.POST("/:id/accept", observationHandler.AcceptObservation)
		}

		// Statistics routes (public)
		stats := api.Group("/stats")
		{
			stats.GET("/success-ratio", statsHandler.SuccessRatio)
			stats.GET("/no-collaboration", statsHandler.NoCollaborationStats)
			stats.GET("/organization-ranking", statsHandler.OrganizationRanking)
		}
	}

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
