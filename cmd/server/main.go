package main

import (
	"context"
	"os"

	"neurocore-backend/config"
	"neurocore-backend/handlers"
	"neurocore-backend/models"
	"neurocore-backend/repository"
	"neurocore-backend/service"
	"neurocore-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	if err := godotenv.Load(); err != nil {
		godotenv.Load("../../.env")
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.IsDev() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := initPostgres(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Postgres")
	}
	defer db.Close()

	// Initialize storage for scan media
	mediaStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	logger.Info().Str("type", cfg.StorageType).Msg("Storage initialized")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	sessionLogRepo := repository.NewSessionLogRepository(db)
	accessLogRepo := repository.NewAccessLogRepository(db)
	scanRepo := repository.NewNeuralScanRepository(db)
	cognitiveRepo := repository.NewCognitiveTestRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	moodRepo := repository.NewMoodTrackerRepository(db)
	contentRepo := repository.NewTherapyContentRepository(db)
	moduleRepo := repository.NewTherapyModuleRepository(db)
	alertRepo := repository.NewAlertRepository(db)

	// Initialize Gemini client
	geminiClient, err := initGemini(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Gemini")
	}

	// Initialize services
	authService := service.NewAuthService(
		service.AuthWithStore(profileRepo),
		service.AuthWithSecret(cfg.JWTSecret),
		service.AuthWithTTL(cfg.SessionTTL),
		service.AuthWithLogger(logger),
	)
	privacyService := service.NewPrivacyService(
		service.PrivacyWithStore(profileRepo),
		service.PrivacyWithLogger(logger),
	)
	accessService := service.NewAccessService(
		service.AccessWithProfiles(profileRepo),
		service.AccessWithLogs(accessLogRepo),
		service.AccessWithLogger(logger),
	)
	flowService := service.NewFlowService(
		service.FlowWithCompleter(service.NewGeminiCompleter(geminiClient, cfg.GeminiModel)),
		service.FlowWithTimeout(cfg.FlowTimeout),
		service.FlowWithLogger(logger),
	)
	routerService := service.NewRouterService()
	aggregator := service.NewAggregator(profileRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewSessionHandler(routerService)
	patientHandler := handlers.NewPatientHandler(profileRepo, scanRepo, appointmentRepo, moodRepo, journalRepo, sessionLogRepo, accessLogRepo, cognitiveRepo)
	privacyHandler := handlers.NewPrivacyHandler(privacyService)
	flowHandler := handlers.NewFlowHandler(flowService)
	doctorHandler := handlers.NewDoctorHandler(profileRepo, sessionLogRepo, scanRepo, cognitiveRepo, alertRepo, accessService, aggregator)
	adminHandler := handlers.NewAdminHandler(profileRepo, accessLogRepo, contentRepo, privacyService, authService, cfg.FanInLogLimit)
	scanHandler := handlers.NewScanHandler(scanRepo, accessService, mediaStorage)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentRepo, profileRepo)
	therapyHandler := handlers.NewTherapyHandler(contentRepo, moduleRepo)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Public endpoints
	r.POST("/api/auth/signup", authHandler.Signup)
	r.POST("/api/auth/login", authHandler.Login)

	// Authenticated endpoints
	api := r.Group("/api", handlers.RequireAuth(authService))
	{
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/session", sessionHandler.Resolve)

		patient := api.Group("/patient", handlers.RequireRole(models.RolePatient))
		{
			patient.GET("/dashboard", patientHandler.Dashboard)
			patient.GET("/journal", patientHandler.ListJournal)
			patient.POST("/journal", patientHandler.CreateJournal)
			patient.GET("/session-logs", patientHandler.ListSessionLogs)
			patient.POST("/session-logs", patientHandler.CreateSessionLog)
			patient.GET("/access-logs", patientHandler.ListAccessLogs)
			patient.GET("/cognitive-tests", patientHandler.ListCognitiveTests)
			patient.POST("/cognitive-tests", patientHandler.CreateCognitiveTest)
			patient.PUT("/mood-tracker", patientHandler.UpsertMood)
			patient.GET("/privacy", privacyHandler.GetSettings)
			patient.PUT("/privacy", privacyHandler.SetSetting)
		}

		doctor := api.Group("/doctor", handlers.RequireRole(models.RoleDoctor))
		{
			doctor.GET("/patients", doctorHandler.ListPatients)
			doctor.GET("/patients/:id", doctorHandler.GetPatient)
			doctor.GET("/session-logs", doctorHandler.AggregateSessionLogs)
			doctor.GET("/alerts", doctorHandler.ListAlerts)
			doctor.PUT("/alerts/:id/viewed", doctorHandler.MarkAlertViewed)
		}

		admin := api.Group("/admin", handlers.RequireRole(models.RoleAdmin))
		{
			admin.GET("/users", adminHandler.ListUsers)
			admin.POST("/users", adminHandler.CreateUser)
			admin.GET("/access-logs", adminHandler.ListAccessLogs)
			admin.POST("/assignments", adminHandler.AssignDoctor)
			admin.POST("/therapy-content", adminHandler.CreateTherapyContent)
		}

		// Scan endpoints enforce per-patient access inside the handler
		api.GET("/scans", scanHandler.ListScans)
		api.POST("/scans", scanHandler.UploadScan)
		api.GET("/scans/:id/media", scanHandler.DownloadMedia)
		api.PUT("/scans/:id/notes", scanHandler.UpdateNotes)

		api.POST("/appointments", appointmentHandler.Create)
		api.GET("/appointments", appointmentHandler.ListMine)
		api.PUT("/appointments/:id/status", appointmentHandler.UpdateStatus)

		api.GET("/therapy/content", therapyHandler.ListContent)
		api.GET("/therapy/modules", therapyHandler.ListModules)
		api.POST("/therapy/modules", therapyHandler.AssignModule)
		api.PUT("/therapy/modules/:id", therapyHandler.UpdateProgress)

		flows := api.Group("/flows")
		{
			flows.POST("/analyze-heatmap", flowHandler.AnalyzeHeatmap)
			flows.POST("/dream-simulation", flowHandler.SimulateDream)
			flows.POST("/notes-summary", flowHandler.SummarizeNotes)
			flows.POST("/effectiveness-rating", flowHandler.RateEffectiveness)
			flows.POST("/feedback-comparison", flowHandler.CompareFeedback)
		}
	}

	logger.Info().Str("port", cfg.Port).Msg("Server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start server")
	}
}

func initPostgres(cfg *config.Config, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	logger.Info().Msg("Postgres connection established")
	return pool, nil
}

func initGemini(cfg *config.Config, logger zerolog.Logger) (*genai.Client, error) {
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	logger.Info().Str("model", cfg.GeminiModel).Msg("Gemini client initialized")
	return client, nil
}
