package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nexa/internal/api"
	"nexa/internal/api/handlers"
	"nexa/internal/repository"
	"nexa/internal/service"
	"nexa/pkg/auth"
	"nexa/pkg/config"
	"nexa/pkg/logger"
	"nexa/pkg/postgres"
	"nexa/pkg/workers"

	"go.uber.org/zap"
)

// @title Nexa API
// @version 1.0
// @description AI customer service backend: rule-driven message triage, knowledge retrieval and automated replies over WhatsApp.

// @contact.name API Support
// @contact.email support@nexa.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Nexa service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	ruleRepo := repository.NewRuleRepository(db, appLogger)
	blacklistRepo := repository.NewBlacklistRepository(db, appLogger)
	docRepo := repository.NewDocumentRepository(db, appLogger)
	convRepo := repository.NewConversationRepository(db, appLogger)
	integrationRepo := repository.NewIntegrationRepository(db, appLogger)
	dashboardRepo := repository.NewDashboardRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize AI provider and pipeline services
	gemini, err := service.NewGeminiService(ctx, &cfg.Gemini, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}

	embedding := service.NewEmbeddingService(gemini, &cfg.Gemini, appLogger)
	retrieval := service.NewRetrievalService(embedding, docRepo, &cfg.RAG, appLogger)
	aiEngine := service.NewAIEngine(gemini, retrieval, convRepo, ruleRepo, &cfg.RAG, appLogger)
	rulesEngine := service.NewRulesEngine(ruleRepo, blacklistRepo, convRepo, aiEngine, appLogger)

	extraction := service.NewExtractionService(appLogger)
	ingestService := service.NewIngestService(docRepo, extraction, embedding, &cfg.Ingest, appLogger)

	// Initialize application services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)
	ruleService := service.NewRuleService(ruleRepo, blacklistRepo, appLogger)
	docService := service.NewDocumentService(docRepo, retrieval, appLogger)
	chatService := service.NewChatService(convRepo, aiEngine, appLogger)
	dashboardService := service.NewDashboardService(dashboardRepo, appLogger)
	integrationService := service.NewIntegrationService(integrationRepo, appLogger)
	webhookService := service.NewWebhookService(integrationRepo, convRepo, rulesEngine, aiEngine, appLogger)

	// Background pool for ingestion and webhook processing
	pool := workers.NewPool(cfg.Ingest.PoolWorkers, appLogger)
	pool.Start()

	// Initialize handlers
	h := api.Handlers{
		Auth:        handlers.NewAuthHandler(authService, appLogger),
		Rules:       handlers.NewRuleHandler(ruleService, rulesEngine, appLogger),
		Documents:   handlers.NewDocumentHandler(docService, ingestService, pool, cfg.Ingest.MaxUploadBytes, appLogger),
		Chat:        handlers.NewChatHandler(chatService, appLogger),
		Webhooks:    handlers.NewWebhookHandler(webhookService, pool, appLogger),
		Dashboard:   handlers.NewDashboardHandler(dashboardService, appLogger),
		Integration: handlers.NewIntegrationHandler(integrationService, appLogger),
	}

	// Setup router
	app := api.SetupRouter(h, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
	pool.Shutdown()
}
