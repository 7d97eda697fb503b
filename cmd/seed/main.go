package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"nexa/internal/repository"
	"nexa/internal/service"
	"nexa/pkg/config"
	"nexa/pkg/logger"
	"nexa/pkg/postgres"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seeds the knowledge base of one organization from local files. Usage:
//
//	SEED_ORG_ID=<uuid> go run ./cmd/seed [dir]
//
// Every supported file under dir (default cmd/seed/knowledge) is extracted,
// chunked, embedded and stored, same as an upload through the API.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	orgID, err := uuid.Parse(os.Getenv("SEED_ORG_ID"))
	if err != nil {
		appLogger.Fatal("SEED_ORG_ID must be a valid organization UUID", zap.Error(err))
	}

	seedDir := filepath.Join("cmd", "seed", "knowledge")
	if len(os.Args) > 1 {
		seedDir = os.Args[1]
	}

	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	docRepo := repository.NewDocumentRepository(db, appLogger)

	gemini, err := service.NewGeminiService(ctx, &cfg.Gemini, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}
	embedding := service.NewEmbeddingService(gemini, &cfg.Gemini, appLogger)
	extraction := service.NewExtractionService(appLogger)
	ingest := service.NewIngestService(docRepo, extraction, embedding, &cfg.Ingest, appLogger)

	entries, err := os.ReadDir(seedDir)
	if err != nil {
		appLogger.Fatal("Failed to read seed directory", zap.String("dir", seedDir), zap.Error(err))
	}

	appLogger.Info("Seeding knowledge base", zap.String("dir", seedDir), zap.String("organization_id", orgID.String()))

	seeded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !extraction.IsSupported(entry.Name()) {
			appLogger.Warn("Skipping unsupported file", zap.String("file", entry.Name()))
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(entry.Name()), "."))

		data, err := os.ReadFile(filepath.Join(seedDir, entry.Name()))
		if err != nil {
			appLogger.Error("Failed to read file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		doc, err := ingest.IngestFile(ctx, orgID, entry.Name(), ext, data)
		if err != nil {
			appLogger.Error("Failed to ingest file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		appLogger.Info("Ingested file",
			zap.String("file", entry.Name()),
			zap.String("document_id", doc.ID.String()),
		)
		seeded++
	}

	appLogger.Info("Seeding complete", zap.Int("documents", seeded))
}
