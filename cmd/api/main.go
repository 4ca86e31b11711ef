package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/config"
	"alfredoptarigan/ats-resume-analyzer/internal/handlers"
	"alfredoptarigan/ats-resume-analyzer/internal/logger"
	"alfredoptarigan/ats-resume-analyzer/internal/repositories"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug, logger.Stdout)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := config.InitDatabase(cfg, zl)
	if err != nil {
		return err
	}

	docRepo := repositories.NewDocumentRepository(db)
	analysisRepo := repositories.NewAnalysisRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		return err
	}

	pdfParser := services.NewPDFParserService()
	segmenter := services.NewSectionSegmenter()

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
		RetryDelay: cfg.Worker.RetryInitialDelay,
	}, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize gemini: %w", err)
	}

	guidance, err := initGuidance(ctx, cfg, geminiService, zl)
	if err != nil {
		return err
	}

	analyzer := services.NewMatchAnalyzer(geminiService, guidance, cfg.Worker.RetryMaxAttempts, zl)
	analysisService := services.NewAnalysisService(
		analysisRepo,
		docRepo,
		storageService,
		pdfParser,
		segmenter,
		analyzer,
		zl,
	)

	worker := services.NewWorker(
		analysisRepo,
		analysisService,
		cfg.Worker.Concurrency,
		cfg.Worker.PollInterval,
		zl,
	)
	worker.Start(ctx)

	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, pdfParser, cfg.Storage.MaxFileSize, zl)
	extractHandler := handlers.NewExtractHandler(pdfParser, segmenter, cfg.Storage.MaxFileSize, zl)
	analysisHandler := handlers.NewAnalysisHandler(analysisService, worker, zl)
	resultHandler := handlers.NewResultHandler(analysisService, zl)
	suggestionHandler := handlers.NewSuggestionHandler(analysisService)

	app := fiber.New(fiber.Config{
		AppName:      "ATS Resume Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 2,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	if cfg.IsDevelopment() {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/extract", extractHandler.HandleExtract)
	api.Post("/analyze", analysisHandler.HandleAnalyze)
	api.Post("/analyses", analysisHandler.HandleCreateAnalysis)
	api.Get("/analyses/:id", resultHandler.HandleGetResult)
	api.Get("/analyses/:id/report.csv", resultHandler.HandleReportCSV)
	api.Get("/analyses/:id/summary", resultHandler.HandleSummary)
	api.Post("/analyses/:id/suggestions/:section", suggestionHandler.HandleSuggest)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "ATS Resume Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/extract",
				"POST /api/v1/analyze",
				"POST /api/v1/analyses",
				"GET /api/v1/analyses/:id",
				"GET /api/v1/analyses/:id/report.csv",
				"GET /api/v1/analyses/:id/summary",
				"POST /api/v1/analyses/:id/suggestions/:section",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zl.Info("shutting down server")
		cancel()
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			zl.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zl.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	return app.Listen(addr)
}

// initGuidance connects the guideline store when it is enabled. A nil retriever disables retrieval.
func initGuidance(ctx context.Context, cfg *config.Config, embedder services.GeminiService, zl *zap.Logger) (services.GuidanceRetriever, error) {
	if !cfg.Qdrant.Enabled {
		zl.Info("ATS guideline retrieval disabled")
		return nil, nil
	}

	qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, zl)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant: %w", err)
	}

	if err := qdrantService.InitCollection(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize qdrant collection: %w", err)
	}

	zl.Info("ATS guideline retrieval enabled",
		zap.String("collection", cfg.Qdrant.Collection),
		zap.Int("top_k", cfg.Qdrant.TopK),
	)

	return services.NewGuidanceRetriever(embedder, qdrantService, cfg.Qdrant.TopK), nil
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
