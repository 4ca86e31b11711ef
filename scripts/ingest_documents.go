package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/config"
	"alfredoptarigan/ats-resume-analyzer/internal/logger"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

func main() {
	dir := flag.String("dir", "./reference_docs/ats_guidelines", "directory with ATS guideline PDFs")
	chunkSize := flag.Int("chunk-size", 1000, "maximum chunk size in characters")
	overlap := flag.Int("overlap", 200, "characters shared between consecutive chunks")
	flag.Parse()

	cfg := config.Load()

	zl, err := logger.New(cfg.Log.JSON, cfg.Log.Debug, logger.Stdout)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	geminiService, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     cfg.Gemini.APIKey,
		Model:      cfg.Gemini.Model,
		EmbedModel: cfg.Gemini.EmbedModel,
	}, zl)
	if err != nil {
		zl.Fatal("failed to initialize gemini", zap.Error(err))
	}

	qdrantService, err := services.NewQdrantService(cfg.Qdrant.URL, cfg.Qdrant.APIKey, cfg.Qdrant.Collection, zl)
	if err != nil {
		zl.Fatal("failed to initialize qdrant", zap.Error(err))
	}

	if err := qdrantService.InitCollection(ctx); err != nil {
		zl.Fatal("failed to initialize collection", zap.Error(err))
	}

	paths, err := filepath.Glob(filepath.Join(*dir, "*.pdf"))
	if err != nil {
		zl.Fatal("invalid guideline directory", zap.String("dir", *dir), zap.Error(err))
	}
	if len(paths) == 0 {
		zl.Fatal("no guideline PDFs found", zap.String("dir", *dir))
	}

	pdfParser := services.NewPDFParserService()
	chunker := services.NewTextChunker()

	successCount := 0
	failCount := 0

	for _, path := range paths {
		docID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		dl := zl.With(zap.String("doc_id", docID), zap.String("path", path))

		content, err := pdfParser.ExtractTextWithMetaData(path)
		if err != nil {
			dl.Error("failed to extract text", zap.Error(err))
			failCount++
			continue
		}

		chunks := chunker.ChunkText(content.Text, *chunkSize, *overlap)
		dl.Info("document chunked",
			zap.Int("pages", content.PageCount),
			zap.Int("characters", len(content.Text)),
			zap.Int("chunks", len(chunks)),
		)

		// Replace chunks from an earlier run of the same file.
		if err := qdrantService.DeleteDocument(ctx, docID); err != nil {
			dl.Error("failed to remove previous chunks", zap.Error(err))
			failCount++
			continue
		}

		stored := 0
		for i, text := range chunks {
			embedding, err := geminiService.GenerateEmbedding(ctx, text)
			if err != nil {
				dl.Warn("failed to embed chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}

			chunk := services.DocumentChunk{
				DocID:   docID,
				DocType: services.DocTypeATSGuideline,
				Index:   i,
				Text:    text,
			}
			if err := qdrantService.UpsertChunk(ctx, chunk, embedding); err != nil {
				dl.Warn("failed to store chunk", zap.Int("chunk", i), zap.Error(err))
				continue
			}
			stored++
		}

		if stored < len(chunks) {
			dl.Error("document partially ingested", zap.Int("stored", stored), zap.Int("chunks", len(chunks)))
			failCount++
			continue
		}

		dl.Info("document ingested", zap.Int("chunks", stored))
		successCount++
	}

	zl.Info("ingestion finished", zap.Int("successful", successCount), zap.Int("failed", failCount))

	if failCount > 0 {
		os.Exit(1)
	}
}
