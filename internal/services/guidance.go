package services

import (
	"context"
	"fmt"
)

// GuidanceRetriever returns reference text relevant to a query, or "" when nothing matched.
type GuidanceRetriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

type embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type guidelineSearcher interface {
	SearchSimilar(ctx context.Context, queryEmbedding []float32, docType string, limit int) ([]SearchResult, error)
}

type guidanceRetriever struct {
	embedder embedder
	store    guidelineSearcher
	topK     int
}

func NewGuidanceRetriever(embedder embedder, store guidelineSearcher, topK int) GuidanceRetriever {
	if topK <= 0 {
		topK = 3
	}
	return &guidanceRetriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve implements GuidanceRetriever.
func (g *guidanceRetriever) Retrieve(ctx context.Context, query string) (string, error) {
	embedding, err := g.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := g.store.SearchSimilar(ctx, embedding, DocTypeATSGuideline, g.topK)
	if err != nil {
		return "", fmt.Errorf("failed to search guidelines: %w", err)
	}

	return FormatRAGContext(results), nil
}
