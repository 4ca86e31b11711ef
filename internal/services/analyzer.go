package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
)

const (
	analysisTemperature   float32 = 0.3
	suggestionTemperature float32 = 0.5
)

// MatchAnalyzer never fails: a report or a suggestion text is always returned.
type MatchAnalyzer interface {
	AnalyzeMatch(ctx context.Context, resumeText, jobDescription string) *models.MatchReport
	SuggestImprovements(ctx context.Context, resumeText, jobDescription string, section models.Section) string
}

type textGenerator interface {
	GenerateTextWithRetry(ctx context.Context, prompt string, temperature float32, maxRetries int) (string, error)
}

type matchAnalyzer struct {
	generator     textGenerator
	guidance      GuidanceRetriever
	promptBuilder *PromptBuilder
	maxRetries    int
	log           *zap.Logger
}

// NewMatchAnalyzer wires the analyzer. guidance may be nil when no guideline store is configured.
func NewMatchAnalyzer(generator textGenerator, guidance GuidanceRetriever, maxRetries int, log *zap.Logger) MatchAnalyzer {
	return &matchAnalyzer{
		generator:     generator,
		guidance:      guidance,
		promptBuilder: NewPromptBuilder(),
		maxRetries:    maxRetries,
		log:           log,
	}
}

// AnalyzeMatch implements MatchAnalyzer.
func (a *matchAnalyzer) AnalyzeMatch(ctx context.Context, resumeText, jobDescription string) *models.MatchReport {
	guidance := a.retrieveGuidance(ctx, jobDescription)
	prompt := a.promptBuilder.BuildMatchAnalysisPrompt(resumeText, jobDescription, guidance)

	a.log.Debug("match analysis prompt built",
		zap.Int("prompt_length", len(prompt)),
		zap.Bool("with_guidance", guidance != ""),
	)

	response, err := a.generator.GenerateTextWithRetry(ctx, prompt, analysisTemperature, a.maxRetries)
	if err != nil {
		a.log.Error("match analysis failed", zap.Error(err))
		return models.DefaultMatchReport(err.Error())
	}

	report, err := parseMatchReport(response)
	if err != nil {
		a.log.Error("failed to parse match analysis response", zap.Error(err))
		return models.DefaultMatchReport(err.Error())
	}

	a.log.Info("match analysis completed",
		zap.Int("overall_match_score", report.OverallMatchScore),
		zap.Int("matched_skills", len(report.MatchedSkills)),
		zap.Int("missing_skills", len(report.MissingSkills)),
	)

	return report
}

// SuggestImprovements implements MatchAnalyzer.
func (a *matchAnalyzer) SuggestImprovements(ctx context.Context, resumeText, jobDescription string, section models.Section) string {
	prompt := a.promptBuilder.BuildSectionSuggestionPrompt(resumeText, jobDescription, section)

	suggestions, err := a.generator.GenerateTextWithRetry(ctx, prompt, suggestionTemperature, a.maxRetries)
	if err != nil {
		a.log.Error("section suggestions failed", zap.String("section", string(section)), zap.Error(err))
		return fmt.Sprintf("Unable to generate suggestions: %v", err)
	}

	return strings.TrimSpace(suggestions)
}

func (a *matchAnalyzer) retrieveGuidance(ctx context.Context, jobDescription string) string {
	if a.guidance == nil {
		return ""
	}

	guidance, err := a.guidance.Retrieve(ctx, a.promptBuilder.BuildRetrievalQuery(jobDescription))
	if err != nil {
		a.log.Warn("failed to retrieve ATS guidelines", zap.Error(err))
		return ""
	}

	return guidance
}

type matchReportPayload struct {
	OverallMatchScore *float64           `json:"overall_match_score"`
	MatchedSkills     []string           `json:"matched_skills"`
	MissingSkills     []string           `json:"missing_skills"`
	Strengths         []string           `json:"strengths"`
	Weaknesses        []string           `json:"weaknesses"`
	Recommendations   []string           `json:"recommendations"`
	KeywordMatches    []string           `json:"keyword_matches"`
	SectionScores     map[string]float64 `json:"section_scores"`
	Summary           string             `json:"summary"`
}

// parseMatchReport decodes the model's answer into a MatchReport with every field populated.
func parseMatchReport(response string) (*models.MatchReport, error) {
	if strings.TrimSpace(response) == "" {
		return nil, errors.New("empty response from model")
	}

	var payload matchReportPayload
	if err := json.Unmarshal([]byte(extractJSON(response)), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	if payload.OverallMatchScore == nil {
		return nil, errors.New("response is missing overall_match_score")
	}

	sectionScores := make(map[models.Section]int, len(payload.SectionScores))
	for name, score := range payload.SectionScores {
		sectionScores[models.Section(strings.ToLower(strings.TrimSpace(name)))] = clampScore(score)
	}
	for _, section := range models.Sections {
		if _, ok := sectionScores[section]; !ok {
			sectionScores[section] = 0
		}
	}

	return &models.MatchReport{
		OverallMatchScore: clampScore(*payload.OverallMatchScore),
		MatchedSkills:     nonNil(payload.MatchedSkills),
		MissingSkills:     nonNil(payload.MissingSkills),
		Strengths:         nonNil(payload.Strengths),
		Weaknesses:        nonNil(payload.Weaknesses),
		Recommendations:   nonNil(payload.Recommendations),
		KeywordMatches:    nonNil(payload.KeywordMatches),
		SectionScores:     sectionScores,
		Summary:           strings.TrimSpace(payload.Summary),
	}, nil
}

func clampScore(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Max(0, math.Min(100, math.Round(score))))
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// extractJSON strips markdown fences and returns the outermost JSON object or array.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return strings.TrimSpace(text)
}
