package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"alfredoptarigan/ats-resume-analyzer/internal/logger"
	"alfredoptarigan/ats-resume-analyzer/internal/models"
	"alfredoptarigan/ats-resume-analyzer/internal/services"
)

const (
	formatJSON    = "json"
	formatSummary = "summary"
	formatCSV     = "csv"
)

var errMissingInput = errors.New("please provide both --resume and --job (or --job-text)")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume PDF against a job description",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume PDF")
	analyzeCmd.Flags().StringP("job", "J", "", "job description file (.txt, .pdf or .docx)")
	analyzeCmd.Flags().String("job-text", "", "job description text instead of a file")
	analyzeCmd.Flags().StringP("format", "f", formatJSON, "output format: json, summary or csv")
}

type analyzeOutput struct {
	Verdict  string              `json:"verdict"`
	Report   *models.MatchReport `json:"report"`
	Sections models.SectionMap   `json:"sections"`
}

func analyze(cmd *cobra.Command) error {
	ctx := context.Background()

	zl, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), logger.Stderr)
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer func() { _ = zl.Sync() }()

	resumePath, _ := cmd.Flags().GetString("resume")
	jobPath, _ := cmd.Flags().GetString("job")
	jobText, _ := cmd.Flags().GetString("job-text")
	format, _ := cmd.Flags().GetString("format")

	if err := validateFormat(format); err != nil {
		return err
	}

	if resumePath == "" || (jobPath == "" && strings.TrimSpace(jobText) == "") {
		return errMissingInput
	}

	config, err := getConfig()
	if err != nil {
		return fmt.Errorf("getting a config: %w", err)
	}

	pdfParser := services.NewPDFParserService()

	resumeText, err := pdfParser.ExtractTextFromFile(resumePath)
	if err != nil {
		return fmt.Errorf("failed to extract text from %s: %w", resumePath, err)
	}
	if resumeText == "" {
		return fmt.Errorf("no text content found in %s", resumePath)
	}

	jobDescription, err := readJobDescription(pdfParser, jobPath, jobText)
	if err != nil {
		return err
	}

	sections := services.NewSectionSegmenter().Segment(resumeText)

	analyzer, err := newAnalyzer(ctx, config, zl)
	if err != nil {
		return err
	}

	zl.Info("analyzing resume", zap.String("resume", resumePath), zap.Int("resume_length", len(resumeText)))
	report := analyzer.AnalyzeMatch(ctx, resumeText, jobDescription)

	return writeReport(cmd.OutOrStdout(), format, report, sections, time.Now())
}

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatSummary, formatCSV:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json, summary or csv)", format)
	}
}

func readJobDescription(pdfParser services.PDFParserService, path, text string) (string, error) {
	if path == "" {
		return strings.TrimSpace(text), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading job description: %w", err)
	}

	jobDescription, err := services.NewJobDescriptionReader(pdfParser).ReadText(filepath.Base(path), data)
	if err != nil {
		return "", fmt.Errorf("reading job description %s: %w", path, err)
	}
	if jobDescription == "" {
		return "", fmt.Errorf("job description %s is empty", path)
	}

	return jobDescription, nil
}

func newAnalyzer(ctx context.Context, config *Config, zl *zap.Logger) (services.MatchAnalyzer, error) {
	if config == nil || config.Gemini == nil || config.Gemini.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}

	gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
		APIKey:     config.Gemini.APIKey,
		Model:      config.Gemini.Model,
		EmbedModel: config.Gemini.EmbedModel,
		RetryDelay: 2 * time.Second,
	}, zl)
	if err != nil {
		return nil, err
	}

	var guidance services.GuidanceRetriever
	if q := config.Qdrant; q != nil && q.Enabled {
		store, err := services.NewQdrantService(q.URL, q.APIKey, q.Collection, zl)
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant: %w", err)
		}
		guidance = services.NewGuidanceRetriever(gemini, store, q.TopK)
	}

	return services.NewMatchAnalyzer(gemini, guidance, config.Gemini.MaxRetries, zl), nil
}

func writeReport(w io.Writer, format string, report *models.MatchReport, sections models.SectionMap, analyzedAt time.Time) error {
	switch format {
	case formatSummary:
		_, err := io.WriteString(w, services.BuildSummaryText(report))
		return err
	case formatCSV:
		return services.WriteReportCSV(w, report, analyzedAt)
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(analyzeOutput{
			Verdict:  report.Verdict(),
			Report:   report,
			Sections: sections,
		})
	}
}
