package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
)

const (
	summarySkillLimit          = 5
	summaryRecommendationLimit = 3
)

var reportCSVHeader = []string{
	"Analysis Date",
	"Overall Score",
	"Summary",
	"Matched Skills",
	"Missing Skills",
	"Recommendations",
}

// WriteReportCSV writes a header row and a single data row for the report.
func WriteReportCSV(w io.Writer, report *models.MatchReport, analyzedAt time.Time) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(reportCSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := []string{
		analyzedAt.Format("2006-01-02 15:04:05"),
		fmt.Sprintf("%d", report.OverallMatchScore),
		report.Summary,
		strings.Join(report.MatchedSkills, ", "),
		strings.Join(report.MissingSkills, ", "),
		strings.Join(report.Recommendations, "\n"),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}

	writer.Flush()
	return writer.Error()
}

// ReportFilename is the download name for a report generated at t.
func ReportFilename(t time.Time) string {
	return fmt.Sprintf("ats_analysis_%s.csv", t.Format("20060102_150405"))
}

// BuildSummaryText renders a short plain-text digest of the report.
func BuildSummaryText(report *models.MatchReport) string {
	var b strings.Builder

	b.WriteString("ATS Resume Analysis Summary\n")
	b.WriteString("===========================\n")
	fmt.Fprintf(&b, "Overall Match Score: %d%% (%s)\n\n", report.OverallMatchScore, report.Verdict())
	fmt.Fprintf(&b, "Summary: %s\n\n", report.Summary)
	fmt.Fprintf(&b, "Matched Skills: %s\n", strings.Join(head(report.MatchedSkills, summarySkillLimit), ", "))
	fmt.Fprintf(&b, "Missing Skills: %s\n\n", strings.Join(head(report.MissingSkills, summarySkillLimit), ", "))
	b.WriteString("Top Recommendations:\n")
	for _, rec := range head(report.Recommendations, summaryRecommendationLimit) {
		fmt.Fprintf(&b, "• %s\n", rec)
	}

	return b.String()
}

func head(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
