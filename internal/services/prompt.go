package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildMatchAnalysisPrompt creates the prompt that asks for a MatchReport as JSON.
// guidance is optional reference material retrieved from the guideline store.
func (pb *PromptBuilder) BuildMatchAnalysisPrompt(resumeText, jobDescription, guidance string) string {
	var guidanceBlock string
	if strings.TrimSpace(guidance) != "" {
		guidanceBlock = fmt.Sprintf("\nATS SCREENING GUIDELINES (reference only):\n%s\n", guidance)
	}

	return fmt.Sprintf(`You are an expert ATS (Applicant Tracking System) analyzer. Compare the following resume against the job description and provide a detailed analysis.

JOB DESCRIPTION:
%s

RESUME:
%s
%s
Please provide your analysis in the following JSON format:
{
  "overall_match_score": <number between 0-100>,
  "matched_skills": [<list of skills from resume that match job requirements>],
  "missing_skills": [<list of important skills from job description not found in resume>],
  "strengths": [<list of candidate's key strengths for this role>],
  "weaknesses": [<list of areas where candidate falls short>],
  "recommendations": [<list of specific suggestions to improve resume for this role>],
  "keyword_matches": [<list of important keywords that matched>],
  "section_scores": {
    "experience": <score 0-100>,
    "education": <score 0-100>,
    "skills": <score 0-100>
  },
  "summary": "<brief overall assessment>"
}

Be specific and actionable in your analysis. Focus on relevant skills, experience level, and qualifications mentioned in the job description.`,
		jobDescription, resumeText, guidanceBlock)
}

// BuildSectionSuggestionPrompt asks for 3-5 improvements to one resume section. The answer is free text.
func (pb *PromptBuilder) BuildSectionSuggestionPrompt(resumeText, jobDescription string, section models.Section) string {
	return fmt.Sprintf(`Based on this job description and resume, provide 3-5 specific, actionable suggestions for improving the %[1]s section of the resume.

JOB DESCRIPTION:
%[2]s

CURRENT RESUME:
%[3]s

Focus on the %[1]s section and provide suggestions that would help the candidate better align with the job requirements. Be specific and practical.`,
		section, jobDescription, resumeText)
}

// BuildRetrievalQuery creates the text embedded to search the guideline store.
func (pb *PromptBuilder) BuildRetrievalQuery(jobDescription string) string {
	return fmt.Sprintf("Resume screening criteria and keyword guidance for: %s", jobDescription)
}

// FormatRAGContext renders search results as numbered context blocks.
func FormatRAGContext(results []SearchResult) string {
	if len(results) == 0 {
		return ""
	}

	var parts []string
	for i, result := range results {
		parts = append(parts, fmt.Sprintf("--- Context %d (Score: %.2f) ---\n%s",
			i+1, result.Score, strings.TrimSpace(result.Text)))
	}

	return strings.Join(parts, "\n\n")
}
