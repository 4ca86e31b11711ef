package models

import "strings"

type Section string

const (
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
)

// Sections lists the labels the segmenter and the analyzer score, in display order.
var Sections = []Section{SectionExperience, SectionEducation, SectionSkills}

// ParseSection maps a user supplied label to a Section.
func ParseSection(s string) (Section, bool) {
	label := Section(strings.ToLower(strings.TrimSpace(s)))
	for _, section := range Sections {
		if section == label {
			return section, true
		}
	}
	return "", false
}

// SectionMap holds the labeled spans of a resume. Empty string means no heading was found.
type SectionMap struct {
	Experience string `json:"experience"`
	Education  string `json:"education"`
	Skills     string `json:"skills"`
	FullText   string `json:"full_text"`
}

func (m SectionMap) Get(section Section) string {
	switch section {
	case SectionExperience:
		return m.Experience
	case SectionEducation:
		return m.Education
	case SectionSkills:
		return m.Skills
	default:
		return ""
	}
}

type MatchReport struct {
	OverallMatchScore int             `json:"overall_match_score"`
	MatchedSkills     []string        `json:"matched_skills"`
	MissingSkills     []string        `json:"missing_skills"`
	Strengths         []string        `json:"strengths"`
	Weaknesses        []string        `json:"weaknesses"`
	Recommendations   []string        `json:"recommendations"`
	KeywordMatches    []string        `json:"keyword_matches"`
	SectionScores     map[Section]int `json:"section_scores"`
	Summary           string          `json:"summary"`
}

// DefaultMatchReport is returned in place of a real report when the analysis could not run.
func DefaultMatchReport(reason string) *MatchReport {
	return &MatchReport{
		OverallMatchScore: 0,
		MatchedSkills:     []string{},
		MissingSkills:     []string{},
		Strengths:         []string{},
		Weaknesses:        []string{"Unable to analyze due to API error"},
		Recommendations:   []string{"Please try again"},
		KeywordMatches:    []string{},
		SectionScores:     zeroSectionScores(),
		Summary:           "Analysis failed: " + reason,
	}
}

func zeroSectionScores() map[Section]int {
	scores := make(map[Section]int, len(Sections))
	for _, section := range Sections {
		scores[section] = 0
	}
	return scores
}

// Verdict is the headline shown next to the overall score.
func (r *MatchReport) Verdict() string {
	switch {
	case r.OverallMatchScore >= 80:
		return "Excellent Match"
	case r.OverallMatchScore >= 60:
		return "Good Match"
	default:
		return "Needs Improvement"
	}
}
