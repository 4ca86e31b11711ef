package services

import (
	"regexp"
	"strings"

	"alfredoptarigan/ats-resume-analyzer/internal/models"
)

type SectionSegmenter interface {
	Segment(resumeText string) models.SectionMap
}

// sectionMatcher captures the text after a heading up to the next stop word.
type sectionMatcher struct {
	heading *regexp.Regexp
	stop    *regexp.Regexp
}

func newSectionMatcher(headings, stops string) sectionMatcher {
	return sectionMatcher{
		heading: regexp.MustCompile(`(?i)(?:` + headings + `)`),
		stop:    regexp.MustCompile(`(?i)(?:` + stops + `)`),
	}
}

// match finds the leftmost heading; alternatives earlier in the list win at the same offset.
func (m sectionMatcher) match(text string) (string, bool) {
	loc := m.heading.FindStringIndex(text)
	if loc == nil {
		return "", false
	}

	body := text[loc[1]:]
	if end := m.stop.FindStringIndex(body); end != nil {
		body = body[:end[0]]
	}

	return strings.TrimSpace(body), true
}

// Matchers per label, tried in order. The first one that finds its heading decides the span.
var sectionMatchers = map[models.Section][]sectionMatcher{
	models.SectionExperience: {
		newSectionMatcher(`experience|work experience|employment|professional experience`, `education|skills|projects`),
		newSectionMatcher(`employment history|work history`, `education|skills|projects`),
	},
	models.SectionEducation: {
		newSectionMatcher(`education|academic background|qualifications`, `experience|skills|projects`),
	},
	models.SectionSkills: {
		newSectionMatcher(`skills|technical skills|core competencies|technologies`, `experience|education|projects`),
	},
}

type sectionSegmenter struct {
	matchers map[models.Section][]sectionMatcher
}

func NewSectionSegmenter() SectionSegmenter {
	return &sectionSegmenter{matchers: sectionMatchers}
}

// Segment implements SectionSegmenter.
// Spans are independent of each other and may overlap when headings are out of order.
func (s *sectionSegmenter) Segment(resumeText string) models.SectionMap {
	return models.SectionMap{
		Experience: s.extract(models.SectionExperience, resumeText),
		Education:  s.extract(models.SectionEducation, resumeText),
		Skills:     s.extract(models.SectionSkills, resumeText),
		FullText:   resumeText,
	}
}

func (s *sectionSegmenter) extract(section models.Section, text string) string {
	for _, matcher := range s.matchers[section] {
		if body, ok := matcher.match(text); ok {
			return body
		}
	}
	return ""
}
