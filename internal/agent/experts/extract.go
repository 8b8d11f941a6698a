package experts

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/synod-io/synod/internal/models"
)

// Extraction lifts structured fields out of free-form diagnostic prose
// with ordered regex heuristics. Labels are matched in both English and
// Chinese because models answer in either. Every field has a documented
// placeholder; extraction never fails.

const (
	// placeholderUnspecified marks a field the prose never stated.
	placeholderUnspecified = "未明确说明"
	// placeholderSeeText points readers at the full diagnosis text.
	placeholderSeeText = "详见诊断文本"
	// defaultConfidence is assumed when the prose states none.
	defaultConfidence = 0.8
)

var (
	rootCausePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?im)根本原因[：:]\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?im)原因[：:]\s*(.+?)(?:\n|$)`),
		regexp.MustCompile(`(?im)root cause[：:]\s*(.+?)(?:\n|$)`),
	}

	evidenceSectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?ims)证据[：:]\s*(.+?)(?:\n\n|\n##|$)`),
		regexp.MustCompile(`(?ims)evidence[：:]\s*(.+?)(?:\n\n|\n##|$)`),
	}

	fixSectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?ims)修复步骤[：:]\s*(.+?)(?:\n\n|\n##|$)`),
		regexp.MustCompile(`(?ims)fix steps[：:]\s*(.+?)(?:\n\n|\n##|$)`),
	}

	confidencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)置信度[：:]\s*(\d+\.?\d*)\s*%?`),
		regexp.MustCompile(`(?i)confidence[：:]\s*(\d+\.?\d*)\s*%?`),
	}

	bulletItem   = regexp.MustCompile(`(?m)^\s*[-*]\s+(.+)$`)
	numberedItem = regexp.MustCompile(`(?m)^\s*\d+[.、)]\s*(.+)$`)
)

const (
	maxEvidence = 5
	maxFixSteps = 10
)

// ExtractDiagnosis parses an expert's prose answer. ExpertName and
// Severity are left for the caller to fill.
func ExtractDiagnosis(text string) *models.ExpertDiagnosis {
	return &models.ExpertDiagnosis{
		RootCause:     extractRootCause(text),
		Evidence:      extractListSection(text, evidenceSectionPatterns, bulletItem, maxEvidence),
		FixSteps:      extractListSection(text, fixSectionPatterns, numberedItem, maxFixSteps),
		Confidence:    extractConfidence(text),
		DiagnosisText: text,
	}
}

func extractRootCause(text string) string {
	for _, re := range rootCausePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return placeholderUnspecified
}

// extractListSection finds a labeled section, then splits it into items
// by the given item pattern. When the section has no list markers the
// whole section body becomes the single item.
func extractListSection(text string, sections []*regexp.Regexp, item *regexp.Regexp, limit int) []string {
	for _, re := range sections {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		body := strings.TrimSpace(m[1])
		if body == "" {
			continue
		}

		var items []string
		for _, im := range item.FindAllStringSubmatch(body, -1) {
			items = append(items, strings.TrimSpace(im[1]))
			if len(items) == limit {
				break
			}
		}
		if len(items) == 0 {
			items = []string{body}
		}
		return items
	}
	return []string{placeholderSeeText}
}

func extractConfidence(text string) float64 {
	for _, re := range confidencePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		// Percent form ("85%") normalizes to 0-1.
		if value > 1 {
			value /= 100
		}
		if value < 0 {
			value = 0
		} else if value > 1 {
			value = 1
		}
		return value
	}
	return defaultConfidence
}
