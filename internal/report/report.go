package report

import (
	"kickform/internal/domain"
)

// Neutral defaults substituted for absent optional fields.
const (
	placeholderLabel  = "N/A"
	placeholderStatus = "N/A"
)

// Normalize returns a copy of result with neutral defaults in place of
// absent optional fields, so rendering never fails on a sparse result.
// The input is not mutated.
func Normalize(result *domain.AnalysisResult) *domain.AnalysisResult {
	out := domain.AnalysisResult{Status: domain.AnalysisSuccess}
	if result != nil {
		out = *result
	}

	if out.DetectedAction == "" {
		out.DetectedAction = placeholderLabel
	}
	if out.ScoreLabel == "" {
		out.ScoreLabel = placeholderLabel
	}
	if out.ScoreColor == "" {
		out.ScoreColor = deriveColor(out.FormScore)
	}

	if out.KeyStrengths == nil {
		out.KeyStrengths = []string{}
	}

	improvements := make([]domain.Improvement, len(out.AreasForImprovement))
	copy(improvements, out.AreasForImprovement)
	for i := range improvements {
		if improvements[i].Drill == "" {
			improvements[i].Drill = placeholderLabel
		}
		if improvements[i].Instructions == nil {
			improvements[i].Instructions = []string{}
		}
	}
	out.AreasForImprovement = improvements

	technical := domain.TechnicalData{}
	if out.TechnicalData != nil {
		technical = *out.TechnicalData
	}
	if technical.TorsoAngle == nil {
		technical.TorsoAngle = &domain.Metric{Status: placeholderStatus}
	}
	if technical.PlantFootOffset == nil {
		technical.PlantFootOffset = &domain.Metric{Status: placeholderStatus}
	}
	out.TechnicalData = &technical

	if out.CoachingTips == nil {
		out.CoachingTips = map[string]string{}
	}

	return &out
}

// CoachingText returns the coaching paragraph for lang, falling back
// to English and then to the first non-empty language.
func CoachingText(result *domain.AnalysisResult, lang string) string {
	if result == nil || len(result.CoachingTips) == 0 {
		return ""
	}

	if text := result.CoachingTips[lang]; text != "" {
		return text
	}
	if text := result.CoachingTips[domain.LangEnglish]; text != "" {
		return text
	}
	for _, code := range domain.CoachingLanguages() {
		if text := result.CoachingTips[code]; text != "" {
			return text
		}
	}
	return ""
}

// LanguageName returns the display name for a coaching language code.
func LanguageName(code string) string {
	switch code {
	case domain.LangMacedonian:
		return "Македонски"
	case domain.LangSpanish:
		return "Español"
	default:
		return "English"
	}
}

// deriveColor picks a badge color for results that omitted one.
func deriveColor(score float64) string {
	switch {
	case score >= 8:
		return domain.ScoreColorGreen
	case score >= 5:
		return domain.ScoreColorYellow
	default:
		return domain.ScoreColorRed
	}
}
