package domain

// AnalysisStatus is the model's own verdict on whether the clip was usable.
type AnalysisStatus string

const (
	AnalysisSuccess AnalysisStatus = "success"
	AnalysisRefused AnalysisStatus = "error"
)

// Score label colors used by the result view.
const (
	ScoreColorGreen  = "green"
	ScoreColorYellow = "yellow"
	ScoreColorRed    = "red"
)

// Metric is one measured technique value with its ideal target and a
// short status word such as "optimal" or "wide".
type Metric struct {
	Value  float64 `json:"value"`
	Target float64 `json:"target"`
	Status string  `json:"status"`
}

// TechnicalData groups the biomechanical measurements extracted from the clip.
type TechnicalData struct {
	TorsoAngle      *Metric `json:"torso_angle,omitempty"`
	PlantFootOffset *Metric `json:"plant_foot_offset,omitempty"`
}

// Improvement pairs one observed flaw with a named practice drill.
type Improvement struct {
	Issue        string   `json:"issue"`
	Drill        string   `json:"drill"`
	Instructions []string `json:"instructions"`
}

// AnalysisResult is the structured verdict for one analyzed clip. Field
// names follow the response schema the model is asked to fill.
type AnalysisResult struct {
	Status              AnalysisStatus    `json:"status"`
	Reason              string            `json:"reason,omitempty"`
	DetectedAction      string            `json:"detected_action,omitempty"`
	FormScore           float64           `json:"form_score"`
	ScoreLabel          string            `json:"score_label"`
	ScoreColor          string            `json:"score_color,omitempty"`
	KeyStrengths        []string          `json:"key_strengths"`
	AreasForImprovement []Improvement     `json:"areas_for_improvement"`
	TechnicalData       *TechnicalData    `json:"technical_data,omitempty"`
	CoachingTips        map[string]string `json:"coaching_tips,omitempty"`
}

// Refused reports whether the model declined to score the clip.
func (r *AnalysisResult) Refused() bool {
	return r != nil && r.Status != AnalysisSuccess
}
