package domain

// Phase is the mutually exclusive application state for one analysis cycle.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseAnalyzing Phase = "analyzing"
	PhaseSuccess   Phase = "success"
	PhaseError     Phase = "error"
)

// CapturePhase tracks the guided recording flow inside the capture view.
type CapturePhase string

const (
	CaptureIdle      CapturePhase = "idle"
	CaptureCountdown CapturePhase = "countdown"
	CaptureRecording CapturePhase = "recording"
)

// Coaching text language codes supported by the analysis contract.
const (
	LangEnglish    = "en"
	LangMacedonian = "mk"
	LangSpanish    = "es"
)

// CoachingLanguages returns the fixed language codes in display order.
func CoachingLanguages() []string {
	return []string{LangEnglish, LangMacedonian, LangSpanish}
}

// IsCoachingLanguage reports whether code is one of the fixed languages.
func IsCoachingLanguage(code string) bool {
	switch code {
	case LangEnglish, LangMacedonian, LangSpanish:
		return true
	default:
		return false
	}
}

// Settings contains user-selectable runtime configuration.
type Settings struct {
	CountdownEnabled bool   `json:"countdownEnabled"`
	CoachingLanguage string `json:"coachingLanguage"`
	OutputDir        string `json:"outputDir"`
	ModelName        string `json:"modelName"`
}

// VideoSource records how the current clip entered the app.
type VideoSource string

const (
	SourceRecording VideoSource = "recording"
	SourceUpload    VideoSource = "upload"
)

// CapturedVideo is one immutable recorded or uploaded clip. Data never
// crosses the webview bridge; the frontend previews via PreviewURL.
type CapturedVideo struct {
	Name       string      `json:"name"`
	MIMEType   string      `json:"mimeType"`
	Size       int         `json:"size"`
	Source     VideoSource `json:"source"`
	PreviewURL string      `json:"previewUrl,omitempty"`
	SourcePath string      `json:"-"`
	Data       []byte      `json:"-"`
}

// SessionSnapshot is the UI-facing view of the application state.
type SessionSnapshot struct {
	Phase        Phase           `json:"phase"`
	Video        *CapturedVideo  `json:"video,omitempty"`
	Result       *AnalysisResult `json:"result,omitempty"`
	ErrorKind    string          `json:"errorKind,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	Language     string          `json:"language"`
}
