package session

import (
	"errors"
	"fmt"
	"sync"

	"kickform/internal/domain"
)

// ErrAnalysisInFlight is returned when starting a second analysis.
var ErrAnalysisInFlight = errors.New("analysis already in flight")

// ErrNoVideo is returned when analysis is requested with nothing staged.
var ErrNoVideo = errors.New("no video staged")

// ErrBusy is returned when staging or clearing during an analysis.
var ErrBusy = errors.New("session busy analyzing")

// Controller owns the single current video/result pair and the phase
// state machine. Every transition replaces state wholesale; nothing is
// mutated concurrently.
type Controller struct {
	mu         sync.RWMutex
	phase      domain.Phase
	video      *domain.CapturedVideo
	result     *domain.AnalysisResult
	errKind    string
	errMessage string
	language   string
	generation uint64
}

// NewController creates a controller in idle phase.
func NewController(language string) *Controller {
	if !domain.IsCoachingLanguage(language) {
		language = domain.LangEnglish
	}

	return &Controller{
		phase:    domain.PhaseIdle,
		language: language,
	}
}

// StageVideo replaces the current video and fully resets prior state.
// Rejected while an analysis is in flight.
func (c *Controller) StageVideo(video *domain.CapturedVideo) error {
	if video == nil {
		return ErrNoVideo
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == domain.PhaseAnalyzing {
		return ErrBusy
	}

	c.phase = domain.PhaseIdle
	c.video = video
	c.result = nil
	c.errKind = ""
	c.errMessage = ""
	return nil
}

// Begin moves the session into analyzing and returns the generation
// token that completion calls must present.
func (c *Controller) Begin() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == domain.PhaseAnalyzing {
		return 0, ErrAnalysisInFlight
	}
	if c.video == nil {
		return 0, ErrNoVideo
	}
	if !isValidTransition(c.phase, domain.PhaseAnalyzing) {
		return 0, fmt.Errorf("invalid transition: %s -> %s", c.phase, domain.PhaseAnalyzing)
	}

	c.phase = domain.PhaseAnalyzing
	c.result = nil
	c.errKind = ""
	c.errMessage = ""
	c.generation++
	return c.generation, nil
}

// CompleteSuccess applies a parsed result for the given generation.
// A result carrying the service's own error status routes to the error
// phase with the fixed unclear-video message. Returns false when the
// completion is stale and was dropped.
func (c *Controller) CompleteSuccess(gen uint64, result *domain.AnalysisResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.phase != domain.PhaseAnalyzing {
		return false
	}

	if result.Refused() {
		c.phase = domain.PhaseError
		c.errKind = KindUnclearVideo
		c.errMessage = MsgUnclearVideo
		return true
	}

	c.phase = domain.PhaseSuccess
	c.result = result
	return true
}

// CompleteFailure applies a classified failure for the given generation.
// The kind resolves to its fixed message; raw is shown only when the
// kind has no mapping. Returns false when the completion is stale and
// was dropped.
func (c *Controller) CompleteFailure(gen uint64, kind, raw string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.phase != domain.PhaseAnalyzing {
		return false
	}

	c.phase = domain.PhaseError
	c.errKind = kind
	c.errMessage = MessageFor(kind, raw)
	return true
}

// Reset returns the session to idle with nothing staged and invalidates
// any in-flight completion.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.phase = domain.PhaseIdle
	c.video = nil
	c.result = nil
	c.errKind = ""
	c.errMessage = ""
	c.generation++
}

// SetLanguage switches the coaching language. Pure local view change.
func (c *Controller) SetLanguage(code string) error {
	if !domain.IsCoachingLanguage(code) {
		return fmt.Errorf("unsupported language %q", code)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = code
	return nil
}

// Language returns the selected coaching language.
func (c *Controller) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

// Phase returns the current phase.
func (c *Controller) Phase() domain.Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// Video returns the currently staged video, nil when none.
func (c *Controller) Video() *domain.CapturedVideo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.video
}

// Result returns the current success result, nil otherwise.
func (c *Controller) Result() *domain.AnalysisResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result
}

// Snapshot returns the UI-facing view of the session.
func (c *Controller) Snapshot() domain.SessionSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return domain.SessionSnapshot{
		Phase:        c.phase,
		Video:        c.video,
		Result:       c.result,
		ErrorKind:    c.errKind,
		ErrorMessage: c.errMessage,
		Language:     c.language,
	}
}

// isValidTransition enforces the allowed phase state machine edges.
func isValidTransition(from, to domain.Phase) bool {
	switch from {
	case domain.PhaseIdle:
		return to == domain.PhaseAnalyzing
	case domain.PhaseAnalyzing:
		return to == domain.PhaseSuccess || to == domain.PhaseError || to == domain.PhaseIdle
	case domain.PhaseSuccess, domain.PhaseError:
		return to == domain.PhaseAnalyzing || to == domain.PhaseIdle
	default:
		return false
	}
}
