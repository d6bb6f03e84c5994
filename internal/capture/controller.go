package capture

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"kickform/internal/domain"
)

// Recording bounds.
const (
	countdownStart = 5
	tickInterval   = time.Second
	recordCeiling  = 10 * time.Second
)

// ErrCaptureActive is returned when starting a second capture session.
var ErrCaptureActive = errors.New("capture session already active")

// ErrNoSession is returned for operations outside an active session.
var ErrNoSession = errors.New("no active capture session")

// ErrNotRecording is returned when fragments arrive outside recording.
var ErrNotRecording = errors.New("not recording")

// ErrStillRecording is returned when finalize runs before a stop.
var ErrStillRecording = errors.New("recording has not been stopped")

// ErrNoMedia is returned when a stopped recording buffered nothing.
var ErrNoMedia = errors.New("no media fragments buffered")

// CuePlayer plays the countdown tones. Implementations must not block.
type CuePlayer interface {
	Tick()
	Go()
}

// TimerHandle abstracts a scheduled timer for cancellation.
type TimerHandle interface {
	Stop() bool
}

// Hooks receive controller emissions. All fields are optional. Hooks
// run with the controller lock held and must not call back into it.
type Hooks struct {
	OnState   func(phase domain.CapturePhase)
	OnTick    func(remaining int)
	OnStop    func(auto bool)
	OnRelease func()
}

// Controller owns the countdown, recording, and auto-stop state
// machine. The webview holds the hardware stream; the controller holds
// the timers, the fragment buffer, and the finalize-once guarantee.
// Timer callbacks carry the generation they were armed under, so a
// teardown between arming and firing makes them no-ops.
type Controller struct {
	mu         sync.Mutex
	phase      domain.CapturePhase
	sessionID  string
	generation uint64
	tick       int
	chunks     [][]byte
	byteCount  int
	mimeType   string
	stopAsked  bool
	timer      TimerHandle

	cues   CuePlayer
	hooks  Hooks
	logger *slog.Logger

	newTimer func(d time.Duration, f func()) TimerHandle
	now      func() time.Time
}

// New constructs a controller with real timers.
func New(cues CuePlayer, hooks Hooks, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Controller{
		phase:  domain.CaptureIdle,
		cues:   cues,
		hooks:  hooks,
		logger: logger,
		newTimer: func(d time.Duration, f func()) TimerHandle {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
}

// NewForTests constructs a controller with injectable timers and clock.
func NewForTests(cues CuePlayer, hooks Hooks, newTimer func(time.Duration, func()) TimerHandle, now func() time.Time) *Controller {
	c := New(cues, hooks, nil)
	if newTimer != nil {
		c.newTimer = newTimer
	}
	if now != nil {
		c.now = now
	}
	return c
}

// Begin starts a capture session. With the countdown enabled it ticks
// 5..1 at one-second intervals before recording; otherwise recording
// starts immediately with zero ticks.
func (c *Controller) Begin(countdown bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.CaptureIdle {
		return "", ErrCaptureActive
	}

	c.sessionID = uuid.NewString()
	c.generation++
	c.chunks = nil
	c.byteCount = 0
	c.mimeType = ""
	c.stopAsked = false

	c.logger.Debug("capture session started", "session", c.sessionID, "countdown", countdown)

	if !countdown {
		c.startRecordingLocked(false)
		return c.sessionID, nil
	}

	gen := c.generation
	c.phase = domain.CaptureCountdown
	c.tick = countdownStart
	c.emitState(domain.CaptureCountdown)
	c.emitTick(c.tick)
	c.playTick()
	c.timer = c.newTimer(tickInterval, func() { c.onCountdownTick(gen) })
	return c.sessionID, nil
}

// onCountdownTick advances the countdown by one second.
func (c *Controller) onCountdownTick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.phase != domain.CaptureCountdown {
		return
	}

	c.tick--
	if c.tick <= 0 {
		c.startRecordingLocked(true)
		return
	}

	c.emitTick(c.tick)
	c.playTick()
	c.timer = c.newTimer(tickInterval, func() { c.onCountdownTick(gen) })
}

// startRecordingLocked enters recording and arms the hard stop timer.
func (c *Controller) startRecordingLocked(withCue bool) {
	gen := c.generation
	c.phase = domain.CaptureRecording
	c.emitState(domain.CaptureRecording)
	if withCue {
		c.playGo()
	}
	c.timer = c.newTimer(recordCeiling, func() { c.onRecordCeiling(gen) })
}

// onRecordCeiling enforces the hard 10 second recording limit.
func (c *Controller) onRecordCeiling(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.phase != domain.CaptureRecording || c.stopAsked {
		return
	}
	c.requestStopLocked(true)
}

// Stop requests a manual early stop of the current recording.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.CaptureRecording {
		return ErrNotRecording
	}
	if c.stopAsked {
		return nil
	}

	c.requestStopLocked(false)
	return nil
}

// requestStopLocked converges the manual and automatic stop paths on
// one recorder-halt signal. Fragments may still arrive until Finish.
func (c *Controller) requestStopLocked(auto bool) {
	c.stopAsked = true
	c.stopTimerLocked()
	c.logger.Debug("stop requested", "session", c.sessionID, "auto", auto)
	if c.hooks.OnStop != nil {
		c.hooks.OnStop(auto)
	}
}

// Append buffers one media fragment pushed by the recorder. Order of
// arrival is preserved. The first fragment fixes the clip MIME type.
func (c *Controller) Append(chunk []byte, mimeType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.CaptureRecording {
		return ErrNotRecording
	}
	if len(chunk) == 0 {
		return nil
	}

	if c.mimeType == "" && mimeType != "" {
		c.mimeType = mimeType
	}
	c.chunks = append(c.chunks, chunk)
	c.byteCount += len(chunk)
	return nil
}

// Finish concatenates all buffered fragments into one named clip and
// ends the session. Exactly one clip is produced per session; it is
// only available after a stop, once every fragment has arrived.
func (c *Controller) Finish() (*domain.CapturedVideo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.CaptureRecording {
		return nil, ErrNoSession
	}
	if !c.stopAsked {
		return nil, ErrStillRecording
	}

	if len(c.chunks) == 0 {
		c.resetLocked()
		return nil, ErrNoMedia
	}

	data := make([]byte, 0, c.byteCount)
	for _, chunk := range c.chunks {
		data = append(data, chunk...)
	}

	mime := c.mimeType
	if mime == "" {
		mime = "video/webm"
	}

	video := &domain.CapturedVideo{
		Name:     recordingName(c.now(), mime),
		MIMEType: baseMIME(mime),
		Size:     len(data),
		Source:   domain.SourceRecording,
		Data:     data,
	}

	c.logger.Info("recording finalized",
		"session", c.sessionID,
		"bytes", len(data),
		"mime", video.MIMEType,
	)
	c.resetLocked()
	return video, nil
}

// Teardown cancels any countdown or recording, discards buffered
// fragments, and signals stream release. No timer fires and no clip
// is emitted after it returns.
func (c *Controller) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == domain.CaptureIdle {
		return
	}

	c.logger.Debug("capture teardown", "session", c.sessionID, "phase", string(c.phase))
	c.resetLocked()
}

// ReportDeviceFailure classifies a hardware acquisition error reported
// by the webview and tears down any session it interrupted.
func (c *Controller) ReportDeviceFailure(name, detail string) DeviceFailure {
	failure := ClassifyDeviceError(name, detail)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Warn("device failure", "name", name, "kind", string(failure.Kind), "detail", detail)
	if c.phase != domain.CaptureIdle {
		c.resetLocked()
	}
	return failure
}

// Phase returns the current capture phase.
func (c *Controller) Phase() domain.CapturePhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SessionID returns the active session ID, empty when idle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// resetLocked returns the controller to idle, invalidates pending
// timer callbacks, and emits the release signal.
func (c *Controller) resetLocked() {
	c.generation++
	c.stopTimerLocked()
	c.phase = domain.CaptureIdle
	c.sessionID = ""
	c.tick = 0
	c.chunks = nil
	c.byteCount = 0
	c.mimeType = ""
	c.stopAsked = false
	c.emitState(domain.CaptureIdle)
	if c.hooks.OnRelease != nil {
		c.hooks.OnRelease()
	}
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) emitState(phase domain.CapturePhase) {
	if c.hooks.OnState != nil {
		c.hooks.OnState(phase)
	}
}

func (c *Controller) emitTick(remaining int) {
	if c.hooks.OnTick != nil {
		c.hooks.OnTick(remaining)
	}
}

func (c *Controller) playTick() {
	if c.cues != nil {
		c.cues.Tick()
	}
}

func (c *Controller) playGo() {
	if c.cues != nil {
		c.cues.Go()
	}
}

// recordingName builds the clip filename from the capture time.
func recordingName(ts time.Time, mime string) string {
	return "recording-" + ts.Format("20060102-150405") + extensionFor(mime)
}

// extensionFor picks a container extension from the recorder MIME type.
func extensionFor(mime string) string {
	switch baseMIME(mime) {
	case "video/mp4":
		return ".mp4"
	case "video/x-matroska":
		return ".mkv"
	default:
		return ".webm"
	}
}

// baseMIME strips codec parameters from a recorder MIME type.
func baseMIME(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(strings.ToLower(mime))
}
