package bootstrap

import (
	"context"
	"encoding/base64"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"kickform/internal/analysis"
	"kickform/internal/capture"
	"kickform/internal/config"
	"kickform/internal/cue"
	"kickform/internal/diagnostics"
	"kickform/internal/domain"
	"kickform/internal/history"
	"kickform/internal/intake"
	"kickform/internal/media"
	"kickform/internal/report"
	"kickform/internal/session"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

// probeTimeout bounds the background duration probe for staged uploads.
const probeTimeout = 5 * time.Second

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Video files",
		Pattern:     "*.mp4;*.mov;*.mkv;*.avi;*.webm;*.m4v",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// App wires configuration, capture, analysis, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Session     *session.Controller
	Capture     *capture.Controller
	Intake      *intake.Intake
	Analyzer    analysis.Analyzer
	Exporter    reportExporter
	Prober      *media.Prober
	History     *history.Store
	Diagnostics domain.DiagnosticReport

	logger  *slog.Logger
	assets  fs.FS
	checker *diagnostics.Checker
	sounder *cue.Sounder
	apiKey  string

	mu         sync.Mutex
	runtimeCtx context.Context
	cancel     context.CancelFunc
	events     *session.EventBus
}

// reportExporter isolates report rendering behind an interface.
type reportExporter interface {
	Export(result *domain.AnalysisResult, videoName, lang, outputDir string) (report.ExportOutcome, error)
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	logger := newLogger()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}
	appDir := filepath.Join(homeDir, ".kickform")

	store := config.NewJSONStore(filepath.Join(appDir, "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	workDir, _ := os.Getwd()
	apiKey := config.LoadAPIKey(workDir, appDir, homeDir)

	checker := diagnostics.NewChecker()
	diag := checker.Run(settings)

	app := &App{
		Settings:    settings,
		Store:       store,
		Session:     session.NewController(settings.CoachingLanguage),
		Intake:      intake.New(logger),
		Exporter:    report.NewExporter(logger),
		Prober:      media.NewProber(logger),
		Diagnostics: diag,
		logger:      logger,
		assets:      assets,
		checker:     checker,
		apiKey:      apiKey,
		events:      session.NewEventBus(1000),
	}

	sounder, err := cue.NewSounder(logger)
	if err != nil {
		logger.Warn("countdown cues disabled", "err", err)
	} else {
		app.sounder = sounder
	}

	var cues capture.CuePlayer
	if app.sounder != nil {
		cues = app.sounder
	}
	app.Capture = capture.New(cues, capture.Hooks{
		OnState:   app.publishCaptureState,
		OnTick:    app.publishCountdownTick,
		OnStop:    app.publishCaptureStop,
		OnRelease: app.publishCaptureRelease,
	}, logger)

	if apiKey == "" {
		logger.Warn("analysis credential missing", "env", config.APIKeyEnv)
	} else {
		analyzer, err := analysis.NewGemini(context.Background(), apiKey, settings.ModelName, logger)
		if err != nil {
			logger.Warn("analysis adapter unavailable", "err", err)
		} else {
			app.Analyzer = analyzer
		}
	}

	historyStore, err := history.Open(filepath.Join(appDir, "history.db"))
	if err != nil {
		logger.Warn("analysis history unavailable", "err", err)
	} else {
		app.History = historyStore
	}

	return app, nil
}

// newLogger builds the app-wide structured logger.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("KICKFORM_DEBUG") != "" {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	return wails.Run(&options.App{
		Title:  "KickForm",
		Width:  1100,
		Height: 760,
		AssetServer: &assetserver.Options{
			Assets:  a.assets,
			Handler: a.assetHandler(),
		},
		DragAndDrop: &options.DragAndDrop{
			EnableFileDrop: true,
		},
		OnStartup:  a.Startup,
		OnShutdown: a.Shutdown,
		Bind:       []interface{}{a},
	})
}

// assetHandler routes preview requests to the intake; without embedded
// assets it also serves the frontend from disk for development runs.
func (a *App) assetHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(intake.PreviewPrefix, a.Intake)
	if a.assets == nil {
		mux.Handle("/", http.FileServer(http.Dir("./frontend")))
	}
	return mux
}

// Startup stores the Wails runtime context and registers file drop.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()

	wailsruntime.OnFileDrop(ctx, func(x, y int, paths []string) {
		if len(paths) == 0 {
			return
		}
		a.stageDropped(paths[0])
	})
}

// Shutdown cancels in-flight work and releases owned resources.
func (a *App) Shutdown(ctx context.Context) {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.runtimeCtx = nil
	analyzer := a.Analyzer
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	a.Capture.Teardown()

	if analyzer != nil {
		_ = analyzer.Close()
	}
	if a.History != nil {
		_ = a.History.Close()
	}
	if a.sounder != nil {
		_ = a.sounder.Close()
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns environment checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics, nil
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes
// diagnostics. A model change rebuilds the analysis client.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.mu.Lock()
	previousModel := a.Settings.ModelName
	a.Settings = normalized
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(normalized)
	}
	a.mu.Unlock()

	if normalized.ModelName != previousModel {
		a.swapAnalyzer(normalized.ModelName)
	}

	return normalized, nil
}

// swapAnalyzer replaces the Gemini client after a model change. The old
// client is closed only when no analysis holds it.
func (a *App) swapAnalyzer(model string) {
	a.mu.Lock()
	key := a.apiKey
	old := a.Analyzer
	a.Analyzer = nil
	a.mu.Unlock()

	if old != nil && a.Session.Phase() != domain.PhaseAnalyzing {
		_ = old.Close()
	}
	if key == "" {
		return
	}

	analyzer, err := analysis.NewGemini(context.Background(), key, model, a.logger)
	if err != nil {
		a.logger.Warn("cannot rebuild analyzer", "model", model, "err", err)
		return
	}

	a.mu.Lock()
	a.Analyzer = analyzer
	a.mu.Unlock()
}

// GetSnapshot returns the current UI-facing session state.
func (a *App) GetSnapshot() domain.SessionSnapshot {
	return a.Session.Snapshot()
}

// Events returns all session events with sequence greater than sinceSeq.
func (a *App) Events(sinceSeq int64) []session.Event {
	return a.events.Since(sinceSeq)
}

// PickVideoFile opens a native file dialog and stages the chosen clip.
// A canceled dialog returns nil with no error.
func (a *App) PickVideoFile() (*domain.CapturedVideo, error) {
	if a.Session.Phase() == domain.PhaseAnalyzing {
		return nil, session.ErrBusy
	}

	ctx, err := a.runtimeContext()
	if err != nil {
		return nil, err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select training video",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return nil, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	video, err := a.Intake.StagePath(path)
	if err != nil {
		return nil, err
	}
	return a.stageClip(video)
}

// PickOutputDirectory opens a native directory picker for report exports.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select report directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// OpenReportFolder opens the given path (or configured report dir) in
// the file manager.
func (a *App) OpenReportFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		a.mu.Lock()
		target = a.Settings.OutputDir
		a.mu.Unlock()
	}
	if target == "" {
		return fmt.Errorf("report path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve report path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openInFileManager(openPath)
}

// stageDropped stages a dragged-in file. Non-video drops are silently
// ignored.
func (a *App) stageDropped(path string) {
	if a.Session.Phase() == domain.PhaseAnalyzing {
		return
	}

	video, ok := a.Intake.StageDrop(path)
	if !ok {
		return
	}
	if _, err := a.stageClip(video); err != nil {
		a.logger.Debug("drop staging rejected", "err", err)
	}
}

// stageClip installs video as the session's single current clip and
// announces it.
func (a *App) stageClip(video *domain.CapturedVideo) (*domain.CapturedVideo, error) {
	if err := a.Session.StageVideo(video); err != nil {
		a.Intake.Clear()
		return nil, err
	}

	a.publishEvent(session.Event{
		Type:  session.EventTypeVideo,
		Phase: domain.PhaseIdle,
		Video: video,
	})
	a.maybeWarnLongClip(video)
	return video, nil
}

// maybeWarnLongClip probes upload duration in the background and warns
// when the clip may be rejected by the analysis service. Probe failures
// are silent.
func (a *App) maybeWarnLongClip(video *domain.CapturedVideo) {
	if video == nil || video.SourcePath == "" || a.Prober == nil || !a.Prober.Available() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()

		d, err := a.Prober.Duration(ctx, video.SourcePath)
		if err != nil {
			a.logger.Debug("duration probe failed", "path", video.SourcePath, "err", err)
			return
		}
		if d <= media.LongClipThreshold {
			return
		}

		a.publishEvent(session.Event{
			Type: session.EventTypeNotice,
			Kind: "long_clip",
			Message: fmt.Sprintf(
				"This clip is %.0f seconds long. Clips over %.0f seconds may be rejected by the analysis service.",
				d.Seconds(), media.LongClipThreshold.Seconds(),
			),
		})
	}()
}

// BeginCapture starts a countdown or immediate recording session.
func (a *App) BeginCapture() (string, error) {
	if a.Session.Phase() == domain.PhaseAnalyzing {
		return "", session.ErrBusy
	}

	a.mu.Lock()
	countdown := a.Settings.CountdownEnabled
	a.mu.Unlock()

	return a.Capture.Begin(countdown)
}

// AppendCaptureChunk buffers one base64 media fragment pushed by the
// recorder.
func (a *App) AppendCaptureChunk(encoded, mimeType string) error {
	chunk, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode media fragment: %w", err)
	}
	return a.Capture.Append(chunk, mimeType)
}

// StopCapture requests a manual early stop of the recording.
func (a *App) StopCapture() error {
	return a.Capture.Stop()
}

// CancelCapture abandons the capture session and discards fragments.
func (a *App) CancelCapture() {
	a.Capture.Teardown()
}

// FinishCapture finalizes buffered fragments into the staged clip.
func (a *App) FinishCapture() (*domain.CapturedVideo, error) {
	video, err := a.Capture.Finish()
	if err != nil {
		return nil, err
	}
	return a.stageClip(a.Intake.StageRecording(video))
}

// ReportDeviceFailure classifies a hardware failure reported by the
// webview and tears down the session it interrupted.
func (a *App) ReportDeviceFailure(name, detail string) capture.DeviceFailure {
	failure := a.Capture.ReportDeviceFailure(name, detail)

	a.publishEvent(session.Event{
		Type:    session.EventTypeError,
		Kind:    string(failure.Kind),
		Message: failure.Message,
	})
	return failure
}

// Analyze launches the single-request analysis for the staged clip and
// returns the analyzing snapshot.
func (a *App) Analyze() (domain.SessionSnapshot, error) {
	gen, err := a.Session.Begin()
	if err != nil {
		return a.Session.Snapshot(), err
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.cancel = cancel
	analyzer := a.Analyzer
	a.mu.Unlock()

	a.publishPhaseEvent()

	go a.runAnalysis(ctx, gen, analyzer, a.Session.Video())
	return a.Session.Snapshot(), nil
}

// runAnalysis executes the adapter call and maps its outcome onto the
// session. Stale completions are dropped by the generation check.
func (a *App) runAnalysis(ctx context.Context, gen uint64, analyzer analysis.Analyzer, video *domain.CapturedVideo) {
	defer a.clearCancel()

	if analyzer == nil {
		if a.Session.CompleteFailure(gen, session.KindConfig, "") {
			a.publishFailureEvent()
		}
		return
	}

	result, err := analyzer.Analyze(ctx, video)
	if err != nil {
		if a.Session.CompleteFailure(gen, string(analysis.KindOf(err)), err.Error()) {
			a.publishFailureEvent()
		}
		return
	}

	if !a.Session.CompleteSuccess(gen, result) {
		return
	}

	snapshot := a.Session.Snapshot()
	if snapshot.Phase == domain.PhaseError {
		a.publishFailureEvent()
		return
	}

	a.recordHistory(video, snapshot.Result)
	a.publishEvent(session.Event{
		Type:   session.EventTypeResult,
		Phase:  domain.PhaseSuccess,
		Result: snapshot.Result,
	})
}

// recordHistory saves a successful analysis, best effort.
func (a *App) recordHistory(video *domain.CapturedVideo, result *domain.AnalysisResult) {
	if a.History == nil || result == nil {
		return
	}

	name := ""
	if video != nil {
		name = video.Name
	}
	if _, err := a.History.Save(name, result); err != nil {
		a.logger.Warn("cannot record analysis history", "err", err)
	}
}

// ResetSession cancels any in-flight analysis and returns to idle with
// nothing staged.
func (a *App) ResetSession() domain.SessionSnapshot {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	a.Capture.Teardown()
	a.Intake.Clear()
	a.Session.Reset()
	a.publishPhaseEvent()
	return a.Session.Snapshot()
}

// SetCoachingLanguage switches the coaching text language and persists
// the selection for the next launch.
func (a *App) SetCoachingLanguage(code string) (domain.SessionSnapshot, error) {
	if err := a.Session.SetLanguage(code); err != nil {
		return a.Session.Snapshot(), err
	}

	a.mu.Lock()
	settings := a.Settings
	settings.CoachingLanguage = code
	a.Settings = settings
	a.mu.Unlock()

	if err := a.Store.Save(settings); err != nil {
		a.logger.Warn("cannot persist language selection", "err", err)
	}
	return a.Session.Snapshot(), nil
}

// ExportReport renders the current result to a print-ready document in
// the configured report directory.
func (a *App) ExportReport() (report.ExportOutcome, error) {
	snapshot := a.Session.Snapshot()
	if snapshot.Result == nil {
		return report.ExportOutcome{}, report.ErrNotExportable
	}

	name := ""
	if snapshot.Video != nil {
		name = snapshot.Video.Name
	}

	a.mu.Lock()
	outputDir := a.Settings.OutputDir
	a.mu.Unlock()

	outcome, err := a.Exporter.Export(snapshot.Result, name, snapshot.Language, outputDir)
	if err != nil {
		return report.ExportOutcome{}, err
	}

	if outcome.Notice != "" {
		a.publishEvent(session.Event{
			Type:    session.EventTypeNotice,
			Kind:    "export",
			Message: outcome.Notice,
		})
	}
	return outcome, nil
}

// ListHistory returns past successful analyses, newest first.
func (a *App) ListHistory(limit int) ([]history.Entry, error) {
	if a.History == nil {
		return nil, nil
	}
	return a.History.List(limit)
}

// GetHistoryEntry returns one past analysis with its full result.
func (a *App) GetHistoryEntry(id string) (history.Entry, error) {
	if a.History == nil {
		return history.Entry{}, history.ErrNotFound
	}
	return a.History.Get(id)
}

// DeleteHistoryEntry removes one past analysis.
func (a *App) DeleteHistoryEntry(id string) error {
	if a.History == nil {
		return history.ErrNotFound
	}
	return a.History.Delete(id)
}

// publishCaptureState pushes a capture phase change to the UI.
func (a *App) publishCaptureState(phase domain.CapturePhase) {
	a.publishEvent(session.Event{
		Type:    session.EventTypeCapture,
		Capture: phase,
	})
}

// publishCountdownTick pushes one countdown tick to the UI.
func (a *App) publishCountdownTick(remaining int) {
	a.publishEvent(session.Event{
		Type:    session.EventTypeCountdown,
		Capture: domain.CaptureCountdown,
		Tick:    remaining,
	})
}

// publishCaptureStop signals the frontend recorder to halt.
func (a *App) publishCaptureStop(auto bool) {
	message := "Recording stopped."
	if auto {
		message = "Recording limit reached."
	}

	a.publishEvent(session.Event{
		Type:    session.EventTypeCapture,
		Capture: domain.CaptureRecording,
		Kind:    "stop",
		Message: message,
	})
}

// publishCaptureRelease signals the frontend to release the camera.
func (a *App) publishCaptureRelease() {
	a.publishEvent(session.Event{
		Type: session.EventTypeCapture,
		Kind: "release",
	})
}

// publishPhaseEvent pushes the current session phase.
func (a *App) publishPhaseEvent() {
	a.publishEvent(session.Event{
		Type:  session.EventTypePhase,
		Phase: a.Session.Phase(),
	})
}

// publishFailureEvent pushes the current error state.
func (a *App) publishFailureEvent() {
	snapshot := a.Session.Snapshot()
	a.publishEvent(session.Event{
		Type:    session.EventTypeError,
		Phase:   snapshot.Phase,
		Kind:    snapshot.ErrorKind,
		Message: snapshot.ErrorMessage,
	})
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event session.Event) {
	published := a.events.Publish(event)

	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "session:event", published)
	}
}

// clearCancel drops the cancellation handle of a finished analysis.
func (a *App) clearCancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancel = nil
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// openInFileManager launches the platform file explorer for the provided path.
func openInFileManager(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("explorer", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch file manager: %w", err)
	}
	return nil
}
