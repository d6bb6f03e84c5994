package bootstrap

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"kickform/internal/analysis"
	"kickform/internal/capture"
	"kickform/internal/config"
	"kickform/internal/domain"
	"kickform/internal/intake"
	"kickform/internal/report"
	"kickform/internal/session"
)

// fakeStore returns deterministic settings for App tests.
type fakeStore struct {
	settings domain.Settings
}

// Load returns preconfigured settings.
func (s *fakeStore) Load() (domain.Settings, error) {
	return s.settings, nil
}

// Save is a no-op for tests.
func (s *fakeStore) Save(domain.Settings) error {
	return nil
}

// fakeAnalyzer allows injecting custom analysis behavior per test.
type fakeAnalyzer struct {
	analyze func(ctx context.Context, video *domain.CapturedVideo) (*domain.AnalysisResult, error)
	closed  bool
}

// Analyze delegates to the injected function.
func (f *fakeAnalyzer) Analyze(ctx context.Context, video *domain.CapturedVideo) (*domain.AnalysisResult, error) {
	if f.analyze == nil {
		return &domain.AnalysisResult{Status: domain.AnalysisSuccess}, nil
	}
	return f.analyze(ctx, video)
}

// Close records the release.
func (f *fakeAnalyzer) Close() error {
	f.closed = true
	return nil
}

// fakeExporter captures export arguments.
type fakeExporter struct {
	outcome report.ExportOutcome
	err     error
	gotName string
	gotLang string
	gotDir  string
}

// Export records arguments and returns the injected outcome.
func (f *fakeExporter) Export(result *domain.AnalysisResult, videoName, lang, outputDir string) (report.ExportOutcome, error) {
	f.gotName, f.gotLang, f.gotDir = videoName, lang, outputDir
	return f.outcome, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, analyzer analysis.Analyzer) *App {
	t.Helper()

	app := &App{
		Settings: config.DefaultSettings(),
		Store:    &fakeStore{settings: config.DefaultSettings()},
		Session:  session.NewController(domain.LangEnglish),
		Intake:   intake.NewForTests(nil),
		Exporter: report.NewExporterForTests(func(string) error { return nil }, nil),
		Analyzer: analyzer,
		logger:   discardLogger(),
		events:   session.NewEventBus(100),
	}
	app.Capture = capture.New(nil, capture.Hooks{
		OnState:   app.publishCaptureState,
		OnTick:    app.publishCountdownTick,
		OnStop:    app.publishCaptureStop,
		OnRelease: app.publishCaptureRelease,
	}, nil)
	return app
}

// stageTestClip stages one in-memory clip as the session's current video.
func stageTestClip(t *testing.T, app *App) *domain.CapturedVideo {
	t.Helper()

	video := &domain.CapturedVideo{
		Name:     "clip.webm",
		MIMEType: "video/webm",
		Size:     4,
		Source:   domain.SourceUpload,
		Data:     []byte("data"),
	}
	if _, err := app.stageClip(app.Intake.StageRecording(video)); err != nil {
		t.Fatalf("stage clip: %v", err)
	}
	return video
}

// TestAnalyzeCompletesWithResult checks the success event flow.
func TestAnalyzeCompletesWithResult(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{
		analyze: func(context.Context, *domain.CapturedVideo) (*domain.AnalysisResult, error) {
			return &domain.AnalysisResult{
				Status:         domain.AnalysisSuccess,
				DetectedAction: "instep drive",
				FormScore:      7,
			}, nil
		},
	})
	stageTestClip(t, app)

	if _, err := app.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	waitForPhase(t, app, domain.PhaseSuccess)
	snapshot := app.GetSnapshot()
	if snapshot.Result == nil {
		t.Fatal("snapshot.Result is nil")
	}
	if snapshot.Result.DetectedAction != "instep drive" {
		t.Errorf("DetectedAction = %q, want %q", snapshot.Result.DetectedAction, "instep drive")
	}

	events := app.Events(0)
	assertEventTypeExists(t, events, session.EventTypePhase)
	assertEventTypeExists(t, events, session.EventTypeResult)
}

// TestAnalyzeEnforcesSingleInFlight checks the single-analysis guard
// and that a reset drops the canceled completion.
func TestAnalyzeEnforcesSingleInFlight(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{
		analyze: func(ctx context.Context, _ *domain.CapturedVideo) (*domain.AnalysisResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	stageTestClip(t, app)

	if _, err := app.Analyze(); err != nil {
		t.Fatalf("first Analyze() error = %v", err)
	}
	if _, err := app.Analyze(); !errors.Is(err, session.ErrAnalysisInFlight) {
		t.Fatalf("second Analyze() error = %v, want %v", err, session.ErrAnalysisInFlight)
	}

	snapshot := app.ResetSession()
	if snapshot.Phase != domain.PhaseIdle {
		t.Fatalf("phase after reset = %s, want %s", snapshot.Phase, domain.PhaseIdle)
	}

	time.Sleep(50 * time.Millisecond)
	if got := app.Session.Phase(); got != domain.PhaseIdle {
		t.Fatalf("phase = %s, want %s after stale completion", got, domain.PhaseIdle)
	}
	for _, event := range app.Events(0) {
		if event.Type == session.EventTypeError {
			t.Fatalf("unexpected error event after reset: %+v", event)
		}
	}
}

// TestAnalyzeWithoutVideo checks the nothing-staged guard.
func TestAnalyzeWithoutVideo(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{})

	if _, err := app.Analyze(); !errors.Is(err, session.ErrNoVideo) {
		t.Fatalf("Analyze() error = %v, want %v", err, session.ErrNoVideo)
	}
}

// TestAnalyzeClassifiedFailure checks kind-to-message routing.
func TestAnalyzeClassifiedFailure(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{
		analyze: func(context.Context, *domain.CapturedVideo) (*domain.AnalysisResult, error) {
			return nil, &analysis.Error{Kind: analysis.KindRateLimit, Reason: "quota exceeded"}
		},
	})
	stageTestClip(t, app)

	if _, err := app.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	waitForPhase(t, app, domain.PhaseError)
	snapshot := app.GetSnapshot()
	if snapshot.ErrorKind != session.KindRateLimit {
		t.Errorf("ErrorKind = %q, want %q", snapshot.ErrorKind, session.KindRateLimit)
	}
	if snapshot.ErrorMessage != session.MsgRateLimit {
		t.Errorf("ErrorMessage = %q, want %q", snapshot.ErrorMessage, session.MsgRateLimit)
	}
	assertEventTypeExists(t, app.Events(0), session.EventTypeError)
}

// TestAnalyzeRefusalShowsUnclearMessage checks the refusal-as-value path.
func TestAnalyzeRefusalShowsUnclearMessage(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{
		analyze: func(context.Context, *domain.CapturedVideo) (*domain.AnalysisResult, error) {
			return &domain.AnalysisResult{
				Status: domain.AnalysisRefused,
				Reason: "no kick visible",
			}, nil
		},
	})
	stageTestClip(t, app)

	if _, err := app.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	waitForPhase(t, app, domain.PhaseError)
	snapshot := app.GetSnapshot()
	if snapshot.ErrorMessage != session.MsgUnclearVideo {
		t.Errorf("ErrorMessage = %q, want %q", snapshot.ErrorMessage, session.MsgUnclearVideo)
	}
	if snapshot.Result != nil {
		t.Errorf("snapshot.Result = %+v, want nil for refusal", snapshot.Result)
	}
}

// TestAnalyzeWithoutAnalyzerReportsConfig checks the missing-credential
// path.
func TestAnalyzeWithoutAnalyzerReportsConfig(t *testing.T) {
	app := newTestApp(t, nil)
	stageTestClip(t, app)

	if _, err := app.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	waitForPhase(t, app, domain.PhaseError)
	snapshot := app.GetSnapshot()
	if snapshot.ErrorKind != session.KindConfig {
		t.Errorf("ErrorKind = %q, want %q", snapshot.ErrorKind, session.KindConfig)
	}
	if snapshot.ErrorMessage != session.MsgConfig {
		t.Errorf("ErrorMessage = %q, want %q", snapshot.ErrorMessage, session.MsgConfig)
	}
}

// TestCaptureFlowStagesRecording drives the bound capture methods end
// to end without a countdown.
func TestCaptureFlowStagesRecording(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{})
	app.Settings.CountdownEnabled = false

	if _, err := app.BeginCapture(); err != nil {
		t.Fatalf("BeginCapture() error = %v", err)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte("fragment"))
	if err := app.AppendCaptureChunk(encoded, "video/webm;codecs=vp9"); err != nil {
		t.Fatalf("AppendCaptureChunk() error = %v", err)
	}
	if err := app.StopCapture(); err != nil {
		t.Fatalf("StopCapture() error = %v", err)
	}

	video, err := app.FinishCapture()
	if err != nil {
		t.Fatalf("FinishCapture() error = %v", err)
	}
	if video.MIMEType != "video/webm" {
		t.Errorf("MIMEType = %q, want %q", video.MIMEType, "video/webm")
	}
	if !strings.HasPrefix(video.Name, "recording-") {
		t.Errorf("Name = %q, want recording- prefix", video.Name)
	}
	if video.PreviewURL == "" {
		t.Error("PreviewURL is empty")
	}
	if app.Session.Video() != video {
		t.Error("session does not hold the finished clip")
	}

	events := app.Events(0)
	assertEventTypeExists(t, events, session.EventTypeCapture)
	assertEventTypeExists(t, events, session.EventTypeVideo)
}

// TestAppendCaptureChunkRejectsBadEncoding checks the base64 guard.
func TestAppendCaptureChunkRejectsBadEncoding(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{})

	if err := app.AppendCaptureChunk("not base64 !!!", "video/webm"); err == nil {
		t.Fatal("AppendCaptureChunk() accepted invalid base64")
	}
}

// TestReportDeviceFailurePublishesClassification checks device error flow.
func TestReportDeviceFailurePublishesClassification(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{})

	failure := app.ReportDeviceFailure("NotAllowedError", "denied by user")
	if failure.Kind != capture.DevicePermissionDenied {
		t.Errorf("Kind = %q, want %q", failure.Kind, capture.DevicePermissionDenied)
	}

	var found bool
	for _, event := range app.Events(0) {
		if event.Type == session.EventTypeError && event.Kind == string(capture.DevicePermissionDenied) {
			found = true
		}
	}
	if !found {
		t.Fatal("device failure event not published")
	}
}

// TestExportReportUsesSessionState checks argument plumbing into the
// exporter.
func TestExportReportUsesSessionState(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{
		analyze: func(context.Context, *domain.CapturedVideo) (*domain.AnalysisResult, error) {
			return &domain.AnalysisResult{Status: domain.AnalysisSuccess, FormScore: 8}, nil
		},
	})
	exporter := &fakeExporter{outcome: report.ExportOutcome{Path: "/tmp/report.html", Opened: true}}
	app.Exporter = exporter
	app.Settings.OutputDir = "/reports"

	stageTestClip(t, app)
	if _, err := app.Analyze(); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	waitForPhase(t, app, domain.PhaseSuccess)

	if _, err := app.SetCoachingLanguage(domain.LangMacedonian); err != nil {
		t.Fatalf("SetCoachingLanguage() error = %v", err)
	}

	outcome, err := app.ExportReport()
	if err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}
	if outcome.Path != "/tmp/report.html" {
		t.Errorf("Path = %q, want %q", outcome.Path, "/tmp/report.html")
	}
	if exporter.gotName != "clip.webm" {
		t.Errorf("exported video name = %q, want %q", exporter.gotName, "clip.webm")
	}
	if exporter.gotLang != domain.LangMacedonian {
		t.Errorf("exported language = %q, want %q", exporter.gotLang, domain.LangMacedonian)
	}
	if exporter.gotDir != "/reports" {
		t.Errorf("exported dir = %q, want %q", exporter.gotDir, "/reports")
	}
}

// TestExportReportRequiresSuccessResult checks the no-result guard.
func TestExportReportRequiresSuccessResult(t *testing.T) {
	app := newTestApp(t, &fakeAnalyzer{})

	if _, err := app.ExportReport(); !errors.Is(err, report.ErrNotExportable) {
		t.Fatalf("ExportReport() error = %v, want %v", err, report.ErrNotExportable)
	}
}

// TestSaveSettingsNormalizesAndSwapsAnalyzer checks settings repair and
// client lifecycle on model change.
func TestSaveSettingsNormalizesAndSwapsAnalyzer(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	app := newTestApp(t, analyzer)

	saved, err := app.SaveSettings(domain.Settings{
		CoachingLanguage: "de",
		ModelName:        "gemini-2.5-pro",
	})
	if err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	if saved.CoachingLanguage != domain.LangEnglish {
		t.Errorf("CoachingLanguage = %q, want %q", saved.CoachingLanguage, domain.LangEnglish)
	}
	if saved.OutputDir == "" {
		t.Error("OutputDir not defaulted")
	}

	if !analyzer.closed {
		t.Error("previous analyzer not closed after model change")
	}
	if app.Analyzer != nil {
		t.Errorf("Analyzer = %v, want nil without a credential", app.Analyzer)
	}
}

// waitForPhase polls until the session reaches the phase or times out.
func waitForPhase(t *testing.T, app *App, want domain.Phase) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.Session.Phase() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("phase = %s, want %s", app.Session.Phase(), want)
}

// assertEventTypeExists verifies at least one event of given type exists.
func assertEventTypeExists(t *testing.T, events []session.Event, want session.EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == want {
			return
		}
	}
	t.Fatalf("event type %s not found", want)
}
