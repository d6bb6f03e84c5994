package diagnostics

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"kickform/internal/config"
	"kickform/internal/cue"
	"kickform/internal/domain"
)

// Checker validates the analysis credential, filesystem paths, and the
// optional local tooling at startup.
type Checker struct {
	lookPath   func(string) (string, error)
	getenv     func(string) string
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		getenv:     os.Getenv,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all startup checks and returns a combined report.
// Warnings cover degraded extras and do not set HasFailures.
func (c *Checker) Run(settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkAPIKey(),
		c.checkOutputDir(settings.OutputDir),
		c.checkProbe(),
		c.checkCuePlayer(),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// checkAPIKey verifies the Gemini credential is present in the
// environment. The settings file never holds it.
func (c *Checker) checkAPIKey() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "api_key",
		Name: "Gemini API key",
	}

	if strings.TrimSpace(c.getenv(config.APIKeyEnv)) != "" {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("%s is set.", config.APIKeyEnv)
		return item
	}
	if strings.TrimSpace(c.getenv(config.FallbackAPIKeyEnv)) != "" {
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("%s is set.", config.FallbackAPIKeyEnv)
		return item
	}

	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("%s is not set.", config.APIKeyEnv)
	item.Hint = "Export the key or place it in a .env file next to the app, then restart."
	return item
}

// checkOutputDir validates report directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Report directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusFail
		item.Message = "Report directory is empty."
		item.Hint = "Set a directory where exported reports can be written."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create report directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	tmpFile, err := c.createTemp(outputDir, ".write-check-*")
	if err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Report directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for report export."
		return item
	}

	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

// checkProbe reports whether ffprobe is available for clip length
// checks. Analysis works without it, so a miss is a warning.
func (c *Checker) checkProbe() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "tool_ffprobe",
		Name: "ffprobe",
	}

	path, err := c.lookPath("ffprobe")
	if err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "ffprobe not found in PATH."
		item.Hint = "Install FFmpeg to get a length warning before analyzing long clips."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Found at %s", path)
	return item
}

// checkCuePlayer reports whether a countdown cue player is available.
// Capture works silently without one, so a miss is a warning.
func (c *Checker) checkCuePlayer() domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "audio_cues",
		Name: "Audio cues",
	}

	for _, name := range cue.PlayerNames() {
		path, err := c.lookPath(name)
		if err != nil {
			continue
		}
		item.Status = domain.DiagnosticStatusPass
		item.Message = fmt.Sprintf("Countdown cues via %s", path)
		return item
	}

	item.Status = domain.DiagnosticStatusWarn
	item.Message = "No audio player found for countdown cues."
	item.Hint = "Install FFmpeg (ffplay) or another supported player to hear countdown beeps."
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	getenv func(string) string,
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		getenv:     getenv,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
	}
}
