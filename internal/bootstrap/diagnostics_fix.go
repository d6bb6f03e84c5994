package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"

	"kickform/internal/config"
	"kickform/internal/domain"
)

// ffmpegDownloadURL is where ffprobe and ffplay come from.
const ffmpegDownloadURL = "https://ffmpeg.org/download.html"

// InstallOrFixDiagnostic applies a remediation for one failed or warned
// diagnostic item, then reruns the checks.
func (a *App) InstallOrFixDiagnostic(itemID string) (domain.DiagnosticReport, error) {
	if a.Store == nil {
		return domain.DiagnosticReport{}, fmt.Errorf("settings store is not configured")
	}

	id := strings.TrimSpace(itemID)
	if id == "" {
		return domain.DiagnosticReport{}, fmt.Errorf("diagnostic item id is required")
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(settings)

	settingsChanged := false
	var fixErr error

	switch id {
	case "api_key":
		fixErr = a.fixAPIKey()
	case "output_dir":
		settings, settingsChanged, fixErr = fixOutputDir(settings)
	case "tool_ffprobe", "audio_cues":
		fixErr = openDownloadPage(ffmpegDownloadURL)
	default:
		return domain.DiagnosticReport{}, fmt.Errorf("unsupported diagnostic item id: %s", id)
	}

	if settingsChanged {
		if saveErr := a.Store.Save(settings); saveErr != nil {
			report := a.refreshDiagnosticsFromSettings(settings)
			return report, fmt.Errorf("save settings after fix: %w", saveErr)
		}
	}

	report := a.refreshDiagnosticsFromSettings(settings)
	if fixErr != nil {
		return report, fixErr
	}
	return report, nil
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = a.checker.Run(settings)
	}
	return a.Diagnostics
}

// fixAPIKey scaffolds the .env file the credential loader reads and
// reloads the key from it. A filled .env makes the check pass without a
// restart.
func (a *App) fixAPIKey() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve user home: %w", err)
	}
	appDir := filepath.Join(homeDir, ".kickform")

	if err := ensureEnvTemplate(appDir); err != nil {
		return err
	}

	workDir, _ := os.Getwd()
	key := config.LoadAPIKey(workDir, appDir, homeDir)
	if key == "" {
		return fmt.Errorf("no API key found; add it to %s and retry", filepath.Join(appDir, ".env"))
	}

	a.mu.Lock()
	a.apiKey = key
	model := a.Settings.ModelName
	hasAnalyzer := a.Analyzer != nil
	a.mu.Unlock()

	if !hasAnalyzer {
		a.swapAnalyzer(model)
	}
	return nil
}

// ensureEnvTemplate scaffolds the credential file. An existing file is
// never touched.
func ensureEnvTemplate(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create app directory: %w", err)
	}

	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("check env file: %w", err)
	}

	content := "# KickForm credentials. Restart the app after editing.\n" + config.APIKeyEnv + "=\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write env template: %w", err)
	}
	return nil
}

// fixOutputDir repairs an empty report directory setting and creates
// the directory.
func fixOutputDir(settings domain.Settings) (domain.Settings, bool, error) {
	outputDir := strings.TrimSpace(settings.OutputDir)
	changed := false
	if outputDir == "" {
		outputDir = config.DefaultSettings().OutputDir
		settings.OutputDir = outputDir
		changed = true
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return settings, changed, fmt.Errorf("create report directory %s: %w", outputDir, err)
	}

	return settings, changed, nil
}

// openDownloadPage sends the user to the tool's download page; the
// install itself stays in their hands.
func openDownloadPage(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open download page: %w", err)
	}
	return nil
}
