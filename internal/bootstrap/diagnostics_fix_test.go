package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kickform/internal/config"
	"kickform/internal/diagnostics"
	"kickform/internal/domain"
)

// TestEnsureEnvTemplateCreatesPlaceholder verifies the scaffolded .env
// names the credential variable with an empty value.
func TestEnsureEnvTemplateCreatesPlaceholder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kickform")

	if err := ensureEnvTemplate(dir); err != nil {
		t.Fatalf("ensure env template: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	if !strings.Contains(string(data), config.APIKeyEnv+"=") {
		t.Fatalf("template = %q, want %s placeholder", data, config.APIKeyEnv)
	}
}

// TestEnsureEnvTemplateKeepsExistingFile verifies a filled .env is
// never overwritten.
func TestEnsureEnvTemplateKeepsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(config.APIKeyEnv+"=real-key\n"), 0o600); err != nil {
		t.Fatalf("write existing file: %v", err)
	}

	if err := ensureEnvTemplate(dir); err != nil {
		t.Fatalf("ensure env template: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(data), "real-key") {
		t.Fatalf("existing key was clobbered: %q", data)
	}
}

// TestFixOutputDirCreatesDirectory ensures the fix creates missing
// nested directories without touching the setting.
func TestFixOutputDirCreatesDirectory(t *testing.T) {
	root := t.TempDir()
	outputDir := filepath.Join(root, "nested", "reports")

	settings := domain.Settings{
		CoachingLanguage: domain.LangEnglish,
		OutputDir:        outputDir,
		ModelName:        domain.DefaultModelID,
	}
	fixed, changed, err := fixOutputDir(settings)
	if err != nil {
		t.Fatalf("fix output dir: %v", err)
	}
	if changed {
		t.Fatal("expected settings to remain unchanged")
	}
	if fixed.OutputDir != outputDir {
		t.Fatalf("OutputDir = %s, want %s", fixed.OutputDir, outputDir)
	}
	if _, err := os.Stat(outputDir); err != nil {
		t.Fatalf("stat output dir: %v", err)
	}
}

// TestInstallOrFixDiagnosticRepairsOutputDir drives the bound method
// end to end with an injected checker.
func TestInstallOrFixDiagnosticRepairsOutputDir(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "missing", "reports")

	app := newTestApp(t, nil)
	settings := config.DefaultSettings()
	settings.OutputDir = outputDir
	app.Store = &fakeStore{settings: settings}
	app.checker = diagnostics.NewCheckerForTests(
		func(string) (string, error) { return "/usr/bin/tool", nil },
		func(key string) string {
			if key == config.APIKeyEnv {
				return "test-key"
			}
			return ""
		},
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report, err := app.InstallOrFixDiagnostic("output_dir")
	if err != nil {
		t.Fatalf("InstallOrFixDiagnostic() error = %v", err)
	}
	if report.HasFailures {
		t.Fatalf("report still failing after fix: %+v", report.Items)
	}
	if _, err := os.Stat(outputDir); err != nil {
		t.Fatalf("stat output dir: %v", err)
	}
}

// TestInstallOrFixDiagnosticRejectsUnknownID verifies the id guard.
func TestInstallOrFixDiagnosticRejectsUnknownID(t *testing.T) {
	app := newTestApp(t, nil)

	if _, err := app.InstallOrFixDiagnostic("tool_whisper"); err == nil {
		t.Fatal("expected error for unsupported diagnostic item id")
	}
	if _, err := app.InstallOrFixDiagnostic("  "); err == nil {
		t.Fatal("expected error for blank diagnostic item id")
	}
}
