package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/browser"

	"kickform/internal/domain"
)

// ErrNotExportable is returned for nil or error-status results.
var ErrNotExportable = errors.New("result is not exportable")

//go:embed report.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// page is the template payload for one rendered report.
type page struct {
	GeneratedAt  string
	VideoName    string
	LanguageName string
	Coaching     string
	Result       *domain.AnalysisResult
}

// ExportOutcome reports where the document landed and whether the
// system browser opened it.
type ExportOutcome struct {
	Path   string `json:"path"`
	Opened bool   `json:"opened"`
	Notice string `json:"notice,omitempty"`
}

// Exporter renders a print-ready HTML report and opens it in the
// system browser.
type Exporter struct {
	logger *slog.Logger
	open   func(path string) error
	now    func() time.Time
}

// NewExporter constructs the production exporter.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Exporter{
		logger: logger,
		open:   browser.OpenFile,
		now:    time.Now,
	}
}

// NewExporterForTests constructs an exporter with injected opening
// and clock.
func NewExporterForTests(open func(path string) error, now func() time.Time) *Exporter {
	e := NewExporter(nil)
	if open != nil {
		e.open = open
	}
	if now != nil {
		e.now = now
	}
	return e
}

// Export renders result with the selected language's coaching text,
// writes the document under outputDir, and opens it. A blocked open is
// a graceful degradation: the outcome carries a notice with the path
// and no error is returned.
func (e *Exporter) Export(result *domain.AnalysisResult, videoName, lang, outputDir string) (ExportOutcome, error) {
	if result == nil || result.Refused() {
		return ExportOutcome{}, ErrNotExportable
	}
	if outputDir == "" {
		return ExportOutcome{}, fmt.Errorf("output directory is required")
	}

	normalized := Normalize(result)
	data := page{
		GeneratedAt:  e.now().Format("January 2, 2006 15:04"),
		VideoName:    videoName,
		LanguageName: LanguageName(lang),
		Coaching:     CoachingText(normalized, lang),
		Result:       normalized,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return ExportOutcome{}, fmt.Errorf("render report: %w", err)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return ExportOutcome{}, fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(outputDir, reportFileName(e.now()))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return ExportOutcome{}, fmt.Errorf("write report: %w", err)
	}

	outcome := ExportOutcome{Path: path, Opened: true}
	if err := e.open(path); err != nil {
		e.logger.Warn("cannot open exported report", "path", path, "err", err)
		outcome.Opened = false
		outcome.Notice = fmt.Sprintf("Report saved to %s. Open it manually to print.", path)
	}

	e.logger.Info("report exported", "path", path, "opened", outcome.Opened)
	return outcome, nil
}

// reportFileName builds the document filename from the export time.
func reportFileName(ts time.Time) string {
	return "kickform-report-" + ts.Format("20060102-150405") + ".html"
}
