package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// LongClipThreshold marks uploads likely to be rejected by the
// analysis service. Recorded clips stay under it by construction.
const LongClipThreshold = 30 * time.Second

// ErrProbeUnavailable is returned when ffprobe is not installed.
var ErrProbeUnavailable = errors.New("ffprobe not available")

// commandResult is an internal process execution response.
type commandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// commandRunner abstracts process execution for testability.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (commandResult, error)
}

// execRunner executes commands via os/exec.
type execRunner struct{}

// Run executes one command and captures stdout/stderr and exit code.
func (r *execRunner) Run(ctx context.Context, name string, args ...string) (commandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := commandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: 0,
	}
	if err != nil {
		result.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}
		return result, err
	}

	return result, nil
}

// Prober reads clip durations with ffprobe. Probing is advisory: the
// caller treats any failure as "no duration known" and moves on.
type Prober struct {
	ffprobePath string
	runner      commandRunner
	lookPath    func(file string) (string, error)
	logger      *slog.Logger
}

// NewProber constructs the production prober.
func NewProber(logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Prober{
		ffprobePath: "ffprobe",
		runner:      &execRunner{},
		lookPath:    exec.LookPath,
		logger:      logger,
	}
}

// NewProberForTests constructs a prober with injected execution.
func NewProberForTests(ffprobePath string, runner commandRunner, lookPath func(string) (string, error)) *Prober {
	p := NewProber(nil)
	if ffprobePath != "" {
		p.ffprobePath = ffprobePath
	}
	if runner != nil {
		p.runner = runner
	}
	if lookPath != nil {
		p.lookPath = lookPath
	}
	return p
}

// Available reports whether ffprobe can be found on PATH.
func (p *Prober) Available() bool {
	_, err := p.lookPath(p.ffprobePath)
	return err == nil
}

// Duration probes the container duration of the media file at path.
func (p *Prober) Duration(ctx context.Context, path string) (time.Duration, error) {
	if path == "" {
		return 0, fmt.Errorf("no file path to probe")
	}
	if _, err := p.lookPath(p.ffprobePath); err != nil {
		return 0, ErrProbeUnavailable
	}

	args := buildProbeArgs(path)
	result, err := p.runner.Run(ctx, p.ffprobePath, args...)
	if err != nil {
		p.logger.Debug("ffprobe failed", "path", path, "exit", result.ExitCode, "stderr", result.Stderr)
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseProbeDuration(result.Stdout)
}

// buildProbeArgs builds the ffprobe CLI for JSON format metadata.
func buildProbeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	}
}

// parseProbeDuration extracts the duration from ffprobe JSON output.
func parseProbeDuration(out string) (time.Duration, error) {
	var payload struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if payload.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe output has no duration")
	}

	seconds, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", payload.Format.Duration, err)
	}

	return time.Duration(seconds * float64(time.Second)), nil
}
