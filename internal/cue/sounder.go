package cue

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync/atomic"
)

// playerSpec describes one known CLI audio player.
type playerSpec struct {
	bin  string
	args []string
}

// candidates lists known CLI players in preference order.
var candidates = []playerSpec{
	{bin: "afplay"},
	{bin: "ffplay", args: []string{"-autoexit", "-nodisp", "-loglevel", "quiet"}},
	{bin: "aplay", args: []string{"-q"}},
	{bin: "paplay"},
}

// PlayerNames lists the player binaries the sounder can use, in
// preference order.
func PlayerNames() []string {
	names := make([]string, len(candidates))
	for i, spec := range candidates {
		names[i] = spec.bin
	}
	return names
}

// detectPlayer finds the first available player on PATH.
func detectPlayer(lookPath func(string) (string, error)) (playerSpec, bool) {
	for _, spec := range candidates {
		path, err := lookPath(spec.bin)
		if err != nil {
			continue
		}
		return playerSpec{bin: path, args: spec.args}, true
	}
	return playerSpec{}, false
}

// Sounder plays the countdown tones through a system audio player.
// Playback is one tone at a time; a tone arriving while another is
// sounding is skipped, never queued, so cues cannot overlap. Missing
// player and playback failures are silent degradations.
type Sounder struct {
	player   string
	args     []string
	dir      string
	tickPath string
	goPath   string
	busy     atomic.Bool
	logger   *slog.Logger
	run      func(name string, args ...string) error
}

// NewSounder synthesizes the two cue tones to a temp workspace and
// resolves a system player. Without a player the sounder stays silent.
func NewSounder(logger *slog.Logger) (*Sounder, error) {
	dir, err := os.MkdirTemp("", "kickform-cues-*")
	if err != nil {
		return nil, fmt.Errorf("create cue workspace: %w", err)
	}

	return newSounder(logger, exec.LookPath, runCommand, dir)
}

// NewSounderForTests constructs a sounder with injected lookup and
// process execution.
func NewSounderForTests(
	lookPath func(string) (string, error),
	run func(name string, args ...string) error,
	dir string,
) (*Sounder, error) {
	return newSounder(nil, lookPath, run, dir)
}

func newSounder(
	logger *slog.Logger,
	lookPath func(string) (string, error),
	run func(name string, args ...string) error,
	dir string,
) (*Sounder, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Sounder{dir: dir, logger: logger, run: run}

	spec, ok := detectPlayer(lookPath)
	if !ok {
		logger.Info("no audio player found, countdown cues disabled")
		return s, nil
	}
	s.player = spec.bin
	s.args = spec.args

	s.tickPath = filepath.Join(dir, "tick.wav")
	s.goPath = filepath.Join(dir, "go.wav")
	if err := os.WriteFile(s.tickPath, renderTone(tickFreq, tickDuration), 0o644); err != nil {
		logger.Warn("cannot write cue tone, cues disabled", "err", err)
		s.player = ""
		return s, nil
	}
	if err := os.WriteFile(s.goPath, renderTone(goFreq, goDuration), 0o644); err != nil {
		logger.Warn("cannot write cue tone, cues disabled", "err", err)
		s.player = ""
		return s, nil
	}

	logger.Debug("cue player ready", "player", s.player)
	return s, nil
}

// runCommand executes one player invocation to completion.
func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Tick plays the short per-second countdown tone.
func (s *Sounder) Tick() {
	s.play(s.tickPath)
}

// Go plays the higher tone marking the transition into recording.
func (s *Sounder) Go() {
	s.play(s.goPath)
}

// Available reports whether a system player was found.
func (s *Sounder) Available() bool {
	return s != nil && s.player != ""
}

// PlayerName returns the resolved player binary, empty when silent.
func (s *Sounder) PlayerName() string {
	if s == nil {
		return ""
	}
	return s.player
}

// Close removes the synthesized tone files.
func (s *Sounder) Close() error {
	if s == nil || s.dir == "" {
		return nil
	}
	return os.RemoveAll(s.dir)
}

func (s *Sounder) play(path string) {
	if s == nil || s.player == "" || path == "" {
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		return
	}

	args := make([]string, 0, len(s.args)+1)
	args = append(args, s.args...)
	args = append(args, path)

	go func() {
		defer s.busy.Store(false)
		if err := s.run(s.player, args...); err != nil {
			s.logger.Debug("cue playback failed", "player", s.player, "err", err)
		}
	}()
}
