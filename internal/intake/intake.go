package intake

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"kickform/internal/domain"
)

// ErrNotVideo is returned when an explicitly picked file is not video.
var ErrNotVideo = errors.New("not a video file")

// Intake owns the single staged clip and its preview token. Staging a
// new clip or clearing revokes the previous token, so stale preview
// URLs stop resolving.
type Intake struct {
	mu     sync.RWMutex
	video  *domain.CapturedVideo
	token  string
	logger *slog.Logger

	readFile func(string) ([]byte, error)
}

// New constructs an intake reading from the local filesystem.
func New(logger *slog.Logger) *Intake {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Intake{
		logger:   logger,
		readFile: os.ReadFile,
	}
}

// NewForTests constructs an intake with injected file reads.
func NewForTests(readFile func(string) ([]byte, error)) *Intake {
	i := New(nil)
	if readFile != nil {
		i.readFile = readFile
	}
	return i
}

// StagePath stages a file chosen through the picker dialog. Picking is
// an explicit action, so a non-video file surfaces ErrNotVideo.
func (i *Intake) StagePath(path string) (*domain.CapturedVideo, error) {
	video, err := i.load(path)
	if err != nil {
		return nil, err
	}
	return i.stage(video), nil
}

// StageDrop stages a dragged-in file. Non-video drops are rejected
// silently: no file accepted, no error surfaced.
func (i *Intake) StageDrop(path string) (*domain.CapturedVideo, bool) {
	video, err := i.load(path)
	if err != nil {
		i.logger.Debug("drop rejected", "path", path, "err", err)
		return nil, false
	}
	return i.stage(video), true
}

// StageRecording stages a clip emitted by the capture controller.
func (i *Intake) StageRecording(video *domain.CapturedVideo) *domain.CapturedVideo {
	return i.stage(video)
}

// Current returns the staged clip, nil when none.
func (i *Intake) Current() *domain.CapturedVideo {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.video
}

// Clear drops the staged clip and revokes its preview token.
func (i *Intake) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.video = nil
	i.token = ""
}

// load reads and sniffs a candidate file. Content decides, not the
// file extension.
func (i *Intake) load(path string) (*domain.CapturedVideo, error) {
	data, err := i.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "video/") {
		return nil, fmt.Errorf("%w: %s detected as %s", ErrNotVideo, filepath.Base(path), mime.String())
	}

	return &domain.CapturedVideo{
		Name:       filepath.Base(path),
		MIMEType:   mime.String(),
		Size:       len(data),
		Source:     domain.SourceUpload,
		SourcePath: path,
		Data:       data,
	}, nil
}

// stage installs video as the single current clip under a fresh token.
func (i *Intake) stage(video *domain.CapturedVideo) *domain.CapturedVideo {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.token = uuid.NewString()
	video.PreviewURL = PreviewPrefix + i.token
	i.video = video

	i.logger.Debug("clip staged",
		"name", video.Name,
		"mime", video.MIMEType,
		"bytes", video.Size,
		"source", string(video.Source),
	)
	return video
}
