package acquire

import (
	"context"
	"fmt"
	"os"

	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
	"github.com/clipcast-hq/clipcast-archiver/internal/transcode"
	"github.com/clipcast-hq/clipcast-archiver/pkg/httpclient"
)

// Step is what a run must do for one episode, decided purely from what
// already exists on disk. The audio artifact is the durable success
// marker; the video artifact is the durable retry checkpoint.
type Step int

const (
	// StepSkip means the audio artifact exists; the episode is done.
	StepSkip Step = iota
	// StepTranscode means the video exists but audio does not; skip the
	// download and retry the transcode.
	StepTranscode
	// StepDownload means neither artifact exists; fetch then transcode.
	StepDownload
)

func (s Step) String() string {
	switch s {
	case StepSkip:
		return "skip"
	case StepTranscode:
		return "transcode"
	case StepDownload:
		return "download"
	default:
		return "unknown"
	}
}

// Plan inspects the two artifact checkpoints and decides the step.
func Plan(videoPath, audioPath string) Step {
	if fileExists(audioPath) {
		return StepSkip
	}
	if fileExists(videoPath) {
		return StepTranscode
	}
	return StepDownload
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Acquirer executes the per-episode acquisition: at most one download and
// one transcode per run, resumable through the artifact checkpoints.
type Acquirer struct {
	downloader httpclient.Downloader
	transcoder transcode.Transcoder
	log        logger.Logger
}

// New builds an acquirer.
func New(downloader httpclient.Downloader, transcoder transcode.Transcoder, log logger.Logger) *Acquirer {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Acquirer{downloader: downloader, transcoder: transcoder, log: log}
}

// Acquire carries the episode from its current checkpoint to the audio
// artifact. A download failure leaves nothing behind (the downloader
// removes partial files); a transcode failure deliberately keeps the
// video so the next run resumes at StepTranscode.
func (a *Acquirer) Acquire(ctx context.Context, mediaURL, videoPath, audioPath string) (Step, error) {
	step := Plan(videoPath, audioPath)
	switch step {
	case StepSkip:
		return step, nil

	case StepDownload:
		if err := a.downloader.Download(ctx, mediaURL, videoPath); err != nil {
			return step, fmt.Errorf("download media: %w", err)
		}
		fallthrough

	case StepTranscode:
		if err := a.transcoder.ExtractAudio(ctx, videoPath, audioPath); err != nil {
			return step, fmt.Errorf("transcode: %w", err)
		}
		if err := os.Remove(videoPath); err != nil {
			a.log.WarnObj("intermediate video cleanup failed", "acquire_cleanup", map[string]any{
				"video_path": videoPath,
				"error":      err.Error(),
			})
		}
		return step, nil
	}
	return step, nil
}
