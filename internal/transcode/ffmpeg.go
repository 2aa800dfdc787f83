package transcode

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// FFmpeg invokes the ffmpeg binary to strip video and encode MP3 at a
// fixed quality setting.
type FFmpeg struct {
	Path string
}

// NewFFmpeg builds a transcoder around the given binary path (or "ffmpeg"
// from PATH when empty).
func NewFFmpeg(path string) *FFmpeg {
	if strings.TrimSpace(path) == "" {
		path = "ffmpeg"
	}
	return &FFmpeg{Path: path}
}

// ExtractAudio transcodes input into an audio-only MP3 at output.
func (f *FFmpeg) ExtractAudio(ctx context.Context, input, output string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn",
		"-c:a", "libmp3lame",
		"-q:a", "2",
		output,
	}
	cmd := exec.CommandContext(ctx, f.Path, args...) //nolint:gosec
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

var _ Transcoder = (*FFmpeg)(nil)
