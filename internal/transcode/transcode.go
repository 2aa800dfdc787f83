package transcode

import "context"

// Transcoder extracts an audio-only artifact from a downloaded media file.
// Implementations are synchronous; the only failure signal is a non-nil
// error.
type Transcoder interface {
	ExtractAudio(ctx context.Context, input, output string) error
}
