// Package ffmpeg shells out to the ffmpeg binary for the local media
// work the pipeline needs: visualizer frames, audio transcodes and
// muxing the generated beat onto vendor video.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Runner executes ffmpeg with a fixed binary path.
type Runner struct {
	path string
	log  zerolog.Logger
}

// NewRunner returns a Runner invoking the binary at path ("ffmpeg" to use
// PATH lookup).
func NewRunner(path string, log zerolog.Logger) *Runner {
	if path == "" {
		path = "ffmpeg"
	}
	return &Runner{path: path, log: log}
}

// Run executes ffmpeg with args. Failures carry the tail of stderr, which
// is where ffmpeg explains itself.
func (r *Runner) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.log.Debug().Str("bin", r.path).Strs("args", args).Msg("ffmpeg run")

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, stderrTail(stderr.Bytes()))
	}
	return nil
}

// TranscodeAudio converts src into dst, choosing the codec from dst's
// extension.
func (r *Runner) TranscodeAudio(ctx context.Context, src, dst string) error {
	return r.Run(ctx, transcodeArgs(src, dst)...)
}

// OverlayAudio replaces the audio track of videoPath with audioPath,
// trimming to the shorter of the two, and writes the result to outPath.
func (r *Runner) OverlayAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	return r.Run(ctx, overlayArgs(videoPath, audioPath, outPath)...)
}

func transcodeArgs(src, dst string) []string {
	args := []string{"-y", "-i", src}
	if strings.EqualFold(filepath.Ext(dst), ".mp3") {
		args = append(args, "-codec:a", "libmp3lame", "-qscale:a", "2")
	}
	return append(args, dst)
}

func overlayArgs(videoPath, audioPath, outPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-shortest",
		outPath,
	}
}

func stderrTail(b []byte) string {
	const max = 512
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}
