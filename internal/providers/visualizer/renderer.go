// Package visualizer renders the beat's video: the cover art (or a solid
// backdrop) animated by the enabled effects with the track muxed in.
package visualizer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/ffmpeg"
)

const (
	frameWidth  = 1280
	frameHeight = 720
	frameRate   = 30

	// Waveform band covers the bottom 40% of the frame, drawn in the
	// house teal.
	waveHeight = 288
	waveColor  = "0x00FFC8"

	backdropColor = "0x101018"
)

// Request carries the inputs for one render. ImagePath may be empty, in
// which case the video is drawn on a solid backdrop.
type Request struct {
	ImagePath       string
	AudioPath       string
	DurationSeconds int
	Effects         domain.VisualizerEffects
	OutputPath      string
}

// Renderer produces the visualizer video at req.OutputPath.
type Renderer interface {
	Render(ctx context.Context, req Request) error
}

type runner interface {
	Run(ctx context.Context, args ...string) error
}

// FFmpeg renders with a single ffmpeg invocation built from the effect
// toggles.
type FFmpeg struct {
	run runner
}

var _ Renderer = (*FFmpeg)(nil)

func NewFFmpeg(r *ffmpeg.Runner) *FFmpeg {
	return &FFmpeg{run: r}
}

func (f *FFmpeg) Render(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.AudioPath) == "" {
		return domain.Failf(domain.StageVisualizer, domain.KindInvalidInput, "audio path is required")
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return domain.Failf(domain.StageVisualizer, domain.KindInvalidInput, "output path is required")
	}
	if req.DurationSeconds <= 0 {
		return domain.Failf(domain.StageVisualizer, domain.KindInvalidInput, "duration must be positive")
	}
	if err := f.run.Run(ctx, renderArgs(req)...); err != nil {
		return domain.Fail(domain.StageVisualizer, renderErrorKind(err), err)
	}
	return nil
}

func renderErrorKind(err error) domain.ErrorKind {
	if errors.Is(err, exec.ErrNotFound) {
		return domain.KindDependencyUnavailable
	}
	if kind := domain.Classify(err); kind == domain.KindCanceled || kind == domain.KindTimeout {
		return kind
	}
	return domain.KindInvalidInput
}

// renderArgs assembles the full ffmpeg invocation: background input (cover
// art looped, or a lavfi color source), the track, the effect filtergraph,
// and x264/aac encoding at the fixed frame geometry.
func renderArgs(req Request) []string {
	args := []string{"-y"}
	if strings.TrimSpace(req.ImagePath) != "" {
		args = append(args, "-loop", "1", "-i", req.ImagePath)
	} else {
		args = append(args, "-f", "lavfi", "-i",
			fmt.Sprintf("color=c=%s:s=%dx%d:r=%d", backdropColor, frameWidth, frameHeight, frameRate))
	}
	args = append(args, "-i", req.AudioPath)
	args = append(args,
		"-filter_complex", buildFilter(req.Effects),
		"-map", "[outv]",
		"-map", "1:a",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(frameRate),
		"-c:a", "aac",
		"-t", strconv.Itoa(req.DurationSeconds),
		"-shortest",
		req.OutputPath,
	)
	return args
}

// buildFilter chains the enabled effects over the scaled background:
// pulse and zoom share one zoompan pass, vhs adds jitter and analog
// noise, then the audio-reactive layers are mixed on top.
func buildFilter(e domain.VisualizerEffects) string {
	var steps []string
	cur := "bg0"
	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("bg%d", n)
	}

	steps = append(steps, fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1[%s]",
		frameWidth, frameHeight, frameWidth, frameHeight, cur))

	if e.Pulse || e.Zoom {
		out := next()
		steps = append(steps, fmt.Sprintf(
			"[%s]zoompan=z='%s':d=1:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=%dx%d:fps=%d[%s]",
			cur, zoomExpr(e), frameWidth, frameHeight, frameRate, out))
		cur = out
	}
	if e.VHS {
		out := next()
		steps = append(steps, fmt.Sprintf(
			"[%s]crop=w=iw-10:h=ih:x='5+5*sin(t*25)':y=0,scale=%d:%d,noise=alls=12:allf=t[%s]",
			cur, frameWidth, frameHeight, out))
		cur = out
	}
	if e.Spectrum {
		out := next()
		steps = append(steps, fmt.Sprintf(
			"[1:a]showspectrum=s=%dx%d:mode=combined:color=intensity:slide=scroll:legend=0[spec]",
			frameWidth, frameHeight))
		steps = append(steps, fmt.Sprintf("[%s][spec]blend=all_mode=screen:all_opacity=0.35[%s]", cur, out))
		cur = out
	}
	if e.Waveform {
		steps = append(steps, fmt.Sprintf(
			"[1:a]showwaves=s=%dx%d:mode=cline:colors=%s:rate=%d,format=rgba,colorchannelmixer=aa=0.6[wave]",
			frameWidth, waveHeight, waveColor, frameRate))
		steps = append(steps, fmt.Sprintf("[%s][wave]overlay=x=0:y=H-h:eval=init[outv]", cur))
	} else {
		steps = append(steps, fmt.Sprintf("[%s]null[outv]", cur))
	}
	return strings.Join(steps, ";")
}

// zoomExpr combines the slow drift and the beat pulse into one zoompan
// expression. The pulse amplitude stays under a tenth so faces in the
// cover art do not warp.
func zoomExpr(e domain.VisualizerEffects) string {
	var terms []string
	base := "1"
	if e.Zoom {
		base = "1.02"
		terms = append(terms, "0.005*sin(it*0.7)")
	}
	if e.Pulse {
		terms = append(terms, "0.08*abs(sin(it*3.1))")
	}
	expr := base
	for _, t := range terms {
		expr += "+" + t
	}
	return expr
}
