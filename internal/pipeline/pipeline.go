// Package pipeline orchestrates one generation run: branding metadata,
// cover art, the instrumental track, DSP analysis, the visualizer video
// and the optional AI video clip. Every stage is wrapped individually so
// one vendor's failure never takes down the rest of the run; only an
// invalid request or a persistence fault aborts the whole thing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/IshanjotDhahan7868/BeatBank/internal/artifacts"
	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/ffmpeg"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
	"github.com/IshanjotDhahan7868/BeatBank/internal/poll"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/aivideo"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/dsp"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/image"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/metadata"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/music"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/visualizer"
)

// defaultProvider is the map entry every capability must carry; a request
// that does not pin a vendor resolves to it.
const defaultProvider = "auto"

// Mixer is the slice of ffmpeg the orchestrator drives directly: the wav
// twin transcode and muxing the beat onto vendor video.
type Mixer interface {
	TranscodeAudio(ctx context.Context, src, dst string) error
	OverlayAudio(ctx context.Context, videoPath, audioPath, outPath string) error
}

var _ Mixer = (*ffmpeg.Runner)(nil)

// Config tunes retries, polling and clip bounds for one Pipeline.
type Config struct {
	// MaxRetries bounds the extra attempts per stage on retryable
	// failures. Zero selects the default of 2.
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Poll paces the AI video job checks.
	Poll poll.Config

	// AIVideoMaxSeconds caps the requested clip length; vendor video is
	// priced by the second.
	AIVideoMaxSeconds int

	// RunTimeout bounds one whole run. Zero means no deadline.
	RunTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 2
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 8 * time.Second
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		c.RetryMaxDelay = c.RetryBaseDelay
	}
	if c.AIVideoMaxSeconds <= 0 {
		c.AIVideoMaxSeconds = 10
	}
	return c
}

// Options wire one Pipeline. The four request-selectable capabilities are
// name→adapter maps so a request can pin a vendor; each must carry an
// "auto" entry for the unpinned path.
type Options struct {
	Metadata map[string]metadata.Generator
	Image    map[string]image.Generator
	Music    map[string]music.Generator
	AIVideo  map[string]aivideo.Generator

	DSP        dsp.Analyzer
	Visualizer visualizer.Renderer

	Sink    artifacts.Sink
	History domain.HistoryRecorder
	Mixer   Mixer

	Config Config
	Logger *infra.Logger
}

// Pipeline executes generation runs. Safe for concurrent use; runs share
// nothing but the sink namespace, which is partitioned per run.
type Pipeline struct {
	metadata map[string]metadata.Generator
	image    map[string]image.Generator
	music    map[string]music.Generator
	aivideo  map[string]aivideo.Generator

	dsp        dsp.Analyzer
	visualizer visualizer.Renderer

	sink    artifacts.Sink
	history domain.HistoryRecorder
	mixer   Mixer

	cfg    Config
	logger *infra.Logger
	poller *poll.Poller
	runs   *registry

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New validates the wiring and returns a ready Pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Sink == nil:
		return nil, errors.New("pipeline: artifact sink is required")
	case opts.History == nil:
		return nil, errors.New("pipeline: history recorder is required")
	case opts.DSP == nil:
		return nil, errors.New("pipeline: dsp analyzer is required")
	case opts.Visualizer == nil:
		return nil, errors.New("pipeline: visualizer renderer is required")
	case opts.Mixer == nil:
		return nil, errors.New("pipeline: mixer is required")
	}
	if _, ok := opts.Metadata[defaultProvider]; !ok {
		return nil, errors.New(`pipeline: metadata providers must include an "auto" entry`)
	}
	if _, ok := opts.Image[defaultProvider]; !ok {
		return nil, errors.New(`pipeline: image providers must include an "auto" entry`)
	}
	if _, ok := opts.Music[defaultProvider]; !ok {
		return nil, errors.New(`pipeline: music providers must include an "auto" entry`)
	}
	if _, ok := opts.AIVideo[defaultProvider]; !ok {
		return nil, errors.New(`pipeline: ai video providers must include an "auto" entry`)
	}

	cfg := opts.Config.withDefaults()
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Pipeline{
		metadata:   opts.Metadata,
		image:      opts.Image,
		music:      opts.Music,
		aivideo:    opts.AIVideo,
		dsp:        opts.DSP,
		visualizer: opts.Visualizer,
		sink:       opts.Sink,
		history:    opts.History,
		mixer:      opts.Mixer,
		cfg:        cfg,
		logger:     logger,
		poller:     poll.New(cfg.Poll),
		runs:       newRegistry(runRetention),
		now:        time.Now,
		sleep:      sleepCtx,
	}, nil
}

// Run executes one generation synchronously. Stage failures come back
// inside the record; the returned error is reserved for invalid requests
// and persistence faults.
func (p *Pipeline) Run(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationRecord, error) {
	cfg, err := domain.NewStepConfig(req)
	if err != nil {
		return nil, err
	}
	return p.execute(ctx, uuid.NewString(), cfg)
}

func (p *Pipeline) execute(ctx context.Context, runID string, cfg domain.StepConfig) (*domain.GenerationRecord, error) {
	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}
	token := runID[:8]
	log := p.logger.With().Str("run_id", runID).Logger()
	started := p.now()

	log.Info().
		Int("duration_sec", cfg.DurationSeconds()).
		Str("format", string(cfg.Format())).
		Int("stages", len(cfg.EnabledStages())).
		Msg("pipeline: run started")

	// Phase 1: branding. Everything downstream degrades without it.
	var metaRes domain.StageResult
	if cfg.Enabled(domain.StageMetadata) {
		metaRes = p.runMetadata(ctx, &log, cfg)
	}
	meta := metaRes.Metadata
	title := brandTitle(meta, cfg.Prompt())

	// Phase 2: cover art and the track, independent of each other.
	// Shared results are written by one goroutine each and read only
	// after Wait; a returned error means persistence is broken and the
	// run is aborted.
	var (
		imageRes domain.StageResult
		musicRes domain.StageResult
		wavRef   *domain.ArtifactRef
	)
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Enabled(domain.StageImage) {
		g.Go(func() error {
			var err error
			imageRes, err = p.runImage(gctx, &log, cfg, token, title, meta)
			return err
		})
	}
	if cfg.Enabled(domain.StageMusic) {
		g.Go(func() error {
			var err error
			musicRes, wavRef, err = p.runMusic(gctx, &log, cfg, token, title)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 3: everything that consumes the track.
	var (
		dspRes domain.StageResult
		vizRes domain.StageResult
		aiRes  domain.StageResult
	)
	audioRef := musicRes.Artifact
	g, gctx = errgroup.WithContext(ctx)
	if cfg.Enabled(domain.StageDSP) {
		g.Go(func() error {
			dspRes = p.runDSP(gctx, &log, audioRef)
			return nil
		})
	}
	if cfg.Enabled(domain.StageVisualizer) {
		g.Go(func() error {
			var err error
			vizRes, err = p.runVisualizer(gctx, &log, cfg, token, title, imageRes.Artifact, audioRef)
			return err
		})
	}
	if cfg.Enabled(domain.StageAIVideo) {
		g.Go(func() error {
			var err error
			aiRes, err = p.runAIVideo(gctx, &log, cfg, token, title, audioRef)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rec := &domain.GenerationRecord{
		ID:        runID,
		Prompt:    cfg.Prompt(),
		Title:     title,
		CreatedAt: started.UTC(),
	}
	if meta != nil {
		rec.Tags = meta.Tags
		rec.Description = meta.Description
	}
	for _, res := range []domain.StageResult{metaRes, imageRes, musicRes, dspRes, vizRes, aiRes} {
		if res.Stage != "" {
			rec.Results = append(rec.Results, res)
		}
	}
	rec.Image = imageRes.Artifact
	rec.Audio = musicRes.Artifact
	rec.AudioWAV = wavRef
	rec.DSP = dspRes.DSP
	rec.Visualizer = vizRes.Artifact
	rec.AIVideo = aiRes.Artifact

	// A canceled run is still history: the record explains what did and
	// did not finish instead of vanishing.
	if _, err := p.history.Save(context.WithoutCancel(ctx), rec); err != nil {
		return nil, domain.Fail("", domain.KindPersistence, fmt.Errorf("save record: %w", err))
	}

	log.Info().
		Int("stages", len(rec.Results)).
		Dur("took", p.now().Sub(started)).
		Msg("pipeline: run complete")
	return rec, nil
}

func (p *Pipeline) runMetadata(ctx context.Context, log *infra.Logger, cfg domain.StepConfig) domain.StageResult {
	gen, err := pickProvider(p.metadata, cfg.Provider(domain.StageMetadata), domain.StageMetadata)
	if err != nil {
		return p.failStage(log, domain.StageMetadata, err)
	}
	var meta *domain.BeatMetadata
	err = p.withRetry(ctx, log, domain.StageMetadata, func(ctx context.Context) error {
		var genErr error
		meta, genErr = gen.Generate(ctx, cfg.Prompt())
		return genErr
	})
	if err != nil {
		return p.failStage(log, domain.StageMetadata, err)
	}
	return domain.StageResult{Stage: domain.StageMetadata, Metadata: meta}
}

func (p *Pipeline) runImage(ctx context.Context, log *infra.Logger, cfg domain.StepConfig, token, title string, meta *domain.BeatMetadata) (domain.StageResult, error) {
	gen, err := pickProvider(p.image, cfg.Provider(domain.StageImage), domain.StageImage)
	if err != nil {
		return p.failStage(log, domain.StageImage, err), nil
	}
	req := image.Request{Title: title}
	if meta != nil {
		req.Tags = meta.Tags
		req.Description = meta.Description
	}
	var asset *domain.BinaryAsset
	err = p.withRetry(ctx, log, domain.StageImage, func(ctx context.Context) error {
		var genErr error
		asset, genErr = gen.Generate(ctx, req)
		return genErr
	})
	if err != nil {
		return p.failStage(log, domain.StageImage, err), nil
	}
	ref, err := p.store(ctx, domain.StageImage, artifacts.StoreRequest{
		Kind:  domain.ArtifactImage,
		Title: title,
		Token: token,
		Ext:   imageExt(asset.MIME),
		Data:  asset.Data,
	})
	if err != nil {
		return p.failStage(log, domain.StageImage, err), fatalErr(err)
	}
	return domain.StageResult{Stage: domain.StageImage, Artifact: ref}, nil
}

func (p *Pipeline) runMusic(ctx context.Context, log *infra.Logger, cfg domain.StepConfig, token, title string) (domain.StageResult, *domain.ArtifactRef, error) {
	gen, err := pickProvider(p.music, cfg.Provider(domain.StageMusic), domain.StageMusic)
	if err != nil {
		return p.failStage(log, domain.StageMusic, err), nil, nil
	}
	var out *music.Result
	err = p.withRetry(ctx, log, domain.StageMusic, func(ctx context.Context) error {
		var genErr error
		out, genErr = gen.Generate(ctx, music.Request{
			Prompt:          cfg.Prompt(),
			DurationSeconds: cfg.DurationSeconds(),
			Format:          cfg.Format(),
		})
		return genErr
	})
	if err != nil {
		return p.failStage(log, domain.StageMusic, err), nil, nil
	}
	primary, err := p.store(ctx, domain.StageMusic, artifacts.StoreRequest{
		Kind:  domain.ArtifactAudio,
		Title: title,
		Token: token,
		Ext:   audioExt(out.Audio.MIME),
		Data:  out.Audio.Data,
	})
	if err != nil {
		return p.failStage(log, domain.StageMusic, err), nil, fatalErr(err)
	}

	var wav *domain.ArtifactRef
	if cfg.Format() == domain.FormatBoth {
		wav, err = p.transcodeWAV(ctx, title, token, primary)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			// A canceled stage leaves nothing behind.
			_ = p.sink.Remove(context.WithoutCancel(ctx), primary)
			return p.failStage(log, domain.StageMusic, err), nil, nil
		case domain.Classify(err) == domain.KindPersistence:
			return p.failStage(log, domain.StageMusic, err), nil, err
		default:
			// The primary track is delivered either way; the twin is
			// best effort.
			log.Warn().Err(err).Msg("pipeline: wav transcode failed, keeping primary only")
			wav = nil
		}
	}
	return domain.StageResult{Stage: domain.StageMusic, Artifact: primary}, wav, nil
}

// transcodeWAV derives the wav twin of an already stored track.
func (p *Pipeline) transcodeWAV(ctx context.Context, title, token string, primary *domain.ArtifactRef) (*domain.ArtifactRef, error) {
	tmp, err := tempFile("beatbank-wav-*.wav")
	if err != nil {
		return nil, domain.Fail(domain.StageMusic, domain.KindPersistence, fmt.Errorf("temp wav: %w", err))
	}
	defer os.Remove(tmp)

	if err := p.mixer.TranscodeAudio(ctx, p.sink.Path(primary), tmp); err != nil {
		return nil, fmt.Errorf("transcode wav: %w", err)
	}
	return p.storeFile(ctx, domain.StageMusic, artifacts.StoreRequest{
		Kind:  domain.ArtifactAudio,
		Title: title,
		Token: token,
		Ext:   "wav",
	}, tmp)
}

func (p *Pipeline) runDSP(ctx context.Context, log *infra.Logger, audioRef *domain.ArtifactRef) domain.StageResult {
	if audioRef == nil {
		return p.failStage(log, domain.StageDSP,
			domain.Failf(domain.StageDSP, domain.KindDependencyUnavailable, "no audio to analyze: music stage did not produce a track"))
	}
	var features *domain.DSPFeatures
	err := p.withRetry(ctx, log, domain.StageDSP, func(ctx context.Context) error {
		var aErr error
		features, aErr = p.dsp.Analyze(ctx, p.sink.Path(audioRef))
		return aErr
	})
	if err != nil {
		return p.failStage(log, domain.StageDSP, err)
	}
	return domain.StageResult{Stage: domain.StageDSP, DSP: features}
}

func (p *Pipeline) runVisualizer(ctx context.Context, log *infra.Logger, cfg domain.StepConfig, token, title string, imageRef, audioRef *domain.ArtifactRef) (domain.StageResult, error) {
	if audioRef == nil {
		return p.failStage(log, domain.StageVisualizer,
			domain.Failf(domain.StageVisualizer, domain.KindDependencyUnavailable, "no audio to render: music stage did not produce a track")), nil
	}
	// Cover art is optional: a missing image means a solid backdrop,
	// not a missing video.
	imagePath := ""
	if imageRef != nil {
		imagePath = p.sink.Path(imageRef)
	}

	out, err := tempFile("beatbank-viz-*.mp4")
	if err != nil {
		wrapped := domain.Fail(domain.StageVisualizer, domain.KindPersistence, fmt.Errorf("temp video: %w", err))
		return p.failStage(log, domain.StageVisualizer, wrapped), wrapped
	}
	defer os.Remove(out)

	err = p.withRetry(ctx, log, domain.StageVisualizer, func(ctx context.Context) error {
		return p.visualizer.Render(ctx, visualizer.Request{
			ImagePath:       imagePath,
			AudioPath:       p.sink.Path(audioRef),
			DurationSeconds: cfg.DurationSeconds(),
			Effects:         cfg.Effects(),
			OutputPath:      out,
		})
	})
	if err != nil {
		return p.failStage(log, domain.StageVisualizer, err), nil
	}
	ref, err := p.storeFile(ctx, domain.StageVisualizer, artifacts.StoreRequest{
		Kind:  domain.ArtifactVideo,
		Title: title,
		Token: token,
		Ext:   "mp4",
	}, out)
	if err != nil {
		return p.failStage(log, domain.StageVisualizer, err), fatalErr(err)
	}
	return domain.StageResult{Stage: domain.StageVisualizer, Artifact: ref}, nil
}

func (p *Pipeline) runAIVideo(ctx context.Context, log *infra.Logger, cfg domain.StepConfig, token, title string, audioRef *domain.ArtifactRef) (domain.StageResult, error) {
	gen, err := pickProvider(p.aivideo, cfg.Provider(domain.StageAIVideo), domain.StageAIVideo)
	if err != nil {
		return p.failStage(log, domain.StageAIVideo, err), nil
	}

	seconds := cfg.DurationSeconds()
	if seconds > p.cfg.AIVideoMaxSeconds {
		seconds = p.cfg.AIVideoMaxSeconds
	}

	var jobID string
	err = p.withRetry(ctx, log, domain.StageAIVideo, func(ctx context.Context) error {
		var subErr error
		jobID, subErr = gen.Submit(ctx, aivideo.JobRequest{Prompt: cfg.Prompt(), DurationSeconds: seconds})
		return subErr
	})
	if err != nil {
		return p.failStage(log, domain.StageAIVideo, err), nil
	}
	log.Debug().Str("job_id", jobID).Int("duration_sec", seconds).Msg("pipeline: ai video job submitted")

	var finalURL string
	job := &poll.Job{ExternalID: jobID}
	err = p.poller.Await(ctx, job, func(ctx context.Context) (poll.Status, error) {
		status, pollErr := gen.Poll(ctx, jobID)
		if pollErr != nil {
			return poll.StatusRunning, pollErr
		}
		switch status.State {
		case aivideo.StateSucceeded:
			finalURL = status.VideoURL
			return poll.StatusSucceeded, nil
		case aivideo.StateFailed:
			return poll.StatusFailed, errors.New(status.Reason)
		default:
			return poll.StatusRunning, nil
		}
	})
	if err != nil {
		return p.failStage(log, domain.StageAIVideo, domain.Fail(domain.StageAIVideo, pollErrorKind(err), err)), nil
	}

	raw, err := tempFile("beatbank-ai-*.mp4")
	if err != nil {
		wrapped := domain.Fail(domain.StageAIVideo, domain.KindPersistence, fmt.Errorf("temp video: %w", err))
		return p.failStage(log, domain.StageAIVideo, wrapped), wrapped
	}
	defer os.Remove(raw)

	err = p.withRetry(ctx, log, domain.StageAIVideo, func(ctx context.Context) error {
		return gen.Download(ctx, finalURL, raw)
	})
	if err != nil {
		return p.failStage(log, domain.StageAIVideo, err), nil
	}

	// Mux the beat under the clip when we have one; the silent vendor
	// video is still worth keeping otherwise.
	deliver := raw
	if audioRef != nil {
		muxed, err := tempFile("beatbank-ai-mux-*.mp4")
		if err != nil {
			wrapped := domain.Fail(domain.StageAIVideo, domain.KindPersistence, fmt.Errorf("temp video: %w", err))
			return p.failStage(log, domain.StageAIVideo, wrapped), wrapped
		}
		defer os.Remove(muxed)
		if err := p.mixer.OverlayAudio(ctx, raw, p.sink.Path(audioRef), muxed); err != nil {
			return p.failStage(log, domain.StageAIVideo, domain.Fail(domain.StageAIVideo, mixerErrorKind(err), err)), nil
		}
		deliver = muxed
	}

	ref, err := p.storeFile(ctx, domain.StageAIVideo, artifacts.StoreRequest{
		Kind:  domain.ArtifactVideo,
		Title: title + " ai",
		Token: token,
		Ext:   "mp4",
	}, deliver)
	if err != nil {
		return p.failStage(log, domain.StageAIVideo, err), fatalErr(err)
	}
	return domain.StageResult{Stage: domain.StageAIVideo, Artifact: ref}, nil
}

// withRetry runs fn, retrying transient vendor faults with exponential
// backoff. Cancellation is never retried and the last error is returned
// untouched so its classification survives.
func (p *Pipeline) withRetry(ctx context.Context, log *infra.Logger, stage domain.StageKind, fn func(context.Context) error) error {
	delay := p.cfg.RetryBaseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || attempt >= p.cfg.MaxRetries || !domain.Classify(err).Retryable() {
			return err
		}
		log.Warn().
			Str("stage", stage.String()).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Err(err).
			Msg("pipeline: retrying stage")
		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			return err
		}
		delay *= 2
		if delay > p.cfg.RetryMaxDelay {
			delay = p.cfg.RetryMaxDelay
		}
	}
}

func (p *Pipeline) failStage(log *infra.Logger, stage domain.StageKind, err error) domain.StageResult {
	res := domain.FailureOf(stage, err)
	log.Warn().
		Str("stage", stage.String()).
		Str("kind", string(res.ErrorKind)).
		Err(err).
		Msg("pipeline: stage failed")
	return res
}

// store persists bytes through the sink, classifying failures: a
// cancellation stays a stage outcome, anything else means results can no
// longer be saved.
func (p *Pipeline) store(ctx context.Context, stage domain.StageKind, req artifacts.StoreRequest) (*domain.ArtifactRef, error) {
	ref, err := p.sink.Store(ctx, req)
	if err != nil {
		return nil, p.sinkError(ctx, stage, err)
	}
	return ref, nil
}

func (p *Pipeline) storeFile(ctx context.Context, stage domain.StageKind, req artifacts.StoreRequest, src string) (*domain.ArtifactRef, error) {
	ref, err := p.sink.StoreFile(ctx, req, src)
	if err != nil {
		return nil, p.sinkError(ctx, stage, err)
	}
	return ref, nil
}

func (p *Pipeline) sinkError(ctx context.Context, stage domain.StageKind, err error) error {
	if ctx.Err() != nil {
		return domain.Fail(stage, domain.Classify(ctx.Err()), err)
	}
	return domain.Fail(stage, domain.KindPersistence, err)
}

// fatalErr returns err when it must abort the whole run, nil when it is
// only a stage outcome.
func fatalErr(err error) error {
	if domain.Classify(err) == domain.KindPersistence {
		return err
	}
	return nil
}

// pickProvider resolves a requested vendor name against a capability map.
// An unknown name is the caller's mistake, not a vendor fault.
func pickProvider[G any](providers map[string]G, name string, stage domain.StageKind) (G, error) {
	if gen, ok := providers[name]; ok {
		return gen, nil
	}
	var zero G
	return zero, domain.Failf(stage, domain.KindInvalidInput, "unsupported %s provider %q", stage, name)
}

// brandTitle picks the display title for a run: branding when the
// metadata stage delivered one, a prompt slug otherwise.
func brandTitle(meta *domain.BeatMetadata, prompt string) string {
	if meta != nil && strings.TrimSpace(meta.Title) != "" {
		return meta.Title
	}
	return domain.Slug(prompt)
}

func pollErrorKind(err error) domain.ErrorKind {
	if errors.Is(err, poll.ErrTimedOut) {
		return domain.KindPollTimedOut
	}
	return domain.Classify(err)
}

// mixerErrorKind mirrors how render faults are classified: a missing
// binary is an environment problem, anything else is a bad input.
func mixerErrorKind(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return domain.KindDependencyUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.Classify(err)
	default:
		return domain.KindInvalidInput
	}
}

func audioExt(mime string) string {
	if strings.Contains(mime, "wav") {
		return "wav"
	}
	return "mp3"
}

func imageExt(mime string) string {
	if strings.Contains(mime, "jpeg") {
		return "jpg"
	}
	return "png"
}

// tempFile reserves a scratch path with the right extension; ffmpeg picks
// its muxer from the suffix.
func tempFile(pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
