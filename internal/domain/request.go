package domain

import (
	"errors"
	"fmt"
	"strings"
)

// AudioFormat selects the encoding(s) of the generated track.
type AudioFormat string

const (
	FormatMP3  AudioFormat = "mp3"
	FormatWAV  AudioFormat = "wav"
	FormatBoth AudioFormat = "both"
)

// ParseAudioFormat normalizes a client-supplied format name. Empty input
// selects MP3.
func ParseAudioFormat(s string) (AudioFormat, error) {
	switch AudioFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatMP3:
		return FormatMP3, nil
	case FormatWAV:
		return FormatWAV, nil
	case FormatBoth:
		return FormatBoth, nil
	default:
		return "", fmt.Errorf("unknown audio format %q", s)
	}
}

// Duration bounds for the generated track, in seconds.
const (
	DefaultDurationSeconds = 30
	MinDurationSeconds     = 5
	MaxDurationSeconds     = 300
)

// StageFlags toggles individual pipeline stages. Nil pointers take the
// stage's default: every stage on except ai_video.
type StageFlags struct {
	Metadata   *bool `json:"metadata,omitempty"`
	Image      *bool `json:"image,omitempty"`
	Music      *bool `json:"music,omitempty"`
	DSP        *bool `json:"dsp,omitempty"`
	Visualizer *bool `json:"visualizer,omitempty"`
	AIVideo    *bool `json:"ai_video,omitempty"`
}

// ProviderSelection names the vendor adapter per capability. Empty means
// "auto", which resolves to the configured default chain.
type ProviderSelection struct {
	Metadata string `json:"metadata,omitempty"`
	Image    string `json:"image,omitempty"`
	Music    string `json:"music,omitempty"`
	AIVideo  string `json:"ai_video,omitempty"`
}

// VisualizerEffects toggles the filter layers of the rendered video. Any
// subset is valid, including none (static frame over the track).
type VisualizerEffects struct {
	Waveform bool `json:"waveform"`
	Spectrum bool `json:"spectrum"`
	Pulse    bool `json:"pulse"`
	Zoom     bool `json:"zoom"`
	VHS      bool `json:"vhs"`
}

// DefaultEffects mirrors the toggles applied when a request omits the
// effects object entirely.
func DefaultEffects() VisualizerEffects {
	return VisualizerEffects{Waveform: true, Pulse: true, Zoom: true}
}

// GenerationRequest is the raw client payload describing one run.
type GenerationRequest struct {
	Prompt          string             `json:"prompt"`
	DurationSeconds int                `json:"duration_seconds"`
	AudioFormat     string             `json:"audio_format,omitempty"`
	Stages          *StageFlags        `json:"stages,omitempty"`
	Providers       ProviderSelection  `json:"providers,omitempty"`
	Effects         *VisualizerEffects `json:"effects,omitempty"`
}

// StepConfig is the validated, normalized form of a request. It is built
// exactly once per run by NewStepConfig and never mutated afterwards; the
// pipeline reads only this, never the raw request.
type StepConfig struct {
	prompt    string
	duration  int
	format    AudioFormat
	enabled   map[StageKind]bool
	providers ProviderSelection
	effects   VisualizerEffects
}

// NewStepConfig validates req and freezes it into a StepConfig. All
// failures carry the validation error kind and happen before any provider
// is contacted.
func NewStepConfig(req GenerationRequest) (StepConfig, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return StepConfig{}, invalidRequest("prompt is required")
	}

	duration := req.DurationSeconds
	if duration == 0 {
		duration = DefaultDurationSeconds
	}
	if duration < MinDurationSeconds || duration > MaxDurationSeconds {
		return StepConfig{}, invalidRequest(fmt.Sprintf("duration_seconds must be between %d and %d", MinDurationSeconds, MaxDurationSeconds))
	}

	format, err := ParseAudioFormat(req.AudioFormat)
	if err != nil {
		return StepConfig{}, &StageError{Kind: KindValidation, Err: err}
	}

	flags := req.Stages
	if flags == nil {
		flags = &StageFlags{}
	}
	enabled := map[StageKind]bool{
		StageMetadata:   boolOr(flags.Metadata, true),
		StageImage:      boolOr(flags.Image, true),
		StageMusic:      boolOr(flags.Music, true),
		StageDSP:        boolOr(flags.DSP, true),
		StageVisualizer: boolOr(flags.Visualizer, true),
		StageAIVideo:    boolOr(flags.AIVideo, false),
	}
	any := false
	for _, on := range enabled {
		any = any || on
	}
	if !any {
		return StepConfig{}, invalidRequest("at least one stage must be enabled")
	}

	effects := DefaultEffects()
	if req.Effects != nil {
		effects = *req.Effects
	}

	return StepConfig{
		prompt:    prompt,
		duration:  duration,
		format:    format,
		enabled:   enabled,
		providers: normalizeProviders(req.Providers),
		effects:   effects,
	}, nil
}

func (c StepConfig) Prompt() string { return c.prompt }

func (c StepConfig) DurationSeconds() int { return c.duration }

func (c StepConfig) Format() AudioFormat { return c.format }

func (c StepConfig) Effects() VisualizerEffects { return c.effects }

func (c StepConfig) Enabled(s StageKind) bool { return c.enabled[s] }

// EnabledStages returns the enabled stages in pipeline order.
func (c StepConfig) EnabledStages() []StageKind {
	out := make([]StageKind, 0, len(StageOrder))
	for _, s := range StageOrder {
		if c.enabled[s] {
			out = append(out, s)
		}
	}
	return out
}

// Provider returns the selected adapter name for a stage, "auto" when the
// request did not pin one.
func (c StepConfig) Provider(s StageKind) string {
	var name string
	switch s {
	case StageMetadata:
		name = c.providers.Metadata
	case StageImage:
		name = c.providers.Image
	case StageMusic:
		name = c.providers.Music
	case StageAIVideo:
		name = c.providers.AIVideo
	}
	if name == "" {
		return "auto"
	}
	return name
}

func normalizeProviders(p ProviderSelection) ProviderSelection {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return ProviderSelection{
		Metadata: norm(p.Metadata),
		Image:    norm(p.Image),
		Music:    norm(p.Music),
		AIVideo:  norm(p.AIVideo),
	}
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func invalidRequest(msg string) error {
	return &StageError{Kind: KindValidation, Err: errors.New(msg)}
}
