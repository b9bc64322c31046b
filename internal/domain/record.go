package domain

import "time"

// ArtifactKind partitions stored files by media type.
type ArtifactKind string

const (
	ArtifactImage ArtifactKind = "image"
	ArtifactAudio ArtifactKind = "audio"
	ArtifactVideo ArtifactKind = "video"
)

// ArtifactRef points at one stored file. Key is the path relative to the
// store root ("images/neon_drift-1a2b3c4d.png"); URL is what clients fetch.
type ArtifactRef struct {
	Kind ArtifactKind `json:"kind"`
	Key  string       `json:"key"`
	URL  string       `json:"url"`
}

// BinaryAsset is provider output before it reaches the artifact store.
type BinaryAsset struct {
	MIME string
	Data []byte
}

// BeatMetadata is the branding block produced by the metadata stage.
type BeatMetadata struct {
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// DSPFeatures are the measured properties of the generated track. Field
// names mirror the analyzer's wire format.
type DSPFeatures struct {
	BPM            float64 `json:"bpm"`
	Key            string  `json:"key"`
	KeyConfidence  float64 `json:"key_confidence"`
	EnergyRMS      float64 `json:"energy_rms"`
	Brightness     float64 `json:"brightness"`
	DynamicRange   float64 `json:"dynamic_range"`
	TempoStability float64 `json:"tempo_stability"`
	DurationSec    float64 `json:"duration_sec"`
}

// StageResult reports the outcome of one enabled stage. Exactly one of
// the payload fields is set on success; ErrorKind and ErrorMessage are
// set on failure. A disabled stage has no result at all.
type StageResult struct {
	Stage        StageKind     `json:"stage"`
	Metadata     *BeatMetadata `json:"metadata,omitempty"`
	Artifact     *ArtifactRef  `json:"artifact,omitempty"`
	DSP          *DSPFeatures  `json:"dsp,omitempty"`
	ErrorKind    ErrorKind     `json:"error_kind,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// Succeeded reports whether the stage completed without error.
func (r StageResult) Succeeded() bool { return r.ErrorKind == "" }

// FailureOf builds the failed StageResult for err, classifying it first.
func FailureOf(stage StageKind, err error) StageResult {
	return StageResult{
		Stage:        stage,
		ErrorKind:    Classify(err),
		ErrorMessage: err.Error(),
	}
}

// GenerationRecord is the durable outcome of one run: the prompt, every
// enabled stage's result in pipeline order, and denormalized fields for
// cheap listing.
type GenerationRecord struct {
	ID          string        `json:"id"`
	Prompt      string        `json:"prompt"`
	Title       string        `json:"title"`
	Tags        []string      `json:"tags"`
	Description string        `json:"description"`
	Image       *ArtifactRef  `json:"image,omitempty"`
	Audio       *ArtifactRef  `json:"audio,omitempty"`
	AudioWAV    *ArtifactRef  `json:"audio_wav,omitempty"`
	Visualizer  *ArtifactRef  `json:"visualizer,omitempty"`
	AIVideo     *ArtifactRef  `json:"ai_video,omitempty"`
	DSP         *DSPFeatures  `json:"dsp,omitempty"`
	Results     []StageResult `json:"results"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ResultFor returns the result for a stage, nil when the stage was not
// part of the run.
func (r *GenerationRecord) ResultFor(stage StageKind) *StageResult {
	for i := range r.Results {
		if r.Results[i].Stage == stage {
			return &r.Results[i]
		}
	}
	return nil
}
