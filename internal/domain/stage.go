package domain

// StageKind identifies one step of the generation pipeline.
type StageKind string

const (
	StageMetadata   StageKind = "metadata"
	StageImage      StageKind = "image"
	StageMusic      StageKind = "music"
	StageDSP        StageKind = "dsp"
	StageVisualizer StageKind = "visualizer"
	StageAIVideo    StageKind = "ai_video"
)

// StageOrder is the canonical execution and reporting order. Results in a
// GenerationRecord always appear in this order regardless of which stages
// ran concurrently.
var StageOrder = []StageKind{
	StageMetadata,
	StageImage,
	StageMusic,
	StageDSP,
	StageVisualizer,
	StageAIVideo,
}

func (k StageKind) String() string { return string(k) }

// Valid reports whether k names a known pipeline stage.
func (k StageKind) Valid() bool {
	for _, s := range StageOrder {
		if s == k {
			return true
		}
	}
	return false
}
