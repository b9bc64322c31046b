package handlers

import (
	"context"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/IshanjotDhahan7868/BeatBank/internal/artifacts"
	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/pipeline"
	"github.com/IshanjotDhahan7868/BeatBank/internal/poll"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/aivideo"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/image"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/metadata"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/music"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/visualizer"
)

type stubMetadata struct{}

func (stubMetadata) Generate(ctx context.Context, prompt string) (*domain.BeatMetadata, error) {
	return &domain.BeatMetadata{
		Title:       "Neon Drift",
		Tags:        []string{"trap", "dark"},
		Description: "late night heater",
	}, nil
}

type stubImage struct{}

func (stubImage) Generate(ctx context.Context, req image.Request) (*domain.BinaryAsset, error) {
	return &domain.BinaryAsset{MIME: "image/png", Data: []byte("png-bytes")}, nil
}

type stubMusic struct {
	fn func(ctx context.Context, req music.Request) (*music.Result, error)
}

func (s *stubMusic) Generate(ctx context.Context, req music.Request) (*music.Result, error) {
	if s.fn != nil {
		return s.fn(ctx, req)
	}
	return &music.Result{
		Audio:          domain.BinaryAsset{MIME: "audio/mpeg", Data: []byte("mp3-bytes")},
		DurationActual: float64(req.DurationSeconds),
	}, nil
}

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(ctx context.Context, path string) (*domain.DSPFeatures, error) {
	return &domain.DSPFeatures{BPM: 140, Key: "F#", EnergyRMS: 0.21, DurationSec: 30}, nil
}

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, req visualizer.Request) error { return nil }

type stubAIVideo struct{}

func (stubAIVideo) Submit(ctx context.Context, req aivideo.JobRequest) (string, error) {
	return "job-1", nil
}

func (stubAIVideo) Poll(ctx context.Context, jobID string) (aivideo.JobStatus, error) {
	return aivideo.JobStatus{State: aivideo.StateSucceeded, VideoURL: "https://cdn.example.com/clip.mp4"}, nil
}

func (stubAIVideo) Download(ctx context.Context, url, dest string) error {
	return os.WriteFile(dest, []byte("clip"), 0o644)
}

type stubMixer struct{}

func (stubMixer) TranscodeAudio(ctx context.Context, src, dst string) error {
	return os.WriteFile(dst, []byte("RIFF"), 0o644)
}

func (stubMixer) OverlayAudio(ctx context.Context, videoPath, audioPath, outPath string) error {
	return os.WriteFile(outPath, []byte("muxed"), 0o644)
}

// memRecorder keeps records in memory so handler tests run without a
// database.
type memRecorder struct {
	mu        sync.Mutex
	order     []string
	recs      map[string]*domain.GenerationRecord
	lastLimit int

	saveErr error
	listErr error
}

func newMemRecorder() *memRecorder {
	return &memRecorder{recs: make(map[string]*domain.GenerationRecord)}
}

func (m *memRecorder) Save(ctx context.Context, rec *domain.GenerationRecord) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = append(m.order, rec.ID)
	m.recs[rec.ID] = rec
	return rec.ID, nil
}

func (m *memRecorder) List(ctx context.Context, limit int) ([]domain.RecordSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.RecordSummary
	for i := len(m.order) - 1; i >= 0; i-- {
		rec := m.recs[m.order[i]]
		out = append(out, domain.RecordSummary{
			ID:        rec.ID,
			Prompt:    rec.Prompt,
			Title:     rec.Title,
			Tags:      rec.Tags,
			Image:     rec.Image,
			Audio:     rec.Audio,
			CreatedAt: rec.CreatedAt,
		})
	}
	return out, nil
}

func (m *memRecorder) Get(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.recs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

func (m *memRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

type testApp struct {
	app      *App
	recorder *memRecorder
	sink     *artifacts.FileSink
	music    *stubMusic
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	sink, err := artifacts.NewFileSink(t.TempDir(), "http://localhost:8080/artifacts")
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	recorder := newMemRecorder()
	msc := &stubMusic{}
	p, err := pipeline.New(pipeline.Options{
		Metadata:   map[string]metadata.Generator{"auto": stubMetadata{}},
		Image:      map[string]image.Generator{"auto": stubImage{}},
		Music:      map[string]music.Generator{"auto": msc},
		AIVideo:    map[string]aivideo.Generator{"auto": stubAIVideo{}},
		DSP:        stubAnalyzer{},
		Visualizer: stubRenderer{},
		Sink:       sink,
		History:    recorder,
		Mixer:      stubMixer{},
		Config: pipeline.Config{
			RetryBaseDelay: time.Millisecond,
			RetryMaxDelay:  2 * time.Millisecond,
			Poll: poll.Config{
				Interval:    time.Millisecond,
				MaxInterval: 2 * time.Millisecond,
				Timeout:     time.Second,
			},
		},
	})
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return &testApp{
		app:      NewApp(p, recorder, sink, zerolog.New(io.Discard)),
		recorder: recorder,
		sink:     sink,
		music:    msc,
	}
}

// withURLParam mounts a chi route context so handlers that read path
// parameters can be exercised directly.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
