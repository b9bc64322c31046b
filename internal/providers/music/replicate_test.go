package music

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/poll"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newReplicateForTest(t *testing.T, opts ReplicateOptions, rt roundTripFunc) *ReplicateGenerator {
	t.Helper()
	opts.APIToken = "r8-test"
	opts.HTTPClient = &http.Client{Transport: rt}
	if opts.Poll.Interval == 0 {
		opts.Poll = poll.Config{Interval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Timeout: time.Second}
	}
	gen, err := NewReplicate(opts)
	if err != nil {
		t.Fatalf("NewReplicate: %v", err)
	}
	return gen
}

func TestReplicateGeneratorGeneratesTrack(t *testing.T) {
	track := []byte("ID3\x04fake-track-bytes")
	var created predictionRequest
	polls := 0

	gen := newReplicateForTest(t, ReplicateOptions{}, func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodPost && req.URL.Path == "/v1/models/elevenlabs/music/predictions":
			if got := req.Header.Get("Authorization"); got != "Bearer r8-test" {
				t.Fatalf("Authorization = %q", got)
			}
			if err := json.NewDecoder(req.Body).Decode(&created); err != nil {
				t.Fatalf("decode create body: %v", err)
			}
			return jsonResponse(http.StatusCreated, `{"id":"pred-1","status":"starting"}`), nil
		case req.Method == http.MethodGet && req.URL.Path == "/v1/predictions/pred-1":
			polls++
			if polls < 2 {
				return jsonResponse(http.StatusOK, `{"id":"pred-1","status":"processing"}`), nil
			}
			return jsonResponse(http.StatusOK, `{"id":"pred-1","status":"succeeded","output":"https://delivery.example.com/track.mp3"}`), nil
		case req.Method == http.MethodGet && req.URL.Host == "delivery.example.com":
			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(bytes.NewReader(track))}, nil
		}
		t.Fatalf("unexpected request: %s %s", req.Method, req.URL)
		return nil, nil
	})

	res, err := gen.Generate(context.Background(), Request{Prompt: "dark ambient trap", DurationSeconds: 30})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := predictionInput{
		Prompt:            "dark ambient trap",
		OutputFormat:      "mp3_high_quality",
		MusicLengthMS:     30000,
		ForceInstrumental: true,
	}
	if created.Input != want {
		t.Fatalf("input = %+v", created.Input)
	}
	if created.Version != "" {
		t.Fatalf("version should be empty for model-path predictions, got %q", created.Version)
	}
	if res.Audio.MIME != "audio/mpeg" {
		t.Fatalf("MIME = %q", res.Audio.MIME)
	}
	if !bytes.Equal(res.Audio.Data, track) {
		t.Fatalf("audio bytes = %q", res.Audio.Data)
	}
	if res.DurationActual != 30 {
		t.Fatalf("DurationActual = %v", res.DurationActual)
	}
	if polls != 2 {
		t.Fatalf("polls = %d", polls)
	}
}

func TestReplicateGeneratorPinnedVersionAndWav(t *testing.T) {
	var created predictionRequest

	gen := newReplicateForTest(t, ReplicateOptions{ModelVersion: "abc123"}, func(req *http.Request) (*http.Response, error) {
		switch {
		case req.Method == http.MethodPost && req.URL.Path == "/v1/predictions":
			if err := json.NewDecoder(req.Body).Decode(&created); err != nil {
				t.Fatalf("decode create body: %v", err)
			}
			return jsonResponse(http.StatusCreated,
				`{"id":"pred-2","status":"succeeded","output":["https://delivery.example.com/track.wav"]}`), nil
		case req.Method == http.MethodGet && req.URL.Host == "delivery.example.com":
			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(strings.NewReader("RIFF"))}, nil
		}
		t.Fatalf("unexpected request: %s %s", req.Method, req.URL)
		return nil, nil
	})

	res, err := gen.Generate(context.Background(), Request{Prompt: "boom bap", DurationSeconds: 20, Format: domain.FormatWAV})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if created.Version != "abc123" {
		t.Fatalf("version = %q", created.Version)
	}
	if created.Input.OutputFormat != "wav" {
		t.Fatalf("output_format = %q", created.Input.OutputFormat)
	}
	if res.Audio.MIME != "audio/wav" {
		t.Fatalf("MIME = %q", res.Audio.MIME)
	}
}

func TestReplicateGeneratorClampsDuration(t *testing.T) {
	cases := []struct {
		seconds int
		wantMS  int
	}{
		{900, 300000},
		{0, 1000},
		{-3, 1000},
	}
	for _, tc := range cases {
		var created predictionRequest
		gen := newReplicateForTest(t, ReplicateOptions{}, func(req *http.Request) (*http.Response, error) {
			if req.Method == http.MethodPost {
				if err := json.NewDecoder(req.Body).Decode(&created); err != nil {
					t.Fatalf("decode create body: %v", err)
				}
				return jsonResponse(http.StatusCreated,
					`{"id":"p","status":"succeeded","output":"https://delivery.example.com/t.mp3"}`), nil
			}
			return &http.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: io.NopCloser(strings.NewReader("x"))}, nil
		})
		if _, err := gen.Generate(context.Background(), Request{Prompt: "p", DurationSeconds: tc.seconds}); err != nil {
			t.Fatalf("Generate(%d): %v", tc.seconds, err)
		}
		if created.Input.MusicLengthMS != tc.wantMS {
			t.Fatalf("music_length_ms = %d, want %d", created.Input.MusicLengthMS, tc.wantMS)
		}
	}
}

func TestReplicateGeneratorVendorFailure(t *testing.T) {
	gen := newReplicateForTest(t, ReplicateOptions{}, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(http.StatusCreated, `{"id":"p","status":"starting"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"id":"p","status":"failed","error":"NSFW content detected"}`), nil
	})
	_, err := gen.Generate(context.Background(), Request{Prompt: "p", DurationSeconds: 10})
	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T (%v)", err, err)
	}
	if stageErr.Stage != domain.StageMusic || stageErr.Kind != domain.KindProviderUnavailable {
		t.Fatalf("stage/kind = %q/%q", stageErr.Stage, stageErr.Kind)
	}
	if !strings.Contains(err.Error(), "NSFW content detected") {
		t.Fatalf("error should carry the vendor reason: %v", err)
	}
}

func TestReplicateGeneratorPollTimeout(t *testing.T) {
	gen := newReplicateForTest(t, ReplicateOptions{
		Poll: poll.Config{Interval: 2 * time.Millisecond, MaxInterval: 2 * time.Millisecond, Timeout: time.Millisecond},
	}, func(req *http.Request) (*http.Response, error) {
		if req.Method == http.MethodPost {
			return jsonResponse(http.StatusCreated, `{"id":"p","status":"starting"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"id":"p","status":"processing"}`), nil
	})
	_, err := gen.Generate(context.Background(), Request{Prompt: "p", DurationSeconds: 10})
	if !errors.Is(err, poll.ErrTimedOut) {
		t.Fatalf("err = %v, want poll timeout", err)
	}
	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Kind != domain.KindPollTimedOut {
		t.Fatalf("kind = %v", err)
	}
}

func TestReplicateGeneratorRejectsEmptyPrompt(t *testing.T) {
	gen := newReplicateForTest(t, ReplicateOptions{}, func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := gen.Generate(context.Background(), Request{Prompt: "   "})
	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Kind != domain.KindInvalidInput {
		t.Fatalf("err = %v", err)
	}
}

func TestOutputURL(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"string", `"https://x.test/a.mp3"`, "https://x.test/a.mp3"},
		{"list", `["https://x.test/b.mp3","https://x.test/c.mp3"]`, "https://x.test/b.mp3"},
		{"object", `{"url":"https://x.test/d.mp3"}`, "https://x.test/d.mp3"},
		{"file scheme rejected", `"file:///tmp/a.mp3"`, ""},
		{"null", `null`, ""},
		{"empty list", `[]`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := outputURL(json.RawMessage(tc.raw)); got != tc.want {
				t.Fatalf("outputURL(%s) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNewMusicGenerator(t *testing.T) {
	gen, err := New(Options{Provider: "auto"})
	if err != nil {
		t.Fatalf("New(auto): %v", err)
	}
	if _, ok := gen.(*Local); !ok {
		t.Fatalf("auto without token should be local, got %T", gen)
	}
	_, genErr := gen.Generate(context.Background(), Request{Prompt: "x"})
	var stageErr *domain.StageError
	if !errors.As(genErr, &stageErr) || stageErr.Kind != domain.KindInvalidInput {
		t.Fatalf("local err = %v", genErr)
	}

	gen, err = New(Options{Provider: "auto", APIToken: "r8"})
	if err != nil {
		t.Fatalf("New(auto, token): %v", err)
	}
	if _, ok := gen.(*ReplicateGenerator); !ok {
		t.Fatalf("auto with token should be replicate, got %T", gen)
	}

	if _, err := New(Options{Provider: "replicate"}); err == nil {
		t.Fatal("pinned replicate without token must fail")
	}
	if _, err := New(Options{Provider: "suno"}); err == nil {
		t.Fatal("unknown provider must be rejected")
	}

	var unconfigured Unconfigured
	_, uErr := unconfigured.Generate(context.Background(), Request{Prompt: "x"})
	if !errors.As(uErr, &stageErr) || stageErr.Kind != domain.KindProviderUnavailable {
		t.Fatalf("unconfigured err = %v", uErr)
	}
}
