package dsp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
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

func writeTempAudio(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func newRemoteForTest(rt roundTripFunc) *Remote {
	return NewRemote(Options{HTTPClient: &http.Client{Transport: rt}})
}

func formFile(t *testing.T, req *http.Request) (string, []byte) {
	t.Helper()
	_, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil {
		t.Fatalf("parse content type: %v", err)
	}
	reader := multipart.NewReader(req.Body, params["boundary"])
	part, err := reader.NextPart()
	if err != nil {
		t.Fatalf("read multipart: %v", err)
	}
	data, err := io.ReadAll(part)
	if err != nil {
		t.Fatalf("read part: %v", err)
	}
	return part.FormName(), data
}

func TestRemoteAnalyzeDecodesFeatures(t *testing.T) {
	audio := []byte("ID3\x04fake")
	path := writeTempAudio(t, audio)

	var uploadedName string
	var uploadedBytes []byte
	remote := newRemoteForTest(func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/analyze" {
			t.Fatalf("path = %q", req.URL.Path)
		}
		uploadedName, uploadedBytes = formFile(t, req)
		return jsonResponse(http.StatusOK, `{
			"bpm": 140.2, "key": "F#", "key_confidence": 0.81,
			"energy_rms": 0.21, "brightness": 2034.7, "dynamic_range": 0.34,
			"tempo_stability": 0.93, "duration_sec": 30.04
		}`), nil
	})

	got, err := remote.Analyze(context.Background(), path)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if uploadedName != "file" {
		t.Fatalf("form field = %q", uploadedName)
	}
	if !bytes.Equal(uploadedBytes, audio) {
		t.Fatalf("uploaded bytes = %q", uploadedBytes)
	}
	want := domain.DSPFeatures{
		BPM: 140.2, Key: "F#", KeyConfidence: 0.81,
		EnergyRMS: 0.21, Brightness: 2034.7, DynamicRange: 0.34,
		TempoStability: 0.93, DurationSec: 30.04,
	}
	if *got != want {
		t.Fatalf("features = %+v", *got)
	}
}

func TestRemoteAnalyzeReportsAnalyzerError(t *testing.T) {
	path := writeTempAudio(t, []byte("not really audio"))
	remote := newRemoteForTest(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"error":"could not decode audio stream"}`), nil
	})
	_, err := remote.Analyze(context.Background(), path)
	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("error type = %T (%v)", err, err)
	}
	if stageErr.Stage != domain.StageDSP || stageErr.Kind != domain.KindInvalidInput {
		t.Fatalf("stage/kind = %q/%q", stageErr.Stage, stageErr.Kind)
	}
	if !strings.Contains(err.Error(), "could not decode audio stream") {
		t.Fatalf("error should carry the analyzer reason: %v", err)
	}
}

func TestRemoteAnalyzeClassifiesStatuses(t *testing.T) {
	cases := []struct {
		status int
		kind   domain.ErrorKind
	}{
		{http.StatusInternalServerError, domain.KindProviderUnavailable},
		{http.StatusTooManyRequests, domain.KindRateLimited},
		{http.StatusUnprocessableEntity, domain.KindInvalidInput},
	}
	for _, tc := range cases {
		path := writeTempAudio(t, []byte("x"))
		remote := newRemoteForTest(func(req *http.Request) (*http.Response, error) {
			return jsonResponse(tc.status, `{"detail":"nope"}`), nil
		})
		_, err := remote.Analyze(context.Background(), path)
		var stageErr *domain.StageError
		if !errors.As(err, &stageErr) || stageErr.Kind != tc.kind {
			t.Fatalf("status %d: err = %v, want kind %q", tc.status, err, tc.kind)
		}
	}
}

func TestRemoteAnalyzeMissingFile(t *testing.T) {
	remote := newRemoteForTest(func(req *http.Request) (*http.Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})
	_, err := remote.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Kind != domain.KindInvalidInput {
		t.Fatalf("err = %v", err)
	}
}
