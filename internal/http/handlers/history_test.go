package handlers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/IshanjotDhahan7868/BeatBank/internal/artifacts"
	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

func seedRecord(t *testing.T, ta *testApp, id, title string) *domain.GenerationRecord {
	t.Helper()
	rec := &domain.GenerationRecord{
		ID:        id,
		Prompt:    "dark ambient trap beat",
		Title:     title,
		Tags:      []string{"trap"},
		Results:   []domain.StageResult{{Stage: domain.StageMetadata, Metadata: &domain.BeatMetadata{Title: title}}},
		CreatedAt: time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	if _, err := ta.recorder.Save(context.Background(), rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return rec
}

func storeArtifact(t *testing.T, ta *testApp, kind domain.ArtifactKind, ext string, data []byte) *domain.ArtifactRef {
	t.Helper()
	ref, err := ta.sink.Store(context.Background(), artifacts.StoreRequest{
		Kind:  kind,
		Title: "Neon Drift",
		Ext:   ext,
		Data:  data,
	})
	if err != nil {
		t.Fatalf("store artifact: %v", err)
	}
	return ref
}

func TestHistoryListReturnsNewestFirst(t *testing.T) {
	ta := newTestApp(t)
	seedRecord(t, ta, "11111111-1111-4111-8111-111111111111", "First Beat")
	seedRecord(t, ta, "22222222-2222-4222-8222-222222222222", "Second Beat")

	rr := httptest.NewRecorder()
	ta.app.HistoryList(rr, httptest.NewRequest(http.MethodGet, "/api/history?limit=10", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want 200", rr.Code)
	}
	var payload struct {
		Items []domain.RecordSummary `json:"items"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(payload.Items))
	}
	if payload.Items[0].Title != "Second Beat" {
		t.Fatalf("expected newest first, got %q", payload.Items[0].Title)
	}
	if ta.recorder.lastLimit != 10 {
		t.Fatalf("expected limit 10 passed through, got %d", ta.recorder.lastLimit)
	}
}

func TestHistoryListOmittedLimitDelegatesDefault(t *testing.T) {
	ta := newTestApp(t)

	rr := httptest.NewRecorder()
	ta.app.HistoryList(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want 200", rr.Code)
	}
	if ta.recorder.lastLimit != 0 {
		t.Fatalf("expected zero limit for recorder default, got %d", ta.recorder.lastLimit)
	}
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Fatalf("empty history must encode as an empty array, got %s", rr.Body.String())
	}
}

func TestHistoryListRejectsBadLimit(t *testing.T) {
	ta := newTestApp(t)

	for _, raw := range []string{"abc", "-1", "1.5"} {
		rr := httptest.NewRecorder()
		ta.app.HistoryList(rr, httptest.NewRequest(http.MethodGet, "/api/history?limit="+raw, nil))
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("limit %q: got %d, want 400", raw, rr.Code)
		}
	}
}

func TestHistoryDetailReturnsRecord(t *testing.T) {
	ta := newTestApp(t)
	rec := seedRecord(t, ta, "33333333-3333-4333-8333-333333333333", "Neon Drift")

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/detail/"+rec.ID, nil), "id", rec.ID)
	ta.app.HistoryDetail(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want 200", rr.Code)
	}
	var got domain.GenerationRecord
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if got.ID != rec.ID || got.Title != rec.Title {
		t.Fatalf("unexpected record %+v", got)
	}
	if len(got.Results) != 1 || got.Results[0].Stage != domain.StageMetadata {
		t.Fatalf("unexpected results %+v", got.Results)
	}
}

func TestHistoryDetailNotFound(t *testing.T) {
	ta := newTestApp(t)

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/detail/missing", nil), "id", "missing")
	ta.app.HistoryDetail(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d, want 404", rr.Code)
	}
	if slug, _ := decodeError(t, rr); slug != "not_found" {
		t.Fatalf("unexpected error slug %q", slug)
	}
}

func TestHistoryBundleStreamsArchive(t *testing.T) {
	ta := newTestApp(t)
	rec := &domain.GenerationRecord{
		ID:    "44444444-4444-4444-8444-444444444444",
		Title: "Neon Drift",
		Image: storeArtifact(t, ta, domain.ArtifactImage, "png", []byte("png-bytes")),
		Audio: storeArtifact(t, ta, domain.ArtifactAudio, "mp3", []byte("mp3-bytes")),
	}
	if _, err := ta.recorder.Save(context.Background(), rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/detail/"+rec.ID+"/bundle", nil), "id", rec.ID)
	ta.app.HistoryBundle(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "beat-"+rec.ID+".zip") {
		t.Fatalf("unexpected disposition %q", cd)
	}

	body := rr.Body.Bytes()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(zr.File))
	}
	exts := map[string]bool{}
	for _, f := range zr.File {
		if strings.Contains(f.Name, "/") {
			t.Fatalf("archive entry %q must be a base name", f.Name)
		}
		dot := strings.LastIndex(f.Name, ".")
		exts[f.Name[dot+1:]] = true
	}
	if !exts["png"] || !exts["mp3"] {
		t.Fatalf("expected png and mp3 entries, got %v", exts)
	}
}

func TestHistoryBundleWithoutArtifacts(t *testing.T) {
	ta := newTestApp(t)
	rec := seedRecord(t, ta, "55555555-5555-4555-8555-555555555555", "Empty Beat")

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/detail/"+rec.ID+"/bundle", nil), "id", rec.ID)
	ta.app.HistoryBundle(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d, want 404", rr.Code)
	}
	if _, msg := decodeError(t, rr); !strings.Contains(msg, "no stored artifacts") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHistoryBundlePrunedFiles(t *testing.T) {
	ta := newTestApp(t)
	rec := &domain.GenerationRecord{
		ID:    "66666666-6666-4666-8666-666666666666",
		Title: "Pruned Beat",
		Audio: storeArtifact(t, ta, domain.ArtifactAudio, "mp3", []byte("mp3-bytes")),
	}
	if _, err := ta.recorder.Save(context.Background(), rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := os.Remove(ta.sink.Path(rec.Audio)); err != nil {
		t.Fatalf("remove artifact: %v", err)
	}

	rr := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/detail/"+rec.ID+"/bundle", nil), "id", rec.ID)
	ta.app.HistoryBundle(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d, want 404", rr.Code)
	}
	if _, msg := decodeError(t, rr); !strings.Contains(msg, "no longer on disk") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestHealth(t *testing.T) {
	ta := newTestApp(t)

	rr := httptest.NewRecorder()
	ta.app.Health(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d, want 200", rr.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["status"] != "ok" || payload["service"] != "beatbank" {
		t.Fatalf("unexpected payload %v", payload)
	}
}
