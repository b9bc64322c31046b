// Package dsp extracts musical features from a rendered track by calling
// the analyzer sidecar service.
package dsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/httperr"
)

// Analyzer measures a finished track. Implementations must be pure: the
// same audio in, the same features out.
type Analyzer interface {
	Analyze(ctx context.Context, audioPath string) (*domain.DSPFeatures, error)
}

const (
	defaultAnalyzerBaseURL = "http://localhost:8100"
	analyzePath            = "/analyze"

	// A full five-minute wav takes the analyzer a while to chew through.
	analyzeTimeout = 120 * time.Second
)

// Options configure the remote analyzer client.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Remote uploads the audio file to the analyzer service and maps the
// feature JSON onto the domain block.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

var _ Analyzer = (*Remote)(nil)

func NewRemote(opts Options) *Remote {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAnalyzerBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: analyzeTimeout}
	}
	return &Remote{baseURL: baseURL, httpClient: httpClient}
}

type analyzeResponse struct {
	domain.DSPFeatures
	Error string `json:"error"`
}

func (r *Remote) Analyze(ctx context.Context, audioPath string) (*domain.DSPFeatures, error) {
	path := strings.TrimSpace(audioPath)
	if path == "" {
		return nil, domain.Failf(domain.StageDSP, domain.KindInvalidInput, "audio path is required")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, domain.Fail(domain.StageDSP, domain.KindInvalidInput, fmt.Errorf("open audio: %w", err))
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	field, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, domain.Fail(domain.StageDSP, domain.KindInvalidInput, fmt.Errorf("create file field: %w", err))
	}
	if _, err := io.Copy(field, file); err != nil {
		return nil, domain.Fail(domain.StageDSP, domain.KindInvalidInput, fmt.Errorf("copy audio: %w", err))
	}
	if err := writer.Close(); err != nil {
		return nil, domain.Fail(domain.StageDSP, domain.KindInvalidInput, fmt.Errorf("close multipart writer: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+analyzePath, body)
	if err != nil {
		return nil, domain.Fail(domain.StageDSP, domain.KindInvalidInput, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.Fail(domain.StageDSP, httperr.KindForTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Failf(domain.StageDSP, httperr.KindForStatus(resp.StatusCode),
			"analyzer: status %d: %s", resp.StatusCode, httperr.Snippet(resp.Body))
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, domain.Fail(domain.StageDSP, domain.KindProviderUnavailable, fmt.Errorf("decode response: %w", err))
	}
	if decoded.Error != "" {
		return nil, domain.Failf(domain.StageDSP, domain.KindInvalidInput, "analyzer: %s", decoded.Error)
	}
	features := decoded.DSPFeatures
	return &features, nil
}
