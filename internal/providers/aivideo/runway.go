package aivideo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/httperr"
)

const (
	defaultRunwayBaseURL = "https://api.runwayml.com/v1"
	defaultRunwayModel   = "gen3-alpha"

	// Clip length the plan supports.
	minClipSeconds = 2
	maxClipSeconds = 30

	runwayHTTPTimeout = 60 * time.Second
)

// RunwayOptions configure the Runway adapter.
type RunwayOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Runway drives the generations API: POST to start a job, GET to poll it,
// plain GET to fetch the finished clip.
type Runway struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	logger     *infra.Logger
}

var _ Generator = (*Runway)(nil)

func NewRunway(opts RunwayOptions) (*Runway, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("aivideo: runway api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultRunwayModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultRunwayBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: runwayHTTPTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Runway{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type generationRequest struct {
	Model    string `json:"model"`
	Prompt   string `json:"prompt"`
	Duration int    `json:"duration"`
}

// generationResponse tolerates the field names different Runway plans
// return for the same things.
type generationResponse struct {
	ID           string          `json:"id"`
	JobID        string          `json:"job_id"`
	GenerationID string          `json:"generation_id"`
	Status       string          `json:"status"`
	State        string          `json:"state"`
	Output       json.RawMessage `json:"output"`
	OutputURL    string          `json:"output_url"`
	Error        string          `json:"error"`
}

func (r generationResponse) jobID() string {
	for _, id := range []string{r.ID, r.JobID, r.GenerationID} {
		if strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

func (r generationResponse) state() string {
	if s := strings.TrimSpace(r.Status); s != "" {
		return strings.ToLower(s)
	}
	return strings.ToLower(strings.TrimSpace(r.State))
}

// videoURL mirrors the delivery shapes seen in the wild: an output object
// carrying a video field wins; otherwise the flat output_url.
func (r generationResponse) videoURL() string {
	if len(r.Output) > 0 {
		var obj struct {
			Video string `json:"video"`
		}
		if err := json.Unmarshal(r.Output, &obj); err == nil {
			return strings.TrimSpace(obj.Video)
		}
	}
	return strings.TrimSpace(r.OutputURL)
}

// Submit starts a generation and returns the vendor job id.
func (r *Runway) Submit(ctx context.Context, req JobRequest) (string, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return "", domain.Failf(domain.StageAIVideo, domain.KindInvalidInput, "video prompt is required")
	}
	payload := generationRequest{
		Model:    r.model,
		Prompt:   prompt,
		Duration: clampClipSeconds(req.DurationSeconds),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", domain.Fail(domain.StageAIVideo, domain.KindInvalidInput, fmt.Errorf("encode request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/generations", bytes.NewReader(body))
	if err != nil {
		return "", domain.Fail(domain.StageAIVideo, domain.KindInvalidInput, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", domain.Fail(domain.StageAIVideo, httperr.KindForTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", domain.Failf(domain.StageAIVideo, httperr.KindForStatus(resp.StatusCode),
			"runway: status %d: %s", resp.StatusCode, httperr.Snippet(resp.Body))
	}
	var decoded generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", domain.Fail(domain.StageAIVideo, domain.KindProviderUnavailable, fmt.Errorf("decode response: %w", err))
	}
	id := decoded.jobID()
	if id == "" {
		return "", domain.Failf(domain.StageAIVideo, domain.KindProviderUnavailable, "runway: response missing job id")
	}
	r.logger.Debug().Str("job_id", id).Str("model", r.model).Msg("aivideo: job started")
	return id, nil
}

// Poll checks one job. Transport and decode problems come back as plain
// errors so the poll loop can treat them as transient.
func (r *Runway) Poll(ctx context.Context, jobID string) (JobStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/generations/"+jobID, nil)
	if err != nil {
		return JobStatus{}, fmt.Errorf("build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return JobStatus{}, fmt.Errorf("poll job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return JobStatus{}, fmt.Errorf("runway: poll status %d: %s", resp.StatusCode, httperr.Snippet(resp.Body))
	}
	var decoded generationResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return JobStatus{}, fmt.Errorf("decode poll response: %w", err)
	}

	switch decoded.state() {
	case "succeeded", "completed", "finished":
		url := decoded.videoURL()
		if url == "" {
			return JobStatus{State: StateFailed, Reason: "finished without an output url"}, nil
		}
		return JobStatus{State: StateSucceeded, VideoURL: url}, nil
	case "failed", "error", "canceled":
		reason := strings.TrimSpace(decoded.Error)
		if reason == "" {
			reason = "job " + decoded.state()
		}
		return JobStatus{State: StateFailed, Reason: reason}, nil
	default:
		return JobStatus{State: StateRunning}, nil
	}
}

// Download streams the finished clip to dest.
func (r *Runway) Download(ctx context.Context, url, dest string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Fail(domain.StageAIVideo, domain.KindInvalidInput, fmt.Errorf("build download request: %w", err))
	}
	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return domain.Fail(domain.StageAIVideo, httperr.KindForTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Failf(domain.StageAIVideo, httperr.KindForStatus(resp.StatusCode), "runway: download status %d", resp.StatusCode)
	}
	out, err := os.Create(dest)
	if err != nil {
		return domain.Fail(domain.StageAIVideo, domain.KindPersistence, fmt.Errorf("create clip file: %w", err))
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return domain.Fail(domain.StageAIVideo, domain.KindProviderUnavailable, fmt.Errorf("stream clip: %w", err))
	}
	return nil
}

func clampClipSeconds(seconds int) int {
	if seconds < minClipSeconds {
		return minClipSeconds
	}
	if seconds > maxClipSeconds {
		return maxClipSeconds
	}
	return seconds
}
