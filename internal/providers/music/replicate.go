package music

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
	"github.com/IshanjotDhahan7868/BeatBank/internal/poll"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/httperr"
)

const (
	defaultReplicateBaseURL = "https://api.replicate.com/v1"
	defaultReplicateModel   = "elevenlabs/music"

	minTrackSeconds = 1
	maxTrackSeconds = 300

	// Per-call timeout; the end-to-end wait is bounded by the poll config.
	replicateHTTPTimeout = 60 * time.Second
)

// ReplicateOptions configure the Replicate adapter.
type ReplicateOptions struct {
	APIToken     string
	Model        string
	ModelVersion string
	BaseURL      string
	HTTPClient   *http.Client
	Poll         poll.Config
	Logger       *infra.Logger
}

// ReplicateGenerator runs the music model on Replicate: create a
// prediction, poll it to a terminal state, download the output file.
type ReplicateGenerator struct {
	apiToken   string
	model      string
	version    string
	baseURL    string
	httpClient *http.Client
	poller     *poll.Poller
	logger     *infra.Logger
}

var _ Generator = (*ReplicateGenerator)(nil)

func NewReplicate(opts ReplicateOptions) (*ReplicateGenerator, error) {
	token := strings.TrimSpace(opts.APIToken)
	if token == "" {
		return nil, errors.New("music: replicate api token is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultReplicateModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultReplicateBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: replicateHTTPTimeout}
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &ReplicateGenerator{
		apiToken:   token,
		model:      model,
		version:    strings.TrimSpace(opts.ModelVersion),
		baseURL:    baseURL,
		httpClient: httpClient,
		poller:     poll.New(opts.Poll),
		logger:     logger,
	}, nil
}

type predictionInput struct {
	Prompt            string `json:"prompt"`
	OutputFormat      string `json:"output_format"`
	MusicLengthMS     int    `json:"music_length_ms"`
	ForceInstrumental bool   `json:"force_instrumental"`
}

type predictionRequest struct {
	Version string          `json:"version,omitempty"`
	Input   predictionInput `json:"input"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

// Generate renders one instrumental track and returns its raw bytes.
func (g *ReplicateGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, domain.Failf(domain.StageMusic, domain.KindInvalidInput, "track prompt is required")
	}
	seconds := clampSeconds(req.DurationSeconds)
	format, mime := vendorFormat(req.Format)

	created, err := g.createPrediction(ctx, predictionInput{
		Prompt:            prompt,
		OutputFormat:      format,
		MusicLengthMS:     seconds * 1000,
		ForceInstrumental: true,
	})
	if err != nil {
		return nil, err
	}
	g.logger.Debug().
		Str("model", g.modelRef()).
		Str("prediction_id", created.ID).
		Int("duration_sec", seconds).
		Str("output_format", format).
		Msg("music: prediction created")

	final := created
	if !terminalPrediction(created.Status) {
		job := &poll.Job{ExternalID: created.ID, Status: poll.StatusQueued}
		err := g.poller.Await(ctx, job, func(ctx context.Context) (poll.Status, error) {
			p, err := g.fetchPrediction(ctx, created.ID)
			if err != nil {
				return poll.StatusRunning, err
			}
			final = p
			switch p.Status {
			case "succeeded":
				return poll.StatusSucceeded, nil
			case "failed", "canceled":
				return poll.StatusFailed, fmt.Errorf("replicate: prediction %s: %s", p.Status, predictionError(p))
			default:
				return poll.StatusRunning, nil
			}
		})
		if err != nil {
			return nil, domain.Fail(domain.StageMusic, pollKind(err), err)
		}
	} else if final.Status != "succeeded" {
		return nil, domain.Failf(domain.StageMusic, domain.KindProviderUnavailable,
			"replicate: prediction %s: %s", final.Status, predictionError(final))
	}

	url := outputURL(final.Output)
	if url == "" {
		return nil, domain.Failf(domain.StageMusic, domain.KindProviderUnavailable, "replicate: output missing a downloadable url")
	}
	data, err := g.download(ctx, url)
	if err != nil {
		return nil, err
	}
	return &Result{
		Audio:          domain.BinaryAsset{MIME: mime, Data: data},
		DurationActual: float64(seconds),
	}, nil
}

func (g *ReplicateGenerator) createPrediction(ctx context.Context, input predictionInput) (prediction, error) {
	endpoint := g.baseURL + "/models/" + g.model + "/predictions"
	payload := predictionRequest{Input: input}
	if g.version != "" {
		endpoint = g.baseURL + "/predictions"
		payload.Version = g.version
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return prediction{}, domain.Fail(domain.StageMusic, domain.KindInvalidInput, fmt.Errorf("encode request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return prediction{}, domain.Fail(domain.StageMusic, domain.KindInvalidInput, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiToken)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return prediction{}, domain.Fail(domain.StageMusic, httperr.KindForTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return prediction{}, domain.Failf(domain.StageMusic, httperr.KindForStatus(resp.StatusCode),
			"replicate: status %d: %s", resp.StatusCode, httperr.Snippet(resp.Body))
	}
	var created prediction
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return prediction{}, domain.Fail(domain.StageMusic, domain.KindProviderUnavailable, fmt.Errorf("decode response: %w", err))
	}
	if strings.TrimSpace(created.ID) == "" {
		return prediction{}, domain.Failf(domain.StageMusic, domain.KindProviderUnavailable, "replicate: prediction id missing")
	}
	return created, nil
}

// fetchPrediction returns plain errors so the poller can treat them as
// transient; classification happens once the poll loop gives up.
func (g *ReplicateGenerator) fetchPrediction(ctx context.Context, id string) (prediction, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return prediction{}, fmt.Errorf("build poll request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiToken)

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return prediction{}, fmt.Errorf("poll prediction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return prediction{}, fmt.Errorf("replicate: poll status %d: %s", resp.StatusCode, httperr.Snippet(resp.Body))
	}
	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return prediction{}, fmt.Errorf("decode poll response: %w", err)
	}
	return p, nil
}

func (g *ReplicateGenerator) download(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.Fail(domain.StageMusic, domain.KindInvalidInput, fmt.Errorf("build download request: %w", err))
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.Fail(domain.StageMusic, httperr.KindForTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Failf(domain.StageMusic, httperr.KindForStatus(resp.StatusCode), "replicate: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Fail(domain.StageMusic, domain.KindProviderUnavailable, fmt.Errorf("read track: %w", err))
	}
	return data, nil
}

func (g *ReplicateGenerator) modelRef() string {
	if g.version != "" {
		return g.model + ":" + g.version
	}
	return g.model
}

func clampSeconds(seconds int) int {
	if seconds < minTrackSeconds {
		return minTrackSeconds
	}
	if seconds > maxTrackSeconds {
		return maxTrackSeconds
	}
	return seconds
}

// vendorFormat maps the requested audio format to the model's
// output_format plus the MIME type of the downloaded file. A "both"
// request fetches mp3; the wav twin is transcoded locally afterwards.
func vendorFormat(f domain.AudioFormat) (string, string) {
	if f == domain.FormatWAV {
		return "wav", "audio/wav"
	}
	return "mp3_high_quality", "audio/mpeg"
}

func terminalPrediction(status string) bool {
	switch status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

func pollKind(err error) domain.ErrorKind {
	if errors.Is(err, poll.ErrTimedOut) {
		return domain.KindPollTimedOut
	}
	return domain.Classify(err)
}

func outputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return validHTTPURL(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if u := validHTTPURL(item); u != "" {
				return u
			}
		}
		return ""
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return validHTTPURL(obj.URL)
	}
	return ""
}

func validHTTPURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	return ""
}

func predictionError(p prediction) string {
	if len(p.Error) > 0 {
		var s string
		if err := json.Unmarshal(p.Error, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		trimmed := strings.TrimSpace(string(p.Error))
		if trimmed != "" && trimmed != "null" {
			return trimmed
		}
	}
	return "no error detail"
}
