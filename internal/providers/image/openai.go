package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/httperr"
)

const (
	defaultOpenAIImageModel = "gpt-image-1"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultImageSize        = "1024x1024"

	// Image generation routinely runs past a minute.
	openAIImageTimeout = 120 * time.Second
)

// OpenAIOptions configure the OpenAI image adapter.
type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
}

// OpenAIGenerator calls the OpenAI images API and returns raw PNG bytes.
type OpenAIGenerator struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	httpClient   *http.Client
}

var _ Generator = (*OpenAIGenerator)(nil)

func NewOpenAI(opts OpenAIOptions) (*OpenAIGenerator, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("image: openai api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIImageModel
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: openAIImageTimeout}
	}
	return &OpenAIGenerator{
		apiKey:       apiKey,
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		httpClient:   httpClient,
	}, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Generate renders one square cover and returns its decoded bytes.
func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*domain.BinaryAsset, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.Failf(domain.StageImage, domain.KindInvalidInput, "cover title is required")
	}
	size := strings.TrimSpace(req.Size)
	if size == "" {
		size = defaultImageSize
	}

	payload := imageRequest{
		Model:  g.model,
		Prompt: coverPrompt(title, req.Description, req.Tags),
		Size:   size,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.Fail(domain.StageImage, domain.KindInvalidInput, fmt.Errorf("encode request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, domain.Fail(domain.StageImage, domain.KindInvalidInput, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	if g.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", g.organization)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.Fail(domain.StageImage, httperr.KindForTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Failf(domain.StageImage, httperr.KindForStatus(resp.StatusCode),
			"openai image: status %d: %s", resp.StatusCode, httperr.Snippet(resp.Body))
	}

	var decoded imageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, domain.Fail(domain.StageImage, domain.KindProviderUnavailable, fmt.Errorf("decode response: %w", err))
	}
	if len(decoded.Data) == 0 || strings.TrimSpace(decoded.Data[0].B64JSON) == "" {
		return nil, domain.Failf(domain.StageImage, domain.KindProviderUnavailable, "openai image: empty payload")
	}

	raw, err := base64.StdEncoding.DecodeString(decoded.Data[0].B64JSON)
	if err != nil {
		return nil, domain.Fail(domain.StageImage, domain.KindProviderUnavailable, fmt.Errorf("decode image bytes: %w", err))
	}
	return &domain.BinaryAsset{MIME: "image/png", Data: raw}, nil
}

// coverPrompt puts title and description up front, tags as vibes,
// always square.
func coverPrompt(title, description string, tags []string) string {
	return fmt.Sprintf("Album cover for a beat titled '%s'. %s Vibes: %s. Square, high-contrast, modern.",
		title, strings.TrimSpace(description), strings.Join(tags, ", "))
}
