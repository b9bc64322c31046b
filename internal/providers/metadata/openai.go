package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/providers/httperr"
)

const (
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	openAIDefaultTimeout = 30 * time.Second

	systemPrompt = "You are a creative music branding assistant. " +
		"Given a beat description, output compact JSON with keys: " +
		"title, tags, description. Respond with JSON only."
)

// OpenAIOptions configure the chat-completions adapter.
type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
}

// OpenAIGenerator asks a chat model for branding metadata. Non-JSON
// answers are salvaged rather than failed: the raw text becomes the
// title/description and the tags fall back to a stock pair.
type OpenAIGenerator struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	client       *http.Client
}

var _ Generator = (*OpenAIGenerator)(nil)

func NewOpenAI(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIGenerator{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAIGenerator) Generate(ctx context.Context, prompt string) (*domain.BeatMetadata, error) {
	payload := chatRequest{
		Model:       o.model,
		Temperature: 0.9,
		MaxTokens:   200,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, domain.Failf(domain.StageMetadata, domain.KindInvalidInput, "encode request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", &buf)
	if err != nil {
		return nil, domain.Failf(domain.StageMetadata, domain.KindInvalidInput, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		req.Header.Set("OpenAI-Organization", o.organization)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, domain.Fail(domain.StageMetadata, httperr.KindForTransport(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, domain.Failf(domain.StageMetadata, httperr.KindForStatus(resp.StatusCode),
			"openai status %d: %s", resp.StatusCode, httperr.Snippet(resp.Body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, domain.Failf(domain.StageMetadata, domain.KindProviderUnavailable, "decode response: %v", err)
	}
	if len(out.Choices) == 0 {
		return nil, domain.Failf(domain.StageMetadata, domain.KindProviderUnavailable, "openai returned no choices")
	}
	raw := strings.TrimSpace(out.Choices[0].Message.Content)
	if raw == "" {
		return nil, domain.Failf(domain.StageMetadata, domain.KindProviderUnavailable, "openai returned empty content")
	}
	return parseMetadata(raw), nil
}

type metadataPayload struct {
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

// parseMetadata decodes the model's JSON, salvaging free-form answers
// into usable metadata instead of failing the stage.
func parseMetadata(raw string) *domain.BeatMetadata {
	text := trimCodeFence(raw)
	var parsed metadataPayload
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return &domain.BeatMetadata{
			Title:       coalesce(clampRunes(raw, 40), "Untitled"),
			Tags:        []string{"ai", "beat"},
			Description: clampRunes(raw, 160),
		}
	}
	md := &domain.BeatMetadata{
		Title:       coalesce(strings.TrimSpace(parsed.Title), clampRunes(raw, 40), "Untitled"),
		Tags:        normalizeTags(parsed.Tags),
		Description: coalesce(strings.TrimSpace(parsed.Description), clampRunes(raw, 160)),
	}
	if len(md.Tags) == 0 {
		md.Tags = []string{"ai", "beat"}
	}
	return md
}

// trimCodeFence strips a ```json ... ``` wrapper some models insist on.
func trimCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	}
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

func normalizeTags(tags []string) []string {
	const maxTags = 8
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func clampRunes(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
