// Package metadata produces the branding block (title, tags,
// description) for a beat prompt.
package metadata

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

// Generator turns a beat description into branding metadata.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*domain.BeatMetadata, error)
}

const (
	openAIProviderName = "openai"
	staticProviderName = "static"
)

// Options configure the provider chain built by New.
type Options struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	OnFallback   func(reason string, err error)
}

// New builds the Generator named by opts.Provider. "auto" prefers OpenAI
// when a key is configured and degrades to the static generator on vendor
// failure; a pinned provider fails hard so the caller's retry policy sees
// the real error.
func New(opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "auto":
		if strings.TrimSpace(opts.APIKey) == "" {
			return NewStatic(), nil
		}
		primary, err := NewOpenAI(OpenAIOptions{
			APIKey:       opts.APIKey,
			Model:        opts.Model,
			BaseURL:      opts.BaseURL,
			Organization: opts.Organization,
			HTTPClient:   opts.HTTPClient,
		})
		if err != nil {
			return nil, err
		}
		return &Fallback{Primary: primary, Secondary: NewStatic(), OnFallback: opts.OnFallback}, nil
	case openAIProviderName:
		return NewOpenAI(OpenAIOptions{
			APIKey:       opts.APIKey,
			Model:        opts.Model,
			BaseURL:      opts.BaseURL,
			Organization: opts.Organization,
			HTTPClient:   opts.HTTPClient,
		})
	case staticProviderName:
		return NewStatic(), nil
	default:
		return nil, fmt.Errorf("unknown metadata provider %q", opts.Provider)
	}
}

// Unconfigured is registered under the openai name when no API key is
// present so a pinned request fails with a clear kind instead of an
// unknown-provider error.
type Unconfigured struct{}

var _ Generator = (*Unconfigured)(nil)

func (u *Unconfigured) Generate(ctx context.Context, _ string) (*domain.BeatMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, domain.Failf(domain.StageMetadata, domain.KindProviderUnavailable, "openai key not configured (set OPENAI_API_KEY)")
}

// Fallback tries Primary and answers from Secondary when Primary fails
// for any reason other than context cancellation.
type Fallback struct {
	Primary    Generator
	Secondary  Generator
	OnFallback func(reason string, err error)
}

var _ Generator = (*Fallback)(nil)

func (f *Fallback) Generate(ctx context.Context, prompt string) (*domain.BeatMetadata, error) {
	md, err := f.Primary.Generate(ctx, prompt)
	if err == nil {
		return md, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}
	if f.OnFallback != nil {
		f.OnFallback(string(domain.Classify(err)), err)
	}
	return f.Secondary.Generate(ctx, prompt)
}
