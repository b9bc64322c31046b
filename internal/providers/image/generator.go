// Package image produces square cover art for a beat's branding block.
package image

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

// Request carries the branding fields the cover prompt is built from.
// Title is required; tags and description degrade to empty segments.
type Request struct {
	Title       string
	Tags        []string
	Description string
	Size        string
}

// Generator renders one cover image for a beat.
type Generator interface {
	Generate(ctx context.Context, req Request) (*domain.BinaryAsset, error)
}

// Options configure the adapter built by New.
type Options struct {
	Provider     string
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
}

// New builds the Generator named by opts.Provider. "auto" uses OpenAI when
// a key is configured and otherwise degrades to an Unconfigured generator
// whose failures the run records like any other stage miss.
func New(opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "auto":
		if strings.TrimSpace(opts.APIKey) == "" {
			return &Unconfigured{}, nil
		}
		return NewOpenAI(OpenAIOptions{
			APIKey:       opts.APIKey,
			Model:        opts.Model,
			BaseURL:      opts.BaseURL,
			Organization: opts.Organization,
			HTTPClient:   opts.HTTPClient,
		})
	case "openai":
		return NewOpenAI(OpenAIOptions{
			APIKey:       opts.APIKey,
			Model:        opts.Model,
			BaseURL:      opts.BaseURL,
			Organization: opts.Organization,
			HTTPClient:   opts.HTTPClient,
		})
	default:
		return nil, fmt.Errorf("unknown image provider %q", opts.Provider)
	}
}

// Unconfigured stands in when no vendor key is present. Every call returns
// a provider_unavailable stage error so the pipeline records the miss and
// keeps going.
type Unconfigured struct{}

var _ Generator = (*Unconfigured)(nil)

func (u *Unconfigured) Generate(ctx context.Context, _ Request) (*domain.BinaryAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, domain.Failf(domain.StageImage, domain.KindProviderUnavailable, "no image provider configured (set OPENAI_API_KEY)")
}
