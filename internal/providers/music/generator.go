// Package music generates the instrumental track for a beat prompt.
package music

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
	"github.com/IshanjotDhahan7868/BeatBank/internal/poll"
)

// Request carries the inputs for one track.
type Request struct {
	Prompt          string
	DurationSeconds int
	Format          domain.AudioFormat
}

// Result is the rendered track plus the duration the vendor was asked to
// honor, in seconds.
type Result struct {
	Audio          domain.BinaryAsset
	DurationActual float64
}

// Generator renders one instrumental track.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Options configure the adapter built by New.
type Options struct {
	Provider     string
	APIToken     string
	Model        string
	ModelVersion string
	BaseURL      string
	HTTPClient   *http.Client
	Poll         poll.Config
	Logger       *infra.Logger
}

// New builds the Generator named by opts.Provider. "auto" uses Replicate
// when a token is configured and otherwise the disabled local engine, so
// the failure a caller sees matches what they would get by pinning.
func New(opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "auto":
		if strings.TrimSpace(opts.APIToken) == "" {
			return NewLocal(), nil
		}
		return NewReplicate(replicateOptions(opts))
	case "replicate":
		return NewReplicate(replicateOptions(opts))
	case "local":
		return NewLocal(), nil
	default:
		return nil, fmt.Errorf("unknown music provider %q", opts.Provider)
	}
}

func replicateOptions(opts Options) ReplicateOptions {
	return ReplicateOptions{
		APIToken:     opts.APIToken,
		Model:        opts.Model,
		ModelVersion: opts.ModelVersion,
		BaseURL:      opts.BaseURL,
		HTTPClient:   opts.HTTPClient,
		Poll:         opts.Poll,
		Logger:       opts.Logger,
	}
}

// Local is the placeholder for on-box synthesis, which has never shipped.
// Every call reports the capability as disabled.
type Local struct{}

func NewLocal() *Local { return &Local{} }

var _ Generator = (*Local)(nil)

func (l *Local) Generate(ctx context.Context, _ Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, domain.Failf(domain.StageMusic, domain.KindInvalidInput, "local music generation is disabled, use the replicate provider")
}

// Unconfigured is registered under the replicate name when no API token is
// present so a pinned request fails with a clear kind instead of an
// unknown-provider error.
type Unconfigured struct{}

var _ Generator = (*Unconfigured)(nil)

func (u *Unconfigured) Generate(ctx context.Context, _ Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, domain.Failf(domain.StageMusic, domain.KindProviderUnavailable, "replicate token not configured (set REPLICATE_API_TOKEN)")
}
