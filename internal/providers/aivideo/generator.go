// Package aivideo generates a short AI video clip for a beat. The vendor
// contract is split into submit, poll, and download so the caller owns
// the polling cadence and can cancel between checks.
package aivideo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
)

// JobRequest starts one generation.
type JobRequest struct {
	Prompt          string
	DurationSeconds int
}

// JobState is the normalized lifecycle of a vendor job.
type JobState string

const (
	StateRunning   JobState = "running"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
)

// JobStatus is one poll answer. Reason carries the vendor's detail when
// State is failed.
type JobStatus struct {
	State    JobState
	VideoURL string
	Reason   string
}

// Generator is the vendor port.
type Generator interface {
	Submit(ctx context.Context, req JobRequest) (string, error)
	Poll(ctx context.Context, jobID string) (JobStatus, error)
	Download(ctx context.Context, url, dest string) error
}

// Options configure the adapter built by New.
type Options struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// New builds the Generator named by opts.Provider. "auto" degrades to an
// Unconfigured generator when no key is present.
func New(opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", "auto":
		if strings.TrimSpace(opts.APIKey) == "" {
			return &Unconfigured{}, nil
		}
		return NewRunway(runwayOptions(opts))
	case "runway":
		return NewRunway(runwayOptions(opts))
	default:
		return nil, fmt.Errorf("unknown ai video provider %q", opts.Provider)
	}
}

func runwayOptions(opts Options) RunwayOptions {
	return RunwayOptions{
		APIKey:     opts.APIKey,
		Model:      opts.Model,
		BaseURL:    opts.BaseURL,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	}
}

// Unconfigured stands in when no vendor key is present.
type Unconfigured struct{}

var _ Generator = (*Unconfigured)(nil)

func (u *Unconfigured) Submit(ctx context.Context, _ JobRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", domain.Failf(domain.StageAIVideo, domain.KindProviderUnavailable, "no ai video provider configured (set RUNWAY_API_KEY)")
}

func (u *Unconfigured) Poll(ctx context.Context, _ string) (JobStatus, error) {
	if err := ctx.Err(); err != nil {
		return JobStatus{}, err
	}
	return JobStatus{}, domain.Failf(domain.StageAIVideo, domain.KindProviderUnavailable, "no ai video provider configured (set RUNWAY_API_KEY)")
}

func (u *Unconfigured) Download(ctx context.Context, _, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return domain.Failf(domain.StageAIVideo, domain.KindProviderUnavailable, "no ai video provider configured (set RUNWAY_API_KEY)")
}
