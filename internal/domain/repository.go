package domain

import (
	"context"
	"time"
)

// RecordSummary is the listing projection of a GenerationRecord: enough
// for a history page without the per-stage detail.
type RecordSummary struct {
	ID        string       `json:"id"`
	Prompt    string       `json:"prompt"`
	Title     string       `json:"title"`
	Tags      []string     `json:"tags"`
	Image     *ArtifactRef `json:"image,omitempty"`
	Audio     *ArtifactRef `json:"audio,omitempty"`
	BPM       float64      `json:"bpm,omitempty"`
	Key       string       `json:"key,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// HistoryRecorder persists finished runs. Save failures are fatal for
// the request: a result that cannot be saved cannot be served later.
type HistoryRecorder interface {
	// Save stores the record and returns its id.
	Save(ctx context.Context, rec *GenerationRecord) (string, error)
	// List returns the newest records first, at most limit of them.
	List(ctx context.Context, limit int) ([]RecordSummary, error)
	// Get returns one record by id, ErrNotFound when absent.
	Get(ctx context.Context, id string) (*GenerationRecord, error)
}
