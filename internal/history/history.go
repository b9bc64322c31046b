// Package history persists generation records to Postgres so finished
// runs stay listable and fetchable after the process that ran them.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
)

const defaultListLimit = 50

// Recorder implements domain.HistoryRecorder on the beats table. DSP
// features and the denormalized listing fields live in flat columns;
// artifact references and the per-stage report are jsonb.
type Recorder struct {
	sql infra.SQLExecutor
}

var _ domain.HistoryRecorder = (*Recorder)(nil)

func New(sql infra.SQLExecutor) *Recorder {
	return &Recorder{sql: sql}
}

// EnsureSchema creates the beats table and its indexes when missing.
// Safe to run on every boot.
func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.sql.Exec(ctx, QEnsureSchema); err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	return nil
}

func (r *Recorder) Save(ctx context.Context, rec *domain.GenerationRecord) (string, error) {
	id := rec.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	tags := rec.Tags
	if tags == nil {
		tags = []string{}
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return "", fmt.Errorf("history: encode results: %w", err)
	}

	// The dsp columns are written as a group; bpm's null-ness marks
	// whether the block is present on read.
	var (
		bpm, keyConf, energy, brightness   *float64
		dynRange, tempoStability, duration *float64
		musicalKey                         *string
	)
	if d := rec.DSP; d != nil {
		bpm = &d.BPM
		musicalKey = &d.Key
		keyConf = &d.KeyConfidence
		energy = &d.EnergyRMS
		brightness = &d.Brightness
		dynRange = &d.DynamicRange
		tempoStability = &d.TempoStability
		duration = &d.DurationSec
	}

	row := r.sql.QueryRow(ctx, QInsertBeat,
		id, rec.Prompt, rec.Title, tags, rec.Description,
		refJSON(rec.Image), refJSON(rec.Audio), refJSON(rec.AudioWAV), refJSON(rec.Visualizer), refJSON(rec.AIVideo),
		bpm, musicalKey, keyConf, energy, brightness,
		dynRange, tempoStability, duration, results, createdAt,
	)
	var saved string
	if err := row.Scan(&saved); err != nil {
		return "", fmt.Errorf("history: save record: %w", err)
	}
	return saved, nil
}

func (r *Recorder) List(ctx context.Context, limit int) ([]domain.RecordSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.sql.Query(ctx, QListBeats, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	out := make([]domain.RecordSummary, 0, limit)
	for rows.Next() {
		var (
			s          domain.RecordSummary
			imageRaw   []byte
			audioRaw   []byte
			bpm        *float64
			musicalKey *string
		)
		if err := rows.Scan(&s.ID, &s.Prompt, &s.Title, &s.Tags, &imageRaw, &audioRaw, &bpm, &musicalKey, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan summary: %w", err)
		}
		if s.Image, err = decodeRef(imageRaw); err != nil {
			return nil, err
		}
		if s.Audio, err = decodeRef(audioRaw); err != nil {
			return nil, err
		}
		if bpm != nil {
			s.BPM = *bpm
		}
		if musicalKey != nil {
			s.Key = *musicalKey
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	return out, nil
}

func (r *Recorder) Get(ctx context.Context, id string) (*domain.GenerationRecord, error) {
	// A malformed id cannot name a row.
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	var (
		rec        domain.GenerationRecord
		imageRaw   []byte
		audioRaw   []byte
		wavRaw     []byte
		vizRaw     []byte
		aiRaw      []byte
		resultsRaw []byte

		bpm, keyConf, energy, brightness   *float64
		dynRange, tempoStability, duration *float64
		musicalKey                         *string
	)
	row := r.sql.QueryRow(ctx, QGetBeat, id)
	err := row.Scan(
		&rec.ID, &rec.Prompt, &rec.Title, &rec.Tags, &rec.Description,
		&imageRaw, &audioRaw, &wavRaw, &vizRaw, &aiRaw,
		&bpm, &musicalKey, &keyConf, &energy, &brightness,
		&dynRange, &tempoStability, &duration, &resultsRaw, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("history: get %s: %w", id, err)
	}

	if rec.Image, err = decodeRef(imageRaw); err != nil {
		return nil, err
	}
	if rec.Audio, err = decodeRef(audioRaw); err != nil {
		return nil, err
	}
	if rec.AudioWAV, err = decodeRef(wavRaw); err != nil {
		return nil, err
	}
	if rec.Visualizer, err = decodeRef(vizRaw); err != nil {
		return nil, err
	}
	if rec.AIVideo, err = decodeRef(aiRaw); err != nil {
		return nil, err
	}
	if bpm != nil {
		rec.DSP = &domain.DSPFeatures{
			BPM:            *bpm,
			Key:            strOr(musicalKey),
			KeyConfidence:  floatOr(keyConf),
			EnergyRMS:      floatOr(energy),
			Brightness:     floatOr(brightness),
			DynamicRange:   floatOr(dynRange),
			TempoStability: floatOr(tempoStability),
			DurationSec:    floatOr(duration),
		}
	}
	if len(resultsRaw) > 0 {
		if err := json.Unmarshal(resultsRaw, &rec.Results); err != nil {
			return nil, fmt.Errorf("history: decode results: %w", err)
		}
	}
	return &rec, nil
}

// refJSON encodes an artifact reference for a jsonb column, nil for NULL.
// A struct of three strings cannot fail to marshal.
func refJSON(ref *domain.ArtifactRef) []byte {
	if ref == nil {
		return nil
	}
	b, _ := json.Marshal(ref)
	return b
}

func decodeRef(raw []byte) (*domain.ArtifactRef, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ref domain.ArtifactRef
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, fmt.Errorf("history: decode artifact ref: %w", err)
	}
	return &ref, nil
}

func floatOr(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func strOr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
