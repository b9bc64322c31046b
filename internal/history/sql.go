package history

// QEnsureSchema bootstraps the beats table. Statements run via the
// simple protocol (no parameters), so several may share one exec.
const QEnsureSchema = `--sql 7c1f83be-5a21-4e8a-9d3c-0b5e2f9a6d41
CREATE TABLE IF NOT EXISTS beats (
  id              uuid PRIMARY KEY,
  prompt          text NOT NULL,
  title           text NOT NULL,
  tags            text[] NOT NULL DEFAULT '{}',
  description     text NOT NULL DEFAULT '',
  image_ref       jsonb,
  audio_ref       jsonb,
  audio_wav_ref   jsonb,
  visualizer_ref  jsonb,
  ai_video_ref    jsonb,
  bpm             double precision,
  musical_key     text,
  key_confidence  double precision,
  energy_rms      double precision,
  brightness      double precision,
  dynamic_range   double precision,
  tempo_stability double precision,
  duration_sec    double precision,
  results         jsonb NOT NULL DEFAULT '[]',
  created_at      timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS beats_created_at_idx ON beats (created_at DESC);
`

const QInsertBeat = `--sql 3e9d1c70-84fb-4a65-b210-9c3d5e7f8a02
INSERT INTO beats (
  id, prompt, title, tags, description,
  image_ref, audio_ref, audio_wav_ref, visualizer_ref, ai_video_ref,
  bpm, musical_key, key_confidence, energy_rms, brightness,
  dynamic_range, tempo_stability, duration_sec, results, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
RETURNING id;
`

const QListBeats = `--sql a4b82d19-6c3e-4f07-8e51-2d9b0c4a7e63
SELECT id, prompt, title, tags, image_ref, audio_ref, bpm, musical_key, created_at
FROM beats
ORDER BY created_at DESC, id
LIMIT $1;
`

const QGetBeat = `--sql 5f0a92c4-1d7b-4c38-a6e9-8b2f4d0c3e15
SELECT id, prompt, title, tags, description,
       image_ref, audio_ref, audio_wav_ref, visualizer_ref, ai_video_ref,
       bpm, musical_key, key_confidence, energy_rms, brightness,
       dynamic_range, tempo_stability, duration_sec, results, created_at
FROM beats
WHERE id = $1;
`
