// Package handlers holds the HTTP surface of the service. Handlers stay
// thin: decode, delegate to the pipeline or the history recorder, encode.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/IshanjotDhahan7868/BeatBank/internal/artifacts"
	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/internal/infra"
	"github.com/IshanjotDhahan7868/BeatBank/internal/pipeline"
)

// App carries the wired collaborators every handler needs.
type App struct {
	Pipeline *pipeline.Pipeline
	History  domain.HistoryRecorder
	Sink     artifacts.Sink
	Logger   infra.Logger
}

func NewApp(p *pipeline.Pipeline, history domain.HistoryRecorder, sink artifacts.Sink, logger infra.Logger) *App {
	return &App{Pipeline: p, History: history, Sink: sink, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, slug, msg string) {
	a.json(w, code, map[string]string{"error": slug, "message": msg})
}
