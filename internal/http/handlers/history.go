package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
	"github.com/IshanjotDhahan7868/BeatBank/pkg/zip"
)

// HistoryList returns saved runs newest first. The optional limit query
// parameter caps the page; the recorder applies its default otherwise.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	items, err := a.History.List(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("history list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load history")
		return
	}
	if items == nil {
		items = []domain.RecordSummary{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// HistoryDetail returns one saved run in full.
func (a *App) HistoryDetail(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.loadRecord(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, rec)
}

// HistoryBundle streams every stored artifact of one run as a single zip
// download.
func (a *App) HistoryBundle(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.loadRecord(w, r)
	if !ok {
		return
	}
	entries := a.bundleEntries(rec)
	if len(entries) == 0 {
		a.error(w, http.StatusNotFound, "not_found", "beat has no stored artifacts")
		return
	}
	archive, err := zip.Archive(entries)
	if errors.Is(err, zip.ErrNoFiles) {
		a.error(w, http.StatusNotFound, "not_found", "artifact files are no longer on disk")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("bundle archive failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=beat-%s.zip", rec.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) loadRecord(w http.ResponseWriter, r *http.Request) (*domain.GenerationRecord, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return nil, false
	}
	rec, err := a.History.Get(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		a.error(w, http.StatusNotFound, "not_found", "beat not found")
		return nil, false
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("history detail failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load beat")
		return nil, false
	}
	return rec, true
}

// bundleEntries flattens the record's artifact refs onto archive names.
// Keys are unique per run, so base names cannot collide inside one zip.
func (a *App) bundleEntries(rec *domain.GenerationRecord) []zip.Entry {
	var entries []zip.Entry
	for _, ref := range []*domain.ArtifactRef{rec.Image, rec.Audio, rec.AudioWAV, rec.Visualizer, rec.AIVideo} {
		if ref == nil {
			continue
		}
		entries = append(entries, zip.Entry{Name: path.Base(ref.Key), Path: a.Sink.Path(ref)})
	}
	return entries
}
