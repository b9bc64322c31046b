package handlers

import (
	"net/http"
)

// Health is the liveness probe. It says nothing about vendors: a
// degraded provider is a stage outcome, not a dead process.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "beatbank",
	})
}
