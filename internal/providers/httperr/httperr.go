// Package httperr maps vendor HTTP failures onto the domain error
// taxonomy so every adapter classifies the same way.
package httperr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

// KindForStatus classifies a non-2xx vendor status code.
func KindForStatus(status int) domain.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.KindRateLimited
	case status == http.StatusRequestTimeout:
		return domain.KindTimeout
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return domain.KindInvalidInput
	default:
		return domain.KindProviderUnavailable
	}
}

// KindForTransport classifies a request error from http.Client.Do.
func KindForTransport(err error) domain.ErrorKind {
	switch {
	case errors.Is(err, context.Canceled):
		return domain.KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return domain.KindTimeout
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return domain.KindTimeout
	}
	return domain.KindProviderUnavailable
}

// Snippet reads a short prefix of a response body for error messages.
func Snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 1024))
	return strings.TrimSpace(string(b))
}
