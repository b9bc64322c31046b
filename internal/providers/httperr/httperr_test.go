package httperr

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

func TestKindForStatus(t *testing.T) {
	cases := []struct {
		status int
		want   domain.ErrorKind
	}{
		{http.StatusTooManyRequests, domain.KindRateLimited},
		{http.StatusRequestTimeout, domain.KindTimeout},
		{http.StatusBadRequest, domain.KindInvalidInput},
		{http.StatusUnprocessableEntity, domain.KindInvalidInput},
		{http.StatusUnauthorized, domain.KindProviderUnavailable},
		{http.StatusBadGateway, domain.KindProviderUnavailable},
		{http.StatusInternalServerError, domain.KindProviderUnavailable},
	}
	for _, tc := range cases {
		if got := KindForStatus(tc.status); got != tc.want {
			t.Fatalf("KindForStatus(%d) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestKindForTransport(t *testing.T) {
	if got := KindForTransport(context.Canceled); got != domain.KindCanceled {
		t.Fatalf("canceled → %q", got)
	}
	if got := KindForTransport(context.DeadlineExceeded); got != domain.KindTimeout {
		t.Fatalf("deadline → %q", got)
	}
	if got := KindForTransport(timeoutErr{}); got != domain.KindTimeout {
		t.Fatalf("timeout → %q", got)
	}
	if got := KindForTransport(errors.New("connection refused")); got != domain.KindProviderUnavailable {
		t.Fatalf("refused → %q", got)
	}
}

func TestSnippetTruncates(t *testing.T) {
	got := Snippet(strings.NewReader(strings.Repeat("a", 5000)))
	if len(got) != 1024 {
		t.Fatalf("snippet length = %d", len(got))
	}
}
