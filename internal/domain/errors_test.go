package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindRetryable(t *testing.T) {
	retryable := []ErrorKind{KindProviderUnavailable, KindRateLimited, KindTimeout}
	for _, k := range retryable {
		if !k.Retryable() {
			t.Fatalf("%s should be retryable", k)
		}
	}
	terminal := []ErrorKind{
		KindValidation, KindDependencyUnavailable, KindInvalidInput,
		KindPersistence, KindPollTimedOut, KindCanceled,
	}
	for _, k := range terminal {
		if k.Retryable() {
			t.Fatalf("%s should not be retryable", k)
		}
	}
}

func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("stage: %w", Fail(StageMusic, KindRateLimited, errors.New("429")))
	cases := []struct {
		err  error
		want ErrorKind
	}{
		{nil, ""},
		{context.Canceled, KindCanceled},
		{context.DeadlineExceeded, KindTimeout},
		{wrapped, KindRateLimited},
		{errors.New("mystery"), KindProviderUnavailable},
		{fmt.Errorf("poll: %w", context.Canceled), KindCanceled},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestStageErrorMessage(t *testing.T) {
	err := Failf(StageDSP, KindDependencyUnavailable, "no audio to analyze")
	want := "dsp: dependency_unavailable: no audio to analyze"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.As(error(err), new(*StageError)) {
		t.Fatal("errors.As failed")
	}
}
