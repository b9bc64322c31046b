package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IshanjotDhahan7868/BeatBank/internal/domain"
)

// runRetention is how long a finished run stays addressable so clients
// can still fetch its outcome. In-flight jobs do not survive a process
// restart; the saved record does.
const runRetention = time.Hour

// Run is the handle on one asynchronous pipeline execution.
type Run struct {
	ID string

	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	record   *domain.GenerationRecord
	err      error
	finished time.Time
}

// Done closes when the run finishes.
func (r *Run) Done() <-chan struct{} { return r.done }

// Running reports whether the run has not finished yet.
func (r *Run) Running() bool {
	select {
	case <-r.done:
		return false
	default:
		return true
	}
}

// Cancel stops the run. In-flight stages observe it at their next
// suspension point; work already finished is kept and recorded.
func (r *Run) Cancel() { r.cancel() }

// Wait blocks until the run finishes or ctx ends.
func (r *Run) Wait(ctx context.Context) (*domain.GenerationRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
	}
	return r.Result()
}

// Result returns the outcome; both values are nil while the run is still
// executing.
func (r *Run) Result() (*domain.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.record, r.err
}

func (r *Run) finish(rec *domain.GenerationRecord, err error, at time.Time) {
	r.mu.Lock()
	r.record, r.err, r.finished = rec, err, at
	r.mu.Unlock()
	close(r.done)
}

func (r *Run) expiredAt(now time.Time, ttl time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.finished.IsZero() && now.Sub(r.finished) > ttl
}

// registry tracks runs by id. Finished runs are swept lazily once their
// retention lapses.
type registry struct {
	ttl time.Duration

	mu   sync.Mutex
	runs map[string]*Run
}

func newRegistry(ttl time.Duration) *registry {
	return &registry{ttl: ttl, runs: make(map[string]*Run)}
}

func (reg *registry) add(r *Run, now time.Time) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for id, old := range reg.runs {
		if old.expiredAt(now, reg.ttl) {
			delete(reg.runs, id)
		}
	}
	reg.runs[r.ID] = r
}

func (reg *registry) get(id string) (*Run, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.runs[id]
	return r, ok
}

// Start launches a run in the background and returns its handle. The run
// outlives ctx (an HTTP request ends long before a pipeline does), so
// stop it through the handle, not the context.
func (p *Pipeline) Start(ctx context.Context, req domain.GenerationRequest) (*Run, error) {
	cfg, err := domain.NewStepConfig(req)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &Run{
		ID:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	p.runs.add(r, p.now())
	go func() {
		defer cancel()
		rec, execErr := p.execute(runCtx, r.ID, cfg)
		r.finish(rec, execErr, p.now())
	}()
	return r, nil
}

// Lookup returns the handle of a running or recently finished run.
func (p *Pipeline) Lookup(id string) (*Run, bool) {
	return p.runs.get(id)
}
