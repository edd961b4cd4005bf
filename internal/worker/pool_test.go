package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeResult struct {
	err error
}

func (r *fakeResult) Err() error { return r.err }

type fakeJob struct {
	duration time.Duration
	fail     bool
	executed *int32
}

func (j *fakeJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &fakeResult{err: ctx.Err()}
		}
	}
	if j.fail {
		return &fakeResult{err: errors.New("job failed")}
	}
	return &fakeResult{}
}

func TestNewPoolClampsWorkers(t *testing.T) {
	if p := NewPool(5); p.workers != 5 {
		t.Errorf("workers = %d, want 5", p.workers)
	}
	if p := NewPool(0); p.workers != 1 {
		t.Errorf("workers = %d, want 1", p.workers)
	}
	if p := NewPool(-3); p.workers != 1 {
		t.Errorf("workers = %d, want 1", p.workers)
	}
}

func TestPoolRunsEverything(t *testing.T) {
	pool := NewPool(3)
	pool.Start()

	var executed int32
	const count = 20
	for i := 0; i < count; i++ {
		pool.Submit(&fakeJob{executed: &executed})
	}
	results := pool.Wait()

	if len(results) != count {
		t.Errorf("results = %d, want %d", len(results), count)
	}
	if got := atomic.LoadInt32(&executed); got != count {
		t.Errorf("executed = %d, want %d", got, count)
	}
}

func TestPoolCollectsErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Submit(&fakeJob{})
	pool.Submit(&fakeJob{fail: true})
	results := pool.Wait()

	failed := 0
	for _, r := range results {
		if r.Err() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
}

func TestPoolShutdownCancelsSlowJobs(t *testing.T) {
	pool := NewPool(1)
	pool.Start()
	var executed int32
	pool.Submit(&fakeJob{duration: 5 * time.Second, executed: &executed})

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not cancel the in-flight job")
	}
}
