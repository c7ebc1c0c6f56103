package driver

import (
	"context"
	"runtime"
	"sync"

	"github.com/flowloom/engine/internal/types"
	"github.com/flowloom/engine/internal/value"
)

// Envelope is the wire shape a submitted execution resolves to: the
// success flag, its id, the accumulated results, and an error string when
// the run failed or suspended (spec §7 "User-visible behaviour").
type Envelope struct {
	Success     bool
	ExecutionID string
	Results     []types.NodeResult
	Error       string
}

// Pool bounds how many executions run concurrently across goroutines,
// while each individual execution stays single-threaded per spec §5.
// Adapted from the teacher's parallel_executor.go, which pools goroutines
// for parallel *node* execution within a single run; here the same
// semaphore-and-WaitGroup shape pools concurrent *executions* instead, the
// only form of parallelism the spec's single-threaded-per-execution rule
// permits.
type Pool struct {
	driver *Driver
	sem    chan struct{}
	wg     sync.WaitGroup
}

// NewPool returns a Pool that runs at most maxConcurrency executions at
// once. maxConcurrency <= 0 defaults to runtime.GOMAXPROCS(0).
func NewPool(d *Driver, maxConcurrency int) *Pool {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		driver: d,
		sem:    make(chan struct{}, maxConcurrency),
	}
}

// Submit starts executionID's run in its own goroutine, bounded by the
// pool's concurrency limit, and returns a channel that receives exactly
// one Envelope once the run completes, suspends, or fails.
func (p *Pool) Submit(ctx context.Context, executionID string, workflow types.Workflow, triggerNodeID *string) <-chan Envelope {
	out := make(chan Envelope, 1)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			out <- Envelope{Success: false, ExecutionID: executionID, Error: ctx.Err().Error()}
			close(out)
			return
		}

		record, err := p.driver.Run(ctx, executionID, workflow, triggerNodeID)
		out <- envelopeFrom(record, err)
		close(out)
	}()

	return out
}

// SubmitResume is Submit's counterpart for the resume path: it runs
// Resume on its own goroutine under the same concurrency bound.
func (p *Pool) SubmitResume(ctx context.Context, record *types.ExecutionRecord, workflow types.Workflow, resumeInput value.Value) <-chan Envelope {
	out := make(chan Envelope, 1)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		select {
		case p.sem <- struct{}{}:
			defer func() { <-p.sem }()
		case <-ctx.Done():
			out <- Envelope{Success: false, ExecutionID: record.ID, Error: ctx.Err().Error()}
			close(out)
			return
		}

		resumed, err := p.driver.Resume(ctx, record, workflow, resumeInput)
		out <- envelopeFrom(resumed, err)
		close(out)
	}()

	return out
}

// Wait blocks until every execution submitted to the pool has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func envelopeFrom(record *types.ExecutionRecord, err error) Envelope {
	env := Envelope{ExecutionID: record.ID, Results: record.Results}
	switch {
	case err == nil:
		env.Success = true
	case err == ErrPaused:
		env.Success = true
		env.Error = ErrPaused.Error()
	default:
		env.Success = false
		env.Error = "Workflow execution failed"
	}
	return env
}
