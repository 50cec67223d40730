package worker

import (
	"context"
	"log"
	"runtime"
	"sync"

	"screen-ui-agent/src/textread"
	"screen-ui-agent/src/uitree"
)

// Reader is the part of textread.Reader the pool drives.
type Reader interface {
	ReadText(ctx context.Context, query uitree.ElementQuery, includeChildren bool, ocrLanguage string) (textread.Result, error)
}

// Job is one independent text read.
type Job struct {
	Query    uitree.ElementQuery `json:"query"`
	Language string              `json:"lang,omitempty"`
}

// Outcome pairs a job's position in the batch with its result.
type Outcome struct {
	Index  int             `json:"index"`
	Result textread.Result `json:"result"`
	Err    error           `json:"-"`
	Error  string          `json:"error,omitempty"`
}

// ResultCallback is invoked from a worker goroutine when a read finishes.
type ResultCallback func(Outcome)

// Pool runs reads on a fixed number of workers with a 1-slot input queue;
// Submit blocks while every worker is busy and the slot is taken.
type Pool struct {
	reader Reader
	jobs   chan task
	wg     sync.WaitGroup
}

type task struct {
	ctx   context.Context
	index int
	req   Job
	cb    ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0.
func New(reader Reader, size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{reader: reader, jobs: make(chan task, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				j.cb(p.run(j))
			}
		}()
	}
}

func (p *Pool) run(j task) Outcome {
	out := Outcome{Index: j.index}
	if err := j.ctx.Err(); err != nil {
		out.Err = err
	} else {
		out.Result, out.Err = p.reader.ReadText(j.ctx, j.req.Query, j.req.Query.IncludeChildren, j.req.Language)
	}
	if out.Err != nil {
		out.Error = out.Err.Error()
		log.Printf("Worker: job %d failed: %v", j.index, out.Err)
	}
	return out
}

// Submit blocks until the job is queued or ctx is done.
func (p *Pool) Submit(ctx context.Context, index int, req Job, cb ResultCallback) error {
	select {
	case p.jobs <- task{ctx: ctx, index: index, req: req, cb: cb}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// ReadAll runs every job on a pool of size workers and returns the outcomes
// in input order. Jobs not yet queued when ctx ends report ctx's error.
func ReadAll(ctx context.Context, reader Reader, jobs []Job, size int) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := New(reader, min(size, max(len(jobs), 1)))

	var mu sync.Mutex
	record := func(o Outcome) {
		mu.Lock()
		outcomes[o.Index] = o
		mu.Unlock()
	}

	for i, j := range jobs {
		if err := p.Submit(ctx, i, j, record); err != nil {
			for k := i; k < len(jobs); k++ {
				record(Outcome{Index: k, Err: err, Error: err.Error()})
			}
			break
		}
	}
	p.Close()
	return outcomes
}
