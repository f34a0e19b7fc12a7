package worker

import (
	"bytes"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofhir/normalizer/bundle"
)

// Scanner is the interface the pool uses to scan bundles.
// *engine.Normalizer satisfies it.
type Scanner interface {
	ScanBundle(r io.Reader) (*bundle.Report, error)
}

// Pool manages a pool of worker goroutines for parallel bundle scanning.
type Pool struct {
	workers    int
	jobsChan   chan Job
	resultChan chan *JobResult
	scanner    Scanner
	done       chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool

	// Metrics
	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	totalDuration atomic.Uint64
}

// NewPool creates a new worker pool with the specified number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(scanner Scanner, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := &Pool{
		workers:    workers,
		jobsChan:   make(chan Job, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		scanner:    scanner,
		done:       make(chan struct{}),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit submits a job to the pool for processing.
// This method blocks if the job queue is full.
func (p *Pool) Submit(job Job) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case <-p.done:
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// SubmitAsync submits a job without blocking.
// Returns false if the job queue is full or the pool is closed.
func (p *Pool) SubmitAsync(job Job) bool {
	if p.closed.Load() {
		return false
	}

	select {
	case <-p.done:
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	default:
		return false
	}
}

// Results returns the channel for receiving job results.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// Close shuts down the pool and discards any pending results. Use
// CloseAndWait to collect them instead.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}

	close(p.done)
	close(p.jobsChan)

	// Drain results in background to prevent worker deadlock
	drained := make(chan struct{})
	go func() {
		for range p.resultChan {
		}
		close(drained)
	}()

	p.wg.Wait()
	close(p.resultChan)
	<-drained
}

// CloseAndWait closes the pool and collects all pending results.
func (p *Pool) CloseAndWait() *BatchResult {
	if p.closed.Swap(true) {
		return &BatchResult{}
	}

	close(p.jobsChan)

	results := make([]*JobResult, 0)
	go func() {
		p.wg.Wait()
		close(p.resultChan)
	}()

	for result := range p.resultChan {
		results = append(results, result)
	}

	return &BatchResult{
		Results:       results,
		TotalJobs:     int(p.jobsSubmitted.Load()),
		CompletedJobs: int(p.jobsCompleted.Load()),
		TotalDuration: int64(p.totalDuration.Load()),
	}
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	AvgDuration   time.Duration
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		result := p.processJob(job)
		p.jobsCompleted.Add(1)
		p.totalDuration.Add(uint64(result.Duration))

		select {
		case <-p.done:
			return
		case p.resultChan <- result:
		}
	}
}

func (p *Pool) processJob(job Job) *JobResult {
	start := time.Now()

	result := &JobResult{
		ID: job.ID,
	}

	if p.scanner == nil {
		result.Err = ErrNoScanner
		result.Duration = time.Since(start).Nanoseconds()
		return result
	}

	result.Report, result.Err = p.scanner.ScanBundle(bytes.NewReader(job.Bundle))
	result.Duration = time.Since(start).Nanoseconds()
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / completed)
}

// ErrNoScanner is returned when the pool has no scanner configured.
var ErrNoScanner = poolError("no scanner configured")

type poolError string

func (e poolError) Error() string {
	return string(e)
}
