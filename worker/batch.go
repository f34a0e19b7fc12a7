package worker

import (
	"bytes"
	"sync"
	"time"
)

// ScanBatch scans a fixed set of jobs and returns their results in input
// order. With workers <= 1 the jobs run sequentially on the calling
// goroutine; otherwise they are spread across a bounded set of goroutines.
func ScanBatch(scanner Scanner, jobs []Job, workers int) *BatchResult {
	if workers <= 1 || len(jobs) <= 1 {
		return scanSequential(scanner, jobs)
	}
	return scanParallel(scanner, jobs, workers)
}

func scanSequential(scanner Scanner, jobs []Job) *BatchResult {
	batch := &BatchResult{
		Results:   make([]*JobResult, 0, len(jobs)),
		TotalJobs: len(jobs),
	}

	for _, job := range jobs {
		result := scanOne(scanner, job)
		batch.Results = append(batch.Results, result)
		batch.CompletedJobs++
		batch.TotalDuration += result.Duration
	}

	return batch
}

func scanParallel(scanner Scanner, jobs []Job, workers int) *BatchResult {
	if workers > len(jobs) {
		workers = len(jobs)
	}

	type indexedJob struct {
		index int
		job   Job
	}

	jobChan := make(chan indexedJob, workers)
	results := make([]*JobResult, len(jobs))

	var wg sync.WaitGroup
	var mu sync.Mutex

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for ij := range jobChan {
				result := scanOne(scanner, ij.job)
				mu.Lock()
				results[ij.index] = result
				mu.Unlock()
			}
		}()
	}

	for i, job := range jobs {
		jobChan <- indexedJob{index: i, job: job}
	}
	close(jobChan)
	wg.Wait()

	batch := &BatchResult{
		Results:   results,
		TotalJobs: len(jobs),
	}
	for _, result := range results {
		batch.CompletedJobs++
		batch.TotalDuration += result.Duration
	}

	return batch
}

func scanOne(scanner Scanner, job Job) *JobResult {
	start := time.Now()

	result := &JobResult{
		ID: job.ID,
	}

	if scanner == nil {
		result.Err = ErrNoScanner
		result.Duration = time.Since(start).Nanoseconds()
		return result
	}

	result.Report, result.Err = scanner.ScanBundle(bytes.NewReader(job.Bundle))
	result.Duration = time.Since(start).Nanoseconds()
	return result
}
