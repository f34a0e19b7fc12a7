package worker

import "github.com/gofhir/normalizer/bundle"

// Job represents one bundle to be scanned by a worker.
type Job struct {
	// ID identifies this job in results, usually the source file name.
	ID string

	// Bundle is the bundle JSON to scan.
	Bundle []byte
}

// JobResult is the outcome of scanning one job.
type JobResult struct {
	// ID matches the submitted Job.ID.
	ID string

	// Report holds the scan outcome when the scan itself succeeded.
	// Per-entry normalization failures live inside the report.
	Report *bundle.Report

	// Err is set when the scan failed outright.
	Err error

	// Duration is the scan time in nanoseconds.
	Duration int64
}

// BatchResult aggregates the results of a batch of jobs.
type BatchResult struct {
	// Results holds one result per job. ScanBatch keeps input order;
	// CloseAndWait returns completion order.
	Results []*JobResult

	// TotalJobs is the number of jobs submitted.
	TotalJobs int

	// CompletedJobs is the number of jobs that finished.
	CompletedJobs int

	// TotalDuration is the summed scan time in nanoseconds.
	TotalDuration int64
}

// HasErrors reports whether any job failed to scan.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of jobs that failed to scan.
func (br *BatchResult) ErrorCount() int {
	count := 0
	for _, r := range br.Results {
		if r.Err != nil {
			count++
		}
	}
	return count
}
