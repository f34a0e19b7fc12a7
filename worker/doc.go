// Package worker provides a worker pool for scanning bundles in parallel.
//
// A single scanner is safe for concurrent use, so the pool fans one scanner
// out across multiple goroutines when many bundles need normalizing at once.
//
// Example usage:
//
//	// Create a worker pool with 4 workers
//	pool := worker.NewPool(normalizer, 4)
//	defer pool.Close()
//
//	// Submit jobs
//	for name, data := range bundles {
//	    pool.Submit(worker.Job{
//	        ID:     name,
//	        Bundle: data,
//	    })
//	}
//
//	// Collect results
//	for result := range pool.Results() {
//	    if result.Err != nil {
//	        // Handle error
//	    }
//	    // Process result.Report
//	}
//
// For the common collect-everything case, ScanBatch runs a fixed set of jobs
// and returns the reports in input order.
package worker
