// Package parallel splits row ranges across worker goroutines.
//
// Splits are deterministic: for a given item count and worker count the same
// ranges are produced in the same order, so callers that merge per-range
// partial results in range order get reproducible floating-point sums.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

// Range is the half-open interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Len returns the number of items in the range.
func (r Range) Len() int { return r.End - r.Start }

// Workers resolves a requested worker count. Zero or negative means one
// worker per CPU.
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.NumCPU()
	}
	return requested
}

// Ranges divides items into at most workers contiguous ranges (ceiling
// division). Empty ranges are never returned.
func Ranges(items, workers int) []Range {
	if items <= 0 {
		return nil
	}
	workers = Workers(workers)
	if workers > items {
		workers = items
	}

	chunkSize := (items + workers - 1) / workers
	ranges := make([]Range, 0, workers)
	for start := 0; start < items; start += chunkSize {
		end := start + chunkSize
		if end > items {
			end = items
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	ParallelizeN(items, 0, fn)
}

// ParallelizeN is Parallelize with an explicit worker count.
func ParallelizeN(items, workers int, fn func(start, end int)) {
	ranges := Ranges(items, workers)
	if len(ranges) == 1 {
		fn(ranges[0].Start, ranges[0].End)
		return
	}

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(r.Start, r.End)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ForEach runs fn once per range, each on its own goroutine, and waits for
// all of them. A panicking worker is converted to a *errors.PanicError. The
// returned error is the one from the lowest-indexed failing range, so the
// result does not depend on goroutine scheduling.
func ForEach(ranges []Range, operation string, fn func(i int, r Range) error) error {
	errs := make([]error, len(ranges))

	if len(ranges) == 1 {
		errs[0] = errors.SafeExecute(operation, func() error { return fn(0, ranges[0]) })
	} else {
		var wg sync.WaitGroup
		for i, r := range ranges {
			wg.Add(1)
			go func(i int, r Range) {
				defer wg.Done()
				errs[i] = errors.SafeExecute(operation, func() error { return fn(i, r) })
			}(i, r)
		}
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
