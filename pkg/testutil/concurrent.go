package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "verid/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes   int32
	Validations int32
	Transports  int32
	Errors      int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Validations + r.Transports + r.Errors
}

// RunConcurrent executes fn in parallel goroutines and buckets the outcomes
// into success, validation failure, transport failure, or generic error.
// This helper replaces the common pattern of WaitGroup + atomic counters in tests.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, validations, transports, errs atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeValidation):
				validations.Add(1)
			case dErrors.HasCode(err, dErrors.CodeTransport):
				transports.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes:   successes.Load(),
		Validations: validations.Load(),
		Transports:  transports.Load(),
		Errors:      errs.Load(),
	}
}
