package utils

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PanicError is returned in place of a result when a parallel function panics.
type PanicError struct {
	Index int
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parallel task %d panicked: %v", e.Index, e.Value)
}

// RunParallelWithResults executes multiple functions concurrently and collects their results.
// results[i] and errs[i] belong to funcs[i]; a panic in one function becomes a
// *PanicError at its index and leaves the zero value as its result. A failure
// never cancels the others: the group has no shared context.
func RunParallelWithResults[T any](ctx context.Context, funcs []func(ctx context.Context) (T, error)) ([]T, []error) {
	if len(funcs) == 0 {
		return nil, nil
	}

	results := make([]T, len(funcs))
	errs := make([]error, len(funcs))

	var g errgroup.Group
	for i, fn := range funcs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					errs[i] = &PanicError{Index: i, Value: r}
				}
			}()
			results[i], errs[i] = fn(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return results, errs
}
