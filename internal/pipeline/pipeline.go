// Package pipeline holds the channel stages metro streams stations and journeys through
package pipeline

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSkip may be returned by a GenerateFunc or a ReduceFunc to drop the current value
	// without stopping the stage
	ErrSkip = errors.New("skip value")
	// ErrCanceled is published when a stage stops because its context is done
	ErrCanceled = errors.New("pipeline canceled")
)

type (
	// EachFunc is called for each value of the input channel
	EachFunc[T any] func(val T) error
	// GenerateFunc is used in Generate to produce values for the output channel
	GenerateFunc[T any] func() (T, error)
	// BelongFunc checks if an item belongs to a group
	BelongFunc[T any] func(item T, group []T) (bool, error)
	// WorkerFunc consumes an item of the input channel
	// and publishes the result to the output channel
	WorkerFunc[In, Out any] func(ctx context.Context, item In, outc chan<- Out) error
	// ReduceFunc is called on two subsequent values of the input stream
	// and reduces them to one item to be published to the output channel
	ReduceFunc[T, R any] func(prev, next T) (R, error)
)

// Generate converts the output of a GenerateFunc to a channel
// the only way to close the output channel is to return an error other than ErrSkip from fn
func Generate[T any](ctx context.Context, fn GenerateFunc[T]) (<-chan T, <-chan error) {
	outc := make(chan T)
	errc := make(chan error, 1)
	go func() {
		defer func() {
			close(outc)
			close(errc)
		}()
		for {
			if ctx.Err() != nil {
				errc <- ErrCanceled
				return
			}
			res, err := fn()
			switch {
			case errors.Is(err, ErrSkip):
				continue
			case err != nil:
				errc <- err
				return
			}
			select {
			case <-ctx.Done():
				errc <- ErrCanceled
				return
			case outc <- res:
			}
		}
	}()

	return outc, errc
}

// FromSlice streams the items of a slice
func FromSlice[T any](ctx context.Context, items []T) <-chan T {
	outc := make(chan T)
	go func() {
		defer close(outc)
		for _, item := range items {
			select {
			case <-ctx.Done():
				return
			case outc <- item:
			}
		}
	}()
	return outc
}

// Group is a transformer that groups consecutive items by checking against a BelongFunc
func Group[T any](ctx context.Context, inc <-chan T, belong BelongFunc[T]) (<-chan []T, <-chan error) {
	outc := make(chan []T)
	errc := make(chan error, 1)
	publish := func(group []T) bool {
		select {
		case <-ctx.Done():
			return false
		case outc <- group:
			return true
		}
	}

	go func() {
		var group []T
		defer func() {
			// drain the last group
			if len(group) > 0 {
				publish(group)
			}
			close(outc)
			close(errc)
		}()
		for item := range inc {
			if ctx.Err() != nil {
				errc <- ErrCanceled
				return
			}
			if len(group) == 0 {
				group = append(group, item)
				continue
			}
			ok, err := belong(item, group)
			if err != nil {
				errc <- err
				return
			}
			if ok {
				group = append(group, item)
				continue
			}
			if !publish(group) {
				group = nil
				errc <- ErrCanceled
				return
			}
			group = []T{item}
		}
	}()
	return outc, errc
}

// Sink runs an EachFunc on each value
// it is the final stage of the pipeline as it does not produce any channel
func Sink[T any](ctx context.Context, inc <-chan T, fn EachFunc[T]) error {
	for val := range inc {
		if ctx.Err() != nil {
			return ErrCanceled
		}
		if err := fn(val); err != nil {
			return err
		}
	}
	return nil
}

// Reduce is a transformer that passes two subsequent values to a ReduceFunc
// and publishes the result. When the ReduceFunc returns ErrSkip the next value
// is dropped and the previous one is kept for the following call.
func Reduce[T, R any](ctx context.Context, inc <-chan T, reduce ReduceFunc[T, R]) (<-chan R, <-chan error) {
	outc := make(chan R)
	errc := make(chan error, 1)
	go func() {
		defer func() {
			close(outc)
			close(errc)
		}()
		var (
			last    T
			hasLast bool
		)
		for item := range inc {
			// at least two items are needed to reduce
			if !hasLast {
				last, hasLast = item, true
				continue
			}
			result, err := reduce(last, item)
			switch {
			case errors.Is(err, ErrSkip):
				continue
			case err != nil:
				errc <- err
				return
			}
			last = item

			select {
			case outc <- result:
			case <-ctx.Done():
				errc <- ErrCanceled
				return
			}
		}
	}()
	return outc, errc
}

// WorkerPool fans out the input channel to N workers which all publish on the output channel
// if a worker returns an error the error is published and the worker moves on to the next item
func WorkerPool[In, Out any](ctx context.Context, concurrency int, inc <-chan In, worker WorkerFunc[In, Out]) (<-chan Out, <-chan error) {
	var wg sync.WaitGroup
	outc := make(chan Out)
	errc := make(chan error, concurrency)

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			for item := range inc {
				if err := worker(ctx, item, outc); err != nil {
					select {
					case errc <- err:
					default:
						// the buffer already carries an error for the caller
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(outc)
		close(errc)
	}()

	return outc, errc
}

// MergeErrors merges all input error channels into one output channel
func MergeErrors(ctx context.Context, errs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	outc := make(chan error, len(errs))
	output := func(errc <-chan error) {
		defer wg.Done()
		for e := range errc {
			select {
			case outc <- e:
			case <-ctx.Done():
				return
			}
		}
	}

	wg.Add(len(errs))
	for _, errc := range errs {
		go output(errc)
	}

	go func() {
		wg.Wait()
		close(outc)
	}()

	return outc
}
