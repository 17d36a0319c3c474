package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/dogwalker/internal/domain/user"
)

// call runs one store round-trip under its own deadline.
func (s *Service) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := callValue(s, ctx, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

type result[T any] struct {
	val T
	err error
}

// callValue is call for operations that return a value. The value travels
// over the channel; if the store ignores ctx the caller still stops waiting at
// the deadline and the late result is dropped.
func callValue[T any](s *Service, ctx context.Context, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		var r result[T]
		r.err = s.observe(op, func() error {
			var err error
			r.val, err = fn(cctx)
			return err
		})
		done <- r
	}()

	select {
	case r := <-done:
		if err := classify(op, r.err); err != nil {
			var zero T
			return zero, err
		}
		return r.val, nil
	case <-cctx.Done():
		var zero T
		return zero, fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, cctx.Err())
	}
}

func (s *Service) observe(op string, fn func() error) error {
	if s.prom != nil {
		return s.prom.ObserveStore(op, fn)
	}
	return fn()
}

// classify lets the store sentinels through untouched and turns everything
// else into ErrStoreUnavailable.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, user.ErrNotFound), errors.Is(err, user.ErrEmailTaken):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return 2 * time.Second
	}
	return d
}
