package discord

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/vedran77/raidpool/internal/platform"
)

const maxAttempts = 4

// call runs one REST operation with exponential backoff on transient
// failures. NotFound and permission outcomes are permanent and surface
// immediately; everything the caller sees has already been through mapErr.
func call[T any](ctx context.Context, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond

	return backoff.Retry(ctx, func() (T, error) {
		v, err := op()
		if err == nil {
			return v, nil
		}
		err = mapErr(err)
		if errors.Is(err, platform.ErrUnavailable) {
			return v, err
		}
		return v, backoff.Permanent(err)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(maxAttempts))
}

// callErr is call for operations with no result.
func callErr(ctx context.Context, op func() error) error {
	_, err := call(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
