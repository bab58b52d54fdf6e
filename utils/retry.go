package utils

import (
	"context"
	"errors"
	"time"

	"github.com/UltimateTournament/backoff/v4"
)

type permanenter interface {
	IsPermanent() bool
}

// Retry runs fn with exponential backoff until it succeeds, returns a
// permanent error, or maxRetries attempts beyond the first have failed.
// Errors implementing IsPermanent() true (e.g. PermError) stop retrying
// immediately.
func Retry(ctx context.Context, maxRetries uint64, fn func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond * 250
	bo.MaxInterval = time.Second * 5

	return backoff.Retry(func() error {
		err := fn(ctx)
		var p permanenter
		if err != nil && errors.As(err, &p) && p.IsPermanent() {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}
