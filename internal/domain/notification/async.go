package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

const defaultMaxTries = 3

// Async runs a Dispatcher off the request path. Each dispatch gets its own
// timeout and a few retries; the caller only hears back via the callback.
type Async struct {
	next     Dispatcher
	timeout  time.Duration
	maxTries uint
	backoff  func() backoff.BackOff
	wg       sync.WaitGroup
}

type AsyncOption func(*Async)

func WithMaxTries(n uint) AsyncOption {
	return func(a *Async) { a.maxTries = n }
}

func WithBackOff(fn func() backoff.BackOff) AsyncOption {
	return func(a *Async) { a.backoff = fn }
}

func NewAsync(next Dispatcher, timeout time.Duration, opts ...AsyncOption) *Async {
	a := &Async{
		next:     next,
		timeout:  timeout,
		maxTries: defaultMaxTries,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			return b
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

var errUndelivered = errors.New("confirmation not delivered")

// Dispatch returns immediately. done, if set, receives the final result.
func (a *Async) Dispatch(c Confirmation, done func(Result)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		res := a.send(ctx, c)
		if !res.Success {
			log.Warn().Int64("booking_id", c.BookingID).Str("message", res.Message).Msg("confirmation dispatch failed")
		}
		if done != nil {
			done(res)
		}
	}()
}

func (a *Async) send(ctx context.Context, c Confirmation) Result {
	var last Result
	attempt := 0

	res, err := backoff.Retry(ctx, func() (Result, error) {
		attempt++
		last = a.next.Send(ctx, c)
		if last.Success {
			return last, nil
		}
		log.Debug().Int("attempt", attempt).Bool("permanent", last.permanent).Str("message", last.Message).Msg("confirmation attempt failed")
		if last.permanent {
			return last, backoff.Permanent(errUndelivered)
		}
		return last, errUndelivered
	}, backoff.WithBackOff(a.backoff()), backoff.WithMaxTries(a.maxTries))
	if err != nil {
		if last.Message == "" {
			return failed(err.Error())
		}
		return last
	}
	return res
}

// Verify checks the wrapped dispatcher synchronously.
func (a *Async) Verify(ctx context.Context) Result {
	return a.next.Verify(ctx)
}

// Wait blocks until in-flight dispatches finish, for graceful shutdown.
func (a *Async) Wait() {
	a.wg.Wait()
}
