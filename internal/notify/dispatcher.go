// Package notify runs best-effort side effects, such as invitation emails,
// outside the request that triggered them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	keyPrefix  = "planit:notify:"
	defaultTTL = 24 * time.Hour
)

var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher runs each notification on its own goroutine with a deadline.
// Failures and panics are logged and never reach the caller. A notification
// is sent at most once per (kind, subject) while its dedup key lives.
type Dispatcher struct {
	log     zerolog.Logger
	timeout time.Duration
	dedup   Deduper
	ttl     time.Duration

	wg     sync.WaitGroup
	closed atomic.Bool
}

func NewDispatcher(log zerolog.Logger, timeout time.Duration, dedup Deduper) *Dispatcher {
	if dedup == nil {
		dedup = NewMemoryDeduper()
	}
	return &Dispatcher{
		log:     log,
		timeout: timeout,
		dedup:   dedup,
		ttl:     defaultTTL,
	}
}

func Key(kind string, subject uuid.UUID) string {
	return keyPrefix + kind + ":" + subject.String()
}

// Dispatch schedules fn and returns immediately.
func (d *Dispatcher) Dispatch(kind string, subject uuid.UUID, fn func(ctx context.Context) error) {
	log := d.log.With().Str("kind", kind).Stringer("subject", subject).Logger()

	if d.closed.Load() {
		log.Warn().Err(ErrClosed).Msg("notification dropped")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("panic", fmt.Sprint(r)).Msg("notification panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		claimed, err := d.dedup.Claim(ctx, Key(kind, subject), d.ttl)
		if err != nil {
			log.Warn().Err(err).Msg("dedup unavailable, sending anyway")
			claimed = true
		}
		if !claimed {
			log.Debug().Msg("duplicate notification suppressed")
			return
		}

		start := time.Now()
		if err := fn(ctx); err != nil {
			log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("notification failed")
			return
		}
		log.Debug().Dur("elapsed", time.Since(start)).Msg("notification sent")
	}()
}

// Close stops accepting work and waits for in-flight notifications or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.closed.Store(true)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
