// Package health polls a dependency in the background and publishes its
// status to subscribers.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
	StateBackoff State = "backoff"
)

// Status is a point-in-time view of the monitor.
type Status struct {
	State     State     `json:"state"`
	Healthy   bool      `json:"healthy"`
	Failures  int       `json:"consecutive_failures"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at,omitempty"`
	NextCheck time.Time `json:"next_check,omitempty"`
}

type CheckFunc func(ctx context.Context) error

// Monitor runs CheckFunc on a single goroutine. It polls at a fixed interval
// while checks pass and backs off exponentially while they fail. Subscribers
// hear about changes in health or state only.
type Monitor struct {
	check    CheckFunc
	interval time.Duration
	timeout  time.Duration
	backoff  *backoff.ExponentialBackOff
	log      zerolog.Logger
	now      func() time.Time

	trigger chan struct{}

	mu     sync.RWMutex
	status Status
	subs   map[int]chan Status
	nextID int
}

func NewMonitor(check CheckFunc, interval, maxInterval time.Duration, log zerolog.Logger) *Monitor {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval / 4
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Second
	}
	b.Multiplier = 1.5
	b.MaxInterval = maxInterval
	b.MaxElapsedTime = 0

	return &Monitor{
		check:    check,
		interval: interval,
		timeout:  5 * time.Second,
		backoff:  b,
		log:      log,
		now:      time.Now,
		trigger:  make(chan struct{}, 1),
		status:   Status{State: StateIdle},
		subs:     make(map[int]chan Status),
	}
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Subscribe returns a channel that receives the latest status after each
// change. Slow readers only see the newest value. Call the returned func to
// unsubscribe.
func (m *Monitor) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			close(ch)
		})
	}
}

// Trigger asks for an immediate check. Triggers that arrive while one is
// already queued are dropped.
func (m *Monitor) Trigger() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Run polls until ctx is cancelled, then returns the monitor to idle.
func (m *Monitor) Run(ctx context.Context) {
	m.log.Info().Dur("interval", m.interval).Msg("health monitor started")
	defer func() {
		m.update(func(s *Status) {
			s.State = StateIdle
			s.NextCheck = time.Time{}
		})
		m.log.Info().Msg("health monitor stopped")
	}()

	for {
		wait := m.poll(ctx)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-m.trigger:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// poll runs one check and returns how long to wait before the next.
func (m *Monitor) poll(ctx context.Context) time.Duration {
	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.check(checkCtx)
	cancel()

	now := m.now()
	if err == nil {
		m.backoff.Reset()
		m.update(func(s *Status) {
			if !s.Healthy && s.Failures > 0 {
				m.log.Info().Int("failures", s.Failures).Msg("dependency recovered")
			}
			s.State = StatePolling
			s.Healthy = true
			s.Failures = 0
			s.LastError = ""
			s.CheckedAt = now
			s.NextCheck = now.Add(m.interval)
		})
		return m.interval
	}

	wait := m.backoff.NextBackOff()
	m.update(func(s *Status) {
		s.State = StateBackoff
		s.Healthy = false
		s.Failures++
		s.LastError = err.Error()
		s.CheckedAt = now
		s.NextCheck = now.Add(wait)
		m.log.Warn().Err(err).Int("failures", s.Failures).Dur("retry_in", wait).Msg("health check failed")
	})
	return wait
}

func (m *Monitor) update(fn func(s *Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.status
	fn(&m.status)
	if before.State == m.status.State && before.Healthy == m.status.Healthy {
		return
	}

	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m.status
	}
}
