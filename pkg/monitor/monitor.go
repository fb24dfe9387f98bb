// Package monitor provides a periodic connectivity probe with consecutive
// failure/success thresholds, so a single dropped packet does not flip the
// client into offline mode and a single lucky response does not flip it back.
package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes the monitored resource. It returns nil when reachable.
type CheckFunc func(ctx context.Context) error

// Config controls probe timing and flap suppression.
type Config struct {
	// Interval between probes. Defaults to 30s.
	Interval time.Duration
	// Timeout for a single probe. Defaults to 5s.
	Timeout time.Duration
	// FailureThreshold is how many consecutive failures mark the resource
	// offline. Defaults to 2.
	FailureThreshold int
	// SuccessThreshold is how many consecutive successes mark it online
	// again. Defaults to 1.
	SuccessThreshold int
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 2
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 1
	}
}

// Monitor runs a CheckFunc on a ticker and exposes the thresholded result.
//
// Concurrency model: run() executes on a single goroutine, so the
// consecutive counters need no synchronization. The online flag and last
// error are read from arbitrary goroutines and use atomics.
type Monitor struct {
	cfg   Config
	check CheckFunc

	online  atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a Monitor. The resource is assumed online until a probe says
// otherwise.
func New(check CheckFunc, cfg Config) *Monitor {
	cfg.applyDefaults()
	m := &Monitor{cfg: cfg, check: check, done: make(chan struct{})}
	m.online.Store(true)
	return m
}

// Start probes once immediately, then on every interval tick until the
// context is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	go func() {
		defer close(m.done)
		m.run(ctx)

		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.run(ctx)
			}
		}
	}()
}

// Stop halts probing and waits for the probe goroutine to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		if m.cancel != nil {
			m.cancel()
			<-m.done
		}
	})
}

// Online returns the thresholded reachability status.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// LastError returns the most recent probe error, or nil.
func (m *Monitor) LastError() error {
	if p := m.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes one probe and updates the thresholds. Single goroutine only.
func (m *Monitor) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	err := m.check(probeCtx)
	m.lastErr.Store(&err)

	if err != nil {
		m.consecutiveOK = 0
		m.consecutiveFails++
		if m.consecutiveFails >= m.cfg.FailureThreshold {
			m.online.Store(false)
		}
		return
	}
	m.consecutiveFails = 0
	m.consecutiveOK++
	if m.consecutiveOK >= m.cfg.SuccessThreshold {
		m.online.Store(true)
	}
}
