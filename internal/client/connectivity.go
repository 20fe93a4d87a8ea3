package client

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ProbeFunc reports whether the backend is currently reachable. It must be
// cheap; the monitor calls it on every tick.
type ProbeFunc func(ctx context.Context) bool

// ConnectivityMonitor tracks online/offline state by probing the backend on
// an interval. Each offline→online transition is published on Resumed so the
// sync queue can drain immediately instead of waiting for its own timer.
type ConnectivityMonitor struct {
	probe    ProbeFunc
	interval time.Duration
	log      *zerolog.Logger

	mu      sync.RWMutex
	online  bool
	resumed chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func NewConnectivityMonitor(probe ProbeFunc, interval time.Duration, logger *zerolog.Logger) *ConnectivityMonitor {
	l := logger.With().Str("component", "connectivity").Logger()
	return &ConnectivityMonitor{
		probe:    probe,
		interval: interval,
		log:      &l,
		resumed:  make(chan struct{}, 1),
	}
}

// Online reports the last observed state. Before the first probe completes
// the monitor assumes offline, so drafts queue locally until proven otherwise.
func (m *ConnectivityMonitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Resumed delivers one signal per offline→online transition. The channel has
// a buffer of one; coalescing repeated transitions is fine because a single
// drain pass picks up everything pending.
func (m *ConnectivityMonitor) Resumed() <-chan struct{} {
	return m.resumed
}

func (m *ConnectivityMonitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.check(ctx)
			}
		}
	}()
	m.log.Info().Dur("interval", m.interval).Msg("connectivity monitor started")
}

func (m *ConnectivityMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}
}

func (m *ConnectivityMonitor) check(ctx context.Context) {
	up := m.probe(ctx)

	m.mu.Lock()
	was := m.online
	m.online = up
	m.mu.Unlock()

	if up && !was {
		m.log.Info().Msg("connectivity restored")
		select {
		case m.resumed <- struct{}{}:
		default:
		}
	} else if !up && was {
		m.log.Warn().Msg("connectivity lost; drafts will queue locally")
	}
}
