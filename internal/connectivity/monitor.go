// Package connectivity tracks whether the client can reach the network.
//
// The Monitor is the only writer of the online flag. Signals arrive from one
// or more Sources; readers either sample Online or Subscribe to changes.
package connectivity

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Source emits online/offline signals until ctx is cancelled, then closes
// the returned channel
type Source interface {
	Events(ctx context.Context) <-chan bool
}

// Option configures a Monitor
type Option func(*Monitor)

// WithInitial sets the state assumed before the first signal
func WithInitial(online bool) Option {
	return func(m *Monitor) {
		m.online = online
	}
}

// WithLogger sets the logger used for transitions
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// Monitor holds the process-wide connectivity state
type Monitor struct {
	sources []Source
	logger  *zap.Logger

	mu     sync.RWMutex
	online bool
	subs   map[int]chan bool
	nextID int

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewMonitor creates a monitor fed by sources. It assumes the client is
// online until told otherwise.
func NewMonitor(sources []Source, opts ...Option) *Monitor {
	m := &Monitor{
		sources: sources,
		logger:  zap.NewNop(),
		online:  true,
		subs:    make(map[int]chan bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start installs the source listeners. Calling it more than once has no
// effect.
func (m *Monitor) Start(ctx context.Context) {
	m.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(ctx)
		m.cancel = cancel
		for _, src := range m.sources {
			events := src.Events(ctx)
			m.wg.Add(1)
			go func() {
				defer m.wg.Done()
				for online := range events {
					m.set(online)
				}
			}()
		}
	})
}

// Stop tears the listeners down and closes every subscription. It waits for
// the listeners to exit and is safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		// Keep Start from installing listeners after Stop
		m.startOnce.Do(func() {})
		if m.cancel != nil {
			m.cancel()
		}
		m.wg.Wait()

		m.mu.Lock()
		for id, ch := range m.subs {
			close(ch)
			delete(m.subs, id)
		}
		m.mu.Unlock()
	})
}

// Online reports the current state
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Subscribe returns a channel that receives the state after every change
// and a func that cancels the subscription. Slow subscribers only see the
// latest state.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if c, ok := m.subs[id]; ok {
				close(c)
				delete(m.subs, id)
			}
		})
	}
}

// Subscribers returns the number of live subscriptions
func (m *Monitor) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *Monitor) set(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.online == online {
		return
	}
	m.online = online
	if online {
		m.logger.Info("connectivity restored")
	} else {
		m.logger.Warn("connectivity lost")
	}

	for _, ch := range m.subs {
		// Replace any unread value with the latest one
		select {
		case <-ch:
		default:
		}
		ch <- online
	}
}
