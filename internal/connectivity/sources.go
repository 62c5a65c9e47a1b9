package connectivity

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const (
	defaultCheckInterval = 5 * time.Second
	defaultCheckTimeout  = 2 * time.Second
)

// Checker turns periodic reachability checks of a URL into connectivity
// signals. Any HTTP response counts as reachable; only transport errors
// count as offline.
type Checker struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
	// Failures is the number of consecutive failed checks before offline
	// is reported. Values below 1 mean 1.
	Failures int
	Client   *http.Client
}

// Check performs one reachability check
func (c *Checker) Check(ctx context.Context) bool {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.URL, nil)
	if err != nil {
		return false
	}
	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// Events implements Source. The first check runs immediately.
func (c *Checker) Events(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	interval := c.Interval
	if interval <= 0 {
		interval = defaultCheckInterval
	}
	threshold := c.Failures
	if threshold < 1 {
		threshold = 1
	}

	go func() {
		defer close(out)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		failures := 0
		for {
			if c.Check(ctx) {
				failures = 0
				if !send(ctx, out, true) {
					return
				}
			} else if ctx.Err() == nil {
				failures++
				if failures >= threshold && !send(ctx, out, false) {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return out
}

func send(ctx context.Context, out chan<- bool, v bool) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

// Manual is a Source driven by explicit calls, used for simulated outages
// and tests. Values sent before the monitor starts listening are dropped
// except the latest.
type Manual struct {
	mu sync.Mutex
	ch chan bool
}

// NewManual creates a manual source
func NewManual() *Manual {
	return &Manual{ch: make(chan bool, 1)}
}

// Set emits a signal
func (s *Manual) Set(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.ch:
	default:
	}
	s.ch <- online
}

// Events implements Source
func (s *Manual) Events(ctx context.Context) <-chan bool {
	out := make(chan bool)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-s.ch:
				select {
				case out <- v:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Override wraps a Source so an operator can hold the state offline. While
// forced, upstream signals are remembered but not forwarded; releasing the
// override re-emits the last upstream state.
type Override struct {
	src  Source
	kick chan struct{}

	mu     sync.Mutex
	forced bool
	last   bool
}

// NewOverride wraps src; a nil src behaves as permanently online
func NewOverride(src Source) *Override {
	return &Override{src: src, kick: make(chan struct{}, 1), last: true}
}

// SetOffline forces the state offline, or releases the override
func (o *Override) SetOffline(forced bool) {
	o.mu.Lock()
	changed := o.forced != forced
	o.forced = forced
	o.mu.Unlock()
	if !changed {
		return
	}
	select {
	case o.kick <- struct{}{}:
	default:
	}
}

// Forced reports whether the override is holding the state offline
func (o *Override) Forced() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.forced
}

func (o *Override) state() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last && !o.forced
}

// Events implements Source
func (o *Override) Events(ctx context.Context) <-chan bool {
	out := make(chan bool, 1)
	var upstream <-chan bool
	if o.src != nil {
		upstream = o.src.Events(ctx)
	}

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-upstream:
				if !ok {
					upstream = nil
					continue
				}
				o.mu.Lock()
				o.last = v
				forced := o.forced
				o.mu.Unlock()
				if forced {
					continue
				}
				if !send(ctx, out, v) {
					return
				}
			case <-o.kick:
				if !send(ctx, out, o.state()) {
					return
				}
			}
		}
	}()
	return out
}
