// Package reveal staggers the appearance of list items over time.
//
// A Scheduler owns one RevealSet: the ordered prefix of the current list that
// is visible. Every Start begins a new generation; timer callbacks check their
// generation under the scheduler's lock before touching the set, so a
// callback from a replaced or cancelled list can never add an item.
package reveal

import (
	"sync"
	"time"

	"github.com/campus-velo/velo/internal/clock"
)

// Handle identifies one reveal cycle started by Start
type Handle struct {
	gen uint64
}

// Generation returns the cycle number; zero means no cycle was started
func (h Handle) Generation() uint64 {
	return h.gen
}

// Scheduler reveals ids one at a time on a fixed cadence
type Scheduler struct {
	clock clock.Clock

	mu      sync.Mutex
	gen     uint64
	active  bool
	ids     []string
	index   map[string]int
	visible int
	timers  []clock.Timer
}

// New creates a scheduler. A nil clock uses wall-clock timers.
func New(c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.Real()
	}
	return &Scheduler{clock: c}
}

// Start replaces the RevealSet with an empty one and schedules ids to appear
// in order, the n-th (1-based) at n*interval after the call. Duplicate ids
// appear once, at their first position. A zero or negative interval reveals
// everything on the next timer tick. Any previous cycle is cancelled before
// the new one is scheduled.
func (s *Scheduler) Start(ids []string, interval time.Duration) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.gen++
	gen := s.gen

	s.ids, s.index = uniq(ids)
	s.visible = 0
	s.active = len(s.ids) > 0

	if !s.active {
		return Handle{gen: gen}
	}

	if interval <= 0 {
		last := len(s.ids) - 1
		s.timers = append(s.timers, s.clock.AfterFunc(0, func() { s.reveal(gen, last) }))
		return Handle{gen: gen}
	}

	s.timers = make([]clock.Timer, 0, len(s.ids))
	for i := range s.ids {
		i := i
		delay := time.Duration(i+1) * interval
		s.timers = append(s.timers, s.clock.AfterFunc(delay, func() { s.reveal(gen, i) }))
	}
	return Handle{gen: gen}
}

// reveal makes ids[0..i] visible if gen is still current. Revealing the
// whole prefix keeps order intact even if timers run late or out of order.
func (s *Scheduler) reveal(gen uint64, i int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || gen != s.gen {
		return
	}
	if i+1 > s.visible {
		s.visible = i + 1
	}
	if s.visible >= len(s.ids) {
		s.active = false
		s.timers = nil
	}
}

// Cancel stops the cycle identified by h. Once Cancel returns no further ids
// from that cycle become visible; ids already visible stay visible. Stale
// handles are ignored.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.gen != s.gen {
		return
	}
	s.cancelLocked()
}

// Close cancels whatever cycle is running
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

// cancelLocked stops outstanding timers and retires the generation. A
// callback already past its timer but waiting on the lock sees the newer
// generation and returns.
func (s *Scheduler) cancelLocked() {
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	if s.active {
		s.gen++
		s.active = false
	}
}

// Visible returns a copy of the RevealSet in reveal order
func (s *Scheduler) Visible() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, s.visible)
	copy(out, s.ids[:s.visible])
	return out
}

// IsVisible reports whether id has been revealed in the current set
func (s *Scheduler) IsVisible(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	return ok && i < s.visible
}

// Done reports whether no reveal is pending
func (s *Scheduler) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.active
}

// Generation returns the current cycle number
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func uniq(ids []string) ([]string, map[string]int) {
	out := make([]string, 0, len(ids))
	index := make(map[string]int, len(ids))
	for _, id := range ids {
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(out)
		out = append(out, id)
	}
	return out, index
}
