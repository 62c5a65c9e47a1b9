package reveal

import (
	"testing"
	"time"

	"github.com/campus-velo/velo/internal/clock"
	"github.com/campus-velo/velo/internal/testutil"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newFake() *clock.Fake {
	return clock.NewFake(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
}

func TestScheduler_RevealOrdering(t *testing.T) {
	c := newFake()
	s := New(c)

	s.Start([]string{"a", "b", "c"}, 80*time.Millisecond)

	testutil.AssertSliceEqual(t, s.Visible(), []string{})

	c.Advance(85 * time.Millisecond)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a"})

	c.Advance(80 * time.Millisecond) // t=165ms
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a", "b"})
	testutil.AssertFalse(t, s.Done())

	c.Advance(80 * time.Millisecond) // t=245ms
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a", "b", "c"})
	testutil.AssertTrue(t, s.Done())
	testutil.AssertEqual(t, c.Pending(), 0)
}

func TestScheduler_RestartCancelsPreviousGeneration(t *testing.T) {
	c := newFake()
	s := New(c)

	first := s.Start([]string{"x1", "x2", "x3"}, 50*time.Millisecond)
	second := s.Start([]string{"y1", "y2"}, 50*time.Millisecond)
	testutil.AssertTrue(t, second.Generation() > first.Generation())

	var observed []string
	for i := 0; i < 10; i++ {
		c.Advance(25 * time.Millisecond)
		observed = append(observed, s.Visible()...)
	}

	for _, id := range observed {
		testutil.AssertTrue(t, id == "y1" || id == "y2")
	}
	testutil.AssertSliceEqual(t, s.Visible(), []string{"y1", "y2"})
	testutil.AssertEqual(t, c.Pending(), 0)
}

func TestScheduler_RestartMidCycleReplacesSet(t *testing.T) {
	c := newFake()
	s := New(c)

	s.Start([]string{"a", "b", "c"}, 10*time.Millisecond)
	c.Advance(15 * time.Millisecond)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a"})

	s.Start([]string{"c", "d"}, 10*time.Millisecond)
	testutil.AssertSliceEqual(t, s.Visible(), []string{})
	testutil.AssertFalse(t, s.IsVisible("a"))

	c.Advance(100 * time.Millisecond)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"c", "d"})
}

func TestScheduler_Cancel(t *testing.T) {
	c := newFake()
	s := New(c)

	h := s.Start([]string{"a", "b", "c"}, 10*time.Millisecond)
	c.Advance(15 * time.Millisecond)
	s.Cancel(h)

	c.Advance(time.Second)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a"})
	testutil.AssertTrue(t, s.Done())
	testutil.AssertEqual(t, c.Pending(), 0)
}

func TestScheduler_CancelStaleHandleIsNoop(t *testing.T) {
	c := newFake()
	s := New(c)

	old := s.Start([]string{"a"}, 10*time.Millisecond)
	s.Start([]string{"b", "c"}, 10*time.Millisecond)
	s.Cancel(old)

	c.Advance(time.Second)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"b", "c"})
}

func TestScheduler_EmptyList(t *testing.T) {
	c := newFake()
	s := New(c)

	s.Start(nil, 10*time.Millisecond)
	c.Advance(time.Second)
	testutil.AssertLen(t, s.Visible(), 0)
	testutil.AssertTrue(t, s.Done())
	testutil.AssertEqual(t, c.Pending(), 0)
}

func TestScheduler_ZeroInterval(t *testing.T) {
	c := newFake()
	s := New(c)

	s.Start([]string{"a", "b", "c"}, 0)
	testutil.AssertLen(t, s.Visible(), 0)

	c.Advance(0)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a", "b", "c"})
	testutil.AssertTrue(t, s.Done())
}

func TestScheduler_DuplicatesRevealedOnce(t *testing.T) {
	c := newFake()
	s := New(c)

	s.Start([]string{"a", "b", "a", "c", "b"}, 10*time.Millisecond)
	c.Advance(25 * time.Millisecond)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a", "b"})

	c.Advance(time.Second)
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a", "b", "c"})
	testutil.AssertTrue(t, s.IsVisible("c"))
	testutil.AssertFalse(t, s.IsVisible("z"))
}

func TestScheduler_VisibleReturnsCopy(t *testing.T) {
	c := newFake()
	s := New(c)

	s.Start([]string{"a", "b"}, 0)
	c.Advance(0)
	v := s.Visible()
	v[0] = "mutated"
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a", "b"})
}

func TestScheduler_RealClockCloseStopsTimers(t *testing.T) {
	s := New(nil)

	s.Start([]string{"a", "b", "c"}, time.Hour)
	s.Close()

	testutil.AssertTrue(t, s.Done())
	testutil.AssertLen(t, s.Visible(), 0)
}

func TestScheduler_RealClockRevealsInOrder(t *testing.T) {
	s := New(clock.Real())

	s.Start([]string{"a", "b", "c", "d"}, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for !s.Done() && time.Now().Before(deadline) {
		v := s.Visible()
		want := []string{"a", "b", "c", "d"}[:len(v)]
		testutil.AssertSliceEqual(t, v, want)
		time.Sleep(time.Millisecond)
	}
	testutil.AssertSliceEqual(t, s.Visible(), []string{"a", "b", "c", "d"})
}
