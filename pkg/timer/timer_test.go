package timer

import (
	"ebscript/pkg/object"
	"errors"
	"testing"
	"time"
)

var cb = &object.String{Value: "cb"}

func waitTick(t *testing.T, s *Scheduler) Tick {
	t.Helper()
	select {
	case tick := <-s.Ticks():
		return tick
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick received")
	}
	return Tick{}
}

func TestStartValidation(t *testing.T) {
	s := New()
	defer s.Close()

	tests := []struct {
		name     string
		period   time.Duration
		callback object.Object
		expected error
	}{
		{"", time.Second, cb, ErrNoName},
		{"  ", time.Second, cb, ErrNoName},
		{"t", 0, cb, ErrBadPeriod},
		{"t", -time.Second, cb, ErrBadPeriod},
		{"t", time.Second, nil, ErrNoCallback},
	}
	for i, tt := range tests {
		err := s.Start(tt.name, tt.period, tt.callback, "")
		if !errors.Is(err, tt.expected) {
			t.Errorf("tests[%d] - expected %v, got=%v", i, tt.expected, err)
		}
	}
	if s.Count() != 0 {
		t.Fatalf("invalid starts registered timers. got=%d", s.Count())
	}
}

func TestReplacement(t *testing.T) {
	s := New()
	defer s.Close()

	if err := s.Start("t1", 100*time.Millisecond, cb, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cb2 := &object.String{Value: "cb2"}
	if err := s.Start("t1", 50*time.Millisecond, cb2, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if s.Count() != 1 {
		t.Fatalf("expected exactly one timer. got=%d", s.Count())
	}
	info, ok := s.Info("t1")
	if !ok {
		t.Fatalf("t1 missing")
	}
	if info.Period != 50*time.Millisecond || info.Callback != cb2 {
		t.Fatalf("replacement not applied. got=%+v", info)
	}

	tick := waitTick(t, s)
	if tick.Name != "t1" || tick.Callback != cb2 {
		t.Fatalf("tick from replaced timer. got=%+v", tick)
	}
}

func TestPauseResume(t *testing.T) {
	s := New()
	defer s.Close()

	if err := s.Start("t1", 10*time.Millisecond, cb, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitTick(t, s)

	if !s.Pause("t1") {
		t.Fatalf("Pause returned false")
	}
	if s.Pause("t1") {
		t.Fatalf("second Pause should return false")
	}
	if s.IsRunning("t1") || !s.IsPaused("t1") {
		t.Fatalf("state wrong after pause")
	}

	// drain anything posted before the pause took effect
	time.Sleep(30 * time.Millisecond)
	for len(s.Ticks()) > 0 {
		<-s.Ticks()
	}
	before, _ := s.Info("t1")
	time.Sleep(50 * time.Millisecond)
	after, _ := s.Info("t1")
	if after.Fires != before.Fires {
		t.Fatalf("fire count moved while paused. before=%d after=%d", before.Fires, after.Fires)
	}

	if !s.Resume("t1") {
		t.Fatalf("Resume returned false")
	}
	if s.Resume("t1") {
		t.Fatalf("second Resume should return false")
	}
	if !s.IsRunning("t1") {
		t.Fatalf("timer not running after resume")
	}
	tick := waitTick(t, s)
	if tick.Fire <= before.Fires {
		t.Fatalf("fire count did not continue. got=%d, before=%d", tick.Fire, before.Fires)
	}
	info, _ := s.Info("t1")
	if info.Period != 10*time.Millisecond {
		t.Fatalf("period changed. got=%s", info.Period)
	}
}

func TestUnknownTimer(t *testing.T) {
	s := New()
	defer s.Close()
	if s.Pause("nope") || s.Resume("nope") || s.Stop("nope") {
		t.Fatalf("operations on a missing timer should return false")
	}
	if s.IsRunning("nope") || s.IsPaused("nope") {
		t.Fatalf("missing timer reported state")
	}
	if _, ok := s.Info("nope"); ok {
		t.Fatalf("Info found a missing timer")
	}
}

func TestStopAndStopOwner(t *testing.T) {
	s := New()
	defer s.Close()

	for _, tt := range []struct{ name, owner string }{
		{"a", "screen1"}, {"b", "screen1"}, {"c", "screen2"}, {"d", ""},
	} {
		if err := s.Start(tt.name, time.Hour, cb, tt.owner); err != nil {
			t.Fatalf("Start(%s): %v", tt.name, err)
		}
	}
	if !s.Stop("d") {
		t.Fatalf("Stop returned false")
	}
	if n := s.StopOwner("screen1"); n != 2 {
		t.Fatalf("StopOwner stopped wrong count. got=%d", n)
	}
	list := s.List()
	if len(list) != 1 || list[0].Name != "c" {
		t.Fatalf("wrong remaining timers. got=%+v", list)
	}
}

func TestMaxTimers(t *testing.T) {
	s := New(WithMaxTimers(2))
	defer s.Close()
	s.Start("a", time.Hour, cb, "")
	s.Start("b", time.Hour, cb, "")
	if err := s.Start("c", time.Hour, cb, ""); !errors.Is(err, ErrLimit) {
		t.Fatalf("expected ErrLimit, got=%v", err)
	}
	// replacing an existing name does not count twice
	if err := s.Start("a", time.Minute, cb, ""); err != nil {
		t.Fatalf("replacement hit the limit: %v", err)
	}
}

func TestClose(t *testing.T) {
	s := New()
	s.Start("a", time.Millisecond, cb, "")
	s.Close()
	if s.Count() != 0 {
		t.Fatalf("timers left after Close. got=%d", s.Count())
	}
	if err := s.Start("b", time.Second, cb, ""); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got=%v", err)
	}
	s.Close()
}

func TestTicksInOrder(t *testing.T) {
	s := New()
	defer s.Close()
	s.Start("t", 5*time.Millisecond, cb, "")
	var last int64
	for i := 0; i < 5; i++ {
		tick := waitTick(t, s)
		if tick.Fire != last+1 {
			t.Fatalf("tick out of order. expected=%d, got=%d", last+1, tick.Fire)
		}
		last = tick.Fire
	}
}

func TestFireCountMatchesDeliveredTicks(t *testing.T) {
	s := New(WithBuffer(1))
	defer s.Close()

	if err := s.Start("t", 5*time.Millisecond, cb, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// The buffer holds one tick; every later tick blocks until it is read.
	time.Sleep(100 * time.Millisecond)
	info, _ := s.Info("t")
	if info.Fires != 1 {
		t.Fatalf("fires counted while undelivered. got=%d", info.Fires)
	}

	for want := int64(1); want <= 3; want++ {
		tick := waitTick(t, s)
		if tick.Fire != want {
			t.Fatalf("tick %d carries fire %d", want, tick.Fire)
		}
	}
}
