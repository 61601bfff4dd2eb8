// Package timer implements named periodic timers. Timer goroutines never run
// script code: each tick is posted on a channel that a single consumer (the
// interpreter loop) drains.
package timer

import (
	"ebscript/pkg/object"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrClosed     = errors.New("timer scheduler is closed")
	ErrLimit      = errors.New("too many active timers")
	ErrNoName     = errors.New("timer name must not be blank")
	ErrBadPeriod  = errors.New("period must be positive")
	ErrNoCallback = errors.New("timer callback is required")
)

const (
	DefaultBuffer    = 64
	DefaultMaxTimers = 32
)

// Tick is one firing of a timer, posted for the consumer to execute.
type Tick struct {
	Name     string
	Callback object.Object
	Owner    string
	Fire     int64
	At       time.Time
}

// Info is a snapshot of a timer's state.
type Info struct {
	Name     string
	Period   time.Duration
	Callback object.Object
	Owner    string
	Created  time.Time
	Fires    int64
	Paused   bool
}

type entry struct {
	name     string
	period   time.Duration
	callback object.Object
	owner    string
	created  time.Time
	fires    atomic.Int64
	paused   bool
	stop     chan struct{}
}

func (e *entry) info() Info {
	return Info{
		Name:     e.name,
		Period:   e.period,
		Callback: e.callback,
		Owner:    e.owner,
		Created:  e.created,
		Fires:    e.fires.Load(),
		Paused:   e.paused,
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxTimers caps the number of registered timers, paused ones included.
func WithMaxTimers(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.max = n
		}
	}
}

// WithBuffer sets the capacity of the tick channel.
func WithBuffer(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.buffer = n
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler owns the named-timer registry. All methods are safe for
// concurrent use.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*entry
	ticks  chan Tick
	wg     sync.WaitGroup
	closed bool

	max    int
	buffer int
	logger *slog.Logger
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		timers: make(map[string]*entry),
		max:    DefaultMaxTimers,
		buffer: DefaultBuffer,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ticks = make(chan Tick, s.buffer)
	return s
}

// Ticks is the channel the consumer drains.
func (s *Scheduler) Ticks() <-chan Tick { return s.ticks }

// Start registers and starts a timer, replacing any timer with the same name.
func (s *Scheduler) Start(name string, period time.Duration, callback object.Object, owner string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ErrNoName
	case period <= 0:
		return ErrBadPeriod
	case callback == nil || callback == object.NULL:
		return ErrNoCallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if old, ok := s.timers[name]; ok {
		s.cancel(old)
		delete(s.timers, name)
		s.logger.Debug("timer replaced", slog.String("timer", name))
	}
	if len(s.timers) >= s.max {
		return fmt.Errorf("%w (limit %d)", ErrLimit, s.max)
	}

	e := &entry{
		name:     name,
		period:   period,
		callback: callback,
		owner:    owner,
		created:  time.Now(),
	}
	s.timers[name] = e
	s.spawn(e)
	s.logger.Debug("timer started",
		slog.String("timer", name),
		slog.Duration("period", period),
		slog.String("owner", owner))
	return nil
}

// spawn starts the ticker goroutine for e. Callers hold s.mu.
func (s *Scheduler) spawn(e *entry) {
	stop := make(chan struct{})
	e.stop = stop
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(e.period)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case at := <-ticker.C:
				t := Tick{
					Name:     e.name,
					Callback: e.callback,
					Owner:    e.owner,
					Fire:     e.fires.Load() + 1,
					At:       at,
				}
				select {
				case s.ticks <- t:
					e.fires.Add(1)
				case <-stop:
					return
				}
			}
		}
	}()
}

// cancel stops e's goroutine if it is running. Callers hold s.mu.
func (s *Scheduler) cancel(e *entry) {
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

// Pause cancels future ticks and keeps the fire count and period. It reports
// false if the timer does not exist or is already paused.
func (s *Scheduler) Pause(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[name]
	if !ok || e.paused {
		return false
	}
	s.cancel(e)
	e.paused = true
	s.logger.Debug("timer paused", slog.String("timer", name))
	return true
}

// Resume reschedules a paused timer with its original period.
func (s *Scheduler) Resume(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[name]
	if !ok || !e.paused || s.closed {
		return false
	}
	e.paused = false
	s.spawn(e)
	s.logger.Debug("timer resumed", slog.String("timer", name))
	return true
}

// Stop cancels and deregisters a timer.
func (s *Scheduler) Stop(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[name]
	if !ok {
		return false
	}
	s.cancel(e)
	delete(s.timers, name)
	s.logger.Debug("timer stopped", slog.String("timer", name), slog.Int64("fires", e.fires.Load()))
	return true
}

// StopOwner stops every timer tagged with owner and returns how many were
// stopped.
func (s *Scheduler) StopOwner(owner string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for name, e := range s.timers {
		if e.owner != owner {
			continue
		}
		s.cancel(e)
		delete(s.timers, name)
		n++
	}
	if n > 0 {
		s.logger.Debug("owner timers stopped", slog.String("owner", owner), slog.Int("count", n))
	}
	return n
}

func (s *Scheduler) IsRunning(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[name]
	return ok && !e.paused
}

func (s *Scheduler) IsPaused(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[name]
	return ok && e.paused
}

// Info returns a snapshot of the named timer.
func (s *Scheduler) Info(name string) (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.timers[name]
	if !ok {
		return Info{}, false
	}
	return e.info(), true
}

// List returns snapshots of all timers ordered by name.
func (s *Scheduler) List() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Info, 0, len(s.timers))
	for _, e := range s.timers {
		out = append(out, e.info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count is the number of registered timers, paused ones included.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Running is the number of timers that are not paused.
func (s *Scheduler) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.timers {
		if !e.paused {
			n++
		}
	}
	return n
}

// Close stops every timer and waits for their goroutines to exit. Ticks
// already posted stay in the channel.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for name, e := range s.timers {
		s.cancel(e)
		delete(s.timers, name)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
