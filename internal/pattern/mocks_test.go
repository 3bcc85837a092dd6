package pattern

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

// ─── Mock Dependencies ──────────────────────────────────────────────────────

// manualClock runs continuations only when the test advances it.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	fired   bool
	stopped bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	at := c.now + d
	if at < c.now {
		at = time.Duration(math.MaxInt64)
	}
	t := &manualTimer{clock: c, at: at, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward by d, running due continuations in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var next *manualTimer
		for _, t := range c.timers {
			if t.fired || t.stopped || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of continuations still waiting.
func (c *manualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

type fade struct {
	MS       int
	Color    string
	Channel  int
	DeviceID string
}

// recordingSink captures every fade command.
type recordingSink struct {
	mu    sync.Mutex
	fades []fade
}

func (s *recordingSink) FadeToColor(durationMS int, color string, channel int, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fades = append(s.fades, fade{MS: durationMS, Color: color, Channel: channel, DeviceID: deviceID})
}

func (s *recordingSink) Fades() []fade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]fade(nil), s.fades...)
}

func (s *recordingSink) Colors() []string {
	var out []string
	for _, f := range s.Fades() {
		out = append(out, f.Color)
	}
	return out
}

// memoryStore keeps settings as JSON in a map.
type memoryStore struct {
	mu     sync.Mutex
	docs   map[string][]byte
	saves  int
	failOn string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{docs: make(map[string][]byte)}
}

func (m *memoryStore) ReadSettings(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.docs[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dst)
}

func (m *memoryStore) SaveSettings(_ context.Context, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if key == m.failOn {
		return errors.New("disk full")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.docs[key] = data
	m.saves++
	return nil
}

func (m *memoryStore) put(t *testing.T, key string, value any) {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal %s: %v", key, err)
	}
	m.mu.Lock()
	m.docs[key] = data
	m.mu.Unlock()
}

// recordingEvents captures start and stop events.
type recordingEvents struct {
	mu      sync.Mutex
	started []string
	stopped []string
}

func (e *recordingEvents) PatternStarted(id, source string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.started = append(e.started, source+":"+id)
}

func (e *recordingEvents) PatternStopped(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopped = append(e.stopped, id)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

var testTemplates = []Template{
	{Name: "red flashes", Pattern: "3,#ff0000,0.5,0,#000000,0.5,0"},
	{ID: "policecar", Name: "Police Car", Pattern: "2,#ff0000,0.3,1,#0000ff,0.3,2"},
	{Name: "party", Pattern: "0,#ff00ff,0.25,0,#00ffff,0.25,0"},
	{Name: "slow", Pattern: "1,#111111,1,0,#222222,1,0,#333333,1,0"},
}

type harness struct {
	svc    *Service
	clock  *manualClock
	sink   *recordingSink
	store  *memoryStore
	events *recordingEvents
}

func newHarness(t *testing.T, serialize bool) *harness {
	t.Helper()
	h := &harness{
		clock:  &manualClock{},
		sink:   &recordingSink{},
		store:  newMemoryStore(),
		events: &recordingEvents{},
	}
	h.svc = NewService(Options{
		Sink:      h.sink,
		Store:     h.store,
		Clock:     h.clock,
		Events:    h.events,
		Templates: testTemplates,
		Config:    ServiceConfig{PlayingSerialize: serialize},
	})
	if err := h.svc.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	t.Cleanup(h.svc.Close)
	return h
}

func (h *harness) pattern(t *testing.T, id string) Pattern {
	t.Helper()
	p, ok := h.svc.PatternByID(id)
	if !ok {
		t.Fatalf("pattern %q not in catalog", id)
	}
	return p
}
