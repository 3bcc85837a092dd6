package pattern

import (
	"fmt"
	"math"
	"time"
)

// minStepDelay keeps zero-length steps from spinning the scheduler.
const minStepDelay = 10 * time.Millisecond

// Everything in this file runs with s.mu held.

func (s *Service) unlockAndFlush() {
	effects := s.outbox
	s.outbox = nil
	s.mu.Unlock()

	for _, f := range effects {
		f()
	}
}

func (s *Service) notifyLocked() {
	snapshot := s.snapshotLocked()
	s.outbox = append(s.outbox, func() { s.notifier.deliver(snapshot) })
}

func (s *Service) snapshotLocked() []Pattern {
	all := s.catalog.All()
	out := make([]Pattern, 0, len(all))
	for _, p := range all {
		out = append(out, p.clone())
	}
	return out
}

func (s *Service) startedLocked(p *Pattern, source string) {
	if s.events == nil {
		return
	}
	id := p.ID
	s.outbox = append(s.outbox, func() { s.events.PatternStarted(id, source) })
}

func (s *Service) stoppedLocked(p *Pattern) {
	if s.events == nil {
		return
	}
	id := p.ID
	s.outbox = append(s.outbox, func() { s.events.PatternStopped(id) })
}

// addEphemeralLocked registers p, halting any ephemeral pattern it
// replaces so the old loop cannot keep driving the sink.
func (s *Service) addEphemeralLocked(p *Pattern) {
	old := s.catalog.AddEphemeral(p)
	if old == nil || !old.Playing {
		return
	}
	old.Playing = false
	old.task.cancel()
	old.task = nil
	s.removeFromStackLocked(old)
	if s.active == old {
		s.clearActiveLocked()
	}
	s.stoppedLocked(old)
}

func (s *Service) startLocked(source string, p *Pattern, deviceID string) {
	if s.cfg.PlayingSerialize && s.active != nil && s.active != p {
		s.active.task.cancel()
		s.active.task = nil
		s.stack = append(s.stack, QueueEntry{
			Source:   s.activeSource,
			Pattern:  s.active,
			DeviceID: s.activeDevice,
		})
		s.logger.Debug("pattern interrupted", "id", s.active.ID, "by", p.ID)
	}

	s.removeFromStackLocked(p)
	p.task.cancel()
	p.task = nil
	p.PlayPos = 0
	p.PlayCount = 0
	p.Playing = true

	s.active = p
	s.activeSource = source
	s.activeDevice = deviceID

	s.logger.Info("pattern started", "id", p.ID, "source", source, "device_id", deviceID)
	s.startedLocked(p, source)
	s.advanceLocked(p, source, deviceID)
}

// advanceLocked plays the step at PlayPos and schedules the next one.
func (s *Service) advanceLocked(p *Pattern, source, deviceID string) {
	if len(p.Steps) == 0 {
		s.stopPatternLocked(p)
		return
	}
	if p.PlayPos >= len(p.Steps) {
		p.PlayPos = 0
	}

	step := p.Steps[p.PlayPos]
	s.sink.FadeToColor(fadeMS(step.Duration), step.Color, step.Channel, deviceID)

	p.PlayPos++
	if p.PlayPos == len(p.Steps) {
		p.PlayPos = 0
		if !p.loops() {
			p.PlayCount++
			if p.PlayCount >= p.Repeats {
				s.finishLocked(p)
				return
			}
		}
	}

	s.notifyLocked()
	s.scheduleLocked(p, source, deviceID, step.Duration)
}

func (s *Service) scheduleLocked(p *Pattern, source, deviceID string, seconds float64) {
	t := &task{}
	p.task = t
	t.timer = s.clock.AfterFunc(stepDelay(seconds), func() {
		s.fire(p, t, source, deviceID)
	})
}

// fire is the timer continuation. It does nothing unless t is still the
// task stored on p.
func (s *Service) fire(p *Pattern, t *task, source, deviceID string) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.closed || p.task != t || !p.Playing {
		return
	}
	p.task = nil
	s.advanceLocked(p, source, deviceID)
}

// finishLocked ends a pattern that ran all its repeats.
func (s *Service) finishLocked(p *Pattern) {
	s.logger.Debug("pattern finished", "id", p.ID, "repeats", p.Repeats)
	s.stopPatternLocked(p)
	if p.Temporary {
		s.catalog.RemoveEphemeral(p)
		s.notifyLocked()
	}
}

func (s *Service) stopLocked(id string) (string, error) {
	matches := s.catalog.FindAllByID(id)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrPatternNotFound, id)
	}

	target := matches[0]
	for _, p := range matches {
		if p.Playing {
			target = p
			break
		}
	}

	s.stopPatternLocked(target)
	return target.ID, nil
}

// stopPatternLocked stops p. If p was active, the most recent live entry
// on the interrupt stack resumes where it left off.
func (s *Service) stopPatternLocked(p *Pattern) {
	wasPlaying := p.Playing
	p.Playing = false
	p.task.cancel()
	p.task = nil
	s.removeFromStackLocked(p)

	if wasPlaying {
		s.logger.Info("pattern stopped", "id", p.ID)
		s.stoppedLocked(p)
	}

	if s.active == p {
		s.clearActiveLocked()
		if s.resumeLocked() {
			return
		}
	}
	s.notifyLocked()
}

// resumeLocked pops interrupt entries until one is still live and
// continues it from its saved position. Stale entries are dropped.
func (s *Service) resumeLocked() bool {
	for len(s.stack) > 0 {
		e := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		p := e.Pattern
		if !p.Playing || !s.catalog.Contains(p) || len(p.Steps) == 0 {
			continue
		}

		s.active = p
		s.activeSource = e.Source
		s.activeDevice = e.DeviceID
		s.logger.Debug("pattern resumed", "id", p.ID, "pos", p.PlayPos, "count", p.PlayCount)
		s.advanceLocked(p, e.Source, e.DeviceID)
		return true
	}
	return false
}

func (s *Service) stopAllLocked() {
	for _, p := range s.catalog.All() {
		if !p.Playing {
			continue
		}
		p.Playing = false
		p.task.cancel()
		p.task = nil
		s.stoppedLocked(p)
	}
	for _, e := range s.stack {
		e.Pattern.Playing = false
		e.Pattern.task.cancel()
		e.Pattern.task = nil
	}

	s.clearActiveLocked()
	s.stack = nil
	s.catalog.ClearEphemeral()
	s.logger.Info("all patterns stopped")
	s.notifyLocked()
}

func (s *Service) clearActiveLocked() {
	s.active = nil
	s.activeSource = ""
	s.activeDevice = ""
}

func (s *Service) removeFromStackLocked(p *Pattern) {
	kept := s.stack[:0]
	for _, e := range s.stack {
		if e.Pattern != p {
			kept = append(kept, e)
		}
	}
	s.stack = kept
}

// fadeMS converts a step duration to whole milliseconds, capped at
// math.MaxInt32.
func fadeMS(seconds float64) int {
	ms := math.Round(seconds * 1000)
	if ms >= math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

// stepDelay converts a step duration to a timer delay between
// minStepDelay and the largest time.Duration.
func stepDelay(seconds float64) time.Duration {
	if seconds >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	d := time.Duration(seconds * float64(time.Second))
	if d < minStepDelay {
		return minStepDelay
	}
	return d
}
