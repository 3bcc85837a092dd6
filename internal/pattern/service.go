package pattern

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Settings keys used with the SettingsStore.
const (
	SettingsKeyPatterns = "patterns"
	SettingsKeyService  = "patternsService"
)

const newPatternColor = "#55ff00"

// Sink sends a color transition to a device. It is called with the
// service lock held, so it must not block or call back into the Service.
// Failures are the sink's to log; playback carries on regardless.
type Sink interface {
	FadeToColor(durationMS int, color string, channel int, deviceID string)
}

// SettingsStore persists JSON settings documents by key.
type SettingsStore interface {
	// ReadSettings decodes the document at key into dst and reports
	// whether it existed.
	ReadSettings(ctx context.Context, key string, dst any) (bool, error)
	SaveSettings(ctx context.Context, key string, value any) error
}

// Events is told when patterns start and stop playing.
type Events interface {
	PatternStarted(id, source string)
	PatternStopped(id string)
}

// Logger is the logging interface used by the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopSink struct{}

func (noopSink) FadeToColor(int, string, int, string) {}

// ServiceConfig is the runtime configuration stored under
// SettingsKeyService.
type ServiceConfig struct {
	// PlayingSerialize makes a new play interrupt the active pattern and
	// resume it afterwards, instead of running alongside it.
	PlayingSerialize bool `json:"playingSerialize"`
}

// Options configures a Service. Only Sink is required for playback to
// be visible; everything else has a working default.
type Options struct {
	Sink   Sink
	Store  SettingsStore
	Clock  Clock
	Logger Logger
	Events Events

	// Templates are the built-in patterns. Nil means DefaultTemplates.
	Templates []Template

	// Config applies until ReloadConfig finds a stored one.
	Config ServiceConfig
}

// QueueEntry is an interrupted playback waiting to resume.
type QueueEntry struct {
	Source   string
	Pattern  *Pattern
	DeviceID string
}

// Status describes what is playing right now.
type Status struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name,omitempty"`
	Source   string   `json:"source,omitempty"`
	DeviceID string   `json:"device_id,omitempty"`
	Info     string   `json:"info"`
	Queued   []string `json:"queued"`
	Playing  []string `json:"playing"`
}

// Service owns the pattern catalog and the playback state.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Listeners and Events run after the internal lock is released.
type Service struct {
	mu      sync.Mutex
	catalog *Catalog
	cfg     ServiceConfig
	closed  bool

	// Playback context: the active pattern and the interrupt stack.
	active       *Pattern
	activeSource string
	activeDevice string
	stack        []QueueEntry

	// outbox holds notifications queued under mu, run after unlock.
	outbox []func()

	sink     Sink
	store    SettingsStore
	clock    Clock
	logger   Logger
	events   Events
	notifier *notifier

	persistMu    sync.Mutex
	saveSeq      uint64
	persistedSeq uint64
}

// NewService creates a service holding the built-in patterns. Call
// Initialize to load user patterns and stored config.
func NewService(opts Options) *Service {
	s := &Service{
		cfg:    opts.Config,
		sink:   opts.Sink,
		store:  opts.Store,
		clock:  opts.Clock,
		logger: opts.Logger,
		events: opts.Events,
	}
	if s.sink == nil {
		s.sink = noopSink{}
	}
	if s.clock == nil {
		s.clock = wallClock{}
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	s.notifier = &notifier{logger: s.logger}

	templates := opts.Templates
	if templates == nil {
		templates = DefaultTemplates()
	}
	builtin := make([]*Pattern, 0, len(templates))
	for _, t := range templates {
		builtin = append(builtin, t.build())
	}
	s.catalog = NewCatalog(builtin, nil)

	return s
}

// Initialize loads the stored service config and user patterns.
// Stored patterns with no usable steps become a single black step.
func (s *Service) Initialize(ctx context.Context) error {
	if err := s.ReloadConfig(ctx); err != nil {
		return err
	}

	var saved []Output
	if s.store != nil {
		if _, err := s.store.ReadSettings(ctx, SettingsKeyPatterns, &saved); err != nil {
			return fmt.Errorf("reading saved patterns: %w", err)
		}
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	var user []*Pattern
	for _, o := range saved {
		p := restorePattern(o)
		if p.ID == "" || s.catalog.IsBuiltin(p.ID) {
			s.logger.Warn("skipping saved pattern", "id", p.ID, "name", p.Name)
			continue
		}
		user = append(user, p)
	}

	s.catalog = NewCatalog(s.catalog.builtin, user)
	s.logger.Info("patterns loaded",
		"builtin", len(s.catalog.builtin),
		"user", len(user),
		"serialize", s.cfg.PlayingSerialize,
	)
	return nil
}

func restorePattern(o Output) *Pattern {
	p := &Pattern{ID: o.ID, Name: o.Name}
	if p.ID == "" {
		p.ID = GenerateID(p.Name)
	}
	if o.Pattern != "" {
		p.Repeats, p.Steps = ParseSteps(o.Pattern)
	}
	if len(p.Steps) == 0 {
		p.Repeats = 1
		p.Steps = []Step{{Color: black, Duration: defaultDuration}}
	}
	return p
}

// ReloadConfig re-reads ServiceConfig from the settings store. A missing
// document keeps the current config.
func (s *Service) ReloadConfig(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	var cfg ServiceConfig
	found, err := s.store.ReadSettings(ctx, SettingsKeyService, &cfg)
	if err != nil {
		return fmt.Errorf("reading service config: %w", err)
	}
	if !found {
		return nil
	}

	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Config returns the current runtime config.
func (s *Service) Config() ServiceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the runtime config and persists it.
func (s *Service) SetConfig(ctx context.Context, cfg ServiceConfig) error {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if err := s.store.SaveSettings(ctx, SettingsKeyService, cfg); err != nil {
		return fmt.Errorf("saving service config: %w", err)
	}
	return nil
}

// Close cancels every pending step. Play fails with ErrClosed afterwards.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for _, p := range s.catalog.All() {
		p.task.cancel()
		p.task = nil
	}
	for _, e := range s.stack {
		e.Pattern.task.cancel()
		e.Pattern.task = nil
	}
	s.outbox = nil
}

// Play resolves token and plays the result on deviceID ("" for the
// default device). source names the requester for PlayingInfo.
//
// It returns the played pattern's id, or the token itself for "#color"
// and "~off", which do not create a pattern.
func (s *Service) Play(source, token, deviceID string) (string, error) {
	d, err := ParseDirective(token)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.unlockAndFlush()

	if s.closed {
		return "", ErrClosed
	}

	switch d := d.(type) {
	case LiteralColor:
		s.sink.FadeToColor(colorFadeMS, d.Color, 0, deviceID)
		return token, nil

	case Off:
		s.stopAllLocked()
		s.sink.FadeToColor(offFadeMS, black, 0, deviceID)
		return token, nil

	case StopNamed:
		return s.stopLocked(d.Name)

	case Blink:
		p := blinkPattern(d)
		s.addEphemeralLocked(p)
		s.startLocked(source, p, deviceID)
		return p.ID, nil

	case AdHocPattern:
		p := adHocPattern(d)
		if len(p.Steps) == 0 {
			return "", fmt.Errorf("%w: %q", ErrEmptyPattern, d.Name)
		}
		s.addEphemeralLocked(p)
		s.startLocked(source, p, deviceID)
		return p.ID, nil

	case CatalogLookup:
		p := s.catalog.Resolve(d.Token)
		if p == nil {
			return "", fmt.Errorf("%w: %q", ErrPatternNotFound, d.Token)
		}
		if len(p.Steps) == 0 {
			return "", fmt.Errorf("%w: %q", ErrEmptyPattern, p.ID)
		}
		s.startLocked(source, p, deviceID)
		return p.ID, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownDirective, token)
}

// Stop stops the pattern with the given id. If it was the active pattern
// and an interrupted one is waiting, that one resumes. Stopping an idle
// pattern succeeds and returns its id.
func (s *Service) Stop(id string) (string, error) {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.stopLocked(id)
}

// StopAll stops every pattern, drops the interrupt stack, and removes all
// ephemeral patterns.
func (s *Service) StopAll() {
	s.mu.Lock()
	defer s.unlockAndFlush()
	s.stopAllLocked()
}

// SavePattern creates or replaces a user pattern. A missing id is
// generated from the name. Saving over a built-in id fails with
// ErrLockedPattern. Replacing a playing pattern stops it.
func (s *Service) SavePattern(ctx context.Context, p Pattern) (Pattern, error) {
	if p.ID == "" {
		p.ID = GenerateID(p.Name)
	}
	if p.ID == "" {
		return Pattern{}, fmt.Errorf("%w: name or id required", ErrInvalidPattern)
	}
	if p.Name == "" {
		p.Name = p.ID
	}
	if len(p.Steps) == 0 {
		return Pattern{}, fmt.Errorf("%w: %q has no steps", ErrInvalidPattern, p.ID)
	}

	saved := &Pattern{
		ID:      p.ID,
		Name:    p.Name,
		Steps:   append([]Step(nil), p.Steps...),
		Repeats: p.Repeats,
	}

	s.mu.Lock()
	if s.catalog.IsBuiltin(saved.ID) {
		s.mu.Unlock()
		return Pattern{}, fmt.Errorf("%w: %q", ErrLockedPattern, saved.ID)
	}
	if replaced := s.catalog.UpsertUser(saved); replaced != nil && replaced.Playing {
		s.stopPatternLocked(replaced)
	}
	seq, out := s.queueSaveLocked()
	s.notifyLocked()
	result := saved.clone()
	s.unlockAndFlush()

	s.logger.Info("pattern saved", "id", result.ID, "name", result.Name)
	return result, s.persist(ctx, seq, out)
}

// DeletePattern removes a user pattern, stopping it first if it is
// playing. Built-in ids are silently ignored.
func (s *Service) DeletePattern(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.catalog.IsBuiltin(id) {
		s.mu.Unlock()
		return nil
	}
	removed := s.catalog.DeleteUser(id)
	if removed == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrPatternNotFound, id)
	}
	if removed.Playing {
		s.stopPatternLocked(removed)
	}
	seq, out := s.queueSaveLocked()
	s.notifyLocked()
	s.unlockAndFlush()

	s.logger.Info("pattern deleted", "id", id)
	return s.persist(ctx, seq, out)
}

func (s *Service) queueSaveLocked() (uint64, []Output) {
	s.saveSeq++
	user := s.catalog.User()
	out := make([]Output, 0, len(user))
	for _, p := range user {
		out = append(out, Output{ID: p.ID, Name: p.Name, Pattern: storedSteps(p.Repeats, p.Steps)})
	}
	return s.saveSeq, out
}

// persist writes a user pattern snapshot unless a newer one already
// reached the store.
func (s *Service) persist(ctx context.Context, seq uint64, out []Output) error {
	if s.store == nil {
		return nil
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	if seq <= s.persistedSeq {
		return nil
	}
	if err := s.store.SaveSettings(ctx, SettingsKeyPatterns, out); err != nil {
		return fmt.Errorf("saving patterns: %w", err)
	}
	s.persistedSeq = seq
	return nil
}

// NewPattern returns a three-times blink of color, not yet saved. An
// empty name becomes "pattern N".
func (s *Service) NewPattern(name, color string) Pattern {
	if name == "" {
		s.mu.Lock()
		name = "pattern " + strconv.Itoa(len(s.catalog.user))
		s.mu.Unlock()
		color = newPatternColor
	}
	if color == "" {
		color = newPatternColor
	}
	return Pattern{
		ID:      GenerateID(name),
		Name:    name,
		Repeats: 3,
		Steps: []Step{
			{Color: color, Duration: 0.2},
			{Color: black, Duration: 0.2},
		},
	}
}

// NewPatternFromString parses text into an unsaved pattern. It returns
// nil for empty text.
func NewPatternFromString(name, text string) *Pattern {
	if text == "" {
		return nil
	}
	repeats, steps := ParseSteps(text)
	return &Pattern{
		ID:      GenerateID(name),
		Name:    name,
		Repeats: repeats,
		Steps:   steps,
	}
}

// Patterns returns a snapshot of every pattern, built-in first.
func (s *Service) Patterns() []Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// PatternsForOutput returns every pattern in {id, name, pattern} form.
func (s *Service) PatternsForOutput() []Output {
	s.mu.Lock()
	defer s.mu.Unlock()
	return outputs(s.catalog.All())
}

// PatternByID returns a copy of the first pattern with the given id.
func (s *Service) PatternByID(id string) (Pattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.catalog.FindByID(id); p != nil {
		return p.clone(), true
	}
	return Pattern{}, false
}

// PatternByName returns a copy of the first pattern with the given name.
func (s *Service) PatternByName(name string) (Pattern, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.catalog.FindByName(name); p != nil {
		return p.clone(), true
	}
	return Pattern{}, false
}

// IDForName returns the id of the pattern called name, or "". Play
// tokens starting with "~" are returned unchanged.
func (s *Service) IDForName(name string) string {
	if strings.HasPrefix(name, prefixMeta) {
		return name
	}
	if p, ok := s.PatternByName(name); ok {
		return p.ID
	}
	return ""
}

// NameForID returns the name of the pattern with the given id, or "".
func (s *Service) NameForID(id string) string {
	if p, ok := s.PatternByID(id); ok {
		return p.Name
	}
	return ""
}

// PlayingID returns the active pattern's id, or "".
func (s *Service) PlayingID() string {
	return s.Status().ID
}

// PlayingName returns the active pattern's name, or "".
func (s *Service) PlayingName() string {
	return s.Status().Name
}

// PlayingInfo returns "source:name" for the active pattern, or "".
func (s *Service) PlayingInfo() string {
	return s.Status().Info
}

// Status returns the active pattern, the ids waiting on the interrupt
// stack (most recent last), and every playing id.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Service) statusLocked() Status {
	st := Status{Queued: []string{}, Playing: []string{}}
	if p := s.active; p != nil {
		st.ID = p.ID
		st.Name = p.Name
		st.Source = s.activeSource
		st.DeviceID = s.activeDevice
		if p.Name != "" {
			st.Info = s.activeSource + ":" + p.Name
		}
	}
	for _, e := range s.stack {
		st.Queued = append(st.Queued, e.Pattern.ID)
	}
	for _, p := range s.catalog.All() {
		if p.Playing {
			st.Playing = append(st.Playing, p.ID)
		}
	}
	return st
}

// AddChangeListener registers fn under name, replacing any listener
// already registered under that name.
func (s *Service) AddChangeListener(name string, fn Listener) {
	s.notifier.add(name, fn)
}

// RemoveChangeListener unregisters the listener called name.
func (s *Service) RemoveChangeListener(name string) {
	s.notifier.remove(name)
}

func outputs(ps []*Pattern) []Output {
	out := make([]Output, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Output())
	}
	return out
}
