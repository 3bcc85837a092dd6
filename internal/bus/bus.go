package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-blink/internal/audit"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-blink/internal/pattern"
)

const (
	listenerName  = "mqtt-status"
	defaultSource = "mqtt"
	requestQoS    = 1
)

// ErrMissingPattern is returned for a play request without a target.
var ErrMissingPattern = errors.New("bus: play request has no pattern")

// MQTTClient is the subset of the MQTT client the bus needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Player is the subset of pattern.Service the bus drives.
type Player interface {
	Play(source, token, deviceID string) (string, error)
	Stop(id string) (string, error)
	StopAll()
	Status() pattern.Status
	AddChangeListener(name string, fn pattern.Listener)
	RemoveChangeListener(name string)
}

// Auditor records handled requests. *audit.Recorder satisfies it.
type Auditor interface {
	Record(action, patternID, source string)
}

// Logger is the logging interface used by the bus.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Bus.
type Options struct {
	MQTT     MQTTClient
	Patterns Player

	// Audit is optional.
	Audit Auditor

	// Logger is optional.
	Logger Logger
}

// Request is the payload of play and stop requests.
type Request struct {
	Pattern  string `json:"pattern,omitempty"`
	ID       string `json:"id,omitempty"`
	DeviceID string `json:"device_id,omitempty"`
	Source   string `json:"source,omitempty"`
}

func (r Request) target() string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.ID
}

func (r Request) source() string {
	if r.Source != "" {
		return r.Source
	}
	return defaultSource
}

// StatusMessage is the retained playback snapshot.
type StatusMessage struct {
	pattern.Status
	Timestamp time.Time `json:"timestamp"`
}

// Bus connects MQTT requests to the pattern service.
type Bus struct {
	mqtt     MQTTClient
	patterns Player
	audit    Auditor
	logger   Logger
	topics   mqtt.Topics

	// statusDue holds at most one pending status publish; the worker reads
	// the status when it publishes, so bursts of changes collapse.
	statusDue chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup

	stopOnce sync.Once
	now      func() time.Time
}

// New creates a Bus. Call Start to subscribe.
func New(opts Options) (*Bus, error) {
	if opts.MQTT == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Patterns == nil {
		return nil, fmt.Errorf("pattern service is required")
	}
	b := &Bus{
		mqtt:     opts.MQTT,
		patterns: opts.Patterns,
		audit:    opts.Audit,
		logger:   opts.Logger,
		now:      time.Now,

		statusDue: make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	if b.logger == nil {
		b.logger = noopLogger{}
	}
	return b, nil
}

// Start subscribes to the request topics, publishes the current status,
// and republishes it after every pattern change. Status is published from
// its own goroutine so message handlers never wait on a broker ack.
func (b *Bus) Start() error {
	if err := b.mqtt.Subscribe(b.topics.PlayRequest(), requestQoS, b.handlePlay); err != nil {
		return fmt.Errorf("subscribe to play requests: %w", err)
	}
	if err := b.mqtt.Subscribe(b.topics.StopRequest(), requestQoS, b.handleStop); err != nil {
		return fmt.Errorf("subscribe to stop requests: %w", err)
	}

	b.wg.Add(1)
	go b.statusLoop()

	b.patterns.AddChangeListener(listenerName, func([]pattern.Pattern) {
		b.requestStatus()
	})
	b.requestStatus()

	b.logger.Info("bus started",
		"play_topic", b.topics.PlayRequest(),
		"stop_topic", b.topics.StopRequest())
	return nil
}

// Stop unsubscribes and stops publishing status.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() {
		b.patterns.RemoveChangeListener(listenerName)
		for _, topic := range []string{b.topics.PlayRequest(), b.topics.StopRequest()} {
			if err := b.mqtt.Unsubscribe(topic); err != nil {
				b.logger.Warn("unsubscribe failed", "topic", topic, "error", err)
			}
		}
		close(b.done)
		b.wg.Wait()
		b.logger.Info("bus stopped")
	})
}

func (b *Bus) handlePlay(_ string, payload []byte) error {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return fmt.Errorf("parsing play request: %w", err)
	}

	token := req.target()
	if token == "" {
		return ErrMissingPattern
	}

	id, err := b.patterns.Play(req.source(), token, req.DeviceID)
	if err != nil {
		return fmt.Errorf("playing %q: %w", token, err)
	}

	b.logger.Info("play request", "pattern", token, "id", id, "source", req.source())
	b.record(audit.ActionPlay, id, req.source())
	return nil
}

func (b *Bus) handleStop(_ string, payload []byte) error {
	var req Request
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("parsing stop request: %w", err)
		}
	}

	target := req.target()
	if target == "" {
		b.patterns.StopAll()
		b.logger.Info("stop all request", "source", req.source())
		b.record(audit.ActionStopAll, "", req.source())
		return nil
	}

	id, err := b.patterns.Stop(target)
	if err != nil {
		return fmt.Errorf("stopping %q: %w", target, err)
	}

	b.logger.Info("stop request", "id", id, "source", req.source())
	b.record(audit.ActionStop, id, req.source())
	return nil
}

func (b *Bus) record(action, patternID, source string) {
	if b.audit != nil {
		b.audit.Record(action, patternID, source)
	}
}

func (b *Bus) requestStatus() {
	select {
	case b.statusDue <- struct{}{}:
	default:
	}
}

func (b *Bus) statusLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case <-b.statusDue:
			b.publishStatus()
		}
	}
}

func (b *Bus) publishStatus() {
	msg := StatusMessage{Status: b.patterns.Status(), Timestamp: b.now().UTC()}

	payload, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("failed to marshal status", "error", err)
		return
	}

	if err := b.mqtt.Publish(b.topics.PlaybackStatus(), payload, requestQoS, true); err != nil {
		b.logger.Warn("failed to publish status", "error", err)
	}
}
