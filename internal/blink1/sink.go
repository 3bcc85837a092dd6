package blink1

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/mqtt"
)

const (
	// CommandFade is the bridge command for a color transition.
	CommandFade = "fade"

	defaultProtocol = "blink1"
	defaultBuffer   = 64
	defaultSource   = "graylogic-blink"
)

// Publisher is the subset of the MQTT client used to send commands.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Metrics records published fades. *influxdb.Client satisfies it.
type Metrics interface {
	WriteFade(deviceID string, led int, color string, fadeMS int)
}

// Logger is the logging interface used by the sink.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config controls addressing and queueing.
type Config struct {
	// Protocol is the topic segment of the bridge. Defaults to "blink1".
	Protocol string

	// DeviceID is used when a step names no device. Empty addresses
	// mqtt.DefaultDevice.
	DeviceID string

	QoS byte

	// Buffer is the number of queued commands. Zero means 64.
	Buffer int

	// Source is reported in each command. Defaults to "graylogic-blink".
	Source string
}

// Command is the JSON payload sent to the bridge.
type Command struct {
	ID         string         `json:"id"`
	DeviceID   string         `json:"device_id"`
	Command    string         `json:"command"`
	Parameters FadeParameters `json:"parameters"`
	Source     string         `json:"source"`
}

// FadeParameters describe one color transition.
type FadeParameters struct {
	Color  string `json:"color"`
	FadeMS int    `json:"fade_ms"`
	LED    int    `json:"led"`
}

// Sink queues fade commands and publishes them from Run.
//
// Thread Safety:
//   - FadeToColor is safe for concurrent use and never blocks.
//   - Run must be called from exactly one goroutine.
type Sink struct {
	pub     Publisher
	metrics Metrics
	logger  Logger
	cfg     Config
	topics  mqtt.Topics

	queue   chan Command
	dropped atomic.Uint64
}

// New creates a sink publishing through pub. metrics may be nil.
func New(pub Publisher, metrics Metrics, cfg Config, logger Logger) *Sink {
	if cfg.Protocol == "" {
		cfg.Protocol = defaultProtocol
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if cfg.Source == "" {
		cfg.Source = defaultSource
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &Sink{
		pub:     pub,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
		queue:   make(chan Command, cfg.Buffer),
	}
}

// FadeToColor queues a fade. An empty deviceID uses the configured
// default device.
func (s *Sink) FadeToColor(durationMS int, color string, channel int, deviceID string) {
	if deviceID == "" {
		deviceID = s.cfg.DeviceID
	}
	if deviceID == "" {
		deviceID = mqtt.DefaultDevice
	}

	cmd := Command{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		Command:  CommandFade,
		Parameters: FadeParameters{
			Color:  color,
			FadeMS: durationMS,
			LED:    channel,
		},
		Source: s.cfg.Source,
	}

	select {
	case s.queue <- cmd:
	default:
		n := s.dropped.Add(1)
		s.logger.Warn("blink1 command queue full, dropping fade",
			"device_id", deviceID,
			"color", color,
			"dropped_total", n,
		)
	}
}

// Dropped returns how many commands were discarded on a full queue.
func (s *Sink) Dropped() uint64 {
	return s.dropped.Load()
}

// Run publishes queued commands until ctx is cancelled, then publishes
// whatever is still queued and returns.
func (s *Sink) Run(ctx context.Context) {
	for {
		select {
		case cmd := <-s.queue:
			s.publish(cmd)
		case <-ctx.Done():
			for {
				select {
				case cmd := <-s.queue:
					s.publish(cmd)
				default:
					return
				}
			}
		}
	}
}

func (s *Sink) publish(cmd Command) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		s.logger.Error("encoding blink1 command", "error", err)
		return
	}

	topic := s.topics.DeviceCommand(s.cfg.Protocol, cmd.DeviceID)
	if err := s.pub.Publish(topic, payload, s.cfg.QoS, false); err != nil {
		s.logger.Error("publishing blink1 command",
			"topic", topic,
			"color", cmd.Parameters.Color,
			"error", err,
		)
		return
	}

	s.logger.Debug("blink1 fade sent",
		"device_id", cmd.DeviceID,
		"color", cmd.Parameters.Color,
		"fade_ms", cmd.Parameters.FadeMS,
		"led", cmd.Parameters.LED,
	)
	if s.metrics != nil {
		s.metrics.WriteFade(cmd.DeviceID, cmd.Parameters.LED, cmd.Parameters.Color, cmd.Parameters.FadeMS)
	}
}
