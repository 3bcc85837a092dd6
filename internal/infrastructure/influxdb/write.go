package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementFade     = "blink1_fade"
	MeasurementPlayback = "pattern_playback"
)

// Playback events recorded with WritePlayback.
const (
	EventStarted = "started"
	EventStopped = "stopped"
)

// WriteFade records one fade command sent to a device.
func (c *Client) WriteFade(deviceID string, led int, color string, fadeMS int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(fadePoint(deviceID, led, color, fadeMS, time.Now()))
}

// WritePlayback records a pattern starting or stopping.
func (c *Client) WritePlayback(patternID, event, source string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(playbackPoint(patternID, event, source, time.Now()))
}

// PatternStarted records a start event. Together with PatternStopped it
// lets the client serve as pattern.Events.
func (c *Client) PatternStarted(id, source string) {
	c.WritePlayback(id, EventStarted, source)
}

// PatternStopped records a stop event.
func (c *Client) PatternStopped(id string) {
	c.WritePlayback(id, EventStopped, "")
}

// WritePoint writes a custom point stamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

func fadePoint(deviceID string, led int, color string, fadeMS int, ts time.Time) *write.Point {
	if deviceID == "" {
		deviceID = "default"
	}
	return write.NewPoint(MeasurementFade,
		map[string]string{
			"device_id": deviceID,
			"led":       ledTag(led),
		},
		map[string]any{
			"color":   color,
			"fade_ms": fadeMS,
		},
		ts)
}

func playbackPoint(patternID, event, source string, ts time.Time) *write.Point {
	return write.NewPoint(MeasurementPlayback,
		map[string]string{
			"pattern_id": patternID,
			"event":      event,
		},
		map[string]any{
			"source": source,
		},
		ts)
}

// ledTag keeps tag cardinality small: 0 means all LEDs.
func ledTag(led int) string {
	switch led {
	case 0:
		return "all"
	case 1:
		return "top"
	case 2:
		return "bottom"
	default:
		return "other"
	}
}
