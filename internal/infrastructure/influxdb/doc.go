// Package influxdb records Gray Logic Blink telemetry in InfluxDB.
//
// Two measurements are written:
//   - blink1_fade: one point per fade command sent to a device
//     (tags device_id, led; fields color, fade_ms)
//   - pattern_playback: one point per playback transition
//     (tags pattern_id, event; field source)
//
// Writes are non-blocking and batched by the client library. When
// influxdb.enabled is false Connect returns ErrDisabled and callers run
// without telemetry.
package influxdb
