// Package blink1 sends pattern steps to a blink(1) light through the
// MQTT device bridge.
//
// Sink implements pattern.Sink. Each step becomes a "fade" command on
// graylogic/command/blink1/<device>. The pattern service calls the sink
// while holding its lock, so commands are queued and published by a
// single worker; when the queue is full new commands are dropped.
//
// Command payload:
//
//	{
//	  "id": "9f0c...",
//	  "device_id": "20006A7C",
//	  "command": "fade",
//	  "parameters": {"color": "#ff0000", "fade_ms": 300, "led": 0},
//	  "source": "graylogic-blink"
//	}
package blink1
