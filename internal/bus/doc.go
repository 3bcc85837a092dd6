// Package bus lets other services drive pattern playback over MQTT.
//
// Topics:
//
//	graylogic/blink/play    {"pattern": "red flashes", "device_id": "", "source": "doorbell"}
//	graylogic/blink/stop    {"id": "redflashes"}  (no id stops everything)
//	graylogic/blink/status  retained snapshot of what is playing
//
// "pattern" and "id" are interchangeable in both requests. Any play token
// the pattern service understands is accepted, including "#ff0000" and
// "~blink:red-3".
package bus
