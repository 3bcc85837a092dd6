// Package mqtt connects Gray Logic Blink to the site MQTT broker.
//
// The broker carries three kinds of traffic for this service:
//   - fade commands to the light bridge (graylogic/command/blink1/{device})
//   - play and stop requests from other services (graylogic/blink/play, graylogic/blink/stop)
//   - retained playback status (graylogic/blink/status)
//
// The client reconnects automatically and restores its subscriptions.
// A Last Will message marks the service offline if it dies without
// closing the connection.
package mqtt
