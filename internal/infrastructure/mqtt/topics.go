package mqtt

import "fmt"

const (
	// TopicPrefix is the root of every Gray Logic topic.
	TopicPrefix = "graylogic"

	// TopicPrefixBlink is the base for this service's own topics.
	TopicPrefixBlink = TopicPrefix + "/blink"

	// DefaultDevice addresses whichever light the bridge finds first.
	DefaultDevice = "default"
)

// Topics provides builders for the topics this service uses.
//
//	topics := mqtt.Topics{}
//	topics.DeviceCommand("blink1", "20006A7C")
//	// Returns: "graylogic/command/blink1/20006A7C"
type Topics struct{}

// DeviceCommand returns the bridge command topic for a device. An empty
// deviceID addresses DefaultDevice.
func (Topics) DeviceCommand(protocol, deviceID string) string {
	if deviceID == "" {
		deviceID = DefaultDevice
	}
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocol, deviceID)
}

// PlayRequest is where other services ask for a pattern to be played.
func (Topics) PlayRequest() string {
	return TopicPrefixBlink + "/play"
}

// StopRequest is where other services ask for a pattern (or all) to stop.
func (Topics) StopRequest() string {
	return TopicPrefixBlink + "/stop"
}

// PlaybackStatus carries the retained snapshot of what is playing.
func (Topics) PlaybackStatus() string {
	return TopicPrefixBlink + "/status"
}

// SystemStatus carries the retained online/offline state of this service.
func (Topics) SystemStatus() string {
	return TopicPrefixBlink + "/system"
}

// AllRequests matches every request topic under TopicPrefixBlink.
func (Topics) AllRequests() string {
	return TopicPrefixBlink + "/+"
}
