package influxdb

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/config"
)

// testConfig matches the local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "graylogic-dev-token",
		Org:           "graylogic",
		Bucket:        "metrics",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		client, err := Connect(testConfig())
		if err != nil {
			t.Skip("InfluxDB not available, skipping integration test")
		}
		client.Close()
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestClientOptions(t *testing.T) {
	opts := clientOptions(config.InfluxDBConfig{})
	if opts.BatchSize() != defaultBatchSize {
		t.Errorf("BatchSize() = %d, want %d", opts.BatchSize(), defaultBatchSize)
	}
	if opts.FlushInterval() != defaultFlushSeconds*1000 {
		t.Errorf("FlushInterval() = %d, want %d", opts.FlushInterval(), defaultFlushSeconds*1000)
	}

	opts = clientOptions(config.InfluxDBConfig{BatchSize: 5, FlushInterval: 2})
	if opts.BatchSize() != 5 || opts.FlushInterval() != 2000 {
		t.Errorf("options = %d/%d, want 5/2000", opts.BatchSize(), opts.FlushInterval())
	}
}

func TestNilClient(t *testing.T) {
	var c *Client

	c.WriteFade("dev", 0, "#ff0000", 100)
	c.WritePlayback("red", EventStarted, "api")
	c.PatternStarted("red", "api")
	c.PatternStopped("red")
	c.WritePoint("x", nil, map[string]any{"v": 1})
	c.Flush()

	if c.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() = %v, want ErrNotConnected", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestFadePoint(t *testing.T) {
	ts := time.Unix(1700000000, 0)

	tests := []struct {
		name     string
		deviceID string
		led      int
		want     string
	}{
		{"named device all leds", "20006A7C", 0, `blink1_fade,device_id=20006A7C,led=all color="#ff0000",fade_ms=300i 1700000000000000000`},
		{"default device top", "", 1, `blink1_fade,device_id=default,led=top color="#ff0000",fade_ms=300i 1700000000000000000`},
		{"bottom", "d", 2, `blink1_fade,device_id=d,led=bottom color="#ff0000",fade_ms=300i 1700000000000000000`},
		{"other", "d", 7, `blink1_fade,device_id=d,led=other color="#ff0000",fade_ms=300i 1700000000000000000`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.TrimSpace(write.PointToLineProtocol(fadePoint(tt.deviceID, tt.led, "#ff0000", 300, ts), time.Nanosecond))
			if got != tt.want {
				t.Errorf("line = %s\nwant   %s", got, tt.want)
			}
		})
	}
}

func TestPlaybackPoint(t *testing.T) {
	p := playbackPoint("red flashes", EventStopped, "mqtt", time.Unix(1, 0))
	got := strings.TrimSpace(write.PointToLineProtocol(p, time.Second))
	want := `pattern_playback,event=stopped,pattern_id=red\ flashes source="mqtt" 1`
	if got != want {
		t.Errorf("line = %s\nwant   %s", got, want)
	}
}

func TestConnectAndWrite(t *testing.T) {
	skipIfNoInfluxDB(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	writeErrs := make(chan error, 1)
	client.SetOnError(func(err error) { writeErrs <- err })

	client.WriteFade("test-device", 0, "#00ff00", 100)
	client.WritePlayback("test-pattern", EventStarted, "test")
	client.Flush()

	select {
	case err := <-writeErrs:
		t.Errorf("async write error: %v", err)
	case <-time.After(500 * time.Millisecond):
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
