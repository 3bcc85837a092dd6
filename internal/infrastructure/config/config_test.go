package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
device:
  id: "20006A7C"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "127.0.0.1"
  port: 8934
patterns:
  playing_serialize: true
  templates_file: "/etc/blink/patterns.yaml"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "20006A7C" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "20006A7C")
	}
	if cfg.Device.Protocol != "blink1" {
		t.Errorf("Device.Protocol = %q, want default %q", cfg.Device.Protocol, "blink1")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if !cfg.Patterns.PlayingSerialize {
		t.Error("Patterns.PlayingSerialize = false, want true")
	}
	if cfg.Patterns.TemplatesFile != "/etc/blink/patterns.yaml" {
		t.Errorf("Patterns.TemplatesFile = %q", cfg.Patterns.TemplatesFile)
	}
	if cfg.Patterns.SinkBuffer != 64 {
		t.Errorf("Patterns.SinkBuffer = %d, want default 64", cfg.Patterns.SinkBuffer)
	}
	if cfg.AuthEnabled() {
		t.Error("AuthEnabled() = true without a secret")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
database:
  path: ""
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty database.path, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing protocol", mutate: func(c *Config) { c.Device.Protocol = "" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "zero ping interval", mutate: func(c *Config) { c.WebSocket.PingInterval = 0 }, wantErr: true},
		{name: "influx enabled without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{
			name: "influx enabled and complete",
			mutate: func(c *Config) {
				c.InfluxDB = InfluxDBConfig{Enabled: true, URL: "http://localhost:8086", Org: "o", Bucket: "b"}
			},
		},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "loud" }, wantErr: true},
		{name: "negative sink buffer", mutate: func(c *Config) { c.Patterns.SinkBuffer = -1 }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{
			name:   "JWT secret long enough",
			mutate: func(c *Config) { c.Security.JWT.Secret = "test-secret-key-at-least-32-chars!" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	timeouts := APITimeoutConfig{Read: 30, Write: 45, Idle: 60}
	ws := WebSocketConfig{PingInterval: 30, PongTimeout: 10}

	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"read", timeouts.ReadTimeout(), 30 * time.Second},
		{"write", timeouts.WriteTimeout(), 45 * time.Second},
		{"idle", timeouts.IdleTimeout(), time.Minute},
		{"ping period", ws.PingPeriod(), 30 * time.Second},
		{"write wait", ws.WriteWait(), 10 * time.Second},
		{"read wait", ws.ReadWait(), 40 * time.Second},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		env   string
		value string
		check func(c *Config) bool
	}{
		{"GRAYLOGIC_DEVICE_ID", "ABCD1234", func(c *Config) bool { return c.Device.ID == "ABCD1234" }},
		{"GRAYLOGIC_DATABASE_PATH", "/custom/path.db", func(c *Config) bool { return c.Database.Path == "/custom/path.db" }},
		{"GRAYLOGIC_MQTT_HOST", "mqtt.example.com", func(c *Config) bool { return c.MQTT.Broker.Host == "mqtt.example.com" }},
		{"GRAYLOGIC_MQTT_PORT", "8883", func(c *Config) bool { return c.MQTT.Broker.Port == 8883 }},
		{"GRAYLOGIC_MQTT_USERNAME", "testuser", func(c *Config) bool { return c.MQTT.Auth.Username == "testuser" }},
		{"GRAYLOGIC_MQTT_PASSWORD", "testpass", func(c *Config) bool { return c.MQTT.Auth.Password == "testpass" }},
		{"GRAYLOGIC_API_HOST", "192.168.1.1", func(c *Config) bool { return c.API.Host == "192.168.1.1" }},
		{"GRAYLOGIC_API_PORT", "9000", func(c *Config) bool { return c.API.Port == 9000 }},
		{"GRAYLOGIC_INFLUXDB_ENABLED", "true", func(c *Config) bool { return c.InfluxDB.Enabled }},
		{"GRAYLOGIC_INFLUXDB_URL", "http://influx:8086", func(c *Config) bool { return c.InfluxDB.URL == "http://influx:8086" }},
		{"GRAYLOGIC_INFLUXDB_TOKEN", "secret-token", func(c *Config) bool { return c.InfluxDB.Token == "secret-token" }},
		{"GRAYLOGIC_LOG_LEVEL", "debug", func(c *Config) bool { return c.Logging.Level == "debug" }},
		{"GRAYLOGIC_PLAYING_SERIALIZE", "true", func(c *Config) bool { return c.Patterns.PlayingSerialize }},
		{"GRAYLOGIC_JWT_SECRET", "jwt-secret", func(c *Config) bool { return c.Security.JWT.Secret == "jwt-secret" }},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			if !tt.check(cfg) {
				t.Errorf("%s=%s not applied", tt.env, tt.value)
			}
		})
	}
}

func TestApplyEnvOverrides_IgnoresBadValues(t *testing.T) {
	t.Setenv("GRAYLOGIC_PLAYING_SERIALIZE", "sometimes")
	t.Setenv("GRAYLOGIC_API_PORT", "eighty")

	cfg := defaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Patterns.PlayingSerialize {
		t.Error("unparsable bool should leave PlayingSerialize unchanged")
	}
	if cfg.API.Port != 8934 {
		t.Errorf("API.Port = %d, want default 8934", cfg.API.Port)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8934 {
		t.Errorf("defaultConfig API.Port = %d, want 8934", cfg.API.Port)
	}
	if cfg.Patterns.PlayingSerialize {
		t.Error("defaultConfig should play patterns concurrently")
	}
}
