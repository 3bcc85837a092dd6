package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-blink/internal/audit"
	"github.com/nerrad567/gray-logic-blink/internal/auth"
	"github.com/nerrad567/gray-logic-blink/internal/blink1"
	"github.com/nerrad567/gray-logic-blink/internal/bus"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-blink/internal/pattern"
)

// Compile-time checks for the wiring in run.
var (
	_ pattern.Events   = (*influxdb.Client)(nil)
	_ pattern.Sink     = (*blink1.Sink)(nil)
	_ pattern.Logger   = (*logging.Logger)(nil)
	_ blink1.Metrics   = (*influxdb.Client)(nil)
	_ bus.Player       = (*pattern.Service)(nil)
	_ bus.Auditor      = (*audit.Recorder)(nil)
	_ audit.Repository = (*audit.SQLiteRepository)(nil)
)

const testSecret = "test-secret-key-at-least-32-characters-long"

func writeTestConfig(t *testing.T, content string) {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "test-config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("GRAYLOGIC_CONFIG", configPath)
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, options{}); err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is invalid.
func TestRun_MissingDatabasePath(t *testing.T) {
	writeTestConfig(t, `
database:
  path: ""
logging:
  level: error
  format: text
`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, options{}); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestRun_NoBroker verifies run fails cleanly when MQTT is unreachable.
// The in-memory database keeps the test free of files.
func TestRun_NoBroker(t *testing.T) {
	writeTestConfig(t, `
mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
    client_id: "test-no-broker"
  reconnect:
    initial_delay: 1
    max_delay: 1
logging:
  level: error
  format: text
`)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := run(ctx, options{ephemeral: true}); err == nil {
		t.Fatal("run() should fail without an MQTT broker")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("GRAYLOGIC_CONFIG", "")
	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}

	t.Setenv("GRAYLOGIC_CONFIG", "/custom/path/config.yaml")
	if path := getConfigPath(); path != "/custom/path/config.yaml" {
		t.Errorf("getConfigPath() = %q, want override", path)
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: options{tokenRole: "operator"}},
		{name: "token with role", args: []string{"-token", "ci", "-role", "admin"}, want: options{tokenSubject: "ci", tokenRole: "admin"}},
		{name: "ephemeral", args: []string{"-ephemeral"}, want: options{tokenRole: "operator", ephemeral: true}},
		{name: "unknown flag", args: []string{"-bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPrintToken(t *testing.T) {
	writeTestConfig(t, `
security:
  jwt:
    secret: "`+testSecret+`"
`)

	var out bytes.Buffer
	if err := printToken(&out, options{tokenSubject: "ci", tokenRole: "viewer"}); err != nil {
		t.Fatalf("printToken() error = %v", err)
	}

	claims, err := auth.ParseToken(strings.TrimSpace(out.String()), testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "ci" || claims.Role != auth.RoleViewer {
		t.Errorf("claims = %s/%s, want ci/viewer", claims.Subject, claims.Role)
	}
}

func TestPrintToken_Errors(t *testing.T) {
	t.Run("no secret", func(t *testing.T) {
		writeTestConfig(t, "logging:\n  level: error\n")
		err := printToken(io.Discard, options{tokenSubject: "ci", tokenRole: "operator"})
		if !errors.Is(err, auth.ErrNoSecret) {
			t.Errorf("printToken() error = %v, want ErrNoSecret", err)
		}
	})

	t.Run("bad role", func(t *testing.T) {
		writeTestConfig(t, "security:\n  jwt:\n    secret: \""+testSecret+"\"\n")
		if err := printToken(io.Discard, options{tokenSubject: "ci", tokenRole: "root"}); err == nil {
			t.Error("printToken() with unknown role should fail")
		}
	})
}

func TestLoadTemplates(t *testing.T) {
	defaults := pattern.DefaultTemplates()

	got, err := loadTemplates("")
	if err != nil {
		t.Fatalf("loadTemplates(\"\") error = %v", err)
	}
	if len(got) != len(defaults) {
		t.Errorf("loadTemplates(\"\") = %d templates, want %d", len(got), len(defaults))
	}

	path := filepath.Join(t.TempDir(), "extra.yaml")
	content := "patterns:\n  - id: deploy\n    name: deploy\n    pattern: \"2,#00ffff,0.4,0,#000000,0.4,0\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write templates: %v", err)
	}
	got, err = loadTemplates(path)
	if err != nil {
		t.Fatalf("loadTemplates() error = %v", err)
	}
	if len(got) != len(defaults)+1 || got[len(got)-1].ID != "deploy" {
		t.Errorf("loadTemplates() last = %+v, want deploy appended", got[len(got)-1])
	}

	if _, err := loadTemplates(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loadTemplates() with missing file should fail")
	}
}

func TestStartWorker(t *testing.T) {
	started := make(chan struct{})
	var sawCancel bool

	stop := startWorker(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		sawCancel = true
	})
	<-started
	stop()

	if !sawCancel {
		t.Error("stop() returned before the worker saw cancellation")
	}
}
