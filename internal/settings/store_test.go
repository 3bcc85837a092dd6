package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-blink/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-blink/internal/pattern"
	_ "github.com/nerrad567/gray-logic-blink/migrations"
)

// Compile-time check.
var _ pattern.SettingsStore = (*Store)(nil)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewStore(db.DB)
}

func TestStore_ReadMissing(t *testing.T) {
	s := setupStore(t)

	dst := []string{"untouched"}
	found, err := s.ReadSettings(context.Background(), "patterns", &dst)
	if err != nil {
		t.Fatalf("ReadSettings() error = %v", err)
	}
	if found {
		t.Error("ReadSettings() found a missing key")
	}
	if len(dst) != 1 || dst[0] != "untouched" {
		t.Errorf("dst modified: %v", dst)
	}
}

func TestStore_SaveAndRead(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	in := []pattern.Output{{ID: "mine", Name: "Mine", Pattern: "2,#abcdef,0.2,0"}}
	if err := s.SaveSettings(ctx, "patterns", in); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	var out []pattern.Output
	found, err := s.ReadSettings(ctx, "patterns", &out)
	if err != nil || !found {
		t.Fatalf("ReadSettings() = %v, %v", found, err)
	}
	if len(out) != 1 || out[0] != in[0] {
		t.Errorf("ReadSettings() = %+v, want %+v", out, in)
	}
}

func TestStore_Upsert(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	if err := s.SaveSettings(ctx, "patternsService", pattern.ServiceConfig{PlayingSerialize: false}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	clock = clock.Add(time.Hour)
	if err := s.SaveSettings(ctx, "patternsService", pattern.ServiceConfig{PlayingSerialize: true}); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	var cfg pattern.ServiceConfig
	if _, err := s.ReadSettings(ctx, "patternsService", &cfg); err != nil {
		t.Fatalf("ReadSettings() error = %v", err)
	}
	if !cfg.PlayingSerialize {
		t.Error("second save did not replace the first")
	}

	var rows int
	var updatedAt string
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(updated_at) FROM settings WHERE key = 'patternsService'`).Scan(&rows, &updatedAt); err != nil {
		t.Fatalf("query: %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}
	if want := clock.Format(time.RFC3339Nano); updatedAt != want {
		t.Errorf("updated_at = %q, want %q", updatedAt, want)
	}
}

func TestStore_Errors(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if err := s.SaveSettings(ctx, "", 1); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("SaveSettings(\"\") error = %v, want ErrEmptyKey", err)
	}
	if _, err := s.ReadSettings(ctx, "", new(int)); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("ReadSettings(\"\") error = %v, want ErrEmptyKey", err)
	}
	if err := s.SaveSettings(ctx, "bad", make(chan int)); err == nil {
		t.Error("SaveSettings() expected encode error")
	}

	if err := s.SaveSettings(ctx, "n", "text"); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	var n int
	found, err := s.ReadSettings(ctx, "n", &n)
	if !found || err == nil {
		t.Errorf("ReadSettings() into wrong type = %v, %v; want found with error", found, err)
	}
}

func TestStore_ServiceRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	svc := pattern.NewService(pattern.Options{Store: s})
	defer svc.Close()
	if err := svc.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if _, err := svc.SavePattern(ctx, svc.NewPattern("Door Bell", "#ff8800")); err != nil {
		t.Fatalf("SavePattern() error = %v", err)
	}

	reloaded := pattern.NewService(pattern.Options{Store: s})
	defer reloaded.Close()
	if err := reloaded.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	p, ok := reloaded.PatternByID("doorbell")
	if !ok || p.PatternString() != "3,#ff8800,0.2,0,#000000,0.2,0" {
		t.Errorf("reloaded doorbell = %+v, %v", p, ok)
	}
}
