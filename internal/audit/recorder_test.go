package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type memRepo struct {
	mu   sync.Mutex
	logs []Log
	err  error
}

func (m *memRepo) Create(_ context.Context, log *Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memRepo) List(context.Context, Filter) (*ListResult, error) {
	return nil, errors.New("not implemented")
}

func TestRecorder_DrainsOnShutdown(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, nil)

	rec.Record(ActionPlay, "blue", "api")
	rec.Record(ActionStop, "blue", "mqtt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if len(repo.logs) != 2 {
		t.Fatalf("written = %d, want 2", len(repo.logs))
	}
	if repo.logs[1].Source != "mqtt" {
		t.Errorf("logs[1].Source = %q, want mqtt", repo.logs[1].Source)
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, nil)

	for i := 0; i < chanSize+10; i++ {
		rec.Record(ActionPlay, "x", "api")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if len(repo.logs) != chanSize {
		t.Errorf("written = %d, want %d", len(repo.logs), chanSize)
	}
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Record(ActionPlay, "x", "api")
}
