package audit

import (
	"context"
)

// chanSize is the buffer size for queued entries. Entries beyond this
// are dropped so request handlers never wait on SQLite.
const chanSize = 256

// Logger is the logging interface used by the recorder.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder writes audit entries asynchronously through a single writer.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	repo   Repository
	ch     chan *Log
	logger Logger
}

// NewRecorder creates a Recorder. Call Run to start writing.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Recorder{
		repo:   repo,
		ch:     make(chan *Log, chanSize),
		logger: logger,
	}
}

// Record queues an entry. It never blocks.
func (r *Recorder) Record(action, patternID, source string) {
	if r == nil {
		return
	}
	entry := &Log{Action: action, PatternID: patternID, Source: source}
	select {
	case r.ch <- entry:
	default:
		r.logger.Warn("audit channel full, dropping entry", "action", action, "pattern_id", patternID)
	}
}

// Run writes queued entries until ctx is cancelled, then drains what is
// left and returns.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case entry := <-r.ch:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.ch:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *Log) {
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit log write failed", "action", entry.Action, "error", err)
	}
}
