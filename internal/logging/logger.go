package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// LogFileName is the name of the log file created inside the log directory.
const LogFileName = "calcwizard.log"

// Logger writes JSON lines through log/slog. Child loggers share the
// parent's output and close state.
type Logger struct {
	*slog.Logger
	out *output
}

type output struct {
	mu   sync.Mutex
	file *os.File
}

// NewLogger opens {dir}/calcwizard.log for appending, or writes to stderr
// when dir is empty. Unknown levels log at info.
func NewLogger(dir, level string) (*Logger, error) {
	if dir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(filepath.Join(dir, LogFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	l := NewWriterLogger(file, level)
	l.out.file = file
	return l, nil
}

// NewWriterLogger logs to w. Close does not close w.
func NewWriterLogger(w io.Writer, level string) *Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	return &Logger{Logger: slog.New(h), out: &output{}}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler), out: &output{}}
}

// WithSession tags every entry with the wizard session id.
func (l *Logger) WithSession(sessionID string) *Logger {
	return l.with("session_id", sessionID)
}

// WithStep tags every entry with a wizard step id.
func (l *Logger) WithStep(stepID string) *Logger {
	return l.with("step_id", stepID)
}

// WithJob tags every entry with the remote job id.
func (l *Logger) WithJob(jobID string) *Logger {
	return l.with("job_id", jobID)
}

func (l *Logger) with(key, value string) *Logger {
	return &Logger{Logger: l.Logger.With(key, value), out: l.out}
}

// Close syncs and closes the log file. Loggers without a file, and any
// logger after the first Close, return nil.
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if l.out.file == nil {
		return nil
	}
	file := l.out.file
	l.out.file = nil
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}
