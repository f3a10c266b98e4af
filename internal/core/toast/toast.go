// Package toast carries transient user feedback out of the messaging core.
package toast

import (
	"context"
	"log/slog"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Toast is one transient message.
type Toast struct {
	Level   Level
	Message string
}

func Success(msg string) Toast { return Toast{Level: LevelSuccess, Message: msg} }
func Error(msg string) Toast   { return Toast{Level: LevelError, Message: msg} }
func Info(msg string) Toast    { return Toast{Level: LevelInfo, Message: msg} }

// Sink displays toasts. Implementations must be safe for concurrent use.
type Sink interface {
	Show(ctx context.Context, t Toast)
}

// LogSink writes toasts to a slog logger; used by headless processes.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Show(ctx context.Context, t Toast) {
	level := slog.LevelInfo
	if t.Level == LevelError {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, t.Message, "toast", string(t.Level))
}

// Recorder keeps every toast in order.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Show(_ context.Context, t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of what has been shown so far.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}
