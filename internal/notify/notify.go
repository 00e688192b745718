// Package notify delivers short user-facing notices.
package notify

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront/pkg/logger"
)

// Level distinguishes good news from bad.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows a transient notice to the user.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// LogNotifier writes notices through the structured logger.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Success(ctx context.Context, msg string) {
	n.logg.Info(n.logg.WithField(ctx, "notice", LevelSuccess), msg)
}

func (n *LogNotifier) Error(ctx context.Context, msg string) {
	n.logg.Warn(n.logg.WithField(ctx, "notice", LevelError), msg)
}

// Notice is one recorded notification.
type Notice struct {
	Level   Level
	Message string
}

// Recorder keeps every notice in order.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Success(_ context.Context, msg string) {
	r.record(LevelSuccess, msg)
}

func (r *Recorder) Error(_ context.Context, msg string) {
	r.record(LevelError, msg)
}

func (r *Recorder) record(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Level: level, Message: msg})
}

// Notices returns a copy of everything recorded so far.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Success(context.Context, string) {}
func (Discard) Error(context.Context, string)   {}
