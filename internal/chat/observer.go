package chat

import (
	"context"
	"log/slog"
	"time"
)

// EventType identifies the kind of orchestration event.
type EventType string

const (
	EventSessionCreated      EventType = "session_created"
	EventSessionCreateFailed EventType = "session_create_failed"
	EventRunStarted          EventType = "run_started"
	EventRunFailed           EventType = "run_failed"
	EventFragment            EventType = "fragment"
	EventRunCompleted        EventType = "run_completed"
	EventRunErrored          EventType = "run_errored"
	// EventRunClosed ends a run the consumer closed before the stream did.
	EventRunClosed           EventType = "run_closed"
)

// Event is emitted by the orchestrator at each lifecycle step. Fields that
// do not apply to an event type are zero.
type Event struct {
	Type      EventType
	ThreadID  string
	Timestamp time.Time

	// Messages is the length of the history sent with a run.
	Messages int
	// FragmentEvent is the server-sent event name of a fragment.
	FragmentEvent string
	// Fragments is the number of fragments delivered so far in the run.
	Fragments int
	// Duration is the time since the run started, set on run end events.
	Duration time.Duration
	Err      error
}

// Observer receives orchestration events. Implementations must be safe for
// concurrent use when one observer is shared by several orchestrators.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// SlogObserver emits events to a slog.Logger. Per-fragment events are
// logged at debug level, failures at error level.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver that emits to the given logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := []slog.Attr{slog.String("thread", event.ThreadID)}
	level := slog.LevelInfo

	switch event.Type {
	case EventRunStarted:
		level = slog.LevelDebug
		attrs = append(attrs, slog.Int("messages", event.Messages))
	case EventFragment:
		level = slog.LevelDebug
		attrs = append(attrs, slog.String("event", event.FragmentEvent), slog.Int("seq", event.Fragments))
	case EventRunCompleted, EventRunClosed:
		attrs = append(attrs, slog.Int("fragments", event.Fragments), slog.Duration("duration", event.Duration))
	case EventSessionCreateFailed, EventRunFailed, EventRunErrored:
		level = slog.LevelError
		attrs = append(attrs, slog.Int("fragments", event.Fragments), slog.Any("error", event.Err))
	}

	o.logger.LogAttrs(ctx, level, string(event.Type), attrs...)
}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver that forwards events to all
// non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnEvent(context.Context, Event) {}
