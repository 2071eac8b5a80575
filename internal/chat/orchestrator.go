// Package chat turns interface-level "send these messages" requests into
// streamed runs against a LangGraph server.
//
// An Orchestrator belongs to one interface instance (one chat window, one
// websocket connection). It lazily creates a single thread on first use via
// a session.Manager and reuses it for every later send. Each Stream call
// forwards the full message history exactly as supplied and hands back a
// Response that yields fragments as they arrive.
//
// Per-call lifecycle:
//
//	NoSession -> SessionReady -> Streaming -> Idle
//	                 \               \
//	                  +--> Failed     +--> Failed
//
// Failures before streaming are returned from Stream. Failures during
// streaming end the Response with Err set; fragments already delivered stay
// delivered.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alanmeadows/langbridge/internal/langgraph"
	"github.com/alanmeadows/langbridge/internal/session"
)

// ErrNoSession is returned by thread state operations before any thread
// exists for this orchestrator.
var ErrNoSession = errors.New("no thread yet: send a message first")

// Phase is the lifecycle position of the most recent Stream call.
type Phase string

const (
	PhaseNoSession    Phase = "no_session"
	PhaseSessionReady Phase = "session_ready"
	PhaseStreaming    Phase = "streaming"
	PhaseIdle         Phase = "idle"
	PhaseFailed       Phase = "failed"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithObserver routes lifecycle events to obs.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithThreadID resumes an existing thread instead of creating one.
func WithThreadID(id string) Option {
	return func(o *Orchestrator) {
		o.seedThreadID = id
	}
}

// Orchestrator is the single entry point an interface calls for every
// outgoing turn.
type Orchestrator struct {
	client       langgraph.Client
	sessions     *session.Manager
	observer     Observer
	seedThreadID string

	mu    sync.Mutex
	phase Phase
}

// New creates an Orchestrator. client is constructed once at the boundary
// and shared; the orchestrator adds no caching on top of it.
func New(client langgraph.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		observer: NoopObserver{},
		phase:    PhaseNoSession,
	}
	for _, opt := range opts {
		opt(o)
	}

	sessOpts := []session.Option{session.WithHooks(session.Hooks{
		OnCreated: func(id string) {
			o.emit(context.Background(), Event{Type: EventSessionCreated, ThreadID: id})
		},
		OnCreateFailed: func(err error) {
			o.emit(context.Background(), Event{Type: EventSessionCreateFailed, Err: err})
		},
	})}
	if o.seedThreadID != "" {
		sessOpts = append(sessOpts, session.WithThreadID(o.seedThreadID))
		o.phase = PhaseSessionReady
	}
	o.sessions = session.New(client, sessOpts...)
	return o
}

// Stream ensures a thread exists, starts a streamed run with messages as
// input, and returns the live fragment sequence. The caller must drain or
// Close the Response.
func (o *Orchestrator) Stream(ctx context.Context, messages []langgraph.Message) (*Response, error) {
	threadID, err := o.sessions.EnsureSession(ctx)
	if err != nil {
		o.setPhase(PhaseFailed)
		return nil, err
	}
	o.setPhase(PhaseSessionReady)

	started := time.Now()
	o.emit(ctx, Event{Type: EventRunStarted, ThreadID: threadID, Messages: len(messages)})

	stream, err := o.client.StreamRun(ctx, threadID, langgraph.RunInput{Messages: messages})
	if err != nil {
		o.setPhase(PhaseFailed)
		o.emit(ctx, Event{Type: EventRunFailed, ThreadID: threadID, Err: err, Duration: time.Since(started)})
		return nil, fmt.Errorf("starting run: %w", err)
	}
	o.setPhase(PhaseStreaming)

	return &Response{
		o:        o,
		ctx:      ctx,
		threadID: threadID,
		stream:   stream,
		started:  started,
		phase:    PhaseStreaming,
	}, nil
}

// ThreadID returns the active thread, or "" before the first successful send.
func (o *Orchestrator) ThreadID() string {
	return o.sessions.ThreadID()
}

// Phase returns the lifecycle position of the most recent Stream call.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// State fetches the active thread's state. It never creates a thread.
func (o *Orchestrator) State(ctx context.Context) (*langgraph.ThreadState, error) {
	threadID := o.sessions.ThreadID()
	if threadID == "" {
		return nil, ErrNoSession
	}
	return o.client.GetState(ctx, threadID)
}

// UpdateState overwrites the active thread's values and returns the
// server's confirmation unchanged. It never creates a thread.
func (o *Orchestrator) UpdateState(ctx context.Context, update langgraph.StateUpdate) (json.RawMessage, error) {
	threadID := o.sessions.ThreadID()
	if threadID == "" {
		return nil, ErrNoSession
	}
	return o.client.UpdateState(ctx, threadID, update)
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

func (o *Orchestrator) emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.observer.OnEvent(ctx, event)
}
