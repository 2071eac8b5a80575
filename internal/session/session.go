// Package session owns the identity of the current conversation thread.
//
// A Manager holds at most one thread ID. The first successful EnsureSession
// call creates a thread on the server; every later call returns the same ID
// without a network round trip. A failed creation caches nothing, so the
// next call tries again.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

// ThreadCreator creates server-side threads.
type ThreadCreator interface {
	CreateThread(ctx context.Context) (*langgraph.Thread, error)
}

// Hooks receives lifecycle notifications from a Manager.
type Hooks struct {
	OnCreated      func(threadID string)
	OnCreateFailed func(err error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithThreadID seeds the manager with an existing thread so no creation
// happens.
func WithThreadID(id string) Option {
	return func(m *Manager) {
		m.threadID = id
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(m *Manager) {
		m.hooks = h
	}
}

// Manager lazily creates and then reuses a single thread.
type Manager struct {
	creator  ThreadCreator
	hooks    Hooks
	mu       sync.Mutex
	threadID string
}

// New creates a Manager backed by creator.
func New(creator ThreadCreator, opts ...Option) *Manager {
	m := &Manager{creator: creator}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureSession returns the held thread ID, creating a thread first if none
// is held. The lock is held across creation so concurrent callers converge
// on one thread.
func (m *Manager) EnsureSession(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.threadID != "" {
		return m.threadID, nil
	}

	thread, err := m.creator.CreateThread(ctx)
	if err != nil {
		if m.hooks.OnCreateFailed != nil {
			m.hooks.OnCreateFailed(err)
		}
		return "", fmt.Errorf("creating thread: %w", err)
	}

	m.threadID = thread.ThreadID
	slog.Info("thread created", "thread", m.threadID)
	if m.hooks.OnCreated != nil {
		m.hooks.OnCreated(m.threadID)
	}
	return m.threadID, nil
}

// ThreadID returns the held thread ID, or "" if none has been created yet.
func (m *Manager) ThreadID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threadID
}
