package langgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockClient is a test double for Client.
type MockClient struct {
	mu            sync.Mutex
	nextThreadID  int
	CreateErr     error
	StateErr      error
	UpdateErr     error
	StreamErr     error
	States        map[string]*ThreadState // threadID -> state
	UpdateResult  json.RawMessage
	Fragments     []Fragment // emitted by every StreamRun
	StreamEndErr  error      // ends every stream after Fragments
	CreateCalls   int
	UpdateHistory []UpdateCall
	RunHistory    []RunCall
}

// UpdateCall records a call to UpdateState.
type UpdateCall struct {
	ThreadID string
	Update   StateUpdate
}

// RunCall records a call to StreamRun.
type RunCall struct {
	ThreadID string
	Input    RunInput
}

// NewMockClient creates a new MockClient with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		States: make(map[string]*ThreadState),
	}
}

func (m *MockClient) CreateThread(_ context.Context) (*Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.nextThreadID++
	return &Thread{ThreadID: fmt.Sprintf("mock-thread-%d", m.nextThreadID)}, nil
}

func (m *MockClient) GetState(_ context.Context, threadID string) (*ThreadState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StateErr != nil {
		return nil, m.StateErr
	}
	if s, ok := m.States[threadID]; ok {
		return s, nil
	}
	return &ThreadState{Values: json.RawMessage(`{}`)}, nil
}

func (m *MockClient) UpdateState(_ context.Context, threadID string, update StateUpdate) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.UpdateHistory = append(m.UpdateHistory, UpdateCall{ThreadID: threadID, Update: update})
	m.States[threadID] = &ThreadState{Values: update.Values}
	if m.UpdateResult != nil {
		return m.UpdateResult, nil
	}
	return update.Values, nil
}

func (m *MockClient) StreamRun(_ context.Context, threadID string, input RunInput) (*Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	m.RunHistory = append(m.RunHistory, RunCall{ThreadID: threadID, Input: input})
	return NewFragmentStream(m.Fragments, m.StreamEndErr), nil
}

func (m *MockClient) CreateAssistant(_ context.Context, graphID string) (*Assistant, error) {
	return &Assistant{AssistantID: "mock-assistant", GraphID: graphID}, nil
}

// GetRunHistory returns all StreamRun calls made to this mock.
func (m *MockClient) GetRunHistory() []RunCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]RunCall, len(m.RunHistory))
	copy(result, m.RunHistory)
	return result
}

// GetUpdateHistory returns all UpdateState calls made to this mock.
func (m *MockClient) GetUpdateHistory() []UpdateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]UpdateCall, len(m.UpdateHistory))
	copy(result, m.UpdateHistory)
	return result
}

// GetCreateCalls returns how many times CreateThread was called.
func (m *MockClient) GetCreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CreateCalls
}

// SetCreateErr sets the error returned by CreateThread.
func (m *MockClient) SetCreateErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateErr = err
}
