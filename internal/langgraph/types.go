package langgraph

import (
	"context"
	"encoding/json"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is one conversational turn. Content is either a JSON string or a
// structured payload and is forwarded to the server exactly as given.
type Message struct {
	ID         string          `json:"id,omitempty"`
	Role       Role            `json:"role"`
	Content    json.RawMessage `json:"content"`
	Name       string          `json:"name,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
}

// NewTextMessage builds a message whose content is a plain string.
func NewTextMessage(role Role, text string) Message {
	raw, _ := json.Marshal(text)
	return Message{Role: role, Content: raw}
}

// Text returns the content as a string when it is a JSON string,
// otherwise the raw JSON.
func (m Message) Text() string {
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}
	return string(m.Content)
}

// Thread is a server-side conversation context.
type Thread struct {
	ThreadID  string          `json:"thread_id"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`
	Status    string          `json:"status,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// ThreadState is a snapshot of a thread's server-tracked values plus the
// bookkeeping about which node produced it. Values is never interpreted here.
type ThreadState struct {
	Values           json.RawMessage `json:"values"`
	Next             []string        `json:"next,omitempty"`
	Checkpoint       json.RawMessage `json:"checkpoint,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	CreatedAt        string          `json:"created_at,omitempty"`
	ParentCheckpoint json.RawMessage `json:"parent_checkpoint,omitempty"`
}

// StateUpdate replaces a thread's values, optionally attributing the write
// to a graph node.
type StateUpdate struct {
	Values json.RawMessage `json:"values"`
	AsNode string          `json:"as_node,omitempty"`
}

// RunInput is the input of a streamed run.
type RunInput struct {
	Messages []Message `json:"messages"`
}

// Fragment is one incremental unit of a streamed run.
type Fragment struct {
	Event string          `json:"event"`
	ID    string          `json:"id,omitempty"`
	Data  json.RawMessage `json:"data"`
}

// Assistant is a configured instance of a deployed graph.
type Assistant struct {
	AssistantID string          `json:"assistant_id"`
	GraphID     string          `json:"graph_id"`
	Name        string          `json:"name,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks . Client

// Client abstracts the LangGraph server operations used by the chat bridge.
// Implementations hold no per-thread state.
type Client interface {
	// CreateThread requests a new thread.
	CreateThread(ctx context.Context) (*Thread, error)

	// GetState fetches the current state of a thread.
	GetState(ctx context.Context, threadID string) (*ThreadState, error)

	// UpdateState overwrites a thread's values and returns the server's
	// confirmation unchanged.
	UpdateState(ctx context.Context, threadID string, update StateUpdate) (json.RawMessage, error)

	// StreamRun starts a streamed run on the thread. The caller must Close
	// the returned stream.
	StreamRun(ctx context.Context, threadID string, input RunInput) (*Stream, error)

	// CreateAssistant registers an assistant for the given graph.
	CreateAssistant(ctx context.Context, graphID string) (*Assistant, error)
}
