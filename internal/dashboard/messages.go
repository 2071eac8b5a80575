package dashboard

import (
	"encoding/json"
	"fmt"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

// BridgeMessage is the envelope for all WebSocket messages between
// the dashboard server and browser clients.
type BridgeMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage constructs a BridgeMessage by marshaling the given payload.
func NewMessage[T any](msgType string, payload T) (BridgeMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return BridgeMessage{}, fmt.Errorf("marshal payload: %w", err)
	}
	return BridgeMessage{Type: msgType, Payload: raw}, nil
}

// ParsePayload unmarshals the raw payload of a BridgeMessage into T.
func ParsePayload[T any](msg BridgeMessage) (T, error) {
	var v T
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}

// Server → Client message types.
const (
	MsgThread   = "thread"
	MsgFragment = "fragment"
	MsgRunEnd   = "run_end"
	MsgError    = "error"
	MsgState    = "state"
)

// Client → Server message types.
const (
	MsgSendMessages = "send_messages"
	MsgGetState     = "get_state"
)

// ---------------------------------------------------------------------------
// Server → Client payloads
// ---------------------------------------------------------------------------

type ThreadPayload struct {
	ThreadID string `json:"thread_id"`
}

type FragmentPayload struct {
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data"`
}

type RunEndPayload struct {
	ThreadID string `json:"thread_id"`
	Count    int    `json:"count"`
	// Failed is set when the stream ended with an error after it began.
	Failed bool `json:"failed,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type StatePayload struct {
	ThreadID string                 `json:"thread_id"`
	State    *langgraph.ThreadState `json:"state"`
}

// ---------------------------------------------------------------------------
// Client → Server payloads
// ---------------------------------------------------------------------------

// SendMessagesPayload carries the full conversation history for one turn.
type SendMessagesPayload struct {
	Messages []langgraph.Message `json:"messages"`
}
