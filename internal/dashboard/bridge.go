package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/alanmeadows/langbridge/internal/chat"
	"github.com/alanmeadows/langbridge/internal/langgraph"
)

// queueSize bounds how many sends a connection may queue behind the one
// being streamed.
const queueSize = 8

// Bridge serves chat over WebSocket. Every connection is one conversation
// with its own Orchestrator; all of them share the injected client.
type Bridge struct {
	client   langgraph.Client
	observer chat.Observer
	clients  map[string]*wsClient
	mu       sync.RWMutex
	nextID   int

	originPatterns []string
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithAllowedOrigins admits cross-origin websocket clients whose Origin
// host matches one of patterns.
func WithAllowedOrigins(patterns ...string) BridgeOption {
	return func(b *Bridge) {
		b.originPatterns = append(b.originPatterns, patterns...)
	}
}

type wsClient struct {
	id    string
	conn  *websocket.Conn
	ctx   context.Context
	mu    sync.Mutex // serializes writes
	orch  *chat.Orchestrator
	queue chan BridgeMessage
}

// NewBridge creates a Bridge. A nil observer is allowed.
func NewBridge(client langgraph.Client, observer chat.Observer, opts ...BridgeOption) *Bridge {
	if observer == nil {
		observer = chat.NoopObserver{}
	}
	b := &Bridge{
		client:   client,
		observer: observer,
		clients:  make(map[string]*wsClient),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// HandleWS is the HTTP handler for the /ws endpoint. ?thread=ID resumes an
// existing thread instead of creating one on first send. Cross-origin
// handshakes are refused with 403 unless the origin is allowed.
func (b *Bridge) HandleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: b.originPatterns,
	})
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var opts []chat.Option
	opts = append(opts, chat.WithObserver(b.observer))
	threadID := r.URL.Query().Get("thread")
	if threadID != "" {
		opts = append(opts, chat.WithThreadID(threadID))
	}

	b.mu.Lock()
	b.nextID++
	client := &wsClient{
		id:    fmt.Sprintf("client-%d", b.nextID),
		conn:  c,
		ctx:   ctx,
		orch:  chat.New(b.client, opts...),
		queue: make(chan BridgeMessage, queueSize),
	}
	b.clients[client.id] = client
	b.mu.Unlock()

	slog.Info("websocket client connected", "id", client.id, "remote", r.RemoteAddr)

	if threadID != "" {
		b.sendTo(client, MsgThread, ThreadPayload{ThreadID: threadID})
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.worker(client)
	}()

	b.readLoop(ctx, client)
	close(client.queue)
	cancel()
	wg.Wait()
}

// Connections returns the number of open WebSocket connections.
func (b *Bridge) Connections() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *Bridge) readLoop(ctx context.Context, client *wsClient) {
	defer func() {
		b.mu.Lock()
		delete(b.clients, client.id)
		b.mu.Unlock()
		client.conn.Close(websocket.StatusNormalClosure, "")
		slog.Info("websocket client disconnected", "id", client.id)
	}()

	for {
		_, data, err := client.conn.Read(ctx)
		if err != nil {
			return // client disconnected
		}

		var msg BridgeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid ws message", "error", err, "client", client.id)
			b.sendTo(client, MsgError, ErrorPayload{Message: "invalid message"})
			continue
		}

		select {
		case client.queue <- msg:
		default:
			b.sendTo(client, MsgError, ErrorPayload{Message: "too many pending requests"})
		}
	}
}

// worker handles one connection's requests in arrival order, so a
// conversation never has two runs in flight.
func (b *Bridge) worker(client *wsClient) {
	for msg := range client.queue {
		b.handleClientMessage(client.ctx, client, msg)
	}
}

func (b *Bridge) handleClientMessage(ctx context.Context, client *wsClient, msg BridgeMessage) {
	switch msg.Type {
	case MsgSendMessages:
		p, err := ParsePayload[SendMessagesPayload](msg)
		if err != nil {
			b.sendTo(client, MsgError, ErrorPayload{Message: err.Error()})
			return
		}
		b.runTurn(ctx, client, p.Messages)

	case MsgGetState:
		state, err := client.orch.State(ctx)
		if err != nil {
			b.sendTo(client, MsgError, ErrorPayload{Message: err.Error()})
			return
		}
		b.sendTo(client, MsgState, StatePayload{ThreadID: client.orch.ThreadID(), State: state})

	default:
		b.sendTo(client, MsgError, ErrorPayload{Message: "unknown message type " + msg.Type})
	}
}

func (b *Bridge) runTurn(ctx context.Context, client *wsClient, messages []langgraph.Message) {
	before := client.orch.ThreadID()

	resp, err := client.orch.Stream(ctx, messages)
	if err != nil {
		slog.Warn("run failed", "client", client.id, "error", err)
		b.sendTo(client, MsgError, ErrorPayload{Message: err.Error()})
		return
	}
	defer resp.Close()

	if resp.ThreadID() != before {
		b.sendTo(client, MsgThread, ThreadPayload{ThreadID: resp.ThreadID()})
	}

	count := 0
	for resp.Next() {
		frag := resp.Fragment()
		count++
		b.sendTo(client, MsgFragment, FragmentPayload{Event: frag.Event, Data: frag.Data})
	}

	end := RunEndPayload{ThreadID: resp.ThreadID(), Count: count}
	if err := resp.Err(); err != nil {
		end.Failed = true
		b.sendTo(client, MsgError, ErrorPayload{Message: err.Error()})
	}
	b.sendTo(client, MsgRunEnd, end)
}

func (b *Bridge) sendTo(client *wsClient, msgType string, payload any) {
	data, err := json.Marshal(BridgeMessage{
		Type:    msgType,
		Payload: mustMarshal(payload),
	})
	if err != nil {
		return
	}
	client.mu.Lock()
	defer client.mu.Unlock()
	if err := client.conn.Write(client.ctx, websocket.MessageText, data); err != nil {
		slog.Debug("websocket write failed", "client", client.id, "error", err)
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}
