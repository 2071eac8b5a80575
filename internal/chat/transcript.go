package chat

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

// Transcript folds the fragments of one run into the assistant's reply text.
// It understands the payload shapes of the LangGraph "messages" stream
// modes and falls back to plain strings:
//
//   - messages/partial, messages/complete: a list of messages carrying the
//     accumulated content so far
//   - messages (tuple mode): [chunk, metadata] where chunk.content is a delta
//   - a bare JSON string, or an object with a content/message string: a delta
//
// Aggregation is an interface concern; the orchestrator never uses this.
type Transcript struct {
	order   []string
	content map[string]string
}

// NewTranscript returns an empty Transcript.
func NewTranscript() *Transcript {
	return &Transcript{content: make(map[string]string)}
}

// Add folds one fragment in and returns the text it added, if any.
func (t *Transcript) Add(frag langgraph.Fragment) string {
	switch {
	case strings.HasPrefix(frag.Event, "messages/"):
		if frag.Event == "messages/metadata" {
			return ""
		}
		var msgs []streamedMessage
		if err := json.Unmarshal(frag.Data, &msgs); err != nil {
			return ""
		}
		var delta strings.Builder
		for i, m := range msgs {
			if !m.isAssistant() {
				continue
			}
			id := m.ID
			if id == "" {
				id = "#" + strconv.Itoa(i)
			}
			delta.WriteString(t.replace(id, m.text()))
		}
		return delta.String()

	case frag.Event == "messages":
		var tuple []json.RawMessage
		if err := json.Unmarshal(frag.Data, &tuple); err != nil || len(tuple) == 0 {
			return ""
		}
		var m streamedMessage
		if err := json.Unmarshal(tuple[0], &m); err != nil || !m.isAssistant() {
			return ""
		}
		return t.append(m.ID, m.text())
	}

	var s string
	if err := json.Unmarshal(frag.Data, &s); err == nil {
		return t.append("", s)
	}
	var obj struct {
		Content json.RawMessage `json:"content"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(frag.Data, &obj); err == nil {
		if text := contentText(obj.Content); text != "" {
			return t.append("", text)
		}
		if obj.Message != "" {
			return t.append("", obj.Message)
		}
	}
	return ""
}

// Text returns the reply accumulated so far.
func (t *Transcript) Text() string {
	parts := make([]string, 0, len(t.order))
	for _, id := range t.order {
		if c := t.content[id]; c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n")
}

func (t *Transcript) track(id string) {
	if _, ok := t.content[id]; !ok {
		t.order = append(t.order, id)
		t.content[id] = ""
	}
}

func (t *Transcript) append(id, delta string) string {
	t.track(id)
	t.content[id] += delta
	return delta
}

// replace sets a message's accumulated content and returns what is new.
func (t *Transcript) replace(id, full string) string {
	t.track(id)
	prev := t.content[id]
	t.content[id] = full
	if strings.HasPrefix(full, prev) {
		return full[len(prev):]
	}
	return full
}

type streamedMessage struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

func (m streamedMessage) isAssistant() bool {
	switch m.Type {
	case "ai", "AIMessageChunk", "AIMessage":
		return true
	case "":
		return m.Role == "" || m.Role == "assistant" || m.Role == "ai"
	}
	return false
}

func (m streamedMessage) text() string {
	return contentText(m.Content)
}

// contentText extracts text from a string content or a list of content
// blocks.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var blocks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var b strings.Builder
		for _, blk := range blocks {
			if blk.Type == "text" {
				b.WriteString(blk.Text)
			}
		}
		return b.String()
	}
	return ""
}
