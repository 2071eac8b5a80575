package langgraph

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const maxEventSize = 4 << 20

// Stream is a pull-based sequence of fragments read from a server-sent
// event response. Fragments are returned in arrival order. A failure after
// the stream started ends the sequence with Err set; fragments already
// returned stay valid.
type Stream struct {
	ctx      context.Context
	threadID string
	body     io.ReadCloser
	scanner  *bufio.Scanner

	// in-memory source, see NewFragmentStream
	pending  []Fragment
	finalErr error

	cur       Fragment
	err       error
	done      bool
	closeOnce sync.Once
	closeErr  error
}

func newSSEStream(ctx context.Context, threadID string, body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	return &Stream{
		ctx:      ctx,
		threadID: threadID,
		body:     body,
		scanner:  scanner,
	}
}

// NewFragmentStream returns a Stream that yields the given fragments and
// then ends with err (nil for a clean end). Used by test doubles.
func NewFragmentStream(fragments []Fragment, err error) *Stream {
	pending := make([]Fragment, len(fragments))
	copy(pending, fragments)
	return &Stream{
		ctx:      context.Background(),
		pending:  pending,
		finalErr: err,
	}
}

// Next advances to the next fragment. It returns false when the sequence is
// exhausted or failed; check Err to tell the two apart.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	if s.scanner == nil {
		if len(s.pending) > 0 {
			s.cur = s.pending[0]
			s.pending = s.pending[1:]
			return true
		}
		s.finish(s.finalErr)
		return false
	}

	for {
		frag, ok, err := s.readEvent()
		if err != nil {
			terr := &TransportError{Op: "stream", ThreadID: s.threadID, Err: err}
			slog.Error("run stream interrupted", "thread", s.threadID, "error", err)
			s.finish(terr)
			return false
		}
		if !ok {
			s.finish(nil)
			return false
		}

		switch frag.Event {
		case "error":
			terr := &TransportError{Op: "stream", ThreadID: s.threadID, Body: remoteErrorMessage(frag.Data)}
			terr.Err = errors.New(terr.Body)
			slog.Error("run stream returned an error event", "thread", s.threadID, "error", terr.Body)
			s.finish(terr)
			return false
		case "end":
			s.finish(nil)
			return false
		}

		s.cur = frag
		return true
	}
}

// Current returns the fragment produced by the last successful Next.
func (s *Stream) Current() Fragment {
	return s.cur
}

// Err returns the error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying connection. It is safe to call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		if s.body != nil {
			s.closeErr = s.body.Close()
		}
	})
	return s.closeErr
}

func (s *Stream) finish(err error) {
	s.err = err
	s.done = true
	s.Close()
}

// readEvent reads lines until a blank line completes an event. It returns
// ok=false at a clean end of input.
func (s *Stream) readEvent() (Fragment, bool, error) {
	var (
		frag      Fragment
		dataLines []string
		seen      bool
	)

	for {
		if err := s.ctx.Err(); err != nil {
			return Fragment{}, false, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Fragment{}, false, err
			}
			if err := s.ctx.Err(); err != nil {
				return Fragment{}, false, err
			}
			if seen {
				frag.Data = encodeData(dataLines)
				return frag, true, nil
			}
			return Fragment{}, false, nil
		}

		line := s.scanner.Text()

		if line == "" {
			if !seen {
				continue
			}
			frag.Data = encodeData(dataLines)
			return frag, true, nil
		}

		// Comment / keep-alive line
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			frag.Event = value
			seen = true
		case "data":
			dataLines = append(dataLines, value)
			seen = true
		case "id":
			frag.ID = value
			seen = true
		}
	}
}

// encodeData joins data lines. Payloads that are not valid JSON are carried
// as a JSON string so the fragment stays serialisable.
func encodeData(lines []string) json.RawMessage {
	if len(lines) == 0 {
		return nil
	}
	data := strings.Join(lines, "\n")
	if json.Valid([]byte(data)) {
		return json.RawMessage(data)
	}
	raw, _ := json.Marshal(data)
	return raw
}

func remoteErrorMessage(data json.RawMessage) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		switch {
		case payload.Error != "" && payload.Message != "":
			return payload.Error + ": " + payload.Message
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s != "" {
		return s
	}
	if len(data) == 0 {
		return "remote error"
	}
	return string(data)
}
