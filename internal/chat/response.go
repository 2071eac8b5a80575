package chat

import (
	"context"
	"encoding/json"
	"iter"
	"time"

	"github.com/alanmeadows/langbridge/internal/langgraph"
)

// Response is the live fragment sequence of one run. Fragments are pulled
// one at a time in the order the server emitted them; nothing is buffered
// ahead of the consumer. A Response is not safe for concurrent use.
type Response struct {
	o        *Orchestrator
	ctx      context.Context
	threadID string
	stream   *langgraph.Stream
	started  time.Time

	cur       langgraph.Fragment
	collected []json.RawMessage
	phase     Phase
	err       error
}

// Next advances to the next fragment. It returns false once the run is
// exhausted, failed, or closed.
func (r *Response) Next() bool {
	if r.phase != PhaseStreaming {
		return false
	}

	if r.stream.Next() {
		r.cur = r.stream.Current()
		r.collected = append(r.collected, r.cur.Data)
		r.o.emit(r.ctx, Event{
			Type:          EventFragment,
			ThreadID:      r.threadID,
			FragmentEvent: r.cur.Event,
			Fragments:     len(r.collected),
		})
		return true
	}

	r.stream.Close()
	event := Event{
		ThreadID:  r.threadID,
		Fragments: len(r.collected),
		Duration:  time.Since(r.started),
	}
	if err := r.stream.Err(); err != nil {
		r.err = err
		r.end(PhaseFailed)
		event.Type = EventRunErrored
		event.Err = err
	} else {
		r.end(PhaseIdle)
		event.Type = EventRunCompleted
	}
	r.o.emit(r.ctx, event)
	return false
}

// Fragment returns the fragment produced by the last successful Next.
func (r *Response) Fragment() langgraph.Fragment {
	return r.cur
}

// Err returns the error that ended the run, if any.
func (r *Response) Err() error {
	return r.err
}

// Close stops consuming the run and releases the connection. Closing an
// unfinished run leaves the orchestrator idle and emits EventRunClosed; it
// is safe to call after the run has ended.
func (r *Response) Close() error {
	if r.phase != PhaseStreaming {
		return r.stream.Close()
	}
	err := r.stream.Close()
	r.end(PhaseIdle)
	r.o.emit(r.ctx, Event{
		Type:      EventRunClosed,
		ThreadID:  r.threadID,
		Fragments: len(r.collected),
		Duration:  time.Since(r.started),
	})
	return err
}

// All returns an iterator over the remaining fragments. A run failure is
// yielded once as a final (zero fragment, error) pair. Breaking out of the
// loop closes the Response.
func (r *Response) All() iter.Seq2[langgraph.Fragment, error] {
	return func(yield func(langgraph.Fragment, error) bool) {
		for r.Next() {
			if !yield(r.cur, nil) {
				r.Close()
				return
			}
		}
		if r.err != nil {
			yield(langgraph.Fragment{}, r.err)
		}
	}
}

// Collected returns the payloads of every fragment delivered so far.
func (r *Response) Collected() []json.RawMessage {
	out := make([]json.RawMessage, len(r.collected))
	copy(out, r.collected)
	return out
}

// ThreadID returns the thread the run executes on.
func (r *Response) ThreadID() string {
	return r.threadID
}

// Phase reports Streaming until the run ends, then Idle or Failed.
func (r *Response) Phase() Phase {
	return r.phase
}

func (r *Response) end(p Phase) {
	r.phase = p
	r.o.setPhase(p)
}
