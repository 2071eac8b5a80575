package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanmeadows/langbridge/internal/langgraph"
	"github.com/alanmeadows/langbridge/internal/langgraph/mocks"
)

// recordingObserver captures events for assertions.
type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) OnEvent(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func frags(data ...string) []langgraph.Fragment {
	out := make([]langgraph.Fragment, len(data))
	for i, d := range data {
		out[i] = langgraph.Fragment{Event: "messages/partial", Data: json.RawMessage(d)}
	}
	return out
}

func drain(t *testing.T, r *Response) []string {
	t.Helper()
	var got []string
	for r.Next() {
		got = append(got, string(r.Fragment().Data))
	}
	return got
}

func TestStream_FreshInstance(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	msgs := []langgraph.Message{langgraph.NewTextMessage(langgraph.RoleUser, "hi")}

	gomock.InOrder(
		client.EXPECT().CreateThread(gomock.Any()).
			Return(&langgraph.Thread{ThreadID: "t-1"}, nil).Times(1),
		client.EXPECT().StreamRun(gomock.Any(), "t-1", langgraph.RunInput{Messages: msgs}).
			Return(langgraph.NewFragmentStream(frags(`"He"`, `"llo"`), nil), nil).Times(1),
	)

	o := New(client)
	assert.Equal(t, PhaseNoSession, o.Phase())

	resp, err := o.Stream(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, PhaseStreaming, o.Phase())
	assert.Equal(t, "t-1", resp.ThreadID())

	require.True(t, resp.Next())
	assert.Equal(t, `"He"`, string(resp.Fragment().Data))
	require.True(t, resp.Next())
	assert.Equal(t, `"llo"`, string(resp.Fragment().Data))
	assert.False(t, resp.Next())

	require.NoError(t, resp.Err())
	assert.Equal(t, PhaseIdle, resp.Phase())
	assert.Equal(t, PhaseIdle, o.Phase())
	assert.Equal(t, []json.RawMessage{json.RawMessage(`"He"`), json.RawMessage(`"llo"`)}, resp.Collected())
}

func TestStream_ReusesThread(t *testing.T) {
	client := langgraph.NewMockClient()
	client.Fragments = frags(`"ok"`)
	o := New(client)

	const sends = 4
	for i := 0; i < sends; i++ {
		resp, err := o.Stream(context.Background(), []langgraph.Message{
			langgraph.NewTextMessage(langgraph.RoleUser, "turn"),
		})
		require.NoError(t, err)
		drain(t, resp)
	}

	assert.Equal(t, 1, client.GetCreateCalls())
	runs := client.GetRunHistory()
	require.Len(t, runs, sends)
	for _, run := range runs {
		assert.Equal(t, "mock-thread-1", run.ThreadID)
	}
	assert.Equal(t, "mock-thread-1", o.ThreadID())
}

func TestStream_RetriesCreationAfterFailure(t *testing.T) {
	client := langgraph.NewMockClient()
	client.SetCreateErr(&langgraph.TransportError{Op: "create thread", StatusCode: 503})
	o := New(client)

	_, err := o.Stream(context.Background(), nil)
	require.Error(t, err)
	var terr *langgraph.TransportError
	assert.ErrorAs(t, err, &terr)
	assert.Equal(t, PhaseFailed, o.Phase())
	assert.Empty(t, client.GetRunHistory(), "no run is started without a thread")

	client.SetCreateErr(nil)
	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)
	drain(t, resp)

	assert.Equal(t, 2, client.GetCreateCalls())
}

func TestStream_PassesMessagesThroughUnchanged(t *testing.T) {
	client := langgraph.NewMockClient()
	o := New(client)

	msgs := []langgraph.Message{
		{ID: "s", Role: langgraph.RoleSystem, Content: json.RawMessage(`"be brief"`)},
		{ID: "u1", Role: langgraph.RoleUser, Content: json.RawMessage(`"hi"`)},
		{ID: "a1", Role: langgraph.RoleAssistant, Content: json.RawMessage(`[{"type":"text","text":"hello"}]`)},
		{ID: "u1", Role: langgraph.RoleUser, Content: json.RawMessage(`"hi"`)},
		{Role: langgraph.RoleTool, Content: json.RawMessage(`{"price":1.5}`), ToolCallID: "call-1"},
	}
	before, err := json.Marshal(msgs)
	require.NoError(t, err)

	resp, err := o.Stream(context.Background(), msgs)
	require.NoError(t, err)
	drain(t, resp)

	runs := client.GetRunHistory()
	require.Len(t, runs, 1)
	sent, err := json.Marshal(runs[0].Input.Messages)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(sent))

	after, err := json.Marshal(msgs)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "caller's slice is not mutated")
}

func TestStream_PreservesFragmentOrder(t *testing.T) {
	client := langgraph.NewMockClient()
	var data []string
	for i := 0; i < 100; i++ {
		b, _ := json.Marshal(i)
		data = append(data, string(b))
	}
	client.Fragments = frags(data...)
	o := New(client)

	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, data, drain(t, resp))
}

func TestStream_InitiationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	rejected := &langgraph.TransportError{Op: "stream run", StatusCode: 422}

	client.EXPECT().CreateThread(gomock.Any()).Return(&langgraph.Thread{ThreadID: "t-1"}, nil)
	client.EXPECT().StreamRun(gomock.Any(), "t-1", gomock.Any()).Return(nil, rejected)

	obs := &recordingObserver{}
	o := New(client, WithObserver(obs))

	_, err := o.Stream(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, PhaseFailed, o.Phase())
	assert.Equal(t, []EventType{EventSessionCreated, EventRunStarted, EventRunFailed}, obs.types())

	// The thread survives; the next send reuses it.
	client.EXPECT().StreamRun(gomock.Any(), "t-1", gomock.Any()).
		Return(langgraph.NewFragmentStream(nil, nil), nil)
	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)
	drain(t, resp)
	assert.Equal(t, PhaseIdle, o.Phase())
}

func TestStream_MidStreamFailureKeepsDeliveredFragments(t *testing.T) {
	client := langgraph.NewMockClient()
	cut := &langgraph.TransportError{Op: "stream", Err: errors.New("connection reset")}
	client.Fragments = frags(`"He"`, `"llo"`)
	client.StreamEndErr = cut

	obs := &recordingObserver{}
	o := New(client, WithObserver(obs))

	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)

	got := drain(t, resp)
	assert.Equal(t, []string{`"He"`, `"llo"`}, got)
	assert.ErrorIs(t, resp.Err(), cut)
	assert.Equal(t, PhaseFailed, resp.Phase())
	assert.Equal(t, PhaseFailed, o.Phase())
	assert.Len(t, resp.Collected(), 2)

	types := obs.types()
	assert.Equal(t, EventRunErrored, types[len(types)-1])
	assert.False(t, resp.Next())
}

func TestStream_ResumedThreadSkipsCreation(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().StreamRun(gomock.Any(), "existing", gomock.Any()).
		Return(langgraph.NewFragmentStream(nil, nil), nil)

	o := New(client, WithThreadID("existing"))
	assert.Equal(t, PhaseSessionReady, o.Phase())

	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)
	drain(t, resp)
}

func TestResponse_All(t *testing.T) {
	client := langgraph.NewMockClient()
	client.Fragments = frags(`"a"`, `"b"`)
	client.StreamEndErr = errors.New("cut")
	o := New(client)

	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)

	var got []string
	var gotErr error
	for frag, err := range resp.All() {
		if err != nil {
			gotErr = err
			break
		}
		got = append(got, string(frag.Data))
	}
	assert.Equal(t, []string{`"a"`, `"b"`}, got)
	assert.EqualError(t, gotErr, "cut")
}

func TestResponse_AllBreakCloses(t *testing.T) {
	client := langgraph.NewMockClient()
	client.Fragments = frags(`"a"`, `"b"`, `"c"`)
	o := New(client)

	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)

	for range resp.All() {
		break
	}
	assert.Equal(t, PhaseIdle, resp.Phase())
	assert.False(t, resp.Next())
	assert.Len(t, resp.Collected(), 1)
}

func TestResponse_EarlyCloseEndsRun(t *testing.T) {
	client := langgraph.NewMockClient()
	client.Fragments = frags(`"a"`, `"b"`)
	obs := &recordingObserver{}
	o := New(client, WithObserver(obs))

	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, resp.Next())
	require.NoError(t, resp.Close())
	require.NoError(t, resp.Close())
	for range resp.All() {
		t.Fatal("closed response yielded a fragment")
	}

	assert.Equal(t, []EventType{
		EventSessionCreated,
		EventRunStarted,
		EventFragment,
		EventRunClosed,
	}, obs.types())
	last := obs.events[len(obs.events)-1]
	assert.Equal(t, 1, last.Fragments)
	assert.Equal(t, "mock-thread-1", last.ThreadID)
	assert.Equal(t, PhaseIdle, o.Phase())
}

func TestResponse_CloseAfterEndEmitsNothing(t *testing.T) {
	client := langgraph.NewMockClient()
	client.Fragments = frags(`"a"`)
	obs := &recordingObserver{}
	o := New(client, WithObserver(obs))

	resp, err := o.Stream(context.Background(), nil)
	require.NoError(t, err)
	drain(t, resp)
	require.NoError(t, resp.Close())

	types := obs.types()
	assert.Equal(t, EventRunCompleted, types[len(types)-1])
	assert.NotContains(t, types, EventRunClosed)
}

func TestState_RequiresThread(t *testing.T) {
	client := langgraph.NewMockClient()
	o := New(client)

	_, err := o.State(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = o.UpdateState(context.Background(), langgraph.StateUpdate{Values: json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, client.GetCreateCalls(), "state access never creates a thread")
}

func TestUpdateState_Attribution(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	update := langgraph.StateUpdate{Values: json.RawMessage(`{"ticker":"NVDA"}`), AsNode: "X"}
	confirmed := json.RawMessage(`{"checkpoint":{"checkpoint_id":"c9"}}`)

	client.EXPECT().UpdateState(gomock.Any(), "t-1", update).Return(confirmed, nil).Times(1)

	o := New(client, WithThreadID("t-1"))
	got, err := o.UpdateState(context.Background(), update)
	require.NoError(t, err)
	assert.Equal(t, confirmed, got)
}

func TestState_ActiveThread(t *testing.T) {
	client := langgraph.NewMockClient()
	client.States["t-1"] = &langgraph.ThreadState{Values: json.RawMessage(`{"k":"v"}`)}

	o := New(client, WithThreadID("t-1"))
	state, err := o.State(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"v"}`, string(state.Values))
}

func TestObserverEventSequence(t *testing.T) {
	client := langgraph.NewMockClient()
	client.Fragments = frags(`"x"`, `"y"`)
	obs := &recordingObserver{}
	o := New(client, WithObserver(obs))

	resp, err := o.Stream(context.Background(), []langgraph.Message{langgraph.NewTextMessage(langgraph.RoleUser, "q")})
	require.NoError(t, err)
	drain(t, resp)

	assert.Equal(t, []EventType{
		EventSessionCreated,
		EventRunStarted,
		EventFragment,
		EventFragment,
		EventRunCompleted,
	}, obs.types())

	last := obs.events[len(obs.events)-1]
	assert.Equal(t, 2, last.Fragments)
	assert.Equal(t, "mock-thread-1", last.ThreadID)
	assert.Equal(t, 1, obs.events[1].Messages)
}
