package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/alanmeadows/langbridge/internal/langgraph"
	"github.com/alanmeadows/langbridge/internal/langgraph/mocks"
)

func TestEnsureSession_CreatesOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	client.EXPECT().
		CreateThread(gomock.Any()).
		Return(&langgraph.Thread{ThreadID: "t-1"}, nil).
		Times(1)

	m := New(client)
	for i := 0; i < 5; i++ {
		id, err := m.EnsureSession(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "t-1", id)
	}
	assert.Equal(t, "t-1", m.ThreadID())
}

func TestEnsureSession_RetriesAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	boom := errors.New("connection refused")
	gomock.InOrder(
		client.EXPECT().CreateThread(gomock.Any()).Return(nil, boom),
		client.EXPECT().CreateThread(gomock.Any()).Return(&langgraph.Thread{ThreadID: "t-2"}, nil),
	)

	m := New(client)

	_, err := m.EnsureSession(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.ThreadID(), "no id is cached from a failed attempt")

	id, err := m.EnsureSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "t-2", id)
}

func TestEnsureSession_SeededThread(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	// No CreateThread expectation: any call fails the test.

	m := New(client, WithThreadID("existing"))
	id, err := m.EnsureSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "existing", id)
}

func TestEnsureSession_ConcurrentCallersConverge(t *testing.T) {
	client := langgraph.NewMockClient()
	m := New(client)

	const callers = 20
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := m.EnsureSession(context.Background())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, client.GetCreateCalls())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestEnsureSession_Hooks(t *testing.T) {
	client := langgraph.NewMockClient()
	var created []string
	var failures []error

	m := New(client, WithHooks(Hooks{
		OnCreated:      func(id string) { created = append(created, id) },
		OnCreateFailed: func(err error) { failures = append(failures, err) },
	}))

	client.SetCreateErr(errors.New("down"))
	_, err := m.EnsureSession(context.Background())
	require.Error(t, err)

	client.SetCreateErr(nil)
	_, err = m.EnsureSession(context.Background())
	require.NoError(t, err)
	_, err = m.EnsureSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"mock-thread-1"}, created)
	assert.Len(t, failures, 1)
}
