package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	doc := ParseDocument([]byte("---\nname: analyst\ntags: [finance, stocks]\n---\n\nYou are an analyst.\n"))

	assert.Equal(t, "analyst", GetString(doc.Frontmatter, "name"))
	assert.Equal(t, []string{"finance", "stocks"}, GetStringSlice(doc.Frontmatter, "tags"))
	assert.Contains(t, doc.Body, "You are an analyst.")
	assert.NotContains(t, doc.Body, "name:")
}

func TestParseDocumentWithoutFrontmatter(t *testing.T) {
	doc := ParseDocument([]byte("Just a body.\n"))

	assert.Empty(t, doc.Frontmatter)
	assert.Equal(t, "Just a body.\n", doc.Body)
}

func TestWriteAndReadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "preset.md")

	doc := &Document{
		Frontmatter: map[string]any{"name": "brief", "role": "system"},
		Body:        "Answer in one sentence.\n",
	}
	require.NoError(t, WriteDocument(path, doc))

	got, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "brief", GetString(got.Frontmatter, "name"))
	assert.Equal(t, "system", GetString(got.Frontmatter, "role"))
	assert.Contains(t, got.Body, "Answer in one sentence.")
}

func TestReadDocumentNonExistent(t *testing.T) {
	_, err := ReadDocument("/nonexistent/path/file.md")
	assert.Error(t, err)
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "langbridge.jsonc")

	require.NoError(t, WriteFile(path, []byte(`{"v":1}`), 0600))
	require.NoError(t, WriteFile(path, []byte(`{"v":2}`), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))
	assert.False(t, Exists(path+".tmp"))
}

func TestExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exists.md")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0644))

	assert.True(t, Exists(path))
	assert.False(t, Exists("/nonexistent/path/does/not/exist.md"))
}

func TestGetStringWrongType(t *testing.T) {
	fm := map[string]any{"name": "x", "count": 42, "list": []any{"a", 1, "b"}}
	assert.Equal(t, "", GetString(fm, "count"))
	assert.Equal(t, "", GetString(fm, "missing"))
	assert.Equal(t, []string{"a", "b"}, GetStringSlice(fm, "list"))
	assert.Nil(t, GetStringSlice(fm, "name"))
}

// --- WithLock ---

func TestWithLockBasicOperation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locktest")

	called := false
	err := WithLock(context.Background(), path, DefaultLockTimeout, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestWithLockConcurrentAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent")

	var counter int64
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(context.Background(), path, 10*time.Second, func() error {
				val := atomic.LoadInt64(&counter)
				time.Sleep(time.Millisecond)
				atomic.StoreInt64(&counter, val+1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}

	wg.Wait()
	assert.Equal(t, int64(10), atomic.LoadInt64(&counter))
}

func TestWithReadLockBasicOperation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readlocktest")

	called := false
	err := WithReadLock(context.Background(), path, DefaultLockTimeout, func() error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestWithLockTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeouttest")

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = WithLock(context.Background(), path, 10*time.Second, func() error {
			close(locked)
			<-release
			return nil
		})
	}()

	<-locked

	called := false
	err := WithLock(context.Background(), path, 200*time.Millisecond, func() error {
		called = true
		return nil
	})
	assert.Error(t, err, "expected timeout error when lock is held")
	assert.False(t, called)

	close(release)
	<-done
}
