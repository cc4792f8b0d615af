package writequeue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_SerializesSameKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	const n = 50
	var mu sync.Mutex
	seen := make([]int, 0, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := m.Execute(context.Background(), "doc-1", func() error {
				// Single worker per key: no two fns run at once, so this
				// append needs no extra synchronization beyond mu.
				mu.Lock()
				seen = append(seen, i)
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, seen, n)
}

func TestExecute_CountersPerKey(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	// Sequential appends through the queue must observe every prior append,
	// the invariant AddChange relies on for contiguous positions.
	counter := 0
	for i := 1; i <= 20; i++ {
		err := m.Execute(context.Background(), "doc-2", func() error {
			counter++
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, i, counter)
	}
}

func TestExecute_IndependentKeysDoNotBlock(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_ = m.Execute(context.Background(), "slow", func() error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started

	done := make(chan error, 1)
	go func() {
		done <- m.Execute(context.Background(), "fast", func() error { return nil })
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("write on an independent key blocked behind another key's worker")
	}
	close(release)
}

func TestExecute_ContextCancelled(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Execute(ctx, "doc-3", func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_AfterShutdown(t *testing.T) {
	m := New(nil, nil)
	require.NoError(t, m.Shutdown(context.Background()))

	err := m.Execute(context.Background(), "doc-4", func() error { return nil })
	assert.ErrorIs(t, err, ErrWriteQueueClosed)
}

func TestQueueCount(t *testing.T) {
	m := New(nil, nil)
	defer m.Shutdown(context.Background())

	_ = m.Execute(context.Background(), "a", func() error { return nil })
	_ = m.Execute(context.Background(), "b", func() error { return nil })

	assert.Equal(t, 2, m.QueueCount())
}
