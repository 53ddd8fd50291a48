package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunProtectedConvertsPanic(t *testing.T) {
	err := runProtected(func() error {
		panic("bad work item")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad work item")
}

func TestRunProtectedPassesThrough(t *testing.T) {
	require.NoError(t, runProtected(func() error { return nil }))

	sentinel := errors.New("boom")
	assert.ErrorIs(t, runProtected(func() error { return sentinel }), sentinel)
}

func TestWorkQueuePopUnblocksOnClose(t *testing.T) {
	wq := NewWorkQueue(1)

	done := make(chan error, 1)
	go func() {
		_, err := wq.Pop(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	wq.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after Close")
	}
}

func TestWorkQueuePopUnblocksOnShutdown(t *testing.T) {
	// mirrors Run's shutdown order: cancel first, then close the queue
	wq := NewWorkQueue(1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := wq.Pop(ctx)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	wq.Close()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return after shutdown")
	}
}

func TestWorkQueuePopAfterClose(t *testing.T) {
	wq := NewWorkQueue(1)
	wq.Close()

	_, err := wq.Pop(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}
