package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(context.Background(), 4)
	var n atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	require.NoError(t, p.Close())
	assert.Equal(t, int64(100), n.Load())
}

func TestPoolTaskErrorsDoNotStop(t *testing.T) {
	var mu sync.Mutex
	var errs []error
	p := New(context.Background(), 2, WithErrorHandler(func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}))
	var ran atomic.Int64
	boom := errors.New("boom")
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
			ran.Add(1)
			if i%2 == 0 {
				return boom
			}
			if i == 3 {
				panic("bad task")
			}
			return nil
		}))
	}
	require.NoError(t, p.Close())
	assert.Equal(t, int64(10), ran.Load())
	assert.Len(t, errs, 6)
}

func TestPoolSubmitAfterClose(t *testing.T) {
	p := New(context.Background(), 1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	err := p.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestPoolSubmitBlocksWhenSaturated(t *testing.T) {
	p := New(context.Background(), 1)
	release := make(chan struct{})
	started := make(chan struct{})
	block := func(context.Context) error {
		started <- struct{}{}
		<-release
		return nil
	}
	require.NoError(t, p.Submit(context.Background(), block))
	<-started
	// worker busy; one slot of queue
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, p.Close())
}

func TestPoolCancelStopsIntake(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(ctx, 2)
	cancel()
	err := p.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
	require.NoError(t, p.Close())
}

func TestPoolInFlightCompletesAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(ctx, 1)
	started := make(chan struct{})
	var done atomic.Bool
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
		close(started)
		time.Sleep(10 * time.Millisecond)
		done.Store(true)
		return nil
	}))
	<-started
	cancel()
	require.NoError(t, p.Close())
	assert.True(t, done.Load())
}
