package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunDispatchesRegisteredHandlersInOrder(t *testing.T) {
	q := New(4)
	var mu sync.Mutex
	var got []string
	q.On("line", func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(ev.Data))
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	q.Push(ctx, Event{Name: "line", Data: []byte("first")})
	q.Push(ctx, Event{Name: "line", Data: []byte("second")})
	q.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first", "second"}, got)
}

func TestUnregisteredEventNameIsDroppedSilently(t *testing.T) {
	q := New(1)
	fired := false
	q.On("line", func(Event) { fired = true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	q.Push(ctx, Event{Name: "exits"})
	q.Close()
	<-done
	require.False(t, fired)
}

func TestHandlerPanicIsRecoveredAndDoesNotStopDispatch(t *testing.T) {
	q := New(4)
	var mu sync.Mutex
	var secondRan bool
	q.On("line", func(Event) { panic("boom") })
	q.On("line", func(Event) {
		mu.Lock()
		defer mu.Unlock()
		secondRan = true
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	q.Push(ctx, Event{Name: "line"})
	q.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after a handler panic")
	}

	mu.Lock()
	defer mu.Unlock()
	require.True(t, secondRan)
}

func TestCloseDrainsAlreadyQueuedEvents(t *testing.T) {
	q := New(8)
	var mu sync.Mutex
	var count int
	q.On("line", func(Event) {
		mu.Lock()
		defer mu.Unlock()
		count++
	})

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		q.Push(ctx, Event{Name: "line"})
	}
	q.Close()

	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not drain queued events before returning")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 5, count)
}

func TestPushRespectsContextCancellation(t *testing.T) {
	q := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		q.Push(ctx, Event{Name: "line"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Push did not return after context cancellation")
	}
}
