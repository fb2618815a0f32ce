// Package events implements the single-consumer event queue that sits
// between the XML tokenizer and the sync/auto-mapping engine: tokenizer
// goroutines enqueue typed facts as they're parsed, and one dispatch loop
// drains them in order, routing each to whichever handlers registered for
// its name.
package events

import (
	"context"
	"sync"

	"github.com/seekerror/logw"
)

// Event is one fact handed from the protocol layer to the mapper.
type Event struct {
	Name  string
	Data  []byte
	Attrs map[string]string
}

// Handler processes one event. A panic inside a Handler is recovered by the
// dispatch loop and logged; it never takes down the consumer goroutine.
type Handler func(Event)

// Queue is an ordered, single-consumer FIFO of Events backed by a channel
// of fixed capacity (see New), with per-name handler registration,
// mirroring the teacher's per-player Output channel drained by exactly one
// goroutine until it's closed.
type Queue struct {
	mu       sync.Mutex
	handlers map[string][]Handler

	ch     chan Event
	closed chan struct{}
	once   sync.Once
}

// New returns a Queue with the given channel capacity (0 for unbuffered).
func New(capacity int) *Queue {
	return &Queue{
		handlers: make(map[string][]Handler),
		ch:       make(chan Event, capacity),
		closed:   make(chan struct{}),
	}
}

// On registers handler to run whenever an event named name is dispatched.
// Handlers run in registration order on the single consumer goroutine, so
// they must not block.
func (q *Queue) On(name string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[name] = append(q.handlers[name], handler)
}

// Push enqueues ev for dispatch. Push never blocks the tokenizer on a full
// queue forever: it respects ctx cancellation and the queue's own shutdown.
func (q *Queue) Push(ctx context.Context, ev Event) {
	select {
	case q.ch <- ev:
	case <-q.closed:
	case <-ctx.Done():
	}
}

// Run drains the queue until Close is called or ctx is done, dispatching
// each event to its registered handlers. Run is meant to be the body of
// the mapper's single consumer goroutine; it returns once the queue is
// drained and closed.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case ev := <-q.ch:
			q.dispatch(ctx, ev)
		case <-q.closed:
			q.drain(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

// drain dispatches whatever events were queued before Close, so a clean
// shutdown doesn't silently discard the tail of the stream.
func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case ev := <-q.ch:
			q.dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (q *Queue) dispatch(ctx context.Context, ev Event) {
	q.mu.Lock()
	handlers := append([]Handler(nil), q.handlers[ev.Name]...)
	q.mu.Unlock()

	for _, h := range handlers {
		q.runHandler(ctx, ev, h)
	}
}

func (q *Queue) runHandler(ctx context.Context, ev Event, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			logw.Errorf(ctx, "events: handler for %q panicked: %v", ev.Name, r)
		}
	}()
	h(ev)
}

// Close signals Run to finish dispatching any already-queued events and
// return. Close is idempotent and safe to call from any goroutine.
func (q *Queue) Close() {
	q.once.Do(func() { close(q.closed) })
}
