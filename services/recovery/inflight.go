package recovery

import (
	"context"
	"sync"
)

// inflightCall is the shared handle for one coordinator invocation.
// Every caller coalesced onto it observes the identical result.
type inflightCall struct {
	done   chan struct{}
	result Result
}

// inflightGroup coalesces concurrent requests for the same key onto a
// single owner. The first caller to attach becomes the owner and does
// the work; everyone else waits on the owner's handle. This is what
// guarantees at most one outbound delivery per key at a time.
type inflightGroup struct {
	mu    sync.Mutex
	calls map[CompositeKey]*inflightCall
}

func newInflightGroup() *inflightGroup {
	return &inflightGroup{
		calls: make(map[CompositeKey]*inflightCall),
	}
}

// attach returns the call handle for the key and whether the caller is
// the owner. If no call is in flight, one is created atomically and the
// caller owns it.
func (g *inflightGroup) attach(key CompositeKey) (*inflightCall, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if call, ok := g.calls[key]; ok {
		return call, false
	}
	call := &inflightCall{done: make(chan struct{})}
	g.calls[key] = call
	return call, true
}

// complete publishes the result to every waiter and removes the entry.
// The owner must call it exactly once, on every path out of the
// critical section; a key left attached here is unattachable forever.
func (g *inflightGroup) complete(key CompositeKey, res Result) {
	g.mu.Lock()
	call, ok := g.calls[key]
	if ok {
		delete(g.calls, key)
	}
	g.mu.Unlock()

	if ok {
		call.result = res
		close(call.done)
	}
}

// wait blocks until the owner completes or the waiter's context ends.
// A canceled waiter stops waiting; the owner keeps running, so the
// delivery is never aborted mid-flight.
func (g *inflightGroup) wait(ctx context.Context, call *inflightCall) Result {
	select {
	case <-call.done:
		return call.result
	case <-ctx.Done():
		return Result{
			ErrKind: KindTimeout,
			Message: "gave up waiting for an identical request already in progress",
		}
	}
}

// size returns the number of keys currently attached
func (g *inflightGroup) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}
