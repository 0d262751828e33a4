// Package coordinator implements the façade's change coordinator: a
// non-negative refcount bracketing in-process mutations (such as a rename)
// so that externally observed change notifications arriving from the
// backend watcher are deferred until the mutation (and its own index
// update and event firing) has completed. Without this, a backend that
// reports a rename as a "deleted oldPath" / "added newPath" pair could
// mislead listeners into seeing spurious delete/add events instead of a
// single rename.
package coordinator

import (
	"context"
	"fmt"
	"sync"

	"github.com/watchfs/watchfs/pkg/logging"
	"github.com/watchfs/watchfs/pkg/vfs/backend"
)

// Change is a pending external change notification. An empty Path denotes a
// wholesale change.
type Change struct {
	Path string
	Stat *backend.Stat
}

// Handler processes a single drained Change. It is never invoked
// concurrently and never re-entrantly while activeChangeCount > 0.
type Handler func(ctx context.Context, change Change)

// Coordinator brackets in-process mutations with BeginChange/EndChange and
// queues external changes observed while a mutation is in flight, draining
// them through Handler once the count returns to zero. It is safe for
// concurrent use.
type Coordinator struct {
	mu       sync.Mutex
	count    int
	queue    []Change
	draining bool
	handle   Handler
	logger   *logging.Logger
}

// New creates a Coordinator that invokes handle for each drained change.
func New(logger *logging.Logger, handle Handler) *Coordinator {
	return &Coordinator{handle: handle, logger: logger}
}

// BeginChange marks the start of an in-process mutation, deferring delivery
// of any external change enqueued before the matching EndChange.
func (c *Coordinator) BeginChange() {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// EndChange marks the end of an in-process mutation. If this brings the
// count to zero, every queued external change is drained through Handler, in
// arrival order.
func (c *Coordinator) EndChange(ctx context.Context) {
	c.mu.Lock()
	c.count--
	if c.count < 0 {
		c.logger.Warn(fmt.Errorf("coordinator: activeChangeCount went negative, resetting to 0"))
		c.count = 0
	}
	c.mu.Unlock()

	c.drain(ctx)
}

// ActiveChangeCount returns the current refcount. Exposed for diagnostics and
// tests.
func (c *Coordinator) ActiveChangeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// EnqueueExternalChange records a change observed by the backend watcher. If
// no mutation is currently bracketed, it (and anything else already queued)
// is drained immediately.
func (c *Coordinator) EnqueueExternalChange(ctx context.Context, change Change) {
	c.mu.Lock()
	c.queue = append(c.queue, change)
	c.mu.Unlock()

	c.drain(ctx)
}

// drain repeatedly pops and handles queued changes as long as the
// coordinator is quiescent (count == 0). It's safe to call unconditionally:
// it's a no-op both when the queue is empty and when a mutation is still in
// flight. Only one caller drains at a time; a call made while another drain
// is running returns at once and leaves the queue to that drain.
func (c *Coordinator) drain(ctx context.Context) {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	c.mu.Unlock()

	for {
		c.mu.Lock()
		if c.count != 0 || len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.handle(ctx, next)
	}
}
