// Package watchqueue implements the façade's serial watch-request queue: a
// single-reader FIFO that executes watch/unwatch operations against the
// backend strictly one at a time, since the backend's native watcher API is
// assumed unsafe under concurrent issue of overlapping watch/unwatch calls.
package watchqueue

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/watchfs/watchfs/pkg/logging"
)

// Job is a unit of queued work: Work performs the backend call, and Done is
// notified of its result once Work returns.
type Job struct {
	// Work performs the backend operation. It runs on the queue's drain
	// goroutine, never concurrently with any other Job's Work.
	Work func() error
	// Done is invoked with Work's result after Work returns, still before
	// the job is popped. A panic from Done does not prevent the pop (see
	// Queue.runJob).
	Done func(error)
	// Label is a short human-readable description used for log lines.
	Label string
}

// Queue serializes Jobs, draining them one at a time in submission order.
// It is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	pending  []Job
	draining bool
	logger   *logging.Logger
}

// New creates an empty Queue.
func New(logger *logging.Logger) *Queue {
	return &Queue{logger: logger}
}

// Enqueue appends job to the queue. If the queue was idle, draining begins
// immediately on a new goroutine; otherwise job waits behind whatever is
// already pending.
func (q *Queue) Enqueue(job Job) {
	id := uuid.NewString()[:8]
	q.logger.Debugf("watchqueue: enqueueing %s (%s)", job.Label, id)

	q.mu.Lock()
	q.pending = append(q.pending, job)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

// Len reports the number of jobs currently pending (including any in
// flight).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		job := q.pending[0]
		q.mu.Unlock()

		q.runJob(job)

		q.mu.Lock()
		// The job we just ran is always still at the head: Enqueue only
		// appends, and this goroutine is the sole reader.
		q.pending = q.pending[1:]
		q.mu.Unlock()
	}
}

// runJob executes a single job's Work and Done callback. A panic escaping
// the user callback must not prevent the job from being popped, so the pop
// always happens in drain's next iteration regardless of how this method
// returns.
func (q *Queue) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Warn(fmt.Errorf("watchqueue: job %q callback panicked: %v", job.Label, r))
		}
	}()

	err := q.runWork(job)
	if job.Done != nil {
		job.Done(err)
	}
}

func (q *Queue) runWork(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("watchqueue: job %q panicked: %v", job.Label, r)
		}
	}()
	if job.Work != nil {
		err = job.Work()
	}
	return
}
