package store

import "sync"

// task is one unit of queued work. done closes after run returns.
type task struct {
	run  func()
	done chan struct{}
}

// updateQueue runs tasks one at a time in submission order.
//
// It is IDLE when draining is false and DRAINING while a goroutine works through tasks.
// Tasks are popped only after they finish, so the head of the queue is always the running task.
type updateQueue struct {
	mu       sync.Mutex
	tasks    []*task
	draining bool
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{}
}

// enqueue appends run to the queue and starts a drain if the queue is idle.
func (q *updateQueue) enqueue(run func()) <-chan struct{} {
	t := &task{run: run, done: make(chan struct{})}

	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	if q.draining {
		q.mu.Unlock()
		return t.done
	}
	q.draining = true
	q.mu.Unlock()

	go q.drain()
	return t.done
}

func (q *updateQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		head := q.tasks[0]
		q.mu.Unlock()

		head.run()

		q.mu.Lock()
		q.tasks[0] = nil
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		close(head.done)
	}
}

// pending returns the number of queued tasks including the running one.
func (q *updateQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// busy reports whether the queue is draining.
func (q *updateQueue) busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draining
}
