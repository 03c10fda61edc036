package bus

import (
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// scheduler runs tasks asynchronously in submission order. Submitting
// never blocks: tasks land on an unbounded queue drained by one
// dispatcher, which starts each task on its own goroutine. Start order is
// FIFO; completion order is whatever the tasks make of it.
type scheduler struct {
	mu     sync.Mutex
	queue  *linkedlistqueue.Queue
	wake   chan struct{}
	done   chan struct{}
	once   sync.Once
	closed bool
}

func newScheduler() *scheduler {
	s := &scheduler{
		queue: linkedlistqueue.New(),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	go s.dispatch()
	return s
}

func (s *scheduler) submit(task func()) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.queue.Enqueue(task)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *scheduler) next() (func(), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.queue.Dequeue()
	if !ok {
		return nil, false
	}
	return v.(func()), true
}

func (s *scheduler) dispatch() {
	for {
		select {
		case <-s.wake:
		case <-s.done:
			return
		}
		for {
			task, ok := s.next()
			if !ok {
				break
			}
			go task()
		}
	}
}

func (s *scheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Size()
}

func (s *scheduler) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue.Clear()
		s.mu.Unlock()
		close(s.done)
	})
}
