package locker

import (
	"iter"
	"sync"
)

// stream is an unbounded single-consumer queue exposed as an iter.Seq.
// The sequence can be ranged over once; it ends when the producer closes
// the stream and the buffer is drained. A consumer that stops early makes
// the stream discard whatever is pushed afterwards.
type stream[T any] struct {
	mu        sync.Mutex
	cond      *sync.Cond
	buf       []T
	closed    bool
	started   bool
	abandoned bool
}

func newStream[T any]() *stream[T] {
	s := &stream[T]{}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *stream[T]) push(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.abandoned {
		return
	}
	s.buf = append(s.buf, v)
	s.cond.Signal()
}

func (s *stream[T]) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
}

func (s *stream[T]) seq() iter.Seq[T] {
	return func(yield func(T) bool) {
		s.mu.Lock()
		if s.started {
			s.mu.Unlock()
			return
		}
		s.started = true

		for {
			for len(s.buf) == 0 && !s.closed {
				s.cond.Wait()
			}
			if len(s.buf) == 0 {
				s.mu.Unlock()
				return
			}

			var zero T
			v := s.buf[0]
			s.buf[0] = zero
			s.buf = s.buf[1:]
			s.mu.Unlock()

			if !yield(v) {
				s.mu.Lock()
				s.abandoned = true
				s.buf = nil
				s.mu.Unlock()
				return
			}
			s.mu.Lock()
		}
	}
}
