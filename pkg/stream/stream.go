/*
stream provides the concurrency primitive joining one producer goroutine
to the consumers of a response stream, and the accumulator that turns
provider-neutral block events into canonical ordered lifecycle events.
*/
package stream

import (
	"context"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Stream is a single-producer ordered event channel with a terminal
// awaitable result. Pushes never block: unread events are buffered
// without bound so a slow or absent consumer cannot stall the producer.
// Exactly one terminal event (done or error) is pushed per stream and
// no events are accepted after End.
type Stream struct {
	mu    sync.Mutex
	cond  *sync.Cond
	queue []schema.Event
	ended bool

	out  chan schema.Event
	done chan struct{}

	// Closed once a consumer settles for the terminal result, at which
	// point undelivered events are forfeit and the pump exits
	abandon     chan struct{}
	abandonOnce sync.Once

	// Terminal state, valid once done is closed
	result *schema.Response
	err    error
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a stream ready for one producer
func New() *Stream {
	s := &Stream{
		out:     make(chan schema.Event),
		done:    make(chan struct{}),
		abandon: make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)
	go s.pump()
	return s
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Push appends an event to the stream in push order. Events pushed
// after End are dropped.
func (s *Stream) Push(event schema.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if event.IsTerminal() {
		s.result = event.Response
		s.err = event.Err
	}
	s.queue = append(s.queue, event)
	s.cond.Signal()
}

// End closes the stream. Buffered events remain readable; Result
// resolves once End has been called.
func (s *Stream) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.cond.Signal()
	close(s.done)
}

// Events returns the ordered event channel. The channel is closed after
// End once all buffered events have been consumed.
func (s *Stream) Events() <-chan schema.Event {
	return s.out
}

// Result blocks until the stream has ended and returns the terminal
// payload: the final response for a done event, or the partial response
// and error for an error event. Every caller observes the same value.
// Returning the result forfeits any events still undelivered, so a
// consumer that wants the events must drain Events before calling
// Result.
func (s *Stream) Result(ctx context.Context) (*schema.Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
	}
	s.abandonOnce.Do(func() {
		close(s.abandon)
	})
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// pump moves buffered events to the consumer channel in push order
func (s *Stream) pump() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.ended {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			close(s.out)
			return
		}
		event := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		select {
		case s.out <- event:
		case <-s.abandon:
			s.mu.Lock()
			s.queue = nil
			s.mu.Unlock()
			close(s.out)
			return
		}
	}
}
