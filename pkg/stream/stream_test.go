package stream_test

import (
	"context"
	"testing"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	stream "github.com/mutablelogic/go-llmstream/pkg/stream"
	assert "github.com/stretchr/testify/assert"
)

func Test_stream_order(t *testing.T) {
	assert := assert.New(t)
	s := stream.New()

	for i := 0; i < 100; i++ {
		s.Push(schema.Event{Type: schema.EventTextDelta, Index: i})
	}
	s.Push(schema.Event{Type: schema.EventDone, Response: &schema.Response{}})
	s.End()

	var got []int
	for event := range s.Events() {
		if event.Type == schema.EventTextDelta {
			got = append(got, event.Index)
		}
	}
	assert.Len(got, 100)
	for i, index := range got {
		assert.Equal(i, index)
	}
}

func Test_stream_push_never_blocks(t *testing.T) {
	assert := assert.New(t)
	s := stream.New()

	// No consumer attached; a large burst of pushes must complete
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10000; i++ {
			s.Push(schema.Event{Type: schema.EventTextDelta, Delta: "x"})
		}
		s.Push(schema.Event{Type: schema.EventDone, Response: &schema.Response{}})
		s.End()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("producer blocked without a consumer")
	}

	count := 0
	for range s.Events() {
		count++
	}
	assert.Equal(10001, count)
}

func Test_stream_result(t *testing.T) {
	assert := assert.New(t)
	s := stream.New()

	response := schema.NewResponse("test", "model")
	go func() {
		s.Push(schema.Event{Type: schema.EventDone, Response: response})
		s.End()
	}()

	result, err := s.Result(context.Background())
	assert.NoError(err)
	assert.Same(response, result)

	// Result is idempotent
	again, err := s.Result(context.Background())
	assert.NoError(err)
	assert.Same(response, again)
}

func Test_stream_result_cancelled(t *testing.T) {
	assert := assert.New(t)
	s := stream.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := s.Result(ctx)
	assert.Nil(result)
	assert.ErrorIs(err, context.Canceled)
}

func Test_stream_result_releases_pump(t *testing.T) {
	assert := assert.New(t)
	s := stream.New()

	// A consumer that only wants the result leaves the events unread;
	// once Result returns, the pump must drop them and close the channel
	for i := 0; i < 100; i++ {
		s.Push(schema.Event{Type: schema.EventTextDelta, Delta: "x"})
	}
	s.Push(schema.Event{Type: schema.EventDone, Response: &schema.Response{}})
	s.End()

	result, err := s.Result(context.Background())
	assert.NoError(err)
	assert.NotNil(result)

	// Allow the pump to observe the forfeit and exit
	time.Sleep(10 * time.Millisecond)
	select {
	case _, ok := <-s.Events():
		assert.False(ok, "event channel should be closed after Result")
	default:
		t.Fatal("pump still holding events after Result")
	}
}

func Test_stream_push_after_end(t *testing.T) {
	assert := assert.New(t)
	s := stream.New()

	s.Push(schema.Event{Type: schema.EventDone, Response: &schema.Response{}})
	s.End()
	s.Push(schema.Event{Type: schema.EventTextDelta, Delta: "late"})

	count := 0
	for range s.Events() {
		count++
	}
	assert.Equal(1, count)
}
