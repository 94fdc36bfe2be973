package openai_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	openai "github.com/mutablelogic/go-llmstream/pkg/provider/openai"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// sseServer serves a fixed sequence of SSE chunks followed by [DONE]
func sseServer(t *testing.T, chunks ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range chunks {
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func eventTypes(events []schema.Event) []string {
	types := make([]string, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}

func mustStream(t *testing.T, url string, opts ...opt.Opt) ([]schema.Event, *schema.Response, error) {
	t.Helper()
	client, err := openai.NewWithEndpoint(url, "test-key")
	assert.NoError(t, err)

	s, err := client.Stream(context.Background(), schema.Model{Name: "gpt-test"}, schema.NewContext("", "hello"), opts...)
	assert.NoError(t, err)

	var events []schema.Event
	for event := range s.Events() {
		events = append(events, event)
	}
	response, rerr := s.Result(context.Background())
	return events, response, rerr
}

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_openai_stream_text(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"choices":[{"index":0,"delta":{"role":"assistant","content":"Hello"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":", world"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
		`{"choices":[],"usage":{"prompt_tokens":7,"completion_tokens":3,"total_tokens":10}}`,
	)
	defer server.Close()

	events, response, err := mustStream(t, server.URL)
	assert.NoError(err)
	assert.Equal([]string{
		schema.EventStart,
		schema.EventTextStart,
		schema.EventTextDelta,
		schema.EventTextDelta,
		schema.EventUsage,
		schema.EventTextEnd,
		schema.EventDone,
	}, eventTypes(events))

	assert.Equal("Hello, world", response.Text())
	assert.Equal(schema.StopReasonStop, response.StopReason)
	assert.Equal(uint(7), response.Usage.InputTokens)
	assert.Equal(uint(3), response.Usage.OutputTokens)
}

func Test_openai_stream_reasoning_then_text(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"choices":[{"index":0,"delta":{"role":"assistant","reasoning_content":"let me think"}}]}`,
		`{"choices":[{"index":0,"delta":{"reasoning_content":" about this"}}]}`,
		`{"choices":[{"index":0,"delta":{"content":"the answer"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	)
	defer server.Close()

	events, response, err := mustStream(t, server.URL)
	assert.NoError(err)

	// The kind change closes the thinking block before the text opens
	assert.Equal([]string{
		schema.EventStart,
		schema.EventThinkingStart,
		schema.EventThinkingDelta,
		schema.EventThinkingDelta,
		schema.EventThinkingEnd,
		schema.EventTextStart,
		schema.EventTextDelta,
		schema.EventTextEnd,
		schema.EventDone,
	}, eventTypes(events))

	content := response.Content
	if assert.Len(content, 2) {
		assert.Equal(schema.ContentTypeThinking, content[0].Type)
		assert.Equal("let me think about this", *content[0].Text)
		assert.Equal(schema.ContentTypeText, content[1].Type)
		assert.Equal("the answer", *content[1].Text)
	}
}

func Test_openai_stream_tool_calls(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"choices":[{"index":0,"delta":{"role":"assistant","tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":""}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"location\":"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{"tool_calls":[{"index":1,"id":"call_2","type":"function","function":{"name":"get_time","arguments":"{}"}}]}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
	)
	defer server.Close()

	_, response, err := mustStream(t, server.URL)
	assert.NoError(err)
	assert.Equal(schema.StopReasonToolUse, response.StopReason)

	calls := response.ToolCalls()
	if assert.Len(calls, 2) {
		assert.Equal("call_1", calls[0].ID)
		assert.Equal("get_weather", calls[0].Name)
		assert.Equal(map[string]any{"location": "Paris"}, calls[0].Arguments)
		assert.Equal("call_2", calls[1].ID)
		assert.Equal("get_time", calls[1].Name)
	}
}

func Test_openai_stream_retry(t *testing.T) {
	assert := assert.New(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{\"content\":\"retried\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	_, response, err := mustStream(t, server.URL, opt.WithBackoffBase(time.Millisecond))
	assert.NoError(err)
	assert.Equal("retried", response.Text())
	assert.Equal(int32(2), requests.Load())
}

func Test_openai_stream_length_finish(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"choices":[{"index":0,"delta":{"content":"truncat"}}]}`,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"length"}]}`,
	)
	defer server.Close()

	_, response, err := mustStream(t, server.URL)
	assert.NoError(err)
	assert.Equal(schema.StopReasonLength, response.StopReason)
	assert.Equal("truncat", response.Text())
}

func Test_openai_stream_error_chunk(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"choices":[{"index":0,"delta":{"content":"partial"}}]}`,
		`{"error":{"type":"server_error","message":"overloaded"}}`,
	)
	defer server.Close()

	_, response, err := mustStream(t, server.URL)
	assert.ErrorIs(err, llmstream.ErrProtocol)
	assert.Equal(schema.StopReasonError, response.StopReason)
	assert.Equal("partial", response.Text())
}

func Test_openai_stream_empty(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
	)
	defer server.Close()

	_, _, err := mustStream(t, server.URL)
	assert.ErrorIs(err, llmstream.ErrEmptyResponse)
}
