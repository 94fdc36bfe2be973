package anthropic_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	anthropic "github.com/mutablelogic/go-llmstream/pkg/provider/anthropic"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// sseServer serves a fixed sequence of SSE events on /messages
func sseServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
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
	client, err := anthropic.NewWithEndpoint(url, "test-key")
	assert.NoError(t, err)

	s, err := client.Stream(context.Background(), schema.Model{Name: "claude-test"}, schema.NewContext("", "hello"), opts...)
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

func Test_anthropic_stream_text(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"type":"message_start","message":{"role":"assistant","usage":{"input_tokens":12,"output_tokens":1}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hello, "}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"world"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"message_delta","delta":{"type":"message_delta","stop_reason":"end_turn"},"usage":{"output_tokens":9}}`,
		`{"type":"message_stop"}`,
	)
	defer server.Close()

	events, response, err := mustStream(t, server.URL)
	assert.NoError(err)
	assert.Equal([]string{
		schema.EventStart,
		schema.EventUsage,
		schema.EventTextStart,
		schema.EventTextDelta,
		schema.EventTextDelta,
		schema.EventTextEnd,
		schema.EventUsage,
		schema.EventDone,
	}, eventTypes(events))

	assert.Equal("Hello, world", response.Text())
	assert.Equal(schema.StopReasonStop, response.StopReason)
	assert.Equal(uint(12), response.Usage.InputTokens)
	assert.Equal(uint(9), response.Usage.OutputTokens)
}

func Test_anthropic_stream_thinking_and_tool(t *testing.T) {
	assert := assert.New(t)
	server := sseServer(t,
		`{"type":"message_start","message":{"role":"assistant","usage":{"input_tokens":5}}}`,
		`{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"consider the weather"}}`,
		`{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"c2ln"}}`,
		`{"type":"content_block_stop","index":0}`,
		`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{}}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"location\":"}}`,
		`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"\"Paris\"}"}}`,
		`{"type":"content_block_stop","index":1}`,
		`{"type":"message_delta","delta":{"type":"message_delta","stop_reason":"tool_use"}}`,
		`{"type":"message_stop"}`,
	)
	defer server.Close()

	events, response, err := mustStream(t, server.URL)
	assert.NoError(err)
	assert.Equal(schema.StopReasonToolUse, response.StopReason)

	// Thinking block carries accumulated text and signature
	content := response.Content
	if assert.Len(content, 2) {
		assert.Equal(schema.ContentTypeThinking, content[0].Type)
		assert.Equal("consider the weather", *content[0].Text)
		assert.Equal("c2ln", *content[0].Signature)

		assert.Equal(schema.ContentTypeToolCall, content[1].Type)
		assert.Equal("toolu_1", content[1].ToolCall.ID)
		assert.Equal("get_weather", content[1].ToolCall.Name)
		assert.Equal(map[string]any{"location": "Paris"}, content[1].ToolCall.Arguments)
	}

	// End event of the tool call carries the parsed arguments
	for _, event := range events {
		if event.Type == schema.EventToolCallEnd {
			assert.Equal("Paris", event.Block.ToolCall.Arguments["location"])
		}
	}
}

func Test_anthropic_stream_retry(t *testing.T) {
	assert := assert.New(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"retried\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_stop\",\"index\":0}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	_, response, err := mustStream(t, server.URL, opt.WithBackoffBase(time.Millisecond))
	assert.NoError(err)
	assert.Equal("retried", response.Text())
	assert.Equal(int32(2), requests.Load())
}

func Test_anthropic_stream_fail_fast(t *testing.T) {
	assert := assert.New(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, response, err := mustStream(t, server.URL)
	assert.Error(err)
	assert.Equal(int32(1), requests.Load(), "non-retryable status must not be retried")

	var apiErr *llmstream.APIError
	assert.ErrorAs(err, &apiErr)
	assert.Equal(http.StatusUnauthorized, apiErr.Status)
	assert.Equal(schema.StopReasonError, response.StopReason)
}

func Test_anthropic_stream_disconnect_mid_stream(t *testing.T) {
	assert := assert.New(t)

	// The server drops the connection after a partial word; open blocks
	// must be finalized before the terminal error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Wor\"}}\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	events, response, err := mustStream(t, server.URL)
	assert.ErrorIs(err, llmstream.ErrProtocol)
	assert.Equal(schema.StopReasonError, response.StopReason)

	// The open text block is closed with its partial content
	types := eventTypes(events)
	assert.Equal(schema.EventError, types[len(types)-1])
	assert.Equal(schema.EventTextEnd, types[len(types)-2])
	for _, event := range events {
		if event.Type == schema.EventTextEnd {
			assert.Equal("Wor", *event.Block.Text)
		}
	}
}

func Test_anthropic_stream_empty_retry(t *testing.T) {
	assert := assert.New(t)

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		if requests.Add(1) == 1 {
			// A message with no content blocks at all
			fmt.Fprint(w, "data: {\"type\":\"message_start\",\"message\":{\"role\":\"assistant\",\"usage\":{\"input_tokens\":1}}}\n\n")
			fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
			return
		}
		fmt.Fprint(w, "data: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"second time lucky\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_stop\",\"index\":0}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	_, response, err := mustStream(t, server.URL, opt.WithEmptyRetries(1))
	assert.NoError(err)
	assert.Equal("second time lucky", response.Text())
	assert.Equal(int32(2), requests.Load())
}

func Test_anthropic_stream_empty_no_retry(t *testing.T) {
	assert := assert.New(t)

	server := sseServer(t,
		`{"type":"message_start","message":{"role":"assistant","usage":{"input_tokens":1}}}`,
		`{"type":"message_stop"}`,
	)
	defer server.Close()

	_, _, err := mustStream(t, server.URL)
	assert.ErrorIs(err, llmstream.ErrEmptyResponse)
}

func Test_anthropic_stream_request_body(t *testing.T) {
	assert := assert.New(t)

	var request map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(json.NewDecoder(r.Body).Decode(&request))
		assert.Equal("test-key", r.Header.Get("x-api-key"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"ok\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"message_stop\"}\n\n")
	}))
	defer server.Close()

	client, err := anthropic.NewWithEndpoint(server.URL, "test-key")
	assert.NoError(err)

	prompt := schema.NewContext("be brief", "hello")
	s, err := client.Stream(context.Background(), schema.Model{Name: "claude-test"}, prompt,
		opt.WithMaxTokens(256), opt.WithTemperature(0.5))
	assert.NoError(err)
	_, err = s.Result(context.Background())
	assert.NoError(err)

	assert.Equal("claude-test", request["model"])
	assert.Equal(true, request["stream"])
	assert.Equal("be brief", request["system"])
	assert.Equal(float64(256), request["max_tokens"])
	assert.Equal(0.5, request["temperature"])
}

func Test_anthropic_stream_cancel(t *testing.T) {
	assert := assert.New(t)

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"type\":\"content_block_start\",\"index\":0,\"content_block\":{\"type\":\"text\"}}\n\n")
		fmt.Fprint(w, "data: {\"type\":\"content_block_delta\",\"index\":0,\"delta\":{\"type\":\"text_delta\",\"text\":\"Wor\"}}\n\n")
		flusher.Flush()
		<-release
	}))
	defer server.Close()
	defer close(release)

	client, err := anthropic.NewWithEndpoint(server.URL, "test-key")
	assert.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s, err := client.Stream(ctx, schema.Model{Name: "claude-test"}, schema.NewContext("", "hello"))
	assert.NoError(err)

	// Wait for the partial delta, then cancel mid-stream
	var events []schema.Event
	for event := range s.Events() {
		events = append(events, event)
		if event.Type == schema.EventTextDelta {
			cancel()
		}
	}

	response, rerr := s.Result(context.Background())
	assert.ErrorIs(rerr, llmstream.ErrCancelled)
	assert.Equal(schema.StopReasonAborted, response.StopReason)
	assert.Equal("Wor", response.Text())

	// The open block was finalized before the terminal error
	types := eventTypes(events)
	assert.Equal(schema.EventError, types[len(types)-1])
	assert.Equal(schema.EventTextEnd, types[len(types)-2])
}
