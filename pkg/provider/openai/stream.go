package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	retry "github.com/mutablelogic/go-llmstream/pkg/retry"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	sse "github.com/mutablelogic/go-llmstream/pkg/sse"
	stream "github.com/mutablelogic/go-llmstream/pkg/stream"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Stream starts a streaming chat completion. Chat completions carry no
// explicit block boundaries: text and reasoning deltas open blocks
// implicitly, while tool calls are addressed by their delta index.
func (c *Client) Stream(ctx context.Context, model schema.Model, prompt *schema.Context, opts ...opt.Opt) (*stream.Stream, error) {
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, llmstream.ErrBadParameter.With("prompt is required")
	}

	// Build request
	request := chatRequest{
		Model:         model.Name,
		Messages:      messagesFromContext(prompt),
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
		Tools:         toolsFromContext(prompt),
	}
	if options.Has(opt.MaxTokensKey) {
		maxTokens := int(options.GetUint(opt.MaxTokensKey))
		request.MaxTokens = &maxTokens
	}
	if options.Has(opt.TemperatureKey) {
		temperature := options.GetFloat64(opt.TemperatureKey)
		request.Temperature = &temperature
	}
	body, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	// Start the producer
	s := stream.New()
	go c.produce(ctx, s, model.Name, body,
		retry.NewController(options.GetUint(opt.MaxAttemptsKey), options.GetDuration(opt.BackoffBaseKey), options.GetDuration(opt.MaxDelayKey)),
		options.GetUint(opt.EmptyRetriesKey),
	)
	return s, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// produce owns the connection lifecycle for one stream
func (c *Client) produce(ctx context.Context, s *stream.Stream, model string, body []byte, controller *retry.Controller, emptyRetries uint) {
	a := stream.NewAccumulator(s, c.Name(), model)

	var attempt, empty uint
	for {
		emitted, finished, err := c.attempt(ctx, a, body)
		if finished {
			return
		}
		if ctx.Err() != nil {
			a.Abort(llmstream.ErrCancelled.With(ctx.Err().Error()))
			return
		}

		// An empty stream is retried separately from connection errors
		if errors.Is(err, llmstream.ErrEmptyResponse) && !emitted {
			if empty < emptyRetries {
				empty++
				continue
			}
			a.Fail(err)
			return
		}

		// Once content has been emitted the stream cannot be replayed
		if emitted || !controller.Retryable(err) {
			a.Fail(err)
			return
		}
		attempt++
		if attempt >= controller.MaxAttempts {
			a.Fail(err)
			return
		}
		delay, derr := controller.Delay(attempt-1, err)
		if derr != nil {
			a.Fail(derr)
			return
		}
		if serr := controller.Sleep(ctx, delay); serr != nil {
			a.Abort(serr)
			return
		}
	}
}

// attemptState carries per-connection decode state
type attemptState struct {
	emitted      bool
	finishReason string
	sawFinish    bool
	// openCalls tracks which tool-call indices have been opened, since
	// every delta repeats the index
	openCalls map[int]bool
}

// attempt runs one connection
func (c *Client) attempt(ctx context.Context, a *stream.Accumulator, body []byte) (emitted, finished bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return false, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, false, llmstream.ErrTransport.With(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return false, false, &llmstream.APIError{
			Status:  resp.StatusCode,
			Message: http.StatusText(resp.StatusCode),
			Header:  resp.Header,
			Body:    string(detail),
		}
	}

	// Decode SSE frames into chunks. The [DONE] sentinel is consumed by
	// the framer; end of stream is the connection closing.
	state := &attemptState{openCalls: make(map[int]bool)}
	framer := sse.New()
	buffer := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buffer)
		if n > 0 {
			for _, frame := range framer.Write(buffer[:n]) {
				if err := c.chunk(a, state, frame); err != nil {
					return state.emitted, false, err
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return state.emitted, false, llmstream.ErrTransport.With(rerr.Error())
		}
	}
	if frame, ok := framer.Close(); ok {
		if err := c.chunk(a, state, frame); err != nil {
			return state.emitted, false, err
		}
	}

	// A finish reason with no content is an empty response
	if state.sawFinish && !state.emitted {
		return false, false, llmstream.ErrEmptyResponse
	}
	if state.sawFinish {
		a.Finish(finishReasonToSchema(state.finishReason))
		return true, true, nil
	}
	if !state.emitted {
		return false, false, llmstream.ErrEmptyResponse
	}

	// Connection closed without a finish reason
	return true, false, llmstream.ErrProtocol.With("stream ended before finish_reason")
}

// chunk dispatches one decoded chunk to the accumulator
func (c *Client) chunk(a *stream.Accumulator, state *attemptState, frame string) error {
	var chunk chatChunk
	if err := json.Unmarshal([]byte(frame), &chunk); err != nil {
		return llmstream.ErrProtocol.Withf("invalid chunk: %v", err)
	}
	if chunk.Error != nil {
		return llmstream.ErrProtocol.Withf("%s: %s", chunk.Error.Type, chunk.Error.Message)
	}

	// The final chunk carries usage with no choices
	if chunk.Usage != nil {
		a.Usage(schema.Usage{
			InputTokens:  chunk.Usage.PromptTokens,
			OutputTokens: chunk.Usage.CompletionTokens,
		})
	}
	if len(chunk.Choices) == 0 {
		return nil
	}
	choice := chunk.Choices[0]

	// Reasoning content streams ahead of the answer
	if choice.Delta.ReasoningContent != "" {
		state.emitted = true
		a.Implicit(schema.ContentTypeThinking, choice.Delta.ReasoningContent)
	}
	if choice.Delta.Content != "" {
		state.emitted = true
		a.Implicit(schema.ContentTypeText, choice.Delta.Content)
	}

	// Tool calls carry their own indices within the delta
	for _, call := range choice.Delta.ToolCalls {
		if call.Index == nil {
			continue
		}
		index := *call.Index
		if !state.openCalls[index] {
			state.openCalls[index] = true
			state.emitted = true
			a.CloseImplicit()
			a.Open(index, schema.ContentTypeToolCall, &schema.ContentBlock{
				Type: schema.ContentTypeToolCall,
				ToolCall: &schema.ToolCall{
					ID:   call.Id,
					Name: call.Function.Name,
				},
			})
		}
		if call.Function.Arguments != "" {
			a.Delta(index, schema.ContentTypeToolCall, call.Function.Arguments)
		}
	}

	if choice.FinishReason != "" {
		state.sawFinish = true
		state.finishReason = choice.FinishReason
	}
	return nil
}
