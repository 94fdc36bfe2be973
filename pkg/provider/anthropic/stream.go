package anthropic

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

// Stream starts a streaming messages request. The returned stream emits
// canonical lifecycle events; connection failures before any content has
// been emitted are retried, failures mid-stream finalize open blocks and
// end the stream with an error.
func (c *Client) Stream(ctx context.Context, model schema.Model, prompt *schema.Context, opts ...opt.Opt) (*stream.Stream, error) {
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, llmstream.ErrBadParameter.With("prompt is required")
	}

	// Build request
	request := messagesRequest{
		MaxTokens: defaultMaxTokens,
		Messages:  messagesFromContext(prompt),
		Model:     model.Name,
		Stream:    true,
		System:    prompt.System,
		Tools:     toolsFromContext(prompt),
	}
	if options.Has(opt.MaxTokensKey) {
		request.MaxTokens = int(options.GetUint(opt.MaxTokensKey))
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

// produce owns the connection lifecycle for one stream: attempts,
// retries and terminal events all happen here.
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

// attempt runs one connection. It reports whether any content events
// were emitted and whether the stream reached message_stop.
func (c *Client) attempt(ctx context.Context, a *stream.Accumulator, body []byte) (emitted, finished bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return false, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

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

	// Decode SSE frames into stream events
	state := &attemptState{}
	framer := sse.New()
	buffer := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buffer)
		if n > 0 {
			for _, frame := range framer.Write(buffer[:n]) {
				if err := c.event(a, state, frame); err != nil {
					return state.emitted, false, err
				}
				if state.finished {
					return state.emitted, true, nil
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
		if err := c.event(a, state, frame); err != nil {
			return state.emitted, false, err
		}
	}
	if state.finished {
		return state.emitted, true, nil
	}
	if !state.emitted {
		return false, false, llmstream.ErrEmptyResponse
	}

	// Connection closed mid-message
	return true, false, llmstream.ErrProtocol.With("stream ended before message_stop")
}

// attemptState carries per-connection decode state
type attemptState struct {
	emitted    bool
	finished   bool
	stopReason string
	outTokens  uint
}

// event dispatches one decoded SSE frame to the accumulator
func (c *Client) event(a *stream.Accumulator, state *attemptState, frame string) error {
	var ev streamEvent
	if err := json.Unmarshal([]byte(frame), &ev); err != nil {
		return llmstream.ErrProtocol.Withf("invalid stream event: %v", err)
	}

	switch ev.Type {
	case eventMessageStart:
		if ev.Message != nil {
			a.Usage(usageToSchema(ev.Message.Usage))
			state.outTokens = ev.Message.Usage.OutputTokens
		}

	case eventContentBlockStart:
		if ev.ContentBlock == nil {
			break
		}
		state.emitted = true
		switch ev.ContentBlock.Type {
		case blockTypeThinking:
			a.Open(ev.Index, schema.ContentTypeThinking, nil)
		case blockTypeToolUse:
			a.Open(ev.Index, schema.ContentTypeToolCall, &schema.ContentBlock{
				Type: schema.ContentTypeToolCall,
				ToolCall: &schema.ToolCall{
					ID:   ev.ContentBlock.ID,
					Name: ev.ContentBlock.Name,
				},
			})
		default:
			a.Open(ev.Index, schema.ContentTypeText, nil)
		}

	case eventContentBlockDelta:
		if ev.Delta == nil {
			break
		}
		state.emitted = true
		switch ev.Delta.Type {
		case deltaTypeText:
			a.Delta(ev.Index, schema.ContentTypeText, ev.Delta.Text)
		case deltaTypeThinking:
			a.Delta(ev.Index, schema.ContentTypeThinking, ev.Delta.Thinking)
		case deltaTypeSignature:
			a.Signature(ev.Index, ev.Delta.Signature)
		case deltaTypeInputJSON:
			a.Delta(ev.Index, schema.ContentTypeToolCall, ev.Delta.PartialJSON)
		}

	case eventContentBlockStop:
		a.Close(ev.Index)

	case eventMessageDelta:
		if ev.Delta != nil {
			state.stopReason = ev.Delta.StopReason
		}
		// Output token counts are cumulative across message_delta events
		if ev.Usage != nil && ev.Usage.OutputTokens > state.outTokens {
			a.Usage(schema.Usage{OutputTokens: ev.Usage.OutputTokens - state.outTokens})
			state.outTokens = ev.Usage.OutputTokens
		}

	case eventMessageStop:
		// A message with no content at all is treated as empty and retried
		if !state.emitted {
			return llmstream.ErrEmptyResponse
		}
		state.finished = true
		a.Finish(stopReasonToSchema(state.stopReason))

	case eventPing:
		// Keepalive

	case eventError:
		if ev.Error != nil {
			return llmstream.ErrProtocol.Withf("%s: %s", ev.Error.Type, ev.Error.Message)
		}
		return llmstream.ErrProtocol.With("unspecified stream error")
	}

	return nil
}

// usageToSchema converts wire usage counts to the canonical form
func usageToSchema(usage messagesUsage) schema.Usage {
	return schema.Usage{
		InputTokens:      usage.InputTokens,
		OutputTokens:     usage.OutputTokens,
		CacheReadTokens:  usage.CacheReadInputTokens,
		CacheWriteTokens: usage.CacheCreationInputTokens,
	}
}
