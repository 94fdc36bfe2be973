package bedrock

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	// Packages
	llmstream "github.com/mutablelogic/go-llmstream"
	eventstream "github.com/mutablelogic/go-llmstream/pkg/eventstream"
	opt "github.com/mutablelogic/go-llmstream/pkg/opt"
	retry "github.com/mutablelogic/go-llmstream/pkg/retry"
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	stream "github.com/mutablelogic/go-llmstream/pkg/stream"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Stream starts a converse-stream request. The response arrives as
// binary event-stream messages whose payloads mirror the Converse
// block lifecycle.
func (c *Client) Stream(ctx context.Context, model schema.Model, prompt *schema.Context, opts ...opt.Opt) (*stream.Stream, error) {
	options, err := opt.Apply(opts...)
	if err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, llmstream.ErrBadParameter.With("prompt is required")
	}

	// Build request
	request := converseRequest{
		Messages:   messagesFromContext(prompt),
		ToolConfig: toolConfigFromContext(prompt),
	}
	if prompt.System != "" {
		request.System = []systemBlock{{Text: prompt.System}}
	}
	var config inferenceConfig
	if options.Has(opt.MaxTokensKey) {
		maxTokens := int(options.GetUint(opt.MaxTokensKey))
		config.MaxTokens = &maxTokens
	}
	if options.Has(opt.TemperatureKey) {
		temperature := options.GetFloat64(opt.TemperatureKey)
		config.Temperature = &temperature
	}
	if config.MaxTokens != nil || config.Temperature != nil {
		request.InferenceConfig = &config
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
		emitted, finished, err := c.attempt(ctx, a, model, body)
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
	emitted    bool
	finished   bool
	stopReason string
}

// attempt runs one signed connection
func (c *Client) attempt(ctx context.Context, a *stream.Accumulator, model string, body []byte) (emitted, finished bool, err error) {
	endpoint := c.runtime + "/model/" + url.PathEscape(model) + "/converse-stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return false, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.amazon.eventstream")

	signer, err := c.signer(ctx)
	if err != nil {
		return false, false, err
	}
	if err := signer.Sign(req, body); err != nil {
		return false, false, err
	}

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

	// Decode binary event-stream messages
	state := &attemptState{}
	framer := eventstream.New()
	buffer := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buffer)
		if n > 0 {
			for _, message := range framer.Write(buffer[:n]) {
				if err := c.message(a, state, message); err != nil {
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
	if state.finished {
		return state.emitted, true, nil
	}
	if !state.emitted {
		return false, false, llmstream.ErrEmptyResponse
	}

	// Some responses close without a metadata event after messageStop
	if state.stopReason != "" {
		a.Finish(stopReasonToSchema(state.stopReason))
		return true, true, nil
	}

	// Connection closed mid-message
	return true, false, llmstream.ErrProtocol.With("stream ended before messageStop")
}

// message dispatches one decoded event-stream message to the accumulator
func (c *Client) message(a *stream.Accumulator, state *attemptState, message eventstream.Message) error {
	// Exceptions arrive in-band with their type in a header
	if message.Headers[headerMessageType] == messageTypeException {
		var payload exceptionPayload
		_ = json.Unmarshal(message.Payload, &payload)
		return llmstream.ErrProtocol.Withf("%s: %s", message.Headers[headerExceptionType], payload.Message)
	}

	switch message.Headers[headerEventType] {
	case eventMessageStart:
		// Role only, nothing to accumulate

	case eventContentBlockStart:
		var payload blockStartPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return llmstream.ErrProtocol.Withf("invalid contentBlockStart: %v", err)
		}
		if payload.Start.ToolUse != nil {
			state.emitted = true
			a.Open(payload.ContentBlockIndex, schema.ContentTypeToolCall, &schema.ContentBlock{
				Type: schema.ContentTypeToolCall,
				ToolCall: &schema.ToolCall{
					ID:   payload.Start.ToolUse.ToolUseId,
					Name: payload.Start.ToolUse.Name,
				},
			})
		}

	case eventContentBlockDelta:
		var payload blockDeltaPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return llmstream.ErrProtocol.Withf("invalid contentBlockDelta: %v", err)
		}
		state.emitted = true
		switch {
		case payload.Delta.ToolUse != nil:
			a.Delta(payload.ContentBlockIndex, schema.ContentTypeToolCall, payload.Delta.ToolUse.Input)
		case payload.Delta.ReasoningContent != nil:
			// Text blocks lack a start event, so a reasoning delta for an
			// unopened index opens a thinking block
			a.Delta(payload.ContentBlockIndex, schema.ContentTypeThinking, payload.Delta.ReasoningContent.Text)
			if payload.Delta.ReasoningContent.Signature != "" {
				a.Signature(payload.ContentBlockIndex, payload.Delta.ReasoningContent.Signature)
			}
		default:
			a.Delta(payload.ContentBlockIndex, schema.ContentTypeText, payload.Delta.Text)
		}

	case eventContentBlockStop:
		var payload blockStopPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return llmstream.ErrProtocol.Withf("invalid contentBlockStop: %v", err)
		}
		a.Close(payload.ContentBlockIndex)

	case eventMessageStop:
		var payload messageStopPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return llmstream.ErrProtocol.Withf("invalid messageStop: %v", err)
		}
		state.stopReason = payload.StopReason
		// Metadata with usage may still follow; defer the terminal event
		// to the metadata handler when one arrives

	case eventMetadata:
		var payload metadataPayload
		if err := json.Unmarshal(message.Payload, &payload); err != nil {
			return llmstream.ErrProtocol.Withf("invalid metadata: %v", err)
		}
		a.Usage(schema.Usage{
			InputTokens:  payload.Usage.InputTokens,
			OutputTokens: payload.Usage.OutputTokens,
		})
		if !state.emitted {
			return llmstream.ErrEmptyResponse
		}
		state.finished = true
		a.Finish(stopReasonToSchema(state.stopReason))
	}

	return nil
}
