package openai

import (
	"encoding/json"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES - OpenAI REST API wire format
//
// Reference: https://platform.openai.com/docs/api-reference/chat
//            https://platform.openai.com/docs/api-reference/models

///////////////////////////////////////////////////////////////////////////////
// CHAT COMPLETIONS - REQUEST

// chatRequest is the request body for POST /v1/chat/completions.
type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []chatMessage  `json:"messages"`
	MaxTokens     *int           `json:"max_completion_tokens,omitempty"`
	Temperature   *float64       `json:"temperature,omitempty"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
	Tools         []chatTool     `json:"tools,omitempty"`
}

// streamOptions requests a final usage chunk on streaming responses.
type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// chatMessage represents a single turn in a conversation.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallId string         `json:"tool_call_id,omitempty"`
}

// chatTool is a tool definition in OpenAI's format.
type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

// chatFunction describes a callable function.
type chatFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// chatToolCall represents a tool invocation in a message or delta. The
// Index field addresses the call within a streamed delta.
type chatToolCall struct {
	Index    *int             `json:"index,omitempty"`
	Id       string           `json:"id,omitempty"`
	Type     string           `json:"type,omitempty"`
	Function chatCallFunction `json:"function"`
}

// chatCallFunction carries the function name and argument JSON, which
// arrives fragmented across streamed deltas.
type chatCallFunction struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// CHAT COMPLETIONS - STREAMING RESPONSE

// chatChunk is one streamed chunk of a chat completion.
type chatChunk struct {
	Id      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   *chatUsage   `json:"usage,omitempty"`
	Error   *chatError   `json:"error,omitempty"`
}

// chatChoice carries the delta and finish reason for one choice.
type chatChoice struct {
	Index        int       `json:"index"`
	Delta        chatDelta `json:"delta"`
	FinishReason string    `json:"finish_reason,omitempty"`
}

// chatDelta is the incremental content within a streamed choice.
// Reasoning content is emitted by reasoning models ahead of the answer.
type chatDelta struct {
	Role             string         `json:"role,omitempty"`
	Content          string         `json:"content,omitempty"`
	ReasoningContent string         `json:"reasoning_content,omitempty"`
	ToolCalls        []chatToolCall `json:"tool_calls,omitempty"`
}

// chatUsage reports token counts, present on the final chunk when
// stream_options.include_usage is set.
type chatUsage struct {
	PromptTokens     uint `json:"prompt_tokens"`
	CompletionTokens uint `json:"completion_tokens"`
	TotalTokens      uint `json:"total_tokens"`
}

// chatError is an error payload delivered in-band on the stream.
type chatError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// MODELS - GET & LIST

// model represents the API response for GET /v1/models/{model}.
type model struct {
	Id      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	OwnedBy string `json:"owned_by"`
}

// listModelsResponse is the response from GET /v1/models.
type listModelsResponse struct {
	Object string  `json:"object"`
	Data   []model `json:"data"`
}

///////////////////////////////////////////////////////////////////////////////
// FINISH REASON CONSTANTS

const (
	finishReasonStop      = "stop"
	finishReasonLength    = "length"
	finishReasonToolCalls = "tool_calls"
)

///////////////////////////////////////////////////////////////////////////////
// MISC CONSTANTS

const (
	toolTypeFunction = "function"
	roleTool         = "tool"
)

///////////////////////////////////////////////////////////////////////////////
// HELPERS

// marshalArguments renders a tool result or argument map as JSON text
func marshalArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
