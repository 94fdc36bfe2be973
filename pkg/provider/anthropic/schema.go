package anthropic

import (
	"encoding/json"
	"time"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES - Anthropic REST API wire format
//
// Reference: https://docs.anthropic.com/en/api/messages
//            https://docs.anthropic.com/en/api/streaming

///////////////////////////////////////////////////////////////////////////////
// MESSAGES - REQUEST

// messagesRequest is the request body for POST /v1/messages.
type messagesRequest struct {
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	Model       string             `json:"model"`
	Stream      bool               `json:"stream,omitempty"`
	System      string             `json:"system,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

// anthropicTool is a tool definition in Anthropic's format.
type anthropicTool struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// MESSAGES - RESPONSE

// messagesResponse is the response body from POST /v1/messages and the
// payload of the message_start SSE event.
type messagesResponse struct {
	Id         string                  `json:"id"`
	Model      string                  `json:"model"`
	Type       string                  `json:"type"`
	Role       string                  `json:"role"`
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      messagesUsage           `json:"usage"`
}

// messagesUsage reports token counts for a messages request.
type messagesUsage struct {
	InputTokens              uint `json:"input_tokens"`
	OutputTokens             uint `json:"output_tokens"`
	CacheReadInputTokens     uint `json:"cache_read_input_tokens"`
	CacheCreationInputTokens uint `json:"cache_creation_input_tokens"`
}

///////////////////////////////////////////////////////////////////////////////
// CONTENT - MESSAGES & BLOCKS

// anthropicMessage represents a single turn in a conversation.
type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

// anthropicContentBlock represents a content block in Anthropic's API
// format. Different block types use different subsets of fields.
type anthropicContentBlock struct {
	Type string `json:"type"`

	// text block
	Text string `json:"text,omitempty"`

	// image source
	Source *anthropicSource `json:"source,omitempty"`

	// tool_use block
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// thinking block
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// anthropicSource represents a media source (base64 or URL).
type anthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
	URL       string `json:"url,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// STREAMING

// streamEvent is the envelope for all SSE events from the Anthropic
// streaming API. Different event types populate different subsets of
// fields.
type streamEvent struct {
	Type         string                 `json:"type"`
	Index        int                    `json:"index,omitempty"`
	Message      *messagesResponse      `json:"message,omitempty"`
	ContentBlock *anthropicContentBlock `json:"content_block,omitempty"`
	Delta        *streamDelta           `json:"delta,omitempty"`
	Usage        *messagesUsage         `json:"usage,omitempty"`
	Error        *streamError           `json:"error,omitempty"`
}

// streamDelta carries the incremental content within content_block_delta
// and message_delta events.
type streamDelta struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	PartialJSON string `json:"partial_json,omitempty"`
	Thinking    string `json:"thinking,omitempty"`
	Signature   string `json:"signature,omitempty"`
	StopReason  string `json:"stop_reason,omitempty"`
}

// streamError is the payload of an error SSE event.
type streamError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

///////////////////////////////////////////////////////////////////////////////
// MODELS - GET & LIST

// model represents the API response for GET /v1/models/{model_id}
// and each entry in the list response.
type model struct {
	Id          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Type        string    `json:"type"`
	CreatedAt   time.Time `json:"created_at"`
}

// listModelsResponse is the paginated response from GET /v1/models.
type listModelsResponse struct {
	Data    []model `json:"data"`
	HasMore bool    `json:"has_more"`
	FirstId string  `json:"first_id"`
	LastId  string  `json:"last_id"`
}

///////////////////////////////////////////////////////////////////////////////
// STOP REASON CONSTANTS

const (
	stopReasonEndTurn   = "end_turn"
	stopReasonMaxTokens = "max_tokens"
	stopReasonToolUse   = "tool_use"
)

///////////////////////////////////////////////////////////////////////////////
// DEFAULTS

const (
	defaultMaxTokens = 1024
)

///////////////////////////////////////////////////////////////////////////////
// STREAM EVENT TYPE CONSTANTS

const (
	eventMessageStart      = "message_start"
	eventContentBlockStart = "content_block_start"
	eventContentBlockDelta = "content_block_delta"
	eventContentBlockStop  = "content_block_stop"
	eventMessageDelta      = "message_delta"
	eventMessageStop       = "message_stop"
	eventPing              = "ping"
	eventError             = "error"
)

///////////////////////////////////////////////////////////////////////////////
// CONTENT BLOCK TYPE CONSTANTS

const (
	blockTypeText     = "text"
	blockTypeImage    = "image"
	blockTypeToolUse  = "tool_use"
	blockTypeThinking = "thinking"
)

///////////////////////////////////////////////////////////////////////////////
// DELTA TYPE CONSTANTS

const (
	deltaTypeText      = "text_delta"
	deltaTypeThinking  = "thinking_delta"
	deltaTypeSignature = "signature_delta"
	deltaTypeInputJSON = "input_json_delta"
)
