package bedrock

import (
	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES - Bedrock Converse API wire format
//
// Reference: https://docs.aws.amazon.com/bedrock/latest/APIReference/API_runtime_ConverseStream.html
//            https://docs.aws.amazon.com/bedrock/latest/APIReference/API_ListFoundationModels.html

///////////////////////////////////////////////////////////////////////////////
// CONVERSE - REQUEST

// converseRequest is the request body for
// POST /model/{modelId}/converse-stream.
type converseRequest struct {
	Messages        []converseMessage `json:"messages"`
	System          []systemBlock     `json:"system,omitempty"`
	InferenceConfig *inferenceConfig  `json:"inferenceConfig,omitempty"`
	ToolConfig      *toolConfig       `json:"toolConfig,omitempty"`
}

// systemBlock is one system prompt entry.
type systemBlock struct {
	Text string `json:"text"`
}

// inferenceConfig carries sampling parameters.
type inferenceConfig struct {
	MaxTokens   *int     `json:"maxTokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// toolConfig wraps the tool definitions.
type toolConfig struct {
	Tools []converseTool `json:"tools"`
}

// converseTool wraps one tool spec.
type converseTool struct {
	ToolSpec toolSpec `json:"toolSpec"`
}

// toolSpec describes a callable tool.
type toolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema toolInputSchema `json:"inputSchema"`
}

// toolInputSchema wraps the JSON schema of tool input.
type toolInputSchema struct {
	JSON *jsonschema.Schema `json:"json,omitempty"`
}

// converseMessage represents a single turn in a conversation.
type converseMessage struct {
	Role    string          `json:"role"`
	Content []converseBlock `json:"content"`
}

// converseBlock is one content entry in a message. Exactly one field
// is set per block.
type converseBlock struct {
	Text    string        `json:"text,omitempty"`
	ToolUse *toolUseBlock `json:"toolUse,omitempty"`
}

// toolUseBlock represents a prior tool invocation.
type toolUseBlock struct {
	ToolUseId string         `json:"toolUseId"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// CONVERSE - STREAMED EVENT PAYLOADS

// messageStartPayload is the payload of a messageStart event.
type messageStartPayload struct {
	Role string `json:"role"`
}

// blockStartPayload is the payload of a contentBlockStart event. Only
// tool-use blocks announce themselves with a start event.
type blockStartPayload struct {
	ContentBlockIndex int        `json:"contentBlockIndex"`
	Start             blockStart `json:"start"`
}

type blockStart struct {
	ToolUse *toolUseStart `json:"toolUse,omitempty"`
}

type toolUseStart struct {
	ToolUseId string `json:"toolUseId"`
	Name      string `json:"name"`
}

// blockDeltaPayload is the payload of a contentBlockDelta event.
type blockDeltaPayload struct {
	ContentBlockIndex int        `json:"contentBlockIndex"`
	Delta             blockDelta `json:"delta"`
}

type blockDelta struct {
	Text             string            `json:"text,omitempty"`
	ReasoningContent *reasoningContent `json:"reasoningContent,omitempty"`
	ToolUse          *toolUseDelta     `json:"toolUse,omitempty"`
}

type reasoningContent struct {
	Text      string `json:"text,omitempty"`
	Signature string `json:"signature,omitempty"`
}

type toolUseDelta struct {
	Input string `json:"input,omitempty"`
}

// blockStopPayload is the payload of a contentBlockStop event.
type blockStopPayload struct {
	ContentBlockIndex int `json:"contentBlockIndex"`
}

// messageStopPayload is the payload of a messageStop event.
type messageStopPayload struct {
	StopReason string `json:"stopReason"`
}

// metadataPayload is the payload of a metadata event.
type metadataPayload struct {
	Usage converseUsage `json:"usage"`
}

type converseUsage struct {
	InputTokens  uint `json:"inputTokens"`
	OutputTokens uint `json:"outputTokens"`
	TotalTokens  uint `json:"totalTokens"`
}

// exceptionPayload is the payload of an exception message.
type exceptionPayload struct {
	Message string `json:"message"`
}

///////////////////////////////////////////////////////////////////////////////
// MODELS - LIST

// listModelsResponse is the response from GET /foundation-models.
type listModelsResponse struct {
	ModelSummaries []modelSummary `json:"modelSummaries"`
}

// modelSummary is one entry of the foundation model listing.
type modelSummary struct {
	ModelId      string `json:"modelId"`
	ModelName    string `json:"modelName"`
	ProviderName string `json:"providerName"`
}

///////////////////////////////////////////////////////////////////////////////
// EVENT TYPE CONSTANTS

// Binary event-stream header names
const (
	headerEventType     = ":event-type"
	headerMessageType   = ":message-type"
	headerExceptionType = ":exception-type"
)

// Event types
const (
	eventMessageStart      = "messageStart"
	eventContentBlockStart = "contentBlockStart"
	eventContentBlockDelta = "contentBlockDelta"
	eventContentBlockStop  = "contentBlockStop"
	eventMessageStop       = "messageStop"
	eventMetadata          = "metadata"
)

// Message types
const (
	messageTypeEvent     = "event"
	messageTypeException = "exception"
)

///////////////////////////////////////////////////////////////////////////////
// STOP REASON CONSTANTS

const (
	stopReasonEndTurn   = "end_turn"
	stopReasonMaxTokens = "max_tokens"
	stopReasonToolUse   = "tool_use"
)
