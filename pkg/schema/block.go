package schema

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ContentBlock represents one unit of assistant output content. The Type
// field discriminates which of the remaining fields are populated.
type ContentBlock struct {
	Type      string       `json:"type"`
	Text      *string      `json:"text,omitempty"`      // text and thinking blocks
	Signature *string      `json:"signature,omitempty"` // text and thinking blocks
	Image     *ImageSource `json:"image,omitempty"`     // image blocks
	ToolCall  *ToolCall    `json:"tool_call,omitempty"` // tool call blocks
}

// ImageSource represents inline binary image content
type ImageSource struct {
	Data      []byte `json:"data,omitempty"`
	MediaType string `json:"media_type"`
}

// ToolCall represents a tool invocation requested by the model. Arguments
// is the best-effort parse of the streamed argument text; it is replaced
// (never merged) on each re-parse while the block is open.
type ToolCall struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Arguments        map[string]any `json:"arguments,omitempty"`
	ThoughtSignature *string        `json:"thought_signature,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// Content block types
const (
	ContentTypeText     = "text"
	ContentTypeThinking = "thinking"
	ContentTypeImage    = "image"
	ContentTypeToolCall = "tool_call"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Clone returns a deep copy of the content block
func (b ContentBlock) Clone() ContentBlock {
	clone := b
	if b.Text != nil {
		text := *b.Text
		clone.Text = &text
	}
	if b.Signature != nil {
		sig := *b.Signature
		clone.Signature = &sig
	}
	if b.Image != nil {
		image := ImageSource{
			Data:      append([]byte(nil), b.Image.Data...),
			MediaType: b.Image.MediaType,
		}
		clone.Image = &image
	}
	if b.ToolCall != nil {
		call := ToolCall{
			ID:        b.ToolCall.ID,
			Name:      b.ToolCall.Name,
			Arguments: cloneArguments(b.ToolCall.Arguments),
		}
		if b.ToolCall.ThoughtSignature != nil {
			sig := *b.ToolCall.ThoughtSignature
			call.ThoughtSignature = &sig
		}
		clone.ToolCall = &call
	}
	return clone
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (b ContentBlock) String() string {
	return Stringify(b)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// cloneArguments shallow-copies the top level of an argument map. Nested
// values are shared, but the lifecycle replaces the whole map on each
// re-parse so the copy is sufficient for snapshot isolation.
func cloneArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	clone := make(map[string]any, len(args))
	for k, v := range args {
		clone[k] = v
	}
	return clone
}
