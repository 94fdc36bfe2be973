package schema

import "time"

////////////////////////////////////////////////////////////////////////////////
// TYPES

// StopReason indicates why generation stopped
type StopReason string

// Usage contains token accounting for one response. Counts only ever
// increase within the life of a response.
type Usage struct {
	InputTokens      uint `json:"input_tokens"`
	OutputTokens     uint `json:"output_tokens"`
	CacheReadTokens  uint `json:"cache_read_tokens,omitempty"`
	CacheWriteTokens uint `json:"cache_write_tokens,omitempty"`
	Cost             Cost `json:"cost,omitzero"`
}

// Cost is a derived monetary breakdown for a response
type Cost struct {
	Input      float64 `json:"input,omitempty"`
	Output     float64 `json:"output,omitempty"`
	CacheRead  float64 `json:"cache_read,omitempty"`
	CacheWrite float64 `json:"cache_write,omitempty"`
	Total      float64 `json:"total,omitempty"`
}

// Response is the single in-flight assistant response for one stream.
// It is mutated exclusively by the producer goroutine and becomes
// immutable once the terminal event has been emitted. Content order is
// the canonical content index and is never reordered.
type Response struct {
	Provider   string         `json:"provider,omitempty"`
	Model      string         `json:"model,omitempty"`
	Content    []ContentBlock `json:"content"`
	Usage      Usage          `json:"usage,omitzero"`
	StopReason StopReason     `json:"stop_reason,omitempty"`
	Error      string         `json:"error,omitempty"`
	Created    time.Time      `json:"created,omitzero"`
}

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	StopReasonStop    StopReason = "stop"
	StopReasonLength  StopReason = "length"
	StopReasonToolUse StopReason = "tool_use"
	StopReasonError   StopReason = "error"
	StopReasonAborted StopReason = "aborted"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewResponse returns an empty response for the given provider and model,
// stamped with the current time
func NewResponse(provider, model string) *Response {
	return &Response{
		Provider: provider,
		Model:    model,
		Created:  time.Now().UTC(),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Add merges another usage report into this one. Token counts are summed
// so that usage never decreases within one response.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheReadTokens += other.CacheReadTokens
	u.CacheWriteTokens += other.CacheWriteTokens
	u.Cost.Input += other.Cost.Input
	u.Cost.Output += other.Cost.Output
	u.Cost.CacheRead += other.Cost.CacheRead
	u.Cost.CacheWrite += other.Cost.CacheWrite
	u.Cost.Total += other.Cost.Total
}

// Clone returns a deep snapshot of the response, safe to hand to a
// consumer while the producer continues mutating the original
func (r *Response) Clone() *Response {
	clone := *r
	clone.Content = make([]ContentBlock, len(r.Content))
	for i, block := range r.Content {
		clone.Content[i] = block.Clone()
	}
	return &clone
}

// Text returns the concatenated text content from all text blocks
func (r *Response) Text() string {
	var result string
	for _, block := range r.Content {
		if block.Type == ContentTypeText && block.Text != nil {
			result += *block.Text
		}
	}
	return result
}

// ToolCalls returns all tool call blocks in the response
func (r *Response) ToolCalls() []ToolCall {
	var result []ToolCall
	for _, block := range r.Content {
		if block.ToolCall != nil {
			result = append(result, *block.ToolCall)
		}
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r Response) String() string {
	return Stringify(r)
}
