package schema

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Event is one canonical lifecycle event on a response stream. The Type
// field determines which of the remaining fields are populated.
type Event struct {
	Type string `json:"type"`

	// Index is the canonical content index for block-scoped events
	Index int `json:"index,omitempty"`

	// Delta carries the delta-only text for *_delta events, never the
	// accumulated text
	Delta string `json:"delta,omitempty"`

	// Block carries the finished block value on *_end events
	Block *ContentBlock `json:"block,omitempty"`

	// Arguments carries the best-effort parse of streamed tool call
	// arguments on tool_call_delta events
	Arguments map[string]any `json:"arguments,omitempty"`

	// Response carries a snapshot on start, usage, done and error events
	Response *Response `json:"response,omitempty"`

	// Err is set on error events
	Err error `json:"-"`
}

///////////////////////////////////////////////////////////////////////////////
// EVENT TYPES

const (
	EventStart         = "start"
	EventTextStart     = "text_start"
	EventTextDelta     = "text_delta"
	EventTextEnd       = "text_end"
	EventThinkingStart = "thinking_start"
	EventThinkingDelta = "thinking_delta"
	EventThinkingEnd   = "thinking_end"
	EventToolCallStart = "tool_call_start"
	EventToolCallDelta = "tool_call_delta"
	EventToolCallEnd   = "tool_call_end"
	EventUsage         = "usage"
	EventDone          = "done"
	EventError         = "error"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsTerminal returns true for the done and error events which end a stream
func (e Event) IsTerminal() bool {
	return e.Type == EventDone || e.Type == EventError
}
