package schema

import (
	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Context is the prompt material for one generation: the system prompt,
// the prior conversation and the tool definitions. Providers reshape it
// into their own wire format.
type Context struct {
	System   string           `json:"system,omitempty"`
	Messages []Message        `json:"messages,omitempty"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
}

// Message represents a prior message in the conversation
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ToolDefinition represents a provider-agnostic tool definition
type ToolDefinition struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"input_schema,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// CONSTANTS

// Message role constants
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewContext returns a context with a single user text message
func NewContext(system, text string) *Context {
	return &Context{
		System: system,
		Messages: []Message{{
			Role:    RoleUser,
			Content: []ContentBlock{{Type: ContentTypeText, Text: &text}},
		}},
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Append adds a message to the conversation
func (c *Context) Append(message Message) {
	c.Messages = append(c.Messages, message)
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (c Context) String() string {
	return Stringify(c)
}
