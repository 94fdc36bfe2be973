package schema_test

import (
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	assert "github.com/stretchr/testify/assert"
)

///////////////////////////////////////////////////////////////////////////////
// TESTS

func Test_response_usage_add(t *testing.T) {
	assert := assert.New(t)
	usage := schema.Usage{InputTokens: 10, OutputTokens: 5, CacheReadTokens: 2}
	usage.Add(schema.Usage{OutputTokens: 3, CacheWriteTokens: 1, Cost: schema.Cost{Output: 0.5, Total: 0.5}})
	usage.Add(schema.Usage{OutputTokens: 4, Cost: schema.Cost{Output: 0.25, Total: 0.25}})

	assert.Equal(uint(10), usage.InputTokens)
	assert.Equal(uint(12), usage.OutputTokens)
	assert.Equal(uint(2), usage.CacheReadTokens)
	assert.Equal(uint(1), usage.CacheWriteTokens)
	assert.Equal(0.75, usage.Cost.Output)
	assert.Equal(0.75, usage.Cost.Total)
}

func Test_response_clone_isolated(t *testing.T) {
	assert := assert.New(t)
	text := "hello"
	response := schema.NewResponse("anthropic", "claude-test")
	response.Content = append(response.Content, schema.ContentBlock{
		Type: schema.ContentTypeText,
		Text: &text,
	}, schema.ContentBlock{
		Type: schema.ContentTypeToolCall,
		ToolCall: &schema.ToolCall{
			ID:        "tool_1",
			Name:      "get_weather",
			Arguments: map[string]any{"location": "Paris"},
		},
	})

	clone := response.Clone()

	// Mutations to the original do not show through the clone
	*response.Content[0].Text = "changed"
	response.Content[1].ToolCall.Arguments["location"] = "London"
	response.Content = append(response.Content, schema.ContentBlock{Type: schema.ContentTypeText})

	assert.Equal("hello", *clone.Content[0].Text)
	assert.Equal("Paris", clone.Content[1].ToolCall.Arguments["location"])
	assert.Len(clone.Content, 2)
	assert.Equal("anthropic", clone.Provider)
	assert.Equal("claude-test", clone.Model)
}

func Test_response_text_and_tool_calls(t *testing.T) {
	assert := assert.New(t)
	hello, world, thinking := "Hello, ", "world", "hmm"
	response := &schema.Response{
		Content: []schema.ContentBlock{
			{Type: schema.ContentTypeText, Text: &hello},
			{Type: schema.ContentTypeThinking, Text: &thinking},
			{Type: schema.ContentTypeToolCall, ToolCall: &schema.ToolCall{ID: "tool_1", Name: "lookup"}},
			{Type: schema.ContentTypeText, Text: &world},
		},
	}

	// Thinking blocks do not contribute to the text
	assert.Equal("Hello, world", response.Text())

	calls := response.ToolCalls()
	if assert.Len(calls, 1) {
		assert.Equal("lookup", calls[0].Name)
	}
}

func Test_response_context_append(t *testing.T) {
	assert := assert.New(t)
	reply := "hi there"
	prompt := schema.NewContext("be helpful", "hello")
	prompt.Append(schema.Message{
		Role:    schema.RoleAssistant,
		Content: []schema.ContentBlock{{Type: schema.ContentTypeText, Text: &reply}},
	})

	assert.Equal("be helpful", prompt.System)
	if assert.Len(prompt.Messages, 2) {
		assert.Equal(schema.RoleUser, prompt.Messages[0].Role)
		assert.Equal(schema.RoleAssistant, prompt.Messages[1].Role)
	}
}
