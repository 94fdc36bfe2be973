package openai

import (
	// Packages
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// messagesFromContext converts prompt messages to OpenAI wire format.
// The system prompt becomes a leading system message; assistant tool
// calls become tool_calls entries.
func messagesFromContext(prompt *schema.Context) []chatMessage {
	messages := make([]chatMessage, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, chatMessage{
			Role:    schema.RoleSystem,
			Content: prompt.System,
		})
	}
	for _, message := range prompt.Messages {
		out := chatMessage{Role: message.Role}
		for _, block := range message.Content {
			switch block.Type {
			case schema.ContentTypeToolCall:
				if block.ToolCall == nil {
					continue
				}
				out.ToolCalls = append(out.ToolCalls, chatToolCall{
					Id:   block.ToolCall.ID,
					Type: toolTypeFunction,
					Function: chatCallFunction{
						Name:      block.ToolCall.Name,
						Arguments: marshalArguments(block.ToolCall.Arguments),
					},
				})
			case schema.ContentTypeThinking:
				// Thinking blocks are not replayed to the API
			default:
				if block.Text != nil {
					out.Content += *block.Text
				}
			}
		}
		messages = append(messages, out)
	}
	return messages
}

// toolsFromContext converts tool definitions to OpenAI wire format
func toolsFromContext(prompt *schema.Context) []chatTool {
	if len(prompt.Tools) == 0 {
		return nil
	}
	tools := make([]chatTool, 0, len(prompt.Tools))
	for _, tool := range prompt.Tools {
		tools = append(tools, chatTool{
			Type: toolTypeFunction,
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return tools
}

// finishReasonToSchema maps an OpenAI finish reason to the canonical one
func finishReasonToSchema(reason string) schema.StopReason {
	switch reason {
	case finishReasonStop, "":
		return schema.StopReasonStop
	case finishReasonLength:
		return schema.StopReasonLength
	case finishReasonToolCalls:
		return schema.StopReasonToolUse
	default:
		return schema.StopReasonStop
	}
}
