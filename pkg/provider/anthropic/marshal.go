package anthropic

import (
	"encoding/base64"
	"encoding/json"

	// Packages
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// messagesFromContext converts prompt messages to Anthropic wire format
func messagesFromContext(prompt *schema.Context) []anthropicMessage {
	messages := make([]anthropicMessage, 0, len(prompt.Messages))
	for _, message := range prompt.Messages {
		content := make([]anthropicContentBlock, 0, len(message.Content))
		for _, block := range message.Content {
			content = append(content, blockToAnthropic(block))
		}
		messages = append(messages, anthropicMessage{
			Role:    message.Role,
			Content: content,
		})
	}
	return messages
}

// blockToAnthropic converts one content block to Anthropic wire format
func blockToAnthropic(block schema.ContentBlock) anthropicContentBlock {
	switch block.Type {
	case schema.ContentTypeThinking:
		out := anthropicContentBlock{Type: blockTypeThinking}
		if block.Text != nil {
			out.Thinking = *block.Text
		}
		if block.Signature != nil {
			out.Signature = *block.Signature
		}
		return out
	case schema.ContentTypeImage:
		out := anthropicContentBlock{Type: blockTypeImage}
		if block.Image != nil {
			out.Source = &anthropicSource{
				Type:      "base64",
				MediaType: block.Image.MediaType,
				Data:      base64.StdEncoding.EncodeToString(block.Image.Data),
			}
		}
		return out
	case schema.ContentTypeToolCall:
		out := anthropicContentBlock{Type: blockTypeToolUse}
		if block.ToolCall != nil {
			out.ID = block.ToolCall.ID
			out.Name = block.ToolCall.Name
			if input, err := json.Marshal(block.ToolCall.Arguments); err == nil {
				out.Input = input
			}
		}
		return out
	default:
		out := anthropicContentBlock{Type: blockTypeText}
		if block.Text != nil {
			out.Text = *block.Text
		}
		return out
	}
}

// toolsFromContext converts tool definitions to Anthropic wire format
func toolsFromContext(prompt *schema.Context) []anthropicTool {
	if len(prompt.Tools) == 0 {
		return nil
	}
	tools := make([]anthropicTool, 0, len(prompt.Tools))
	for _, tool := range prompt.Tools {
		tools = append(tools, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return tools
}

// stopReasonToSchema maps an Anthropic stop reason to the canonical one
func stopReasonToSchema(reason string) schema.StopReason {
	switch reason {
	case stopReasonEndTurn, "":
		return schema.StopReasonStop
	case stopReasonMaxTokens:
		return schema.StopReasonLength
	case stopReasonToolUse:
		return schema.StopReasonToolUse
	default:
		return schema.StopReasonStop
	}
}
