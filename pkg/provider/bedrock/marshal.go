package bedrock

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-llmstream/pkg/schema"
	sigv4 "github.com/mutablelogic/go-llmstream/pkg/sigv4"
)

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// signer resolves credentials for one request
func (c *Client) signer(ctx context.Context) (*sigv4.Signer, error) {
	credentials, region, err := c.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return sigv4.New(region, credentials), nil
}

// messagesFromContext converts prompt messages to Converse wire format
func messagesFromContext(prompt *schema.Context) []converseMessage {
	messages := make([]converseMessage, 0, len(prompt.Messages))
	for _, message := range prompt.Messages {
		content := make([]converseBlock, 0, len(message.Content))
		for _, block := range message.Content {
			switch block.Type {
			case schema.ContentTypeToolCall:
				if block.ToolCall == nil {
					continue
				}
				content = append(content, converseBlock{
					ToolUse: &toolUseBlock{
						ToolUseId: block.ToolCall.ID,
						Name:      block.ToolCall.Name,
						Input:     block.ToolCall.Arguments,
					},
				})
			case schema.ContentTypeThinking:
				// Thinking blocks are not replayed to the API
			default:
				if block.Text != nil {
					content = append(content, converseBlock{Text: *block.Text})
				}
			}
		}
		messages = append(messages, converseMessage{
			Role:    message.Role,
			Content: content,
		})
	}
	return messages
}

// toolConfigFromContext converts tool definitions to Converse wire format
func toolConfigFromContext(prompt *schema.Context) *toolConfig {
	if len(prompt.Tools) == 0 {
		return nil
	}
	tools := make([]converseTool, 0, len(prompt.Tools))
	for _, tool := range prompt.Tools {
		tools = append(tools, converseTool{
			ToolSpec: toolSpec{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: toolInputSchema{JSON: tool.InputSchema},
			},
		})
	}
	return &toolConfig{Tools: tools}
}

// stopReasonToSchema maps a Converse stop reason to the canonical one
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
