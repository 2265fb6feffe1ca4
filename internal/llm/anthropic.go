// Package llm implements the model-completion boundary on the Anthropic
// messages API.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"arxplain/internal/agent"
)

// Anthropic is an agent.ModelClient backed by the Anthropic messages API.
// Completions are single-shot: one blocking call per loop iteration, the
// full response returned at once.
type Anthropic struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(apiKey, model string, maxTokens int) *Anthropic {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	)
	return &Anthropic{
		client:    client,
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

func (a *Anthropic) Complete(ctx context.Context, messages []agent.Message, tools []agent.ToolSpec) ([]agent.ContentBlock, error) {
	toolParams, err := ToolParams(tools)
	if err != nil {
		return nil, fmt.Errorf("converting tools: %w", err)
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: a.maxTokens,
		Messages:  MessageParams(messages),
		Tools:     toolParams,
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic completion: %w", err)
	}

	return FromContent(msg.Content)
}

// MessageParams converts conversation messages into Anthropic message
// params. Block order within each message is preserved.
func MessageParams(messages []agent.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch b := block.(type) {
			case agent.TextBlock:
				blocks = append(blocks, anthropic.NewTextBlock(b.Text))
			case agent.ToolUseBlock:
				blocks = append(blocks, anthropic.NewToolUseBlock(b.ID, b.Input, b.Name))
			case agent.ToolResultBlock:
				blocks = append(blocks, anthropic.NewToolResultBlock(b.ToolUseID, b.Content, false))
			}
		}
		if msg.Role == agent.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// ToolParams converts provider tool specs into Anthropic tool declarations.
// Name and input schema pass through unchanged.
func ToolParams(tools []agent.ToolSpec) ([]anthropic.ToolUnionParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
			return nil, fmt.Errorf("invalid input schema for %s: %w", tool.Name, err)
		}
		param := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if param.OfTool == nil {
			return nil, fmt.Errorf("invalid tool definition for %s", tool.Name)
		}
		param.OfTool.Description = anthropic.String(tool.Description)
		out = append(out, param)
	}
	return out, nil
}

// FromContent converts a response's content blocks into the agent's sum
// type, keeping the original order.
func FromContent(content []anthropic.ContentBlockUnion) ([]agent.ContentBlock, error) {
	var out []agent.ContentBlock
	for _, block := range content {
		switch block.Type {
		case "text":
			out = append(out, agent.TextBlock{Text: block.AsText().Text})
		case "tool_use":
			use := block.AsToolUse()
			var input map[string]any
			if len(use.Input) > 0 {
				if err := json.Unmarshal(use.Input, &input); err != nil {
					return nil, fmt.Errorf("invalid tool input for %s: %w", use.Name, err)
				}
			}
			out = append(out, agent.ToolUseBlock{ID: use.ID, Name: use.Name, Input: input})
		}
	}
	return out, nil
}
