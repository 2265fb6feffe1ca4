package agent

import (
	"context"
	"encoding/json"
)

// Role of a conversation message. The Anthropic messages API only knows
// these two; tool results travel inside user messages.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation: a role plus an ordered list of
// content blocks.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// ContentBlock is a closed sum over the three block kinds a conversation can
// carry. The unexported method keeps the set closed so switches over the
// concrete types stay exhaustive.
type ContentBlock interface {
	contentBlock()
}

// TextBlock is plain assistant text.
type TextBlock struct {
	Text string
}

// ToolUseBlock is a model request to invoke a tool. ID is assigned by the
// model provider and is unique within a run.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input map[string]any
}

// ToolResultBlock carries the outcome of a tool call back to the model.
// ToolUseID references the ToolUseBlock that requested the call.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
}

func (TextBlock) contentBlock()       {}
func (ToolUseBlock) contentBlock()    {}
func (ToolResultBlock) contentBlock() {}

// ToolSpec describes a tool capability as reported by the tool provider.
// InputSchema is the raw JSON Schema and is passed through to the model
// unchanged.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ModelClient is the single-shot completion boundary. Implementations return
// the assistant content blocks of one full (non-streamed) response.
type ModelClient interface {
	Complete(ctx context.Context, messages []Message, tools []ToolSpec) ([]ContentBlock, error)
}

// ToolCaller executes one named tool call and returns the concatenated text
// content of the result. Implementations must tolerate concurrent calls from
// independent runs; within one run the loop never overlaps calls.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, input map[string]any) (string, error)
}
