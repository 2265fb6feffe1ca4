package agent

type EventType string

const (
	EventText       EventType = "text"
	EventToolUse    EventType = "tool_use"
	EventToolResult EventType = "tool_result"
	EventError      EventType = "error"
	EventDone       EventType = "done"
)

// Event is a closed sum over everything a run can emit. Exactly one
// DoneEvent or ErrorEvent terminates a run; nothing follows it.
type Event interface {
	Type() EventType
}

// TextEvent carries one text block of a model response.
type TextEvent struct {
	Content string `json:"content"`
}

// ToolUseEvent announces a tool invocation before it executes.
type ToolUseEvent struct {
	ToolName  string         `json:"tool_name"`
	ToolInput map[string]any `json:"tool_input"`
}

// ToolResultEvent carries the text outcome of a tool call. Content may be
// empty when the tool returned no text.
type ToolResultEvent struct {
	ToolName string `json:"tool_name"`
	Content  string `json:"content"`
}

// ErrorEvent terminates a run after a failure.
type ErrorEvent struct {
	Content string `json:"content"`
}

// DoneEvent terminates a successful run.
type DoneEvent struct{}

func (TextEvent) Type() EventType       { return EventText }
func (ToolUseEvent) Type() EventType    { return EventToolUse }
func (ToolResultEvent) Type() EventType { return EventToolResult }
func (ErrorEvent) Type() EventType      { return EventError }
func (DoneEvent) Type() EventType       { return EventDone }
