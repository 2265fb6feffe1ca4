package agent

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"arxplain/internal/trace"
)

// DefaultMaxIterations bounds the model/tool round-trips of a single run.
// Hitting the bound is a safety valve, not an error.
const DefaultMaxIterations = 10

type LoopOption func(*Loop)

func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) { l.maxIterations = n }
}

// Loop drives the agent cycle: ask the model for a completion, execute any
// tool calls it requested, feed the results back, repeat until the model
// stops requesting tools. Events are pushed through the emit callback as
// soon as they are known, so callers see the run unfold incrementally.
//
// A Loop is stateless across runs; each Run owns its private conversation.
type Loop struct {
	model         ModelClient
	tools         ToolCaller
	maxIterations int
}

func NewLoop(model ModelClient, tools ToolCaller, opts ...LoopOption) *Loop {
	l := &Loop{
		model:         model,
		tools:         tools,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run executes one bounded agent run over the given initial conversation.
// Exactly one DoneEvent or ErrorEvent is emitted last. The returned error is
// non-nil only when the run ended via ErrorEvent.
func (l *Loop) Run(ctx context.Context, messages []Message, tools []ToolSpec, emit func(Event)) error {
	ctx, span := trace.Tracer().Start(ctx, "agent.run",
		oteltrace.WithAttributes(attribute.Int("agent.max_iterations", l.maxIterations)),
	)
	defer span.End()

	for iteration := 0; iteration < l.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			emit(ErrorEvent{Content: "request cancelled"})
			return err
		}

		slog.Debug("agent loop iteration", "iteration", iteration+1)

		reply, err := l.complete(ctx, iteration, messages, tools)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			emit(ErrorEvent{Content: err.Error()})
			return err
		}

		// Walk the response in order, emitting as we go and collecting the
		// tool uses for execution after the full response is consumed.
		var toolUses []ToolUseBlock
		for _, block := range reply {
			switch b := block.(type) {
			case TextBlock:
				emit(TextEvent{Content: b.Text})
			case ToolUseBlock:
				emit(ToolUseEvent{ToolName: b.Name, ToolInput: b.Input})
				toolUses = append(toolUses, b)
			}
		}

		messages = append(messages, Message{Role: RoleAssistant, Content: reply})

		// No tool use means the model considers the task done.
		if len(toolUses) == 0 {
			emit(DoneEvent{})
			return nil
		}

		// Execute sequentially in the order the model emitted them; a later
		// call may depend on an earlier result.
		results := make([]ContentBlock, 0, len(toolUses))
		for _, use := range toolUses {
			content := l.callTool(ctx, use)
			emit(ToolResultEvent{ToolName: use.Name, Content: content})
			results = append(results, ToolResultBlock{ToolUseID: use.ID, Content: content})
		}

		messages = append(messages, Message{Role: RoleUser, Content: results})
	}

	// Bound reached. Emit done so stream consumers get a terminal marker
	// even though the model never produced a closing text turn.
	slog.Warn("agent loop reached max iterations", "max_iterations", l.maxIterations)
	span.SetAttributes(attribute.Bool("agent.iteration_bound_reached", true))
	emit(DoneEvent{})
	return nil
}

func (l *Loop) complete(ctx context.Context, iteration int, messages []Message, tools []ToolSpec) ([]ContentBlock, error) {
	ctx, span := trace.Tracer().Start(ctx, "llm.complete",
		oteltrace.WithAttributes(attribute.Int("llm.iteration", iteration)),
	)
	defer span.End()

	reply, err := l.model.Complete(ctx, messages, tools)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("llm.content_blocks", len(reply)))
	return reply, nil
}

// callTool runs one tool call and always produces result content: execution
// failures are folded into the result text so the model sees them on the
// next iteration and can adapt.
func (l *Loop) callTool(ctx context.Context, use ToolUseBlock) string {
	ctx, span := trace.Tracer().Start(ctx, "tool."+use.Name,
		oteltrace.WithAttributes(attribute.String("tool.name", use.Name)),
	)
	defer span.End()

	slog.Info("executing tool", "tool", use.Name)

	content, err := l.tools.CallTool(ctx, use.Name, use.Input)
	if err != nil {
		slog.Warn("tool execution failed", "tool", use.Name, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "error: " + err.Error()
	}
	span.SetAttributes(attribute.Int("tool.output_length", len(content)))
	return content
}
