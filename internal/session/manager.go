// Package session owns the process-wide connection to the paper-search tool
// provider: one MCP stdio subprocess started before the server accepts
// requests and torn down at shutdown. Concurrent runs share it read-only
// through ListTools and CallTool.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"arxplain/internal/agent"
)

// DefaultStartupTimeout bounds how long Start waits for the provider
// handshake.
const DefaultStartupTimeout = 10 * time.Second

var (
	// ErrStartupTimeout is returned by Start when the provider does not
	// become ready within the startup timeout. Fatal to process startup.
	ErrStartupTimeout = errors.New("tool provider did not become ready in time")

	// ErrNotReady is returned by ListTools and CallTool when no live
	// session exists.
	ErrNotReady = errors.New("tool provider session not ready")
)

// conn is the narrow slice of an MCP client session the manager uses.
type conn interface {
	ListTools(ctx context.Context, params *sdkmcp.ListToolsParams) (*sdkmcp.ListToolsResult, error)
	CallTool(ctx context.Context, params *sdkmcp.CallToolParams) (*sdkmcp.CallToolResult, error)
	Close() error
}

// Manager runs the tool provider connection as a background task. Start
// blocks on a one-shot readiness signal; the background goroutine then parks
// on the manager's cancellation signal until Stop.
type Manager struct {
	timeout time.Duration
	dial    func(ctx context.Context) (conn, error)

	mu     sync.Mutex
	sess   conn
	cancel context.CancelFunc
	done   chan struct{}
	runErr error
}

// NewManager builds a manager that launches command as an MCP stdio
// subprocess. An empty command re-execs the current binary with the "mcp"
// subcommand.
func NewManager(command []string, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultStartupTimeout
	}
	return &Manager{
		timeout: timeout,
		dial: func(ctx context.Context) (conn, error) {
			return dialStdio(ctx, command)
		},
	}
}

func dialStdio(ctx context.Context, command []string) (conn, error) {
	if len(command) == 0 {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolving own binary: %w", err)
		}
		command = []string{self, "mcp"}
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Env = os.Environ()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "arxplain",
		Version: "1.0.0",
	}, nil)

	sess, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to tool provider: %w", err)
	}
	return sess, nil
}

// Start launches the provider connection and blocks until it is ready or
// the startup timeout elapses. On timeout the background task is cancelled
// and ErrStartupTimeout returned; the process should not serve requests
// after that.
func (m *Manager) Start(ctx context.Context) error {
	slog.Info("starting tool provider session")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	ready := make(chan struct{})
	dialErr := make(chan error, 1)

	m.mu.Lock()
	m.cancel = cancel
	m.done = done
	m.runErr = nil
	m.mu.Unlock()

	go m.run(runCtx, ready, dialErr, done)

	select {
	case <-ready:
		slog.Info("tool provider session ready")
		return nil
	case err := <-dialErr:
		cancel()
		<-done
		return fmt.Errorf("starting tool provider: %w", err)
	case <-time.After(m.timeout):
		cancel()
		<-done
		return fmt.Errorf("%w (%s)", ErrStartupTimeout, m.timeout)
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// run establishes the session, signals readiness once, then holds the
// session open until cancellation.
func (m *Manager) run(ctx context.Context, ready chan<- struct{}, dialErr chan<- error, done chan<- struct{}) {
	defer close(done)

	sess, err := m.dial(ctx)
	if err != nil {
		m.mu.Lock()
		m.runErr = err
		m.mu.Unlock()
		dialErr <- err
		return
	}

	m.mu.Lock()
	m.sess = sess
	m.mu.Unlock()
	close(ready)

	<-ctx.Done()

	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()

	if err := sess.Close(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("closing tool provider session", "error", err)
		m.mu.Lock()
		m.runErr = err
		m.mu.Unlock()
	}
	slog.Info("tool provider session closed")
}

// Stop cancels the background task and waits for it to finish. Safe to call
// repeatedly and after a failed Start. Cancellation is the expected outcome
// and is not reported; any other terminal failure is.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.runErr != nil && !errors.Is(m.runErr, context.Canceled) {
		return m.runErr
	}
	return nil
}

// Ready reports whether a live session exists.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

func (m *Manager) session() (conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return nil, ErrNotReady
	}
	return m.sess, nil
}

// ListTools fetches the provider's tool capabilities.
func (m *Manager) ListTools(ctx context.Context) ([]agent.ToolSpec, error) {
	sess, err := m.session()
	if err != nil {
		return nil, err
	}

	result, err := sess.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}

	specs := make([]agent.ToolSpec, 0, len(result.Tools))
	for _, tool := range result.Tools {
		schema, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encoding schema for %s: %w", tool.Name, err)
		}
		specs = append(specs, agent.ToolSpec{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	return specs, nil
}

// CallTool executes one tool call and returns the concatenated text parts
// of the result. Provider-side rejections (unknown tool, bad arguments)
// arrive as error results and are returned as errors.
func (m *Manager) CallTool(ctx context.Context, name string, input map[string]any) (string, error) {
	sess, err := m.session()
	if err != nil {
		return "", err
	}

	result, err := sess.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: input,
	})
	if err != nil {
		return "", fmt.Errorf("calling tool %s: %w", name, err)
	}

	var text strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*sdkmcp.TextContent); ok {
			text.WriteString(tc.Text)
		}
	}

	if result.IsError {
		msg := text.String()
		if msg == "" {
			msg = "tool execution failed"
		}
		return "", fmt.Errorf("tool %s: %s", name, msg)
	}
	return text.String(), nil
}
