// Package hook defines the host-facing contract for passive plugins: named
// tool-lifecycle events, prioritized handler registration, and the structured
// action a handler returns. The host dispatches events; handlers never block
// beyond their own network timeouts and never return errors — a handler that
// has nothing to say returns a continue action.
package hook

import (
	"fmt"
	"strings"
)

// Event names dispatched by the host.
const (
	// EventToolError fires when a tool invocation raised an error.
	EventToolError = "tool:error"
	// EventToolPost fires when a tool invocation completed, successfully or not.
	EventToolPost = "tool:post"
)

// ToolError describes the error a failed tool invocation reported.
type ToolError struct {
	Type    string
	Message string
}

// ToolResult is the loosely shaped payload a host reports for a finished
// tool. Hosts deliver either plain text or a structured result; Text is the
// single normalizing accessor used for error extraction.
type ToolResult interface {
	// Text flattens the payload into one string.
	Text() string
	// Succeeded reports whether the tool considers the invocation successful.
	Succeeded() bool
}

// PlainText is a bare string tool result. It is always considered successful;
// failure is only signalled through structured results or tool:error events.
type PlainText string

func (p PlainText) Text() string    { return string(p) }
func (p PlainText) Succeeded() bool { return true }

// Structured is a tool result with an explicit success flag. Output is either
// a string or a StreamOutput with separate stdout/stderr.
type Structured struct {
	Output  any
	Success bool
}

// StreamOutput is the output shape of shell-style tools.
type StreamOutput struct {
	Stdout string
	Stderr string
}

func (s Structured) Text() string {
	switch out := s.Output.(type) {
	case string:
		return out
	case StreamOutput:
		var parts []string
		if out.Stdout != "" {
			parts = append(parts, out.Stdout)
		}
		if out.Stderr != "" {
			parts = append(parts, out.Stderr)
		}
		return strings.Join(parts, "\n")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", out)
	}
}

func (s Structured) Succeeded() bool { return s.Success }

// Event is a single tool-lifecycle notification from the host.
type Event struct {
	// Name is one of the Event* constants.
	Name string
	// Tool is the name of the tool the event concerns.
	Tool string
	// Err is set for tool:error events.
	Err *ToolError
	// Result is set for tool:post events.
	Result ToolResult
}
