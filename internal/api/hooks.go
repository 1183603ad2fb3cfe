package api

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/errorcache/errorcache-go/internal/hook"
)

// NotifyFunc delivers an operator-visible message to connected clients.
type NotifyFunc func(level, message string)

// serverHooks translates MCP server lifecycle callbacks into hook-registry
// events. Handler results asking for context injection are forwarded through
// notify; everything else is a no-op.
func serverHooks(reg *hook.Registry, notify NotifyFunc) *server.Hooks {
	hooks := &server.Hooks{}

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		if method != mcp.MethodToolsCall {
			return
		}
		toolName := "unknown"
		if req, ok := message.(*mcp.CallToolRequest); ok {
			toolName = req.Params.Name
		}
		deliver(ctx, reg, hook.Event{
			Name: hook.EventToolError,
			Tool: toolName,
			Err:  &hook.ToolError{Type: "Error", Message: err.Error()},
		}, notify)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, req *mcp.CallToolRequest, res any) {
		if req == nil {
			return
		}
		result, _ := res.(*mcp.CallToolResult)
		deliver(ctx, reg, hook.Event{
			Name: hook.EventToolPost,
			Tool: req.Params.Name,
			Result: hook.Structured{
				Output:  flattenContent(result),
				Success: result == nil || !result.IsError,
			},
		}, notify)
	})

	return hooks
}

func deliver(ctx context.Context, reg *hook.Registry, ev hook.Event, notify NotifyFunc) {
	for _, res := range reg.Dispatch(ctx, ev) {
		if res.Action != hook.ActionInjectContext {
			continue
		}
		slog.Info("errorcache solutions available", "tool", ev.Tool, "message", res.UserMessage)
		if notify != nil {
			level := res.UserMessageLevel
			if level == "" {
				level = "info"
			}
			notify(level, res.Injection)
		}
	}
}

// flattenContent joins the text parts of a tool result for extraction.
func flattenContent(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
