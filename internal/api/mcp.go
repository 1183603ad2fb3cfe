// Package api exposes the ErrorCache plugins over MCP: the errorcache tool
// with its JSON schema, and server hooks that feed tool lifecycle events to
// the passive watcher.
package api

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/errorcache/errorcache-go/internal/errorcache"
	"github.com/errorcache/errorcache-go/internal/hook"
	"github.com/errorcache/errorcache-go/internal/tool"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Tool *tool.Tool
	// Hooks receives tool lifecycle events from the server; nil disables
	// passive watching.
	Hooks   *hook.Registry
	Version string
}

// NewMCPServer creates an MCP server with the errorcache tool registered and
// the hook registry wired to tool-call lifecycle events.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions("errorcache — collective memory of verified error fixes. " +
			"Search before debugging, submit once you solve, verify after applying a fix."),
	}

	// Injected context from the watcher is delivered as a logging-message
	// notification; srv is captured before the hooks ever fire.
	var srv *server.MCPServer
	if deps.Hooks != nil {
		notify := func(level, message string) {
			if srv == nil {
				return
			}
			srv.SendNotificationToAllClients("notifications/message", map[string]any{
				"level":  level,
				"logger": "errorcache",
				"data":   message,
			})
		}
		opts = append(opts, server.WithHooks(serverHooks(deps.Hooks, notify)))
	}

	srv = server.NewMCPServer("errorcache", version, opts...)
	srv.AddTool(errorcacheTool(), executeTool(deps.Tool))
	return srv
}

func errorcacheTool() mcp.Tool {
	return mcp.NewTool(tool.Name,
		mcp.WithDescription(tool.Description),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Enum(string(tool.OpSearchErrors), string(tool.OpSubmitSolution), string(tool.OpVerifySolution)),
			mcp.Description("Operation to perform"),
		),
		mcp.WithString("error_message",
			mcp.Description("The error message or signature to search for (for search_errors)"),
		),
		mcp.WithString("language",
			mcp.Description("Programming language filter (for search_errors)"),
		),
		mcp.WithString("framework",
			mcp.Description("Framework filter (for search_errors)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 5)"),
		),
		mcp.WithString("title",
			mcp.Description("Question title (for submit_solution, max 300 chars)"),
		),
		mcp.WithString("error_signature",
			mcp.Description("Raw error text (for submit_solution)"),
		),
		mcp.WithString("error_category",
			mcp.Enum(errorcache.Categories...),
			mcp.Description("Error category (for submit_solution)"),
		),
		mcp.WithString("root_cause",
			mcp.Description("Root cause explanation (for submit_solution, min 20 chars)"),
		),
		mcp.WithString("fix_approach",
			mcp.Description("How to fix it (for submit_solution, min 20 chars)"),
		),
		mcp.WithArray("commands",
			mcp.Items(map[string]any{"type": "string"}),
			mcp.Description("Fix commands (for submit_solution)"),
		),
		mcp.WithString("question_id",
			mcp.Description("Question ID (for submit_solution to add answer to existing question)"),
		),
		mcp.WithString("answer_id",
			mcp.Description("Answer ID to verify (for verify_solution)"),
		),
		mcp.WithString("result",
			mcp.Enum(errorcache.VerifyPass, errorcache.VerifyFail, errorcache.VerifyPartial),
			mcp.Description("Verification result (for verify_solution)"),
		),
		mcp.WithObject("evidence",
			mcp.Description("Verification evidence: exit_codes, test_results (for verify_solution)"),
		),
	)
}

func executeTool(t *tool.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		op, err := req.RequireString("operation")
		if err != nil {
			return mcpError("operation is required"), nil
		}

		in := tool.Input{
			Operation:      tool.Operation(op),
			ErrorMessage:   req.GetString("error_message", ""),
			Language:       req.GetString("language", ""),
			Framework:      req.GetString("framework", ""),
			Limit:          req.GetInt("limit", 0),
			Title:          req.GetString("title", ""),
			ErrorSignature: req.GetString("error_signature", ""),
			ErrorCategory:  req.GetString("error_category", ""),
			RootCause:      req.GetString("root_cause", ""),
			FixApproach:    req.GetString("fix_approach", ""),
			Commands:       req.GetStringSlice("commands", nil),
			QuestionID:     req.GetString("question_id", ""),
			AnswerID:       req.GetString("answer_id", ""),
			Result:         req.GetString("result", ""),
		}
		if evidence, ok := req.GetArguments()["evidence"].(map[string]any); ok {
			in.Evidence = evidence
		}

		res := t.Execute(ctx, in)
		if !res.OK {
			return mcpError(res.Error.Message), nil
		}

		b, err := json.Marshal(res)
		if err != nil {
			return mcpError("failed to marshal result: " + err.Error()), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
