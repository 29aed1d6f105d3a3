package memtools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// ContextTool handles the recall_context MCP tool.
type ContextTool struct {
	store *memory.Store
}

// NewContextTool creates a ContextTool.
func NewContextTool(store *memory.Store) *ContextTool {
	return &ContextTool{store: store}
}

// Definition returns the MCP tool definition for recall_context.
func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_context",
		mcp.WithDescription(
			"Assemble the session-start context bundle for a task: recent session summaries, current todo "+
				"state, and the documentation sections and journal entries most relevant to the task. "+
				"Call this FIRST when starting work — it replaces re-reading project docs from scratch.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("What you are about to work on (e.g. 'add rate limiting to the API gateway')"),
		),
	)
}

// Handle processes the recall_context tool call. The bundle degrades
// gracefully: sub-retrievals that fail or find nothing simply come
// back empty.
func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := req.GetString("task", "")
	if task == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	bundle := t.store.ContextBundle(ctx, task)
	return mcp.NewToolResultText(memory.FormatBundle(bundle)), nil
}
