package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// TodoStateTool handles the recall_todo_state MCP tool.
type TodoStateTool struct {
	store *memory.Store
}

// NewTodoStateTool creates a TodoStateTool.
func NewTodoStateTool(store *memory.Store) *TodoStateTool {
	return &TodoStateTool{store: store}
}

// Definition returns the MCP tool definition for recall_todo_state.
func (t *TodoStateTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_todo_state",
		mcp.WithDescription(
			"Show the most recent checklist snapshot: overall completion and per-section progress, "+
				"with each section's items.",
		),
		mcp.WithBoolean("items",
			mcp.Description("Include individual checklist items (default: true)"),
		),
	)
}

// Handle processes the recall_todo_state tool call.
func (t *TodoStateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := t.store.LatestSnapshot(ctx)
	if snap == nil {
		return mcp.NewToolResultText("No checklist snapshots yet. Index one with recall_index_checklist."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Todo State — %s\n\n", snap.Timestamp.Format("2006-01-02 15:04 MST")))
	sb.WriteString(fmt.Sprintf("Overall: %d%% complete (%d/%d items)\n\n",
		snap.OverallCompletionPct, snap.CompletedItems, snap.TotalItems))

	showItems := boolArg(req, "items", true)
	for _, sec := range snap.Sections {
		sb.WriteString(fmt.Sprintf("## %s — %d%%\n", sec.Name, sec.CompletionPct))
		if showItems {
			sb.WriteString("\n")
			sb.WriteString(memory.RenderChecklistItems(sec.Items))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}
