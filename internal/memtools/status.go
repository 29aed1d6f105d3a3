package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// HealthChecker reports embedding provider reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
	ModelName() string
}

// StatusTool handles the recall_status MCP tool.
type StatusTool struct {
	store  *memory.Store
	health HealthChecker
}

// NewStatusTool creates a StatusTool. health may be nil when no
// provider check is wanted.
func NewStatusTool(store *memory.Store, health HealthChecker) *StatusTool {
	return &StatusTool{store: store, health: health}
}

// Definition returns the MCP tool definition for recall_status.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_status",
		mcp.WithDescription(
			"Report context index health: store availability, per-collection record counts, "+
				"and embedding provider reachability.",
		),
	)
}

// Handle processes the recall_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("# Context Index Status\n\n")

	if t.store.IsAvailable(ctx) {
		sb.WriteString("Store: available\n")
		st := t.store.Stats(ctx)
		sb.WriteString(fmt.Sprintf("- Documentation sections: %d\n", st.Sections))
		sb.WriteString(fmt.Sprintf("- Checklist snapshots: %d\n", st.Snapshots))
		sb.WriteString(fmt.Sprintf("- Checklist sections: %d\n", st.ChecklistSections))
		sb.WriteString(fmt.Sprintf("- Journal entries: %d\n", st.JournalEntries))
		sb.WriteString(fmt.Sprintf("- Session summaries: %d\n", st.SessionSummaries))
	} else {
		sb.WriteString("Store: UNAVAILABLE\n")
	}

	if t.health != nil {
		if err := t.health.Ping(ctx); err != nil {
			sb.WriteString(fmt.Sprintf("Embedding provider (%s): unreachable: %v\n", t.health.ModelName(), err))
		} else {
			sb.WriteString(fmt.Sprintf("Embedding provider (%s): reachable\n", t.health.ModelName()))
		}
	}

	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}
