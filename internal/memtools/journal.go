package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// JournalTool handles the recall_journal MCP tool.
type JournalTool struct {
	store *memory.Store
}

// NewJournalTool creates a JournalTool with the given store.
func NewJournalTool(store *memory.Store) *JournalTool {
	return &JournalTool{store: store}
}

// Definition returns the MCP tool definition for recall_journal.
func (t *JournalTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_journal",
		mcp.WithDescription(
			"Record a session journal entry in persistent memory. Call at the end of a work session — "+
				"capture what was done, what was learned, and what remains open. Entries are append-only.",
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("One-line summary of the session"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Full narrative of the session's work"),
		),
		mcp.WithArray("topics",
			mcp.Description("Topic tags (e.g. ['auth', 'migrations'])"),
		),
		mcp.WithArray("work_completed",
			mcp.Description("Concrete items finished this session"),
		),
		mcp.WithArray("open_items",
			mcp.Description("Items left unfinished or blocked"),
		),
	)
}

// Handle processes the recall_journal tool call.
func (t *JournalTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := req.GetString("summary", "")
	content := req.GetString("content", "")
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	id, err := t.store.StoreJournalEntry(ctx, memory.JournalEntry{
		Summary:       summary,
		Content:       content,
		Topics:        stringListArg(req, "topics"),
		WorkCompleted: stringListArg(req, "work_completed"),
		OpenItems:     stringListArg(req, "open_items"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store journal entry: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Journal entry saved: %q\nID: %s", summary, id)), nil
}

// ─── SessionSummaryTool ──────────────────────────────────────────────────────

// SessionSummaryTool handles the recall_session_summary MCP tool.
type SessionSummaryTool struct {
	store *memory.Store
}

// NewSessionSummaryTool creates a SessionSummaryTool.
func NewSessionSummaryTool(store *memory.Store) *SessionSummaryTool {
	return &SessionSummaryTool{store: store}
}

// Definition returns the MCP tool definition for recall_session_summary.
func (t *SessionSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_session_summary",
		mcp.WithDescription(
			"Record a lightweight session summary for fast recency lookups. Lighter than recall_journal: "+
				"just the headline, focus areas, and next steps.",
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("One-line summary of the session"),
		),
		mcp.WithArray("focus_areas",
			mcp.Description("Areas of the codebase touched"),
		),
		mcp.WithArray("next_steps",
			mcp.Description("What the next session should pick up"),
		),
	)
}

// Handle processes the recall_session_summary tool call.
func (t *SessionSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := req.GetString("summary", "")
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}

	id, err := t.store.StoreSessionSummary(ctx, memory.SessionSummary{
		Summary:    summary,
		FocusAreas: stringListArg(req, "focus_areas"),
		NextSteps:  stringListArg(req, "next_steps"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to store session summary: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Session summary saved\nID: %s", id)), nil
}
