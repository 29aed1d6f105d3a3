package memtools

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sdd-recall/internal/markdown"
	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// IndexDocumentTool handles the recall_index_document MCP tool.
type IndexDocumentTool struct {
	store *memory.Store
}

// NewIndexDocumentTool creates an IndexDocumentTool with the given store.
func NewIndexDocumentTool(store *memory.Store) *IndexDocumentTool {
	return &IndexDocumentTool{store: store}
}

// Definition returns the MCP tool definition for recall_index_document.
func (t *IndexDocumentTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_index_document",
		mcp.WithDescription(
			"Index a markdown document (architecture notes, specs, READMEs) for semantic retrieval. "+
				"The document is split on #/##/### headings and each section is embedded separately.",
		),
		mcp.WithString("content",
			mcp.Description("Markdown text to index. Either content or path is required."),
		),
		mcp.WithString("path",
			mcp.Description("Path to a markdown file to index, used when content is omitted."),
		),
		mcp.WithString("source_file",
			mcp.Description("Name to record as the document's source (defaults to path, or 'inline.md')"),
		),
	)
}

// Handle processes the recall_index_document tool call.
func (t *IndexDocumentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, source, err := resolveContent(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read document: %v", err)), nil
	}
	if text == "" {
		return mcp.NewToolResultError("either 'content' or 'path' is required"), nil
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	sections := markdown.ParseSections(text, base)
	if len(sections) == 0 {
		return mcp.NewToolResultText("No sections found: the document has no #/##/### headings with content."), nil
	}

	if err := t.store.IndexSections(ctx, sections, source); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to index document: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Indexed %d section(s) from %s", len(sections), source)), nil
}

// ─── IndexChecklistTool ──────────────────────────────────────────────────────

// IndexChecklistTool handles the recall_index_checklist MCP tool.
type IndexChecklistTool struct {
	store *memory.Store
}

// NewIndexChecklistTool creates an IndexChecklistTool with the given store.
func NewIndexChecklistTool(store *memory.Store) *IndexChecklistTool {
	return &IndexChecklistTool{store: store}
}

// Definition returns the MCP tool definition for recall_index_checklist.
func (t *IndexChecklistTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_index_checklist",
		mcp.WithDescription(
			"Capture a markdown todo checklist: stores a point-in-time snapshot of completion state "+
				"and reindexes its sections for semantic search. Call after meaningful checklist edits.",
		),
		mcp.WithString("content",
			mcp.Description("Checklist markdown text. Either content or path is required."),
		),
		mcp.WithString("path",
			mcp.Description("Path to the checklist file, used when content is omitted."),
		),
		mcp.WithString("source_file",
			mcp.Description("Name to record as the checklist's source (defaults to path, or 'inline.md')"),
		),
		mcp.WithBoolean("snapshot",
			mcp.Description("Store a completion snapshot (default: true)"),
		),
		mcp.WithBoolean("reindex",
			mcp.Description("Replace the indexed sections for this source file (default: true)"),
		),
	)
}

// Handle processes the recall_index_checklist tool call.
func (t *IndexChecklistTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, source, err := resolveContent(req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read checklist: %v", err)), nil
	}
	if text == "" {
		return mcp.NewToolResultError("either 'content' or 'path' is required"), nil
	}

	state := markdown.ParseChecklist(text)
	if state.Timestamp.IsZero() {
		state.Timestamp = time.Now().UTC()
	}

	var lines []string

	if boolArg(req, "snapshot", true) {
		id, err := t.store.SnapshotChecklist(ctx, state)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to snapshot checklist: %v", err)), nil
		}
		lines = append(lines, fmt.Sprintf("Snapshot %s: %d/%d items done (%d%%)",
			id, state.CompletedItems, state.TotalItems, state.OverallCompletionPct))
	}

	if boolArg(req, "reindex", true) {
		sections := memory.IndexableChecklistSections(state.Sections, source)
		if err := t.store.ReindexChecklistSections(ctx, sections, source); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to reindex checklist sections: %v", err)), nil
		}
		lines = append(lines, fmt.Sprintf("Reindexed %d section(s) for %s", len(sections), source))
	}

	if len(lines) == 0 {
		return mcp.NewToolResultText("Nothing to do: both snapshot and reindex were disabled."), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
