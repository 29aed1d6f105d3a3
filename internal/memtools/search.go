package memtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// SearchTool handles the recall_search MCP tool.
type SearchTool struct {
	store *memory.Store
}

// NewSearchTool creates a SearchTool with the given store.
func NewSearchTool(store *memory.Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for recall_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("recall_search",
		mcp.WithDescription(
			"Semantic search across indexed context. Finds documentation sections, journal entries, "+
				"and checklist sections similar in meaning to the query, not just keyword matches.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language query (e.g. 'how does auth token refresh work')"),
		),
		mcp.WithString("collection",
			mcp.Description("Restrict to one collection: sections, journal, checklist (default: all)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results per collection (default: 5)"),
		),
	)
}

// Handle processes the recall_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	collection := req.GetString("collection", "all")
	limit := intArg(req, "limit", 5)

	var sb strings.Builder
	found := false

	if collection == "all" || collection == "sections" {
		matches := t.store.SearchSections(ctx, query, limit)
		if len(matches) > 0 {
			found = true
			sb.WriteString("## Documentation Sections\n\n")
			for _, m := range matches {
				sb.WriteString(fmt.Sprintf("### %s (%.2f) — %s\n\n%s\n\n",
					m.Title, m.Score, m.SourceFile, memory.Truncate(m.Content, 400)))
			}
		}
	}

	if collection == "all" || collection == "journal" {
		matches := t.store.SearchJournal(ctx, query, limit)
		if len(matches) > 0 {
			found = true
			sb.WriteString("## Journal Entries\n\n")
			for _, m := range matches {
				sb.WriteString(fmt.Sprintf("- **%s** (%.2f) — %s\n",
					m.Timestamp.Format("2006-01-02"), m.Score, m.Summary))
				if len(m.OpenItems) > 0 {
					sb.WriteString(fmt.Sprintf("  - open: %s\n", strings.Join(m.OpenItems, "; ")))
				}
			}
			sb.WriteString("\n")
		}
	}

	if collection == "all" || collection == "checklist" {
		matches := t.store.SearchChecklistSections(ctx, query, limit)
		if len(matches) > 0 {
			found = true
			sb.WriteString("## Checklist Sections\n\n")
			for _, m := range matches {
				sb.WriteString(fmt.Sprintf("### %s (%.2f, %d%% done) — %s\n\n%s\n\n",
					m.Name, m.Score, m.CompletionPct, m.SourceFile, m.Content))
			}
		}
	}

	if !found {
		return mcp.NewToolResultText(fmt.Sprintf("No results for %q.", query)), nil
	}
	return mcp.NewToolResultText(strings.TrimRight(sb.String(), "\n")), nil
}
