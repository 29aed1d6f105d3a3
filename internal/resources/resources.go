// Package resources implements MCP resource handlers for the context index.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (recall://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// Handler manages context index resource endpoints.
type Handler struct {
	store *memory.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *memory.Store) *Handler {
	return &Handler{store: store}
}

// StatusResource returns the MCP resource definition for index status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"recall://index/status",
		"Context Index Status",
		mcp.WithResourceDescription("Store availability and per-collection record counts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current index status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := struct {
		Available bool         `json:"available"`
		Stats     memory.Stats `json:"stats"`
	}{
		Available: h.store.IsAvailable(ctx),
	}
	if status.Available {
		status.Stats = h.store.Stats(ctx)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// TodoResource returns the MCP resource definition for the latest
// checklist snapshot.
func (h *Handler) TodoResource() mcp.Resource {
	return mcp.NewResource(
		"recall://todo/latest",
		"Latest Todo Snapshot",
		mcp.WithResourceDescription("Most recent checklist snapshot with per-section completion"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleTodo returns the latest checklist snapshot as JSON.
func (h *Handler) HandleTodo(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	snap := h.store.LatestSnapshot(ctx)
	if snap == nil {
		return errorResource(req.Params.URI, "no checklist snapshots stored"), nil
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
