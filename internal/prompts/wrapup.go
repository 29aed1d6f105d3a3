package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// WrapUpPrompt handles the recall-wrap-up MCP prompt.
// It instructs the AI to persist the session before ending it.
type WrapUpPrompt struct{}

// NewWrapUpPrompt creates a WrapUpPrompt.
func NewWrapUpPrompt() *WrapUpPrompt {
	return &WrapUpPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *WrapUpPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("recall-wrap-up",
		mcp.WithPromptDescription(
			"Wrap up the current session: store a journal entry, a session summary, "+
				"and a fresh checklist snapshot so the next session starts informed.",
		),
	)
}

// Handle processes the recall-wrap-up prompt request.
func (p *WrapUpPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Wrap up session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"We're wrapping up this session. Please:\n" +
						"1. Run `recall_journal` with a summary and full narrative of what we did, " +
						"including topics, work_completed, and open_items\n" +
						"2. Run `recall_session_summary` with the headline, focus_areas, and next_steps\n" +
						"3. If the project checklist changed, run `recall_index_checklist` on it\n" +
						"4. Run `recall_status` and confirm everything was stored",
				),
			},
		},
	}, nil
}
