// Package prompts implements MCP prompt handlers for the context index.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResumePrompt handles the recall-resume MCP prompt.
// It guides the AI to load stored context before starting work.
type ResumePrompt struct{}

// NewResumePrompt creates a ResumePrompt.
func NewResumePrompt() *ResumePrompt {
	return &ResumePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ResumePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("recall-resume",
		mcp.WithPromptDescription(
			"Resume work with stored context: pulls recent sessions, current todo state, "+
				"and the documentation and journal entries relevant to what you're about to do.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you plan to work on this session"),
		),
	)
}

// Handle processes the recall-resume prompt request.
func (p *ResumePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := "continue where the last session left off"
	if args := req.Params.Arguments; args != nil {
		if t, ok := args["task"]; ok && t != "" {
			task = t
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Resume with context: %s", task),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'm starting a work session. My task: %s\n\n"+
						"Please:\n"+
						"1. Run `recall_context` with task='%s' to load relevant stored context\n"+
						"2. Run `recall_todo_state` to see where the checklist stands\n"+
						"3. Summarize what you learned in a few lines before we start\n"+
						"4. At the end of the session, record what happened with `recall_journal` "+
						"and `recall_session_summary`",
					task, task,
				)),
			},
		},
	}, nil
}
