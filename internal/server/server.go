// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on
// abstractions. No business logic lives here — only wiring.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/sdd-recall/internal/config"
	"github.com/HendryAvila/sdd-recall/internal/embedding"
	"github.com/HendryAvila/sdd-recall/internal/memory"
	"github.com/HendryAvila/sdd-recall/internal/memtools"
	"github.com/HendryAvila/sdd-recall/internal/prompts"
	"github.com/HendryAvila/sdd-recall/internal/resources"
	"github.com/HendryAvila/sdd-recall/internal/watch"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function stops the file watcher (if enabled) and
// closes the context store, and must be called on shutdown (typically
// via defer). It is always non-nil and safe to call.
func New() (*server.MCPServer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, noop, fmt.Errorf("loading config: %w", err)
	}

	// --- Create shared dependencies ---

	embedder := embedding.NewClient(embedding.Config{
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSeconds) * time.Second,
	})

	store := memory.New(memory.Config{
		DataDir:      cfg.DataDir,
		SectionLimit: cfg.Retrieval.SectionLimit,
		JournalLimit: cfg.Retrieval.JournalLimit,
		SessionLimit: cfg.Retrieval.SessionLimit,
	}, embedder)

	// The store opens lazily; a provider or disk problem surfaces on
	// first use, not at startup. The server still comes up so the
	// status tool can report what is wrong.
	if err := store.Initialize(context.Background()); err != nil {
		log.Printf("WARNING: context store unavailable at startup: %v", err)
	}

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: context store close: %v", err)
		}
	}

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"sdd-recall",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	indexDoc := memtools.NewIndexDocumentTool(store)
	s.AddTool(indexDoc.Definition(), indexDoc.Handle)

	indexChecklist := memtools.NewIndexChecklistTool(store)
	s.AddTool(indexChecklist.Definition(), indexChecklist.Handle)

	journal := memtools.NewJournalTool(store)
	s.AddTool(journal.Definition(), journal.Handle)

	sessionSummary := memtools.NewSessionSummaryTool(store)
	s.AddTool(sessionSummary.Definition(), sessionSummary.Handle)

	search := memtools.NewSearchTool(store)
	s.AddTool(search.Definition(), search.Handle)

	contextTool := memtools.NewContextTool(store)
	s.AddTool(contextTool.Definition(), contextTool.Handle)

	todoState := memtools.NewTodoStateTool(store)
	s.AddTool(todoState.Definition(), todoState.Handle)

	status := memtools.NewStatusTool(store, embedder)
	s.AddTool(status.Definition(), status.Handle)

	// --- Register prompts ---

	resume := prompts.NewResumePrompt()
	s.AddPrompt(resume.Definition(), resume.Handle)

	wrapUp := prompts.NewWrapUpPrompt()
	s.AddPrompt(wrapUp.Definition(), wrapUp.Handle)

	// --- Register resources ---

	handler := resources.NewHandler(store)
	s.AddResource(handler.StatusResource(), handler.HandleStatus)
	s.AddResource(handler.TodoResource(), handler.HandleTodo)

	// --- Start the checklist watcher ---
	//
	// The watcher is optional: if it cannot start, indexing still works
	// through the tools. Only explicit configuration enables it.

	if cfg.Watch.Enabled && len(cfg.Watch.Paths) > 0 {
		watcher, err := watch.New(store, cfg.Watch.Paths,
			time.Duration(cfg.Watch.DebounceMS)*time.Millisecond)
		if err != nil {
			log.Printf("WARNING: checklist watcher disabled: %v", err)
		} else if err := watcher.Start(context.Background()); err != nil {
			log.Printf("WARNING: checklist watcher disabled: %v", err)
		} else {
			storeCleanup := cleanup
			cleanup = func() {
				watcher.Stop()
				storeCleanup()
			}
		}
	}

	return s, cleanup, nil
}

// noop is a no-op cleanup function returned on early failures.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the context index effectively.
func serverInstructions() string {
	return `You have access to SDD-Recall, a persistent context index for coding sessions.
Context survives between conversations — use it so the user never has to repeat themselves.

## SESSION START
Call recall_context FIRST when beginning work. Pass a short description of the task.
It returns recent session summaries, the current todo state, and the documentation
sections and journal entries most relevant to the task. Follow with recall_todo_state
if you need the full checklist.

## DURING THE SESSION
- recall_search: semantic search over indexed docs, journal, and checklists.
  Use it before architectural decisions or when the user references past work.
- recall_index_document: index markdown docs (architecture notes, specs, READMEs)
  when you encounter or write them. Sections are split on #/##/### headings.
- recall_index_checklist: capture the project's todo checklist after meaningful
  edits. Stores a completion snapshot and refreshes the searchable sections.

## SESSION END (do this PROACTIVELY, don't wait to be asked)
1. recall_journal — summary, full narrative, topics, work_completed, open_items
2. recall_session_summary — headline, focus_areas, next_steps
3. recall_index_checklist — if the checklist changed

## DIAGNOSTICS
recall_status reports store availability, record counts, and whether the embedding
provider (Ollama) is reachable. If searches come back empty, check it.

## IMPORTANT
- Write REAL content to the journal — never placeholders.
- Journal entries and summaries are append-only; record facts, not drafts.
- Retrieval degrades gracefully: empty results mean nothing relevant is stored,
  not necessarily an error.`
}
