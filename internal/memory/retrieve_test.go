package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/sdd-recall/internal/markdown"
)

func TestStore_ContextBundle(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	sections := markdown.ParseSections(
		"# Migrations\n\nSchema migration strategy for the ledger service.\n", "arch")
	require.NoError(t, s.IndexSections(ctx, sections, "arch.md"))

	_, err := s.StoreJournalEntry(ctx, JournalEntry{
		Summary: "Wrote the ledger migration runner",
		Content: "Migration runner applies schema files in order.",
	})
	require.NoError(t, err)

	_, err = s.StoreSessionSummary(ctx, SessionSummary{
		Summary:   "Ledger schema work",
		NextSteps: []string{"wire migration runner into startup"},
	})
	require.NoError(t, err)

	state := markdown.ParseChecklist("## Ledger\n\n- [x] design schema\n- [ ] migration runner\n")
	state.Timestamp = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	_, err = s.SnapshotChecklist(ctx, state)
	require.NoError(t, err)

	bundle := s.ContextBundle(ctx, "ledger schema migration")
	assert.Equal(t, "ledger schema migration", bundle.Query)
	assert.False(t, bundle.GeneratedAt.IsZero())
	require.Len(t, bundle.RecentSessions, 1)
	require.NotNil(t, bundle.TodoState)
	assert.Equal(t, 50, bundle.TodoState.OverallCompletionPct)
	require.NotEmpty(t, bundle.RelevantSections)
	assert.Equal(t, "Migrations", bundle.RelevantSections[0].Title)
	require.NotEmpty(t, bundle.RelevantJournal)
}

func TestStore_ContextBundle_EmptyStore(t *testing.T) {
	s, _ := newTestStore(t)

	bundle := s.ContextBundle(context.Background(), "anything")
	assert.Equal(t, "anything", bundle.Query)
	assert.Empty(t, bundle.RecentSessions)
	assert.Nil(t, bundle.TodoState)
	assert.Empty(t, bundle.RelevantSections)
	assert.Empty(t, bundle.RelevantJournal)
}

func TestStore_ContextBundle_FailingSubQuery(t *testing.T) {
	s, emb := newTestStore(t)
	ctx := context.Background()

	_, err := s.StoreSessionSummary(ctx, SessionSummary{Summary: "recent work"})
	require.NoError(t, err)

	// The next Embed call fails; whichever similarity sub-query takes
	// it comes back empty, the non-embedding sub-queries still answer.
	emb.failNext = true
	bundle := s.ContextBundle(ctx, "query")
	assert.Len(t, bundle.RecentSessions, 1)
}

func TestStore_SearchSections_EmbedderDown(t *testing.T) {
	s, emb := newTestStore(t)
	ctx := context.Background()

	sections := markdown.ParseSections("# A\n\nbody text\n", "doc")
	require.NoError(t, s.IndexSections(ctx, sections, "doc.md"))

	emb.failNext = true
	assert.Empty(t, s.SearchSections(ctx, "body", 5))

	// Recovers once the embedder is back.
	assert.NotEmpty(t, s.SearchSections(ctx, "body", 5))
}

func TestStore_SearchChecklistSections(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	state := markdown.ParseChecklist(
		"## Observability\n\n- [ ] structured request logs\n\n## Caching\n\n- [x] response cache layer\n")
	require.NoError(t, s.IndexChecklistSections(ctx,
		IndexableChecklistSections(state.Sections, "todo.md")))

	matches := s.SearchChecklistSections(ctx, "request logs observability", 5)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Observability", matches[0].Name)
	assert.Equal(t, "todo.md", matches[0].SourceFile)
	require.Len(t, matches[0].Items, 1)
	assert.Equal(t, "structured request logs", matches[0].Items[0].Description)
}

func TestStore_IsAvailable(t *testing.T) {
	s, _ := newTestStore(t)
	assert.True(t, s.IsAvailable(context.Background()))
}

func TestStore_Stats(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.IndexSections(ctx,
		markdown.ParseSections("# One\n\nbody\n\n# Two\n\nbody\n", "d"), "d.md"))
	_, err := s.StoreJournalEntry(ctx, JournalEntry{Summary: "s", Content: "c"})
	require.NoError(t, err)

	st := s.Stats(ctx)
	assert.Equal(t, 2, st.Sections)
	assert.Equal(t, 1, st.JournalEntries)
	assert.Zero(t, st.Snapshots)
	assert.Zero(t, st.SessionSummaries)
}

func TestFormatBundle(t *testing.T) {
	state := markdown.ParseChecklist("## Rollout\n\n- [x] stage deploy\n- [ ] prod deploy\n")
	b := ContextBundle{
		Query:       "deploy",
		GeneratedAt: time.Now(),
		RecentSessions: []SessionSummary{{
			Timestamp: time.Date(2026, 8, 28, 16, 0, 0, 0, time.UTC),
			Summary:   "Staged the deploy",
			NextSteps: []string{"verify canary"},
		}},
		TodoState: &Snapshot{ID: "snapshot-x", ChecklistState: state},
		RelevantSections: []SectionMatch{{
			Section: markdown.Section{Title: "Rollout Runbook", Content: "Steps for prod rollout."},
			Score:   0.91,
		}},
		RelevantJournal: []JournalMatch{{
			JournalEntry: JournalEntry{
				Timestamp: time.Date(2026, 8, 27, 0, 0, 0, 0, time.UTC),
				Summary:   "Built deploy tooling",
			},
			Score: 0.85,
		}},
	}

	out := FormatBundle(b)
	assert.Contains(t, out, "# Session Context")
	assert.Contains(t, out, "Staged the deploy")
	assert.Contains(t, out, "next: verify canary")
	assert.Contains(t, out, "50% complete, 1/2 items")
	assert.Contains(t, out, "Rollout Runbook")
	assert.Contains(t, out, "Built deploy tooling")
}

func TestFormatBundle_Empty(t *testing.T) {
	out := FormatBundle(ContextBundle{})
	assert.Contains(t, out, "No stored context yet")
}
