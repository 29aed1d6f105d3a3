package memory

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/HendryAvila/sdd-recall/internal/markdown"
)

// ─── Match types ─────────────────────────────────────────────────────────────

// SectionMatch is a document section with its similarity score.
type SectionMatch struct {
	markdown.Section
	SourceFile string  `json:"source_file"`
	Score      float64 `json:"score"`
}

// JournalMatch is a journal entry with its similarity score.
type JournalMatch struct {
	JournalEntry
	Score float64 `json:"score"`
}

// ChecklistMatch is an indexed checklist section with its similarity score.
type ChecklistMatch struct {
	IndexedChecklistSection
	Score float64 `json:"score"`
}

// ContextBundle is the combined retrieval product handed to an agent at
// session start: recent session summaries, the latest todo snapshot,
// and the document sections and journal entries most similar to the
// stated task. Any field may be empty; an empty bundle is a valid
// answer against an empty store.
type ContextBundle struct {
	Query            string           `json:"query"`
	GeneratedAt      time.Time        `json:"generated_at"`
	RecentSessions   []SessionSummary `json:"recent_sessions,omitempty"`
	TodoState        *Snapshot        `json:"todo_state,omitempty"`
	RelevantSections []SectionMatch   `json:"relevant_sections,omitempty"`
	RelevantJournal  []JournalMatch   `json:"relevant_journal,omitempty"`
}

// ─── Read paths ──────────────────────────────────────────────────────────────
//
// Exported read operations absorb failures: on any error they log a
// warning and return empty results. A missing collection, a corrupt
// row, or an unreachable embedder degrades retrieval, it never aborts.

// SearchSections returns the document sections most similar to the
// query, best first.
func (s *Store) SearchSections(ctx context.Context, query string, limit int) []SectionMatch {
	matches, err := s.searchSections(ctx, query, limit)
	if err != nil {
		log.Printf("WARNING: memory: section search: %v", err)
		return nil
	}
	return matches
}

func (s *Store) searchSections(ctx context.Context, query string, limit int) ([]SectionMatch, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, source_file, title, content, section_number, parent_section, embedding
		 FROM doc_sections WHERE id != ?`, placeholderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []SectionMatch
	for rows.Next() {
		var m SectionMatch
		var parent sql.NullString
		var blob []byte
		if err := rows.Scan(&m.ID, &m.SourceFile, &m.Title, &m.Content,
			&m.SectionNumber, &parent, &blob); err != nil {
			return nil, err
		}
		m.ParentSection = parent.String

		vec, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", m.ID, err)
		}
		m.Score = cosineSimilarity(queryVec, vec)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sortAndCap(matches, limit, func(m SectionMatch) float64 { return m.Score }), nil
}

// SearchJournal returns the journal entries most similar to the query,
// best first.
func (s *Store) SearchJournal(ctx context.Context, query string, limit int) []JournalMatch {
	matches, err := s.searchJournal(ctx, query, limit)
	if err != nil {
		log.Printf("WARNING: memory: journal search: %v", err)
		return nil
	}
	return matches
}

func (s *Store) searchJournal(ctx context.Context, query string, limit int) ([]JournalMatch, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, created_at, summary, content, topics, work_completed, open_items, embedding
		 FROM journal_entries WHERE id != ?`, placeholderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []JournalMatch
	for rows.Next() {
		var m JournalMatch
		var created, topics, work, open string
		var blob []byte
		if err := rows.Scan(&m.ID, &created, &m.Summary, &m.Content,
			&topics, &work, &open, &blob); err != nil {
			return nil, err
		}
		m.Timestamp, _ = time.Parse(timeLayout, created)
		m.Topics = unmarshalStrings(topics)
		m.WorkCompleted = unmarshalStrings(work)
		m.OpenItems = unmarshalStrings(open)

		vec, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("journal entry %q: %w", m.ID, err)
		}
		m.Score = cosineSimilarity(queryVec, vec)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sortAndCap(matches, limit, func(m JournalMatch) float64 { return m.Score }), nil
}

// SearchChecklistSections returns the indexed checklist sections most
// similar to the query, best first.
func (s *Store) SearchChecklistSections(ctx context.Context, query string, limit int) []ChecklistMatch {
	matches, err := s.searchChecklistSections(ctx, query, limit)
	if err != nil {
		log.Printf("WARNING: memory: checklist search: %v", err)
		return nil
	}
	return matches
}

func (s *Store) searchChecklistSections(ctx context.Context, query string, limit int) ([]ChecklistMatch, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT source_file, section_id, name, content, items, completion_pct, embedding
		 FROM checklist_sections WHERE id != ?`, placeholderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []ChecklistMatch
	for rows.Next() {
		var m ChecklistMatch
		var items string
		var blob []byte
		if err := rows.Scan(&m.SourceFile, &m.SectionID, &m.Name, &m.Content,
			&items, &m.CompletionPct, &blob); err != nil {
			return nil, err
		}
		m.Items = unmarshalChecklistItems(items)

		vec, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("checklist section %q: %w", m.SectionID, err)
		}
		m.Score = cosineSimilarity(queryVec, vec)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sortAndCap(matches, limit, func(m ChecklistMatch) float64 { return m.Score }), nil
}

// LatestSnapshot returns the most recently captured checklist snapshot
// by stored capture time, not by insertion order. Returns nil when no
// snapshots exist.
func (s *Store) LatestSnapshot(ctx context.Context) *Snapshot {
	snap, err := s.latestSnapshot(ctx)
	if err != nil {
		log.Printf("WARNING: memory: latest snapshot: %v", err)
		return nil
	}
	return snap
}

func (s *Store) latestSnapshot(ctx context.Context) (*Snapshot, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	var captured, sections string
	err = db.QueryRowContext(ctx,
		`SELECT id, captured_at, sections, total_items, completed_items, overall_pct
		 FROM checklist_snapshots WHERE id != ?
		 ORDER BY captured_at DESC LIMIT 1`, placeholderID,
	).Scan(&snap.ID, &captured, &sections,
		&snap.TotalItems, &snap.CompletedItems, &snap.OverallCompletionPct)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap.Timestamp, _ = time.Parse(timeLayout, captured)
	snap.Sections = unmarshalChecklistSections(sections)
	return &snap, nil
}

// RecentSessionSummaries returns the newest session summaries, most
// recent first.
func (s *Store) RecentSessionSummaries(ctx context.Context, limit int) []SessionSummary {
	sums, err := s.recentSessionSummaries(ctx, limit)
	if err != nil {
		log.Printf("WARNING: memory: recent sessions: %v", err)
		return nil
	}
	return sums
}

func (s *Store) recentSessionSummaries(ctx context.Context, limit int) ([]SessionSummary, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.SessionLimit
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, created_at, summary, focus_areas, next_steps
		 FROM session_summaries WHERE id != ?
		 ORDER BY created_at DESC LIMIT ?`, placeholderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sums []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var created, focus, next string
		if err := rows.Scan(&sum.ID, &created, &sum.Summary, &focus, &next); err != nil {
			return nil, err
		}
		sum.Timestamp, _ = time.Parse(timeLayout, created)
		sum.FocusAreas = unmarshalStrings(focus)
		sum.NextSteps = unmarshalStrings(next)
		sums = append(sums, sum)
	}
	return sums, rows.Err()
}

// ChecklistSectionsBySource returns the indexed checklist sections for
// one source file in insertion order. Used by the reindex path's
// callers to inspect what is currently indexed.
func (s *Store) ChecklistSectionsBySource(ctx context.Context, sourceFile string) ([]IndexedChecklistSection, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT source_file, section_id, name, content, items, completion_pct
		 FROM checklist_sections WHERE id != ? AND source_file = ?
		 ORDER BY rowid`, placeholderID, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("memory: checklist sections for %q: %w", sourceFile, err)
	}
	defer rows.Close()

	var out []IndexedChecklistSection
	for rows.Next() {
		var sec IndexedChecklistSection
		var items string
		if err := rows.Scan(&sec.SourceFile, &sec.SectionID, &sec.Name,
			&sec.Content, &items, &sec.CompletionPct); err != nil {
			return nil, fmt.Errorf("memory: scan checklist section: %w", err)
		}
		sec.Items = unmarshalChecklistItems(items)
		out = append(out, sec)
	}
	return out, rows.Err()
}

// ContextBundle assembles the session-start bundle for a query. The
// four sub-retrievals run concurrently and independently: a failure or
// empty result in one never affects the others, so the bundle is always
// returned, however sparse.
func (s *Store) ContextBundle(ctx context.Context, query string) ContextBundle {
	bundle := ContextBundle{
		Query:       query,
		GeneratedAt: time.Now().UTC(),
	}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		bundle.RecentSessions = s.RecentSessionSummaries(ctx, s.cfg.SessionLimit)
	}()
	go func() {
		defer wg.Done()
		bundle.TodoState = s.LatestSnapshot(ctx)
	}()
	go func() {
		defer wg.Done()
		bundle.RelevantSections = s.SearchSections(ctx, query, s.cfg.SectionLimit)
	}()
	go func() {
		defer wg.Done()
		bundle.RelevantJournal = s.SearchJournal(ctx, query, s.cfg.JournalLimit)
	}()

	wg.Wait()
	return bundle
}

// IsAvailable reports whether the store can be opened and queried. It
// never returns an error; any failure means unavailable.
func (s *Store) IsAvailable(ctx context.Context) bool {
	db, err := s.conn(ctx)
	if err != nil {
		return false
	}
	var n int
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM doc_sections WHERE id = ?`, placeholderID).Scan(&n)
	return err == nil
}

// Stats returns per-collection record counts, excluding placeholder
// rows. A failing count leaves that field at zero.
func (s *Store) Stats(ctx context.Context) Stats {
	var st Stats
	db, err := s.conn(ctx)
	if err != nil {
		log.Printf("WARNING: memory: stats: %v", err)
		return st
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{CollectionSections, &st.Sections},
		{CollectionSnapshots, &st.Snapshots},
		{CollectionChecklistSections, &st.ChecklistSections},
		{CollectionJournal, &st.JournalEntries},
		{CollectionSessions, &st.SessionSummaries},
	}
	for _, c := range counts {
		err := db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id != ?", c.table), placeholderID,
		).Scan(c.dst)
		if err != nil {
			log.Printf("WARNING: memory: count %s: %v", c.table, err)
		}
	}
	return st
}

// sortAndCap orders matches best-first and truncates to limit. A
// non-positive limit keeps everything.
func sortAndCap[T any](matches []T, limit int, score func(T) float64) []T {
	sort.SliceStable(matches, func(i, j int) bool {
		return score(matches[i]) > score(matches[j])
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// ─── Formatting ──────────────────────────────────────────────────────────────

// FormatBundle renders a context bundle as markdown for tool output.
func FormatBundle(b ContextBundle) string {
	var sb strings.Builder

	sb.WriteString("# Session Context\n\n")
	if b.Query != "" {
		sb.WriteString(fmt.Sprintf("Task: %s\n\n", b.Query))
	}

	if len(b.RecentSessions) > 0 {
		sb.WriteString("## Recent Sessions\n\n")
		for _, s := range b.RecentSessions {
			sb.WriteString(fmt.Sprintf("- **%s** — %s\n",
				s.Timestamp.Format("2006-01-02 15:04"), s.Summary))
			for _, step := range s.NextSteps {
				sb.WriteString(fmt.Sprintf("  - next: %s\n", step))
			}
		}
		sb.WriteString("\n")
	}

	if b.TodoState != nil {
		sb.WriteString(fmt.Sprintf("## Todo State (%d%% complete, %d/%d items)\n\n",
			b.TodoState.OverallCompletionPct, b.TodoState.CompletedItems, b.TodoState.TotalItems))
		for _, sec := range b.TodoState.Sections {
			sb.WriteString(fmt.Sprintf("- %s: %d%%\n", sec.Name, sec.CompletionPct))
		}
		sb.WriteString("\n")
	}

	if len(b.RelevantSections) > 0 {
		sb.WriteString("## Relevant Documentation\n\n")
		for _, m := range b.RelevantSections {
			sb.WriteString(fmt.Sprintf("### %s (%.2f)\n\n%s\n\n",
				m.Title, m.Score, Truncate(m.Content, 500)))
		}
	}

	if len(b.RelevantJournal) > 0 {
		sb.WriteString("## Relevant Journal Entries\n\n")
		for _, m := range b.RelevantJournal {
			sb.WriteString(fmt.Sprintf("- **%s** (%.2f) — %s\n",
				m.Timestamp.Format("2006-01-02"), m.Score, m.Summary))
		}
	}

	out := strings.TrimRight(sb.String(), "\n")
	if out == "# Session Context" {
		return "# Session Context\n\nNo stored context yet."
	}
	return out + "\n"
}
