// Package memory implements the persistent context index for SDD-Recall.
//
// It embeds parsed markdown fragments (document sections, checklist
// sections, journal entries, session summaries) into vectors and stores
// them in SQLite, answering similarity queries and assembling a combined
// context bundle for AI coding agents.
//
// Error policy is asymmetric by direction of data flow: write paths fail
// loudly (every error propagates — a silently lost write is a data-loss
// bug), while exported read paths absorb failures and return empty
// results so one failing collection never blocks bundle assembly.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/sdd-recall/internal/markdown"
)

// placeholderID marks the schema-priming row inserted into every
// collection on creation. All reads exclude it.
const placeholderID = "__schema__"

// timeLayout is fixed-width so stored timestamps sort lexicographically
// in chronological order. RFC3339Nano trims trailing zeros and breaks
// that property.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Collection names, one per table.
const (
	CollectionSections          = "doc_sections"
	CollectionSnapshots         = "checklist_snapshots"
	CollectionChecklistSections = "checklist_sections"
	CollectionJournal           = "journal_entries"
	CollectionSessions          = "session_summaries"
)

// ─── Types ───────────────────────────────────────────────────────────────────

// JournalEntry is a full session journal record. Entries are immutable
// once stored — the journal collection is append-only.
type JournalEntry struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	Summary       string    `json:"summary"`
	Content       string    `json:"content"`
	Topics        []string  `json:"topics,omitempty"`
	WorkCompleted []string  `json:"work_completed,omitempty"`
	OpenItems     []string  `json:"open_items,omitempty"`
	Embedding     []float32 `json:"-"`
}

// SessionSummary is a lighter-weight record for fast "what happened
// recently" lookups, distinct from full journal entries.
type SessionSummary struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Summary    string    `json:"summary"`
	FocusAreas []string  `json:"focus_areas,omitempty"`
	NextSteps  []string  `json:"next_steps,omitempty"`
}

// IndexedChecklistSection is a ChecklistSection enriched with the full
// checklist text of its items and its source file. It is the unit of
// semantic indexing for checklist content; raw snapshots are stored
// separately for point-in-time history, not search.
type IndexedChecklistSection struct {
	markdown.ChecklistSection
	Content    string `json:"content"`
	SourceFile string `json:"source_file"`
}

// Snapshot is one stored point-in-time capture of a checklist document.
type Snapshot struct {
	ID string `json:"id"`
	markdown.ChecklistState
}

// Stats holds per-collection row counts, excluding placeholder rows.
type Stats struct {
	Sections          int `json:"sections"`
	Snapshots         int `json:"snapshots"`
	ChecklistSections int `json:"checklist_sections"`
	JournalEntries    int `json:"journal_entries"`
	SessionSummaries  int `json:"session_summaries"`
}

// Embedder is the provider boundary: a single call taking text to a
// fixed-length float vector. The store never sees the wire format.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds context store configuration.
type Config struct {
	DataDir      string
	SectionLimit int // top-N similar document sections in a bundle
	JournalLimit int // top-N similar journal entries in a bundle
	SessionLimit int // recent session summaries in a bundle
}

// DefaultConfig returns the default configuration for the context store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:      filepath.Join(home, ".recall"),
		SectionLimit: 5,
		JournalLimit: 3,
		SessionLimit: 5,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent context index backed by SQLite.
//
// The database handle is opened lazily and exactly once per Store: the
// first operation to need it wins, and concurrent callers racing before
// the first open resolves all observe the same handle or the same error.
type Store struct {
	cfg      Config
	embedder Embedder

	openOnce sync.Once
	db       *sql.DB
	openErr  error
}

// New creates a Store with the given configuration and embedding
// provider. No I/O happens until the first operation (or Initialize).
func New(cfg Config, embedder Embedder) *Store {
	return &Store{cfg: cfg, embedder: embedder}
}

// Initialize opens the store eagerly: it creates the data directory if
// absent and creates any missing collection with its schema-priming
// placeholder row. Idempotent — running it against an existing store
// neither fails nor duplicates schema.
func (s *Store) Initialize(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

// Close closes the underlying database connection if one was opened.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// conn returns the lazily-opened database handle. The open runs at most
// once per Store; its outcome (handle or error) is memoized.
func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	s.openOnce.Do(func() {
		s.db, s.openErr = s.open(ctx)
	})
	if s.openErr != nil {
		return nil, s.openErr
	}
	return s.db, nil
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	if err := os.MkdirAll(s.cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(s.cfg.DataDir, "recall.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: open store at %s: %w", dbPath, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("memory: pragma %q: %w", p, err)
		}
	}

	if err := s.migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return db, nil
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context, db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS doc_sections (
			id             TEXT    NOT NULL,
			source_file    TEXT    NOT NULL DEFAULT '',
			title          TEXT    NOT NULL,
			content        TEXT    NOT NULL,
			section_number INTEGER NOT NULL DEFAULT 0,
			parent_section TEXT,
			embedding      BLOB    NOT NULL,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_sections_source ON doc_sections(source_file);

		CREATE TABLE IF NOT EXISTS checklist_snapshots (
			id              TEXT    PRIMARY KEY,
			captured_at     TEXT    NOT NULL,
			sections        TEXT    NOT NULL,
			total_items     INTEGER NOT NULL DEFAULT 0,
			completed_items INTEGER NOT NULL DEFAULT 0,
			overall_pct     INTEGER NOT NULL DEFAULT 0,
			embedding       BLOB    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snapshots_captured ON checklist_snapshots(captured_at DESC);

		CREATE TABLE IF NOT EXISTS checklist_sections (
			id             TEXT    NOT NULL,
			source_file    TEXT    NOT NULL DEFAULT '',
			section_id     TEXT    NOT NULL,
			name           TEXT    NOT NULL,
			content        TEXT    NOT NULL,
			items          TEXT    NOT NULL,
			completion_pct INTEGER NOT NULL DEFAULT 0,
			embedding      BLOB    NOT NULL,
			indexed_at     TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_checklist_source ON checklist_sections(source_file);

		CREATE TABLE IF NOT EXISTS journal_entries (
			id             TEXT PRIMARY KEY,
			created_at     TEXT NOT NULL,
			summary        TEXT NOT NULL,
			content        TEXT NOT NULL,
			topics         TEXT NOT NULL DEFAULT '[]',
			work_completed TEXT NOT NULL DEFAULT '[]',
			open_items     TEXT NOT NULL DEFAULT '[]',
			embedding      BLOB NOT NULL
		);

		CREATE TABLE IF NOT EXISTS session_summaries (
			id          TEXT PRIMARY KEY,
			created_at  TEXT NOT NULL,
			summary     TEXT NOT NULL,
			focus_areas TEXT NOT NULL DEFAULT '[]',
			next_steps  TEXT NOT NULL DEFAULT '[]',
			embedding   BLOB NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return s.primePlaceholders(ctx, db)
}

// primePlaceholders inserts the schema-priming zero row into any
// collection that doesn't have one yet, so each collection's shape is
// fixed before real writes occur.
func (s *Store) primePlaceholders(ctx context.Context, db *sql.DB) error {
	zero := vectorToBlob(make([]float32, s.embedder.Dimensions()))

	inserts := []struct {
		table string
		query string
	}{
		{CollectionSections,
			`INSERT INTO doc_sections (id, title, content, embedding) VALUES (?, '', '', ?)`},
		{CollectionSnapshots,
			`INSERT INTO checklist_snapshots (id, captured_at, sections, embedding) VALUES (?, '', '[]', ?)`},
		{CollectionChecklistSections,
			`INSERT INTO checklist_sections (id, section_id, name, content, items, embedding) VALUES (?, '', '', '', '[]', ?)`},
		{CollectionJournal,
			`INSERT INTO journal_entries (id, created_at, summary, content, embedding) VALUES (?, '', '', '', ?)`},
		{CollectionSessions,
			`INSERT INTO session_summaries (id, created_at, summary, embedding) VALUES (?, '', '', ?)`},
	}

	for _, ins := range inserts {
		var n int
		err := db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", ins.table), placeholderID,
		).Scan(&n)
		if err != nil {
			return fmt.Errorf("checking placeholder in %s: %w", ins.table, err)
		}
		if n > 0 {
			continue
		}
		if _, err := db.ExecContext(ctx, ins.query, placeholderID, zero); err != nil {
			return fmt.Errorf("priming %s: %w", ins.table, err)
		}
	}
	return nil
}

// ─── Write paths ─────────────────────────────────────────────────────────────
//
// All write operations fail loudly. A batch stops at the first failing
// record and names it; records embedded and appended before the failure
// remain stored, so partial indexing is detectable by the caller.

// IndexSections embeds and appends parsed document sections to the
// document-sections collection. The embedding input for each section is
// its title and content joined by a newline.
func (s *Store) IndexSections(ctx context.Context, sections []markdown.Section, sourceFile string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	for _, sec := range sections {
		vec, err := s.embedder.Embed(ctx, sec.Title+"\n"+sec.Content)
		if err != nil {
			return fmt.Errorf("memory: embed section %q: %w", sec.ID, err)
		}
		_, err = db.ExecContext(ctx,
			`INSERT INTO doc_sections (id, source_file, title, content, section_number, parent_section, embedding)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sec.ID, sourceFile, sec.Title, sec.Content, sec.SectionNumber,
			nullableString(sec.ParentSection), vectorToBlob(vec),
		)
		if err != nil {
			return fmt.Errorf("memory: index section %q: %w", sec.ID, err)
		}
	}
	return nil
}

// SnapshotChecklist appends one snapshot row capturing the full
// checklist state. Always an append, never an update; the id is derived
// from the capture time. Returns the snapshot id.
func (s *Store) SnapshotChecklist(ctx context.Context, state markdown.ChecklistState) (string, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return "", err
	}

	captured := state.Timestamp.UTC()
	id := "snapshot-" + captured.Format("20060102T150405.000000000")

	sectionsJSON, err := marshalChecklistSections(state.Sections)
	if err != nil {
		return "", fmt.Errorf("memory: encode snapshot sections: %w", err)
	}

	// Snapshots are history, not search targets; they carry a zero
	// vector to keep the collection's row shape uniform.
	zero := vectorToBlob(make([]float32, s.embedder.Dimensions()))

	_, err = db.ExecContext(ctx,
		`INSERT INTO checklist_snapshots (id, captured_at, sections, total_items, completed_items, overall_pct, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, captured.Format(timeLayout), sectionsJSON,
		state.TotalItems, state.CompletedItems, state.OverallCompletionPct, zero,
	)
	if err != nil {
		return "", fmt.Errorf("memory: snapshot checklist: %w", err)
	}
	return id, nil
}

// IndexChecklistSections embeds and appends checklist sections for
// semantic search. The embedding input combines the section name with a
// line-per-item [DONE]/[TODO] rendering of the checklist text.
func (s *Store) IndexChecklistSections(ctx context.Context, sections []IndexedChecklistSection) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	for _, sec := range sections {
		content := sec.Content
		if content == "" {
			content = RenderChecklistItems(sec.Items)
		}

		vec, err := s.embedder.Embed(ctx, sec.Name+"\n"+content)
		if err != nil {
			return fmt.Errorf("memory: embed checklist section %q: %w", sec.SectionID, err)
		}

		itemsJSON, err := marshalChecklistItems(sec.Items)
		if err != nil {
			return fmt.Errorf("memory: encode items for %q: %w", sec.SectionID, err)
		}

		_, err = db.ExecContext(ctx,
			`INSERT INTO checklist_sections (id, source_file, section_id, name, content, items, completion_pct, embedding)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sec.SourceFile+"#"+sec.SectionID, sec.SourceFile, sec.SectionID,
			sec.Name, content, itemsJSON, sec.CompletionPct, vectorToBlob(vec),
		)
		if err != nil {
			return fmt.Errorf("memory: index checklist section %q: %w", sec.SectionID, err)
		}
	}
	return nil
}

// ReindexChecklistSections deletes all indexed checklist sections for
// sourceFile, then indexes the given sections. This is the only update
// path in the store and it is delete-then-insert, never in-place
// mutation: a reader querying between the delete and the insert observes
// a transient gap for that source file. The race is accepted.
func (s *Store) ReindexChecklistSections(ctx context.Context, sections []IndexedChecklistSection, sourceFile string) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM checklist_sections WHERE source_file = ?`, sourceFile,
	); err != nil {
		return fmt.Errorf("memory: clear checklist sections for %q: %w", sourceFile, err)
	}

	if len(sections) == 0 {
		return nil
	}
	return s.IndexChecklistSections(ctx, sections)
}

// StoreJournalEntry embeds and appends one journal entry. The journal
// is append-only; no update or delete path exists. A missing id or
// timestamp is filled in. Returns the entry id.
func (s *Store) StoreJournalEntry(ctx context.Context, entry JournalEntry) (string, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return "", err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	input := strings.Join([]string{
		entry.Summary,
		entry.Content,
		strings.Join(entry.Topics, ", "),
		strings.Join(entry.WorkCompleted, "\n"),
		strings.Join(entry.OpenItems, "\n"),
	}, "\n")

	vec, err := s.embedder.Embed(ctx, input)
	if err != nil {
		return "", fmt.Errorf("memory: embed journal entry: %w", err)
	}

	topics, err := marshalStrings(entry.Topics)
	if err != nil {
		return "", fmt.Errorf("memory: encode topics: %w", err)
	}
	work, err := marshalStrings(entry.WorkCompleted)
	if err != nil {
		return "", fmt.Errorf("memory: encode work_completed: %w", err)
	}
	open, err := marshalStrings(entry.OpenItems)
	if err != nil {
		return "", fmt.Errorf("memory: encode open_items: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, created_at, summary, content, topics, work_completed, open_items, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.UTC().Format(timeLayout),
		entry.Summary, entry.Content, topics, work, open, vectorToBlob(vec),
	)
	if err != nil {
		return "", fmt.Errorf("memory: store journal entry: %w", err)
	}
	return entry.ID, nil
}

// StoreSessionSummary embeds and appends one session summary.
// Append-only, like journal entries. Returns the summary id.
func (s *Store) StoreSessionSummary(ctx context.Context, sum SessionSummary) (string, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return "", err
	}

	if sum.ID == "" {
		sum.ID = uuid.NewString()
	}
	if sum.Timestamp.IsZero() {
		sum.Timestamp = time.Now().UTC()
	}

	input := strings.Join([]string{
		sum.Summary,
		strings.Join(sum.FocusAreas, ", "),
		strings.Join(sum.NextSteps, "\n"),
	}, "\n")

	vec, err := s.embedder.Embed(ctx, input)
	if err != nil {
		return "", fmt.Errorf("memory: embed session summary: %w", err)
	}

	focus, err := marshalStrings(sum.FocusAreas)
	if err != nil {
		return "", fmt.Errorf("memory: encode focus_areas: %w", err)
	}
	next, err := marshalStrings(sum.NextSteps)
	if err != nil {
		return "", fmt.Errorf("memory: encode next_steps: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO session_summaries (id, created_at, summary, focus_areas, next_steps, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sum.ID, sum.Timestamp.UTC().Format(timeLayout),
		sum.Summary, focus, next, vectorToBlob(vec),
	)
	if err != nil {
		return "", fmt.Errorf("memory: store session summary: %w", err)
	}
	return sum.ID, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// IndexableChecklistSections converts parsed checklist sections into
// the enriched indexing units for a given source file.
func IndexableChecklistSections(sections []markdown.ChecklistSection, sourceFile string) []IndexedChecklistSection {
	out := make([]IndexedChecklistSection, 0, len(sections))
	for _, sec := range sections {
		out = append(out, IndexedChecklistSection{
			ChecklistSection: sec,
			Content:          RenderChecklistItems(sec.Items),
			SourceFile:       sourceFile,
		})
	}
	return out
}

// RenderChecklistItems renders items one per line as
// "[DONE] description" / "[TODO] description".
func RenderChecklistItems(items []markdown.ChecklistItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		marker := "[TODO]"
		if it.Completed {
			marker = "[DONE]"
		}
		lines = append(lines, marker+" "+it.Description)
	}
	return strings.Join(lines, "\n")
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Truncate shortens a string to max length with an ellipsis.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
