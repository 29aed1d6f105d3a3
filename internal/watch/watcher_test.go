package watch

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/sdd-recall/internal/memory"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 16)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%16]++
	}
	return vec, nil
}

func (staticEmbedder) Dimensions() int { return 16 }

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New(memory.Config{
		DataDir:      t.TempDir(),
		SectionLimit: 5,
		JournalLimit: 3,
		SessionLimit: 5,
	}, staticEmbedder{})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_ReindexesOnWrite(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	require.NoError(t, os.WriteFile(path, []byte("## Setup\n\n- [ ] install deps\n"), 0600))

	w, err := New(store, []string{path}, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("## Setup\n\n- [x] install deps\n- [ ] configure\n"), 0600))

	ok := waitFor(t, 3*time.Second, func() bool {
		snap := store.LatestSnapshot(ctx)
		return snap != nil && snap.TotalItems == 2
	})
	require.True(t, ok, "snapshot never appeared")

	snap := store.LatestSnapshot(ctx)
	assert.Equal(t, 50, snap.OverallCompletionPct)

	secs, err := store.ChecklistSectionsBySource(ctx, "TODO.md")
	require.NoError(t, err)
	require.Len(t, secs, 1)
	assert.Equal(t, "Setup", secs[0].Name)
}

func TestWatcher_PicksUpCreatedFile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")

	w, err := New(store, []string{path}, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("## Later\n\n- [ ] a task\n"), 0600))

	ok := waitFor(t, 3*time.Second, func() bool {
		return store.LatestSnapshot(ctx) != nil
	})
	assert.True(t, ok, "created file was not indexed")
}

func TestWatcher_IgnoresUntrackedFiles(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	tracked := filepath.Join(dir, "TODO.md")
	other := filepath.Join(dir, "NOTES.md")
	require.NoError(t, os.WriteFile(tracked, []byte("## A\n\n- [ ] x\n"), 0600))

	w, err := New(store, []string{tracked}, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(other, []byte("## B\n\n- [ ] y\n"), 0600))
	time.Sleep(300 * time.Millisecond)

	assert.Nil(t, store.LatestSnapshot(ctx), "untracked file must not trigger indexing")
}
