// Package watch keeps indexed checklists in sync with their files.
//
// A Watcher monitors configured checklist files with fsnotify and, after
// a debounce window, re-parses each changed file, stores a completion
// snapshot, and replaces its indexed sections. Editors that write via
// rename (vim, VS Code atomic save) drop the watch on the old inode, so
// the parent directory is watched and events are filtered by file name.
package watch

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/HendryAvila/sdd-recall/internal/markdown"
	"github.com/HendryAvila/sdd-recall/internal/memory"
)

// defaultDebounce is the delay before reindexing after a change burst.
const defaultDebounce = 500 * time.Millisecond

// Watcher monitors checklist files and reindexes them on change.
type Watcher struct {
	store    *memory.Store
	paths    map[string]string // absolute path -> recorded source name
	debounce time.Duration

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// debounce state
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]struct{} // absolute paths changed since last flush
}

// New creates a Watcher for the given checklist files. debounce <= 0
// uses the default.
func New(store *memory.Store, paths []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		store:    store,
		paths:    make(map[string]string, len(paths)),
		debounce: debounce,
		fsw:      fsw,
		pending:  make(map[string]struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		w.paths[abs] = filepath.Base(p)
	}
	return w, nil
}

// Start begins watching. Missing files are tolerated: their directories
// are watched, so they get picked up once created.
func (w *Watcher) Start(ctx context.Context) error {
	dirs := make(map[string]struct{})
	for abs := range w.paths {
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	watched := 0
	for dir := range dirs {
		if err := w.fsw.Add(dir); err != nil {
			if !os.IsNotExist(err) {
				log.Printf("WARNING: watch: cannot watch dir %s: %v", dir, err)
			}
			continue
		}
		watched++
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	log.Printf("watch: started (%d file(s), %d dir(s) watched)", len(w.paths), watched)
	return nil
}

// Stop shuts down the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.fsw.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("WARNING: watch: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if _, tracked := w.paths[abs]; !tracked {
		return
	}

	w.schedule(ctx, abs)
}

// schedule debounces reindexing: a burst of writes to one file flushes
// once after the quiet period.
func (w *Watcher) schedule(ctx context.Context, abs string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[abs] = struct{}{}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.flush(ctx)
	})
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	changed := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	for abs := range changed {
		if err := w.reindex(ctx, abs); err != nil {
			log.Printf("WARNING: watch: reindex %s: %v", abs, err)
		}
	}
}

func (w *Watcher) reindex(ctx context.Context, abs string) error {
	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}
	source := w.paths[abs]

	state := markdown.ParseChecklist(string(data))
	state.Timestamp = time.Now().UTC()

	if _, err := w.store.SnapshotChecklist(ctx, state); err != nil {
		return err
	}
	sections := memory.IndexableChecklistSections(state.Sections, source)
	if err := w.store.ReindexChecklistSections(ctx, sections, source); err != nil {
		return err
	}

	log.Printf("watch: reindexed %s (%d section(s), %d%% complete)",
		source, len(sections), state.OverallCompletionPct)
	return nil
}
