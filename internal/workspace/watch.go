package workspace

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jward/zenls/internal/compile"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before applying them.
const DefaultDebounce = 200 * time.Millisecond

// Watcher applies file system changes under a set of directories to a
// Manager.
type Watcher struct {
	m        *Manager
	debounce time.Duration

	// OnApply, if set, is called after each applied event with its error.
	OnApply func(Event, error)
}

// NewWatcher creates a watcher for m. A non-positive debounce uses
// DefaultDebounce.
func NewWatcher(m *Manager, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{m: m, debounce: debounce}
}

// Watch blocks until ctx is done or the underlying watcher fails. New
// directories are watched as they appear.
func (w *Watcher) Watch(ctx context.Context, dirs ...string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, dir := range dirs {
		if err := addRecursive(fw, clean(dir)); err != nil {
			return err
		}
	}

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if event.Has(fsnotify.Create) {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					_ = addRecursive(fw, path)
					continue
				}
			}
			if compile.Classify(path) == compile.NotSource || ignored(path) {
				continue
			}
			if len(pending) > 0 && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			pending[path] = true
			timer.Reset(w.debounce)
		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]bool{}
			w.apply(ctx, paths)
		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return watchErr
		}
	}
}

// apply turns each settled path into a Created, Changed or Deleted event
// depending on whether the file exists and is already loaded.
func (w *Watcher) apply(ctx context.Context, paths []string) {
	for _, path := range paths {
		ev := Event{Kind: Changed, Path: path}
		if _, err := os.Stat(path); err != nil {
			ev.Kind = Deleted
		} else if !w.loaded(path) {
			ev.Kind = Created
		}
		err := w.m.Apply(ctx, ev)
		if err != nil {
			log.Errorf("applying %s %s: %s", ev.Kind, path, err)
		}
		if w.OnApply != nil {
			w.OnApply(ev, err)
		}
	}
}

func (w *Watcher) loaded(path string) bool {
	env, err := w.m.Environment(path)
	if err != nil {
		return false
	}
	var ok bool
	env.Read(func() { ok = env.Unit(path) != nil })
	return ok
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		name := entry.Name()
		if path != root && (strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor") {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".#") || strings.HasSuffix(base, ".swp")
}
