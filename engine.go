package zenls

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jward/zenls/internal/bracket"
	"github.com/jward/zenls/internal/compile"
	"github.com/jward/zenls/internal/workspace"
)

// Engine is the entry point for editor tooling: it owns the workspaces and
// their compilation environments and answers queries against them.
type Engine struct {
	manager  *workspace.Manager
	brackets bracket.Service

	rootMarker  string
	namespace   string
	libraryDirs []string
	notify      Notifier

	// useParallel enables the parallel parse during bulk loads.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRootMarker sets the directory name that marks an environment root.
// Defaults to "scripts".
func WithRootMarker(name string) Option {
	return func(e *Engine) {
		e.rootMarker = name
	}
}

// WithScriptNamespace sets the prefix of qualified script names, e.g.
// "scripts" in scripts.recipes.helper. Defaults to "scripts".
func WithScriptNamespace(prefix string) Option {
	return func(e *Engine) {
		e.namespace = prefix
	}
}

// WithLibraryDirs sets the directories searched for library declaration
// units. By default each environment uses the "generated" directory next
// to its root.
func WithLibraryDirs(dirs ...string) Option {
	return func(e *Engine) {
		e.libraryDirs = append([]string(nil), dirs...)
	}
}

// WithBracketService sets the service used for bracket-handler hover and
// completion. Without one, bracket handlers get no metadata.
func WithBracketService(svc bracket.Service) Option {
	return func(e *Engine) {
		e.brackets = svc
	}
}

// WithNotifier sets the callback that receives user-facing notices, such
// as an environment without library declarations.
func WithNotifier(fn Notifier) Option {
	return func(e *Engine) {
		e.notify = fn
	}
}

// WithParallel controls parallel parsing when an environment loads. When
// true (default), files are parsed by a worker pool and resolved together
// under one write lock. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// New creates an Engine without workspaces. Environments are created
// lazily when a document is first opened or queried.
func New(opts ...Option) *Engine {
	e := &Engine{useParallel: true}
	for _, opt := range opts {
		opt(e)
	}
	e.manager = workspace.NewManager(workspace.Config{
		RootMarker: e.rootMarker,
		Notify:     e.notify,
		Compile: compile.Config{
			ScriptNamespace: e.namespace,
			LibraryDirs:     e.libraryDirs,
			Parallel:        e.useParallel,
		},
	})
	return e
}

// Manager returns the underlying workspace manager.
func (e *Engine) Manager() *workspace.Manager {
	return e.manager
}

// Brackets returns the configured bracket service, or nil.
func (e *Engine) Brackets() bracket.Service {
	return e.brackets
}

// Query returns a QueryBuilder over the Engine's environments.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{engine: e}
}

// AddWorkspace registers an editing root.
func (e *Engine) AddWorkspace(root string) {
	e.manager.AddWorkspace(root)
}

// RemoveWorkspace drops an editing root and its environments.
func (e *Engine) RemoveWorkspace(root string) bool {
	return e.manager.RemoveWorkspace(root)
}

// Apply applies a document change.
func (e *Engine) Apply(ctx context.Context, ev Event) error {
	return e.manager.Apply(ctx, ev)
}

// LoadDir registers dir as a workspace and creates an environment for
// every script found below it. Library units are loaded by the environment
// that uses them. Failures are collected; loading continues past them.
func (e *Engine) LoadDir(ctx context.Context, dir string) error {
	e.manager.AddWorkspace(dir)
	paths, err := compile.Discover(dir, nil)
	if err != nil {
		return fmt.Errorf("zenls: discover %s: %w", dir, err)
	}

	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if compile.Classify(path) != compile.Script {
			continue
		}
		if _, err := e.manager.EnsureEnvironment(ctx, path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("zenls: load had %d error(s): %w", len(errs), errors.Join(errs...))
	}
	return nil
}

// Units returns the paths of every loaded unit, sorted.
func (e *Engine) Units() []string {
	var out []string
	for _, env := range e.manager.Environments() {
		env.Read(func() {
			for _, u := range env.Units() {
				out = append(out, u.Path)
			}
		})
	}
	sort.Strings(out)
	return out
}

// Watch applies file system changes below dirs until ctx is done. onApply,
// if non-nil, observes every applied event.
func (e *Engine) Watch(ctx context.Context, onApply func(Event, error), dirs ...string) error {
	w := workspace.NewWatcher(e.manager, workspace.DefaultDebounce)
	w.OnApply = onApply
	return w.Watch(ctx, dirs...)
}
