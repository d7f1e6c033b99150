// Package workspace owns the compilation environments of an editing session.
// It maps documents to the environment that owns them, creates environments
// lazily and sequences loads and queries under each environment's lock.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/jward/zenls/internal/compile"
)

var log = commonlog.GetLogger("zenls.workspace")

// ErrNoEnvironment is returned when no environment owns a document.
var ErrNoEnvironment = errors.New("workspace: no environment for document")

// DefaultRootMarker is the directory name that marks an environment root.
const DefaultRootMarker = "scripts"

// NoLibraryMessage is the notice sent when an environment has no library
// declaration units.
const NoLibraryMessage = "no library declarations found for this environment"

// Config configures a Manager.
type Config struct {
	// RootMarker names the directory that roots an environment.
	RootMarker string
	// Compile is passed to every environment the manager creates.
	Compile compile.Config
	// Notify receives user-facing notices. May be nil.
	Notify Notifier
}

// workspace is one editing root and the environments created inside it.
type workspace struct {
	root     string
	implicit bool
	envs     map[string]*compile.Environment
}

// Manager owns every environment of the session. Its own mutex guards the
// workspace table; each environment carries its own lock.
type Manager struct {
	mu         sync.Mutex
	cfg        Config
	workspaces map[string]*workspace
	// loading holds environments whose bulk load is in flight; the channel
	// closes when it finishes.
	loading map[*compile.Environment]chan struct{}
}

// NewManager creates a manager without workspaces.
func NewManager(cfg Config) *Manager {
	if cfg.RootMarker == "" {
		cfg.RootMarker = DefaultRootMarker
	}
	return &Manager{
		cfg:        cfg,
		workspaces: make(map[string]*workspace),
		loading:    make(map[*compile.Environment]chan struct{}),
	}
}

// Config returns the manager configuration.
func (m *Manager) Config() Config { return m.cfg }

// AddWorkspace registers an editing root. Adding an existing root is a no-op.
func (m *Manager) AddWorkspace(root string) {
	root = clean(root)
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws, ok := m.workspaces[root]; ok {
		ws.implicit = false
		return
	}
	m.workspaces[root] = &workspace{root: root, envs: make(map[string]*compile.Environment)}
	log.Infof("added workspace %s", root)
}

// RemoveWorkspace drops an editing root together with its environments and
// reports whether it existed.
func (m *Manager) RemoveWorkspace(root string) bool {
	root = clean(root)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workspaces[root]; !ok {
		return false
	}
	delete(m.workspaces, root)
	log.Infof("removed workspace %s", root)
	return true
}

// Workspaces returns the registered roots, sorted.
func (m *Manager) Workspaces() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	roots := make([]string, 0, len(m.workspaces))
	for r := range m.workspaces {
		roots = append(roots, r)
	}
	sort.Strings(roots)
	return roots
}

// Environments returns every environment, sorted by root.
func (m *Manager) Environments() []*compile.Environment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*compile.Environment
	for _, ws := range m.workspaces {
		for _, env := range ws.envs {
			out = append(out, env)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Root() < out[j].Root() })
	return out
}

// Environment returns the environment that owns path.
func (m *Manager) Environment(path string) (*compile.Environment, error) {
	path = clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if env := m.find(path); env != nil {
		return env, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoEnvironment, path)
}

// EnsureEnvironment returns the environment owning path, creating and
// loading it when none does. Only source files create environments. The
// manager lock is not held while an environment loads: callers for that
// environment wait for the load, others are served meanwhile.
func (m *Manager) EnsureEnvironment(ctx context.Context, path string) (*compile.Environment, error) {
	if compile.Classify(path) == compile.NotSource {
		return nil, fmt.Errorf("%w: %s", compile.ErrNotSource, path)
	}
	path = clean(path)

	m.mu.Lock()
	if env := m.find(path); env != nil {
		loading := m.loading[env]
		m.mu.Unlock()
		if loading != nil {
			select {
			case <-loading:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return env, nil
	}

	root := m.rootFor(path)
	env := compile.NewEnvironment(root, m.cfg.Compile)
	m.rehome(env)
	ws := m.owner(root)
	if ws == nil {
		ws = &workspace{root: root, implicit: true, envs: make(map[string]*compile.Environment)}
		m.workspaces[root] = ws
	}
	ws.envs[root] = env
	loading := make(chan struct{})
	m.loading[env] = loading
	m.mu.Unlock()
	log.Infof("created environment %s in workspace %s", root, ws.root)

	if err := env.LoadAll(ctx); err != nil {
		log.Errorf("loading environment %s: %s", root, err)
	}
	m.mu.Lock()
	delete(m.loading, env)
	m.mu.Unlock()
	close(loading)

	if !hasLibrary(env) {
		m.notify(Notice{Level: LevelInfo, Root: root, Message: NoLibraryMessage})
	}
	return env, nil
}

// rootFor returns the root of a new environment for path. A library file
// belongs to the script root whose library directories cover it, found by
// looking for a root marker next to each of its ancestors. Caller holds m.mu.
func (m *Manager) rootFor(path string) string {
	if compile.Classify(path) == compile.Library {
		for d := filepath.Dir(path); ; {
			parent := filepath.Dir(d)
			candidate := filepath.Join(parent, m.cfg.RootMarker)
			if info, err := os.Stat(candidate); err == nil && info.IsDir() &&
				m.cfg.Compile.Covers(candidate, path) {
				return candidate
			}
			if parent == d {
				break
			}
			d = parent
		}
	}
	return FindRoot(path, m.cfg.RootMarker)
}

// rehome drops environments rooted inside the library directories of env.
// Those were created for library files opened before their script root,
// and env loads the same files. Caller holds m.mu.
func (m *Manager) rehome(env *compile.Environment) {
	for wsRoot, ws := range m.workspaces {
		for root := range ws.envs {
			if root == env.Root() || within(env.Root(), root) {
				continue
			}
			for _, d := range env.LibraryDirs() {
				if within(d, root) {
					delete(ws.envs, root)
					log.Infof("environment %s moved into %s", root, env.Root())
					break
				}
			}
		}
		if ws.implicit && len(ws.envs) == 0 {
			delete(m.workspaces, wsRoot)
		}
	}
}

// find returns the environment that owns path. An environment whose root
// contains path wins over one that only lists it as a library directory;
// then the deepest root wins, then the lexically smallest. Caller holds m.mu.
func (m *Manager) find(path string) *compile.Environment {
	var best *compile.Environment
	var bestRooted bool
	for _, ws := range m.workspaces {
		for _, env := range ws.envs {
			if !env.Contains(path) {
				continue
			}
			rooted := within(env.Root(), path)
			if best == nil || better(env, rooted, best, bestRooted) {
				best, bestRooted = env, rooted
			}
		}
	}
	return best
}

func better(env *compile.Environment, rooted bool, best *compile.Environment, bestRooted bool) bool {
	if rooted != bestRooted {
		return rooted
	}
	if len(env.Root()) != len(best.Root()) {
		return len(env.Root()) > len(best.Root())
	}
	return env.Root() < best.Root()
}

// owner returns the innermost workspace containing path. Caller holds m.mu.
func (m *Manager) owner(path string) *workspace {
	var best *workspace
	for root, ws := range m.workspaces {
		if !within(root, path) {
			continue
		}
		if best == nil || len(root) > len(best.root) {
			best = ws
		}
	}
	return best
}

func (m *Manager) notify(n Notice) {
	log.Infof("%s: %s", n.Root, n.Message)
	if m.cfg.Notify != nil {
		m.cfg.Notify(n)
	}
}

// FindRoot returns the nearest ancestor directory of path named marker, or
// the directory of path when there is none.
func FindRoot(path, marker string) string {
	dir := filepath.Dir(path)
	for d := dir; ; {
		if filepath.Base(d) == marker {
			return d
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	return dir
}

func hasLibrary(env *compile.Environment) bool {
	var ok bool
	env.Read(func() { ok = env.HasLibrary() })
	return ok
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func clean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func readFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("workspace: read %s: %w", path, err)
	}
	return string(content), nil
}
