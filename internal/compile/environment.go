package compile

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/jward/zenls/internal/resolve"
	"github.com/jward/zenls/internal/semantic"
)

var log = commonlog.GetLogger("zenls.compile")

// DefaultScriptNamespace prefixes the qualified names of script units.
const DefaultScriptNamespace = "scripts"

// Config configures an Environment.
type Config struct {
	// ScriptNamespace is the leading name segment under which script units
	// are addressable, e.g. "scripts" in scripts.recipes.helper.
	ScriptNamespace string
	// LibraryDirs hold library declaration trees. Empty means the sibling
	// "generated" directory of the environment root.
	LibraryDirs []string
	// Parallel parses files concurrently during bulk loads.
	Parallel bool
}

func (c Config) withDefaults(root string) Config {
	if c.ScriptNamespace == "" {
		c.ScriptNamespace = DefaultScriptNamespace
	}
	if len(c.LibraryDirs) == 0 && root != "" {
		c.LibraryDirs = []string{filepath.Join(filepath.Dir(root), "generated")}
	}
	return c
}

// Environment owns every unit under one source root. All state is guarded by
// one read/write lock, taken through Read/Write or Acquire.
type Environment struct {
	mu sync.RWMutex

	root string
	cfg  Config

	library map[string]*Unit
	scripts map[string]*Unit

	// Merged library table, rebuilt from all library units on any change.
	libNames   map[string][]*semantic.Symbol // global variables and functions
	libClasses map[string][]*semantic.Symbol // by qualified and by simple name
	libVars    []*semantic.Symbol
	libFuncs   []*semantic.Symbol

	generation uint64
}

// NewEnvironment creates an empty environment rooted at root.
func NewEnvironment(root string, cfg Config) *Environment {
	return &Environment{
		root:       root,
		cfg:        cfg.withDefaults(root),
		library:    make(map[string]*Unit),
		scripts:    make(map[string]*Unit),
		libNames:   make(map[string][]*semantic.Symbol),
		libClasses: make(map[string][]*semantic.Symbol),
	}
}

// Read runs fn under the read lock.
func (e *Environment) Read(fn func()) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn()
}

// Write runs fn under the write lock.
func (e *Environment) Write(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn()
}

// Acquire takes the write lock when write is set and the read lock
// otherwise. It returns the function that releases it.
func (e *Environment) Acquire(write bool) (release func()) {
	if write {
		e.mu.Lock()
		return e.mu.Unlock
	}
	e.mu.RLock()
	return e.mu.RUnlock
}

// TryAcquire is Acquire without blocking. It reports false when the lock
// is not available.
func (e *Environment) TryAcquire(write bool) (release func(), ok bool) {
	if write {
		if !e.mu.TryLock() {
			return nil, false
		}
		return e.mu.Unlock, true
	}
	if !e.mu.TryRLock() {
		return nil, false
	}
	return e.mu.RUnlock, true
}

func (e *Environment) Root() string          { return e.root }
func (e *Environment) Config() Config        { return e.cfg }
func (e *Environment) Generation() uint64    { return e.generation }
func (e *Environment) LibraryDirs() []string { return e.cfg.LibraryDirs }

// Contains reports whether path lies under the root or a library directory.
func (e *Environment) Contains(path string) bool {
	return e.cfg.Covers(e.root, path)
}

// Covers reports whether an environment rooted at root with this config
// would own path, either under root or under one of its library
// directories.
func (c Config) Covers(root, path string) bool {
	if within(root, path) {
		return true
	}
	for _, d := range c.withDefaults(root).LibraryDirs {
		if within(d, path) {
			return true
		}
	}
	return false
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Unit returns the unit at path, or nil.
func (e *Environment) Unit(path string) *Unit {
	if u, ok := e.library[path]; ok {
		return u
	}
	return e.scripts[path]
}

// Units returns all units, library units first, each tier sorted by path.
func (e *Environment) Units() []*Unit {
	out := make([]*Unit, 0, len(e.library)+len(e.scripts))
	for _, p := range sortedKeys(e.library) {
		out = append(out, e.library[p])
	}
	for _, p := range sortedKeys(e.scripts) {
		out = append(out, e.scripts[p])
	}
	return out
}

// HasLibrary reports whether any library declaration unit is loaded.
func (e *Environment) HasLibrary() bool { return len(e.library) > 0 }

// Load parses src as the unit at path and adds it, replacing any previous
// version.
func (e *Environment) Load(path, src string) (*Unit, error) {
	u, err := ParseUnit(path, src)
	if err != nil {
		return nil, err
	}
	e.AddUnit(u)
	return u, nil
}

// AddUnit adds or replaces u. A library unit rebuilds the merged library
// table and re-resolves everything; a script unit is resolved on its own.
func (e *Environment) AddUnit(u *Unit) {
	u.QualifiedName = e.qualifiedName(u.Path, u.Library)
	if u.Library {
		e.library[u.Path] = u
		e.rebuildLibrary()
		return
	}
	e.scripts[u.Path] = u
	e.generation++
	e.resolveScripts([]*Unit{u})
}

// AddUnits adds a batch of units with a single rebuild.
func (e *Environment) AddUnits(units []*Unit) {
	for _, u := range units {
		u.QualifiedName = e.qualifiedName(u.Path, u.Library)
		if u.Library {
			e.library[u.Path] = u
		} else {
			e.scripts[u.Path] = u
		}
	}
	e.rebuildLibrary()
}

// RemoveUnit removes the unit at path and reports whether it existed.
func (e *Environment) RemoveUnit(path string) bool {
	if _, ok := e.library[path]; ok {
		delete(e.library, path)
		e.rebuildLibrary()
		return true
	}
	if _, ok := e.scripts[path]; ok {
		delete(e.scripts, path)
		e.generation++
		return true
	}
	return false
}

// rebuildLibrary re-declares every library unit, merges their exports in
// path order, resolves them against the merged table and finally re-resolves
// all scripts, whose references into the library may have changed.
func (e *Environment) rebuildLibrary() {
	e.generation++
	e.libNames = make(map[string][]*semantic.Symbol)
	e.libClasses = make(map[string][]*semantic.Symbol)
	e.libVars, e.libFuncs = nil, nil

	paths := sortedKeys(e.library)
	passes := make([]*resolve.Pass, len(paths))
	for i, path := range paths {
		u := e.library[path]
		p := resolve.NewPass(u.Tree, u.info(), e)
		p.Declare()
		e.merge(p.Exports())
		passes[i] = p
	}
	for _, p := range passes {
		p.ResolveSignatures()
	}
	for i, p := range passes {
		e.library[paths[i]].install(p.ResolveBodies(), p.Exports(), e.generation)
	}
	scripts := make([]*Unit, 0, len(e.scripts))
	for _, path := range sortedKeys(e.scripts) {
		scripts = append(scripts, e.scripts[path])
	}
	e.resolveScripts(scripts)
	log.Debugf("rebuilt library table of %s: %d unit(s), %d script(s), generation %d",
		e.root, len(e.library), len(e.scripts), e.generation)
}

func (e *Environment) merge(exports []*semantic.Symbol) {
	for _, sym := range exports {
		switch sym.Kind {
		case semantic.SymbolClass:
			e.libClasses[sym.QualifiedName] = append(e.libClasses[sym.QualifiedName], sym)
			if sym.QualifiedName != sym.Name {
				e.libClasses[sym.Name] = append(e.libClasses[sym.Name], sym)
			}
		case semantic.SymbolFunction:
			e.libNames[sym.Name] = append(e.libNames[sym.Name], sym)
			e.libFuncs = append(e.libFuncs, sym)
		case semantic.SymbolVariable:
			e.libNames[sym.Name] = append(e.libNames[sym.Name], sym)
			e.libVars = append(e.libVars, sym)
		}
	}
}

// resolveScripts re-resolves a set of scripts. Every script publishes its
// exports before any body is walked, so scripts see each other's globals
// regardless of path order.
func (e *Environment) resolveScripts(units []*Unit) {
	passes := make([]*resolve.Pass, len(units))
	for i, u := range units {
		p := resolve.NewPass(u.Tree, u.info(), e)
		p.Declare()
		u.exports = p.Exports()
		passes[i] = p
	}
	for _, p := range passes {
		p.ResolveSignatures()
	}
	for i, p := range passes {
		units[i].install(p.ResolveBodies(), p.Exports(), e.generation)
	}
}

// qualifiedName derives the dotted name of a unit from its path. Library
// units are named relative to the library directory holding them, scripts
// relative to the root under the script namespace.
func (e *Environment) qualifiedName(path string, library bool) string {
	base, prefix := e.root, e.cfg.ScriptNamespace
	if library {
		prefix = ""
		for _, d := range e.cfg.LibraryDirs {
			if within(d, path) {
				base = d
				break
			}
		}
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || !within(base, path) {
		rel = filepath.Base(path)
	}
	rel = strings.TrimSuffix(rel, ScriptSuffix)
	rel = strings.TrimSuffix(rel, ".d")
	name := strings.ReplaceAll(filepath.ToSlash(rel), "/", ".")
	if prefix != "" {
		name = prefix + "." + name
	}
	return name
}

// Lookup implements resolve.Globals. The order is: the qualified script
// namespace, script globals (for scripts only), library variables and
// functions, then library classes by qualified and by simple name.
func (e *Environment) Lookup(name string, fromScript bool, kinds ...semantic.SymbolKind) []*semantic.Symbol {
	if found := filter(e.scriptQualified(name), kinds); len(found) > 0 {
		return found
	}
	if fromScript {
		if found := filter(e.scriptGlobals(name), kinds); len(found) > 0 {
			return found
		}
	}
	if found := filter(e.libNames[name], kinds); len(found) > 0 {
		return found
	}
	return filter(e.libClasses[name], kinds)
}

// FindSymbol returns the first symbol of kind visible to scripts as name.
func (e *Environment) FindSymbol(kind semantic.SymbolKind, name string) *semantic.Symbol {
	if found := e.Lookup(name, true, kind); len(found) > 0 {
		return found[0]
	}
	return nil
}

// Globals returns, in order, script global variables, library global
// variables and library functions.
func (e *Environment) Globals() []*semantic.Symbol {
	var out []*semantic.Symbol
	for _, path := range sortedKeys(e.scripts) {
		for _, sym := range e.scripts[path].exports {
			if isScriptGlobal(sym) {
				out = append(out, sym)
			}
		}
	}
	out = append(out, e.libVars...)
	return append(out, e.libFuncs...)
}

// scriptQualified resolves names of the form <namespace>.<unit>.<member>.
func (e *Environment) scriptQualified(name string) []*semantic.Symbol {
	if !strings.HasPrefix(name, e.cfg.ScriptNamespace+".") {
		return nil
	}
	dot := strings.LastIndexByte(name, '.')
	unitName, member := name[:dot], name[dot+1:]
	var out []*semantic.Symbol
	for _, path := range sortedKeys(e.scripts) {
		u := e.scripts[path]
		if u.QualifiedName != unitName {
			continue
		}
		for _, sym := range u.exports {
			if sym.Name == member {
				out = append(out, sym)
			}
		}
	}
	return out
}

func (e *Environment) scriptGlobals(name string) []*semantic.Symbol {
	var out []*semantic.Symbol
	for _, path := range sortedKeys(e.scripts) {
		for _, sym := range e.scripts[path].exports {
			if sym.Name == name && isScriptGlobal(sym) {
				out = append(out, sym)
			}
		}
	}
	return out
}

func isScriptGlobal(sym *semantic.Symbol) bool {
	return sym.Kind == semantic.SymbolVariable && sym.Modifier == semantic.ModifierGlobal
}

func filter(syms []*semantic.Symbol, kinds []semantic.SymbolKind) []*semantic.Symbol {
	if len(kinds) == 0 {
		return syms
	}
	var out []*semantic.Symbol
	for _, s := range syms {
		if s.Is(kinds...) {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(m map[string]*Unit) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
