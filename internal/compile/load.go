package compile

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
)

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// Discover lists the source files under root and the library directories,
// sorted and without duplicates. Hidden directories, node_modules, vendor and
// __pycache__ are skipped. Library directories that do not exist are ignored.
func Discover(root string, libraryDirs []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for i, dir := range append([]string{root}, libraryDirs...) {
		if i > 0 {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				continue
			}
		}
		found, err := walkSources(dir)
		if err != nil {
			return nil, err
		}
		for _, p := range found {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func walkSources(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if Classify(path) != NotSource {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("compile: walk %s: %w", root, err)
	}
	return paths, nil
}

// ReadUnit reads and parses the file at path.
func ReadUnit(path string) (*Unit, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("compile: read %s: %w", path, err)
	}
	return ParseUnit(path, string(content))
}

// ParseFiles reads and parses paths, concurrently when parallel is set.
// Files that fail are skipped; the returned units keep the order of paths and
// the error reports the first failure together with the failure count.
func ParseFiles(ctx context.Context, paths []string, parallel bool) ([]*Unit, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	numWorkers := 1
	if parallel {
		numWorkers = max(min(runtime.NumCPU(), len(paths)), 1)
	}

	type item struct {
		index int
		path  string
	}
	workCh := make(chan item, len(paths))
	for i, p := range paths {
		workCh <- item{index: i, path: p}
	}
	close(workCh)

	type result struct {
		item item
		unit *Unit
		err  error
	}
	resultCh := make(chan result, len(paths))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for it := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- result{item: it, err: err}
					continue
				}
				u, err := ReadUnit(it.path)
				resultCh <- result{item: it, unit: u, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	units := make([]*Unit, len(paths))
	var errs []error
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		units[res.item.index] = res.unit
	}

	out := units[:0]
	for _, u := range units {
		if u != nil {
			out = append(out, u)
		}
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
		return out, fmt.Errorf("load had %d error(s): %w", len(errs), errs[0])
	}
	return out, nil
}

// LoadAll discovers and parses every source file of the environment and adds
// them with a single rebuild. Unlike the other methods it locks: parsing runs
// unlocked and only AddUnits holds the write lock.
func (e *Environment) LoadAll(ctx context.Context) error {
	paths, err := Discover(e.root, e.cfg.LibraryDirs)
	if err != nil {
		return err
	}
	units, loadErr := ParseFiles(ctx, paths, e.cfg.Parallel)
	e.Write(func() { e.AddUnits(units) })
	log.Infof("loaded %d unit(s) under %s", len(units), e.root)
	return loadErr
}
