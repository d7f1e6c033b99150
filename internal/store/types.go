package store

import "sort"

// Entry is one bracket-handler expression with its metadata, e.g. the
// expression "item:minecraft:stick" with properties "_name" and "_icon".
type Entry struct {
	ID         int64
	Expr       string
	Properties map[string][]string
}

// First returns the first value of key, or "".
func (e *Entry) First(key string) string {
	if vs := e.Properties[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Keys returns the property keys, sorted.
func (e *Entry) Keys() []string {
	keys := make([]string, 0, len(e.Properties))
	for k := range e.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ImportStats summarizes a dump import.
type ImportStats struct {
	Entries int
	Skipped bool
	Hash    string
}
