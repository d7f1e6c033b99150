package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/risor-io/risor/object"

	"github.com/jward/zenls"
	"github.com/jward/zenls/internal/compile"
	"github.com/jward/zenls/internal/semantic"
)

// makeUnitsFn creates "units".
//
// units() → [{path, name, library}] sorted by path
func makeUnitsFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("units", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("units", 0, len(args))
		}
		var units []*compile.Unit
		for _, env := range e.Manager().Environments() {
			env.Read(func() {
				units = append(units, env.Units()...)
			})
		}
		sort.Slice(units, func(i, j int) bool { return units[i].Path < units[j].Path })

		results := make([]object.Object, 0, len(units))
		for _, u := range units {
			results = append(results, object.NewMap(map[string]object.Object{
				"path":    object.NewString(u.Path),
				"name":    object.NewString(u.QualifiedName),
				"library": object.NewBool(u.Library),
			}))
		}
		return object.NewList(results)
	})
}

// makeSymbolsFn creates "symbols", the flattened scope tree of a unit.
//
// symbols(path) → [{name, kind, type, signature, scope, line, col}]
func makeSymbolsFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("symbols", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("symbols", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("symbols: path %v", err)
		}
		outline, err := e.Query().SymbolsOf(ctx, path)
		if err != nil {
			return object.Errorf("symbols: %v", err)
		}
		results := []object.Object{}
		var walk func(s *zenls.ScopeOutline)
		walk = func(s *zenls.ScopeOutline) {
			for _, info := range s.Symbols {
				m := map[string]object.Object{
					"name":      object.NewString(info.Name),
					"kind":      object.NewString(info.Kind),
					"type":      object.NewString(info.Type),
					"signature": object.NewString(info.Signature),
					"scope":     object.NewString(s.Kind),
				}
				if info.Location != nil {
					m["line"] = object.NewInt(int64(info.Location.StartLine))
					m["col"] = object.NewInt(int64(info.Location.StartCol))
				}
				results = append(results, object.NewMap(m))
			}
			for i := range s.Children {
				walk(&s.Children[i])
			}
		}
		walk(outline)
		return object.NewList(results)
	})
}

// makeGlobalsFn creates "globals", the names every script of the document's
// environment sees without an import.
//
// globals(path) → [{name, kind, type, signature, unit}]
func makeGlobalsFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("globals", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("globals", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("globals: path %v", err)
		}
		h, err := e.Manager().OpenForRead(ctx, path)
		if err != nil {
			return object.Errorf("globals: %v", err)
		}
		defer h.Close()
		return symbolsToList(h.Environment().Globals())
	})
}

// makeFindSymbolFn creates "find_symbol", an environment lookup of a simple
// or qualified name as seen from the document at path.
//
// find_symbol(path, name) → [{name, kind, type, signature, unit}]
func makeFindSymbolFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("find_symbol", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("find_symbol", 2, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("find_symbol: path %v", err)
		}
		name, err := toString(args[1])
		if err != nil {
			return object.Errorf("find_symbol: name %v", err)
		}
		h, err := e.Manager().OpenForRead(ctx, path)
		if err != nil {
			return object.Errorf("find_symbol: %v", err)
		}
		defer h.Close()
		fromScript := true
		if u := h.Unit(); u != nil {
			fromScript = !u.Library
		}
		return symbolsToList(h.Environment().Lookup(name, fromScript))
	})
}

// makeTypeAtFn creates "type_at".
//
// type_at(path, line, col) → string or nil
func makeTypeAtFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("type_at", func(ctx context.Context, args ...object.Object) object.Object {
		path, pos, errObj := positionArgs("type_at", args)
		if errObj != nil {
			return errObj
		}
		typ, err := e.Query().TypeAt(ctx, path, pos)
		if err != nil {
			return object.Errorf("type_at: %v", err)
		}
		if typ == "" {
			return object.Nil
		}
		return object.NewString(typ)
	})
}

// makeCompletionsFn creates "completions".
//
// completions(path, line, col) → [{name, kind, detail}]
func makeCompletionsFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("completions", func(ctx context.Context, args ...object.Object) object.Object {
		path, pos, errObj := positionArgs("completions", args)
		if errObj != nil {
			return errObj
		}
		items, err := e.Query().CompletionsAt(ctx, path, pos)
		if err != nil {
			return object.Errorf("completions: %v", err)
		}
		results := make([]object.Object, 0, len(items))
		for _, c := range items {
			results = append(results, object.NewMap(map[string]object.Object{
				"name":   object.NewString(c.Name),
				"kind":   object.NewString(c.Kind.String()),
				"detail": object.NewString(c.Detail),
			}))
		}
		return object.NewList(results)
	})
}

// makeHoverFn creates "hover".
//
// hover(path, line, col) → markdown string or nil
func makeHoverFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("hover", func(ctx context.Context, args ...object.Object) object.Object {
		path, pos, errObj := positionArgs("hover", args)
		if errObj != nil {
			return errObj
		}
		h, err := e.Query().HoverAt(ctx, path, pos)
		if err != nil {
			return object.Errorf("hover: %v", err)
		}
		if h == nil {
			return object.Nil
		}
		return object.NewString(h.Markdown)
	})
}

// makeDiagnosticsFn creates "diagnostics".
//
// diagnostics(path) → [{line, col, severity, message}]
func makeDiagnosticsFn(e *zenls.Engine) *object.Builtin {
	return object.NewBuiltin("diagnostics", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("diagnostics", 1, len(args))
		}
		path, err := toString(args[0])
		if err != nil {
			return object.Errorf("diagnostics: path %v", err)
		}
		diags, err := e.Query().Diagnostics(ctx, path)
		if err != nil {
			return object.Errorf("diagnostics: %v", err)
		}
		results := make([]object.Object, 0, len(diags))
		for _, d := range diags {
			results = append(results, object.NewMap(map[string]object.Object{
				"line":     object.NewInt(int64(d.Location.StartLine)),
				"col":      object.NewInt(int64(d.Location.StartCol)),
				"severity": object.NewString(d.Severity.String()),
				"message":  object.NewString(d.Message),
			}))
		}
		return object.NewList(results)
	})
}

// --- Argument helpers ---

// positionArgs reads (path, line, col). Lines are 1-based, columns 0-based.
func positionArgs(name string, args []object.Object) (string, zenls.Position, object.Object) {
	if len(args) != 3 {
		return "", zenls.Position{}, object.NewArgsError(name, 3, len(args))
	}
	path, err := toString(args[0])
	if err != nil {
		return "", zenls.Position{}, object.Errorf("%s: path %v", name, err)
	}
	line, err := toInt64(args[1])
	if err != nil {
		return "", zenls.Position{}, object.Errorf("%s: line %v", name, err)
	}
	col, err := toInt64(args[2])
	if err != nil {
		return "", zenls.Position{}, object.Errorf("%s: col %v", name, err)
	}
	return path, zenls.Position{Line: int(line), Column: int(col)}, nil
}

func toInt64(obj object.Object) (int64, error) {
	switch v := obj.(type) {
	case *object.Int:
		return v.Value(), nil
	case *object.Float:
		return int64(v.Value()), nil
	}
	return 0, fmt.Errorf("expected int, got %s", obj.Type())
}

func toString(obj object.Object) (string, error) {
	s, ok := obj.(*object.String)
	if !ok {
		return "", fmt.Errorf("expected string, got %s", obj.Type())
	}
	return s.Value(), nil
}

// symbolsToList converts symbols to a Risor list of maps.
func symbolsToList(syms []*semantic.Symbol) object.Object {
	results := make([]object.Object, 0, len(syms))
	for _, sym := range syms {
		typ := sym.TypeOf().String()
		if sym.Is(semantic.SymbolFunction, semantic.SymbolOperatorFunction) {
			typ = sym.FunctionType().String()
		}
		results = append(results, object.NewMap(map[string]object.Object{
			"name":      object.NewString(sym.Name),
			"kind":      object.NewString(sym.Kind.String()),
			"type":      object.NewString(typ),
			"signature": object.NewString(sym.Signature()),
			"unit":      object.NewString(sym.Unit),
		}))
	}
	return object.NewList(results)
}
