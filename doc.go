// Package zenls provides scope-aware semantic analysis of ZenScript for
// editor tooling: completion, hover, semantic tokens, signature help and
// go-to-definition.
//
// # Environments
//
// Sources are grouped into compilation environments. An environment is
// rooted at a directory named "scripts" (see [WithRootMarker]) and holds two
// tiers of units:
//
//  1. Library declaration units (*.d.zs), by default under the "generated"
//     directory next to the root. Their classes, functions and global
//     variables are merged into one library table that every unit sees.
//
//  2. Script units (*.zs). Each contributes its own global variables, which
//     other scripts see, and its static members under the qualified script
//     namespace, e.g. scripts.recipes.helper.
//
// Environments are created lazily the first time one of their documents is
// opened or queried, and loaded in one pass: files are parsed in parallel
// and resolved together under the environment's write lock. Changing a
// library unit re-resolves the whole environment; changing a script
// re-resolves that script only.
//
// # Usage
//
//	e := zenls.New(zenls.WithBracketService(mirror))
//
//	ctx := context.Background()
//	err := e.Apply(ctx, zenls.Event{Kind: zenls.Changed, Path: path, Text: &text})
//
//	q := e.Query()
//	items, err := q.CompletionsAt(ctx, path, zenls.Position{Line: 3, Column: 8})
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.CompletionsAt]: names visible at a position, members
//     after a dot, bracket expressions inside <...>, and keywords.
//   - [QueryBuilder.HoverAt]: declaration, type or bracket metadata.
//   - [QueryBuilder.SemanticTokensFor]: relative-encoded semantic tokens.
//   - [QueryBuilder.SignatureHelpAt]: overloads of the enclosing call.
//   - [QueryBuilder.DefinitionAt]: where a symbol is declared.
//   - [QueryBuilder.SymbolsOf]: a copy of a unit's scope tree.
//   - [QueryBuilder.Diagnostics]: parse errors and unresolved names.
//
// Queries hold the environment's read lock while they run; reloads take the
// write lock, so a query never sees a half-resolved environment.
package zenls

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("zenls")
