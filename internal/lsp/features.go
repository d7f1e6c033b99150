package lsp

import (
	"errors"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/zenls"
	"github.com/jward/zenls/internal/syntax"
)

// quiet turns "document not loaded" into an empty answer. Clients ask
// about documents before the first didOpen arrives.
func quiet(err error) error {
	if errors.Is(err, zenls.ErrNotLoaded) {
		return nil
	}
	return err
}

func (s *Server) completion(_ *glsp.Context, params *protocol.CompletionParams) (any, error) {
	path := uriToPath(params.TextDocument.URI)
	items, err := s.engine.Query().CompletionsAt(background(), path, toPosition(params.Position))
	if err != nil {
		return nil, quiet(err)
	}
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, c := range items {
		kind := completionKind(c.Kind)
		item := protocol.CompletionItem{Label: c.Name, Kind: &kind}
		if c.Detail != "" {
			detail := c.Detail
			item.Detail = &detail
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path := uriToPath(params.TextDocument.URI)
	h, err := s.engine.Query().HoverAt(background(), path, toPosition(params.Position))
	if err != nil || h == nil {
		return nil, quiet(err)
	}
	rng := fromLocation(h.Location)
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown, Value: h.Markdown},
		Range:    &rng,
	}, nil
}

func (s *Server) signatureHelp(_ *glsp.Context, params *protocol.SignatureHelpParams) (*protocol.SignatureHelp, error) {
	path := uriToPath(params.TextDocument.URI)
	help, err := s.engine.Query().SignatureHelpAt(background(), path, toPosition(params.Position))
	if err != nil || help == nil {
		return nil, quiet(err)
	}
	out := &protocol.SignatureHelp{}
	for _, sig := range help.Signatures {
		info := protocol.SignatureInformation{Label: sig.Label}
		for _, p := range sig.Parameters {
			info.Parameters = append(info.Parameters, protocol.ParameterInformation{Label: p})
		}
		out.Signatures = append(out.Signatures, info)
	}
	active, param := uinteger(help.ActiveSignature), uinteger(help.ActiveParameter)
	out.ActiveSignature = &active
	out.ActiveParameter = &param
	return out, nil
}

func (s *Server) definition(_ *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	path := uriToPath(params.TextDocument.URI)
	locs, err := s.engine.Query().DefinitionAt(background(), path, toPosition(params.Position))
	if err != nil {
		return nil, quiet(err)
	}
	out := make([]protocol.Location, 0, len(locs))
	for _, loc := range locs {
		out = append(out, protocol.Location{URI: pathToURI(loc.File), Range: fromLocation(loc)})
	}
	return out, nil
}

func (s *Server) semanticTokensFull(_ *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	path := uriToPath(params.TextDocument.URI)
	toks, err := s.engine.Query().SemanticTokensFor(background(), path)
	if err != nil {
		return nil, quiet(err)
	}
	data := make([]protocol.UInteger, len(toks.Data))
	for i, v := range toks.Data {
		data[i] = protocol.UInteger(v)
	}
	return &protocol.SemanticTokens{Data: data}, nil
}

func (s *Server) documentSymbol(_ *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	path := uriToPath(params.TextDocument.URI)
	outline, err := s.engine.Query().SymbolsOf(background(), path)
	if err != nil {
		return nil, quiet(err)
	}
	return outlineSymbols(outline), nil
}

// outlineSymbols nests the symbols of inner scopes under the declaration
// that opens them. Scopes without a declaration, such as blocks, flatten
// into their parent.
func outlineSymbols(s *zenls.ScopeOutline) []protocol.DocumentSymbol {
	syms := make([]protocol.DocumentSymbol, 0, len(s.Symbols))
	for _, info := range s.Symbols {
		if info.Location == nil {
			continue
		}
		rng := fromLocation(*info.Location)
		sym := protocol.DocumentSymbol{
			Name:           info.Name,
			Kind:           symbolKind(info.Kind),
			Range:          rng,
			SelectionRange: rng,
		}
		if info.Type != "" {
			detail := info.Type
			sym.Detail = &detail
		}
		syms = append(syms, sym)
	}

	for i := range s.Children {
		child := &s.Children[i]
		nested := outlineSymbols(child)
		owner := ownerOf(syms, child)
		if owner == nil {
			syms = append(syms, nested...)
			continue
		}
		owner.Children = append(owner.Children, nested...)
		owner.Range = spanning(owner.Range, fromLocation(child.Location))
	}
	return syms
}

// ownerOf returns the symbol declared by the scope's node. A class body
// starts after its class name, so it belongs to the nearest class before it.
func ownerOf(syms []protocol.DocumentSymbol, scope *zenls.ScopeOutline) *protocol.DocumentSymbol {
	rng := fromLocation(scope.Location)
	var class *protocol.DocumentSymbol
	for i := range syms {
		start := syms[i].SelectionRange.Start
		if within(rng, start) {
			return &syms[i]
		}
		if syms[i].Kind == protocol.SymbolKindClass && before(start, rng.Start) {
			class = &syms[i]
		}
	}
	if scope.Kind == syntax.KindClassBody.String() {
		return class
	}
	return nil
}

func before(a, b protocol.Position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

func within(r protocol.Range, p protocol.Position) bool {
	return !before(p, r.Start) && !before(r.End, p)
}

func spanning(a, b protocol.Range) protocol.Range {
	if before(b.Start, a.Start) {
		a.Start = b.Start
	}
	if before(a.End, b.End) {
		a.End = b.End
	}
	return a
}
