package lsp

import (
	"net/url"
	"path/filepath"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/jward/zenls"
)

// Protocol lines are 0-based, ours are 1-based. Columns are byte offsets on
// both sides.

func toPosition(p protocol.Position) zenls.Position {
	return zenls.Position{Line: int(p.Line) + 1, Column: int(p.Character)}
}

func fromLocation(loc zenls.Location) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uinteger(loc.StartLine - 1), Character: uinteger(loc.StartCol)},
		End:   protocol.Position{Line: uinteger(loc.EndLine - 1), Character: uinteger(loc.EndCol)},
	}
}

func uinteger(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n)
}

func uriToPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return filepath.Clean(string(uri))
	}
	return filepath.FromSlash(u.Path)
}

func pathToURI(path string) protocol.DocumentUri {
	return protocol.DocumentUri((&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String())
}

func toDiagnostics(diags []zenls.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	source := Name
	for _, d := range diags {
		severity := protocol.DiagnosticSeverity(d.Severity)
		out = append(out, protocol.Diagnostic{
			Range:    fromLocation(d.Location),
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

func completionKind(k zenls.CompletionKind) protocol.CompletionItemKind {
	switch k {
	case zenls.CompletionFunction:
		return protocol.CompletionItemKindFunction
	case zenls.CompletionClass:
		return protocol.CompletionItemKindClass
	case zenls.CompletionKeyword:
		return protocol.CompletionItemKindKeyword
	case zenls.CompletionBracket:
		return protocol.CompletionItemKindValue
	}
	return protocol.CompletionItemKindVariable
}

func symbolKind(kind string) protocol.SymbolKind {
	switch kind {
	case "function":
		return protocol.SymbolKindFunction
	case "class":
		return protocol.SymbolKindClass
	case "import":
		return protocol.SymbolKindModule
	case "operator":
		return protocol.SymbolKindOperator
	}
	return protocol.SymbolKindVariable
}
