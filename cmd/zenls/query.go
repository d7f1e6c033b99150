package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/zenls"
	"github.com/jward/zenls/internal/compile"
)

// stdout receives command results.
var stdout io.Writer = os.Stdout

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Answer editor queries from the command line",
	Long:  "Run editor queries against a document. Lines are 1-based and columns are 0-based byte offsets.",
}

func init() {
	queryCmd.AddCommand(hoverCmd)
	queryCmd.AddCommand(completeCmd)
	queryCmd.AddCommand(signatureCmd)
	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(tokensCmd)
}

// --- Helpers ---

// resolveFilePath converts a file argument to an absolute path.
// If the path is already absolute, it's returned as-is.
// Otherwise, it's resolved relative to the current working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// positionArgs parses <file> <line> <col>.
func positionArgs(args []string) (string, zenls.Position, error) {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return "", zenls.Position{}, err
	}
	line, err := parseIntArg(args[1], "line")
	if err != nil {
		return "", zenls.Position{}, err
	}
	if line == 0 {
		return "", zenls.Position{}, fmt.Errorf("invalid line %q: lines start at 1", args[1])
	}
	col, err := parseIntArg(args[2], "col")
	if err != nil {
		return "", zenls.Position{}, err
	}
	return file, zenls.Position{Line: line, Column: col}, nil
}

// outputResult writes a CLIResult in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

func locationToCLI(loc zenls.Location) CLILocation {
	return CLILocation{
		File:      loc.File,
		StartLine: loc.StartLine,
		StartCol:  loc.StartCol,
		EndLine:   loc.EndLine,
		EndCol:    loc.EndCol,
	}
}

// runPositionQuery parses the position arguments, builds an engine and
// passes both to query.
func runPositionQuery(command string, args []string, query func(context.Context, *zenls.QueryBuilder, string, zenls.Position) (any, error)) error {
	file, pos, err := positionArgs(args)
	if err != nil {
		return outputError(command, err)
	}
	e, cleanup, err := newEngine()
	if err != nil {
		return outputError(command, err)
	}
	defer cleanup()

	results, err := query(context.Background(), e.Query(), file, pos)
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: results})
}

// =============================================================================
// check
// =============================================================================

var checkCmd = &cobra.Command{
	Use:   "check [dir]",
	Short: "Resolve every environment below a directory and report diagnostics",
	Long:  "Loads every script below the directory with its library declarations, resolves them and prints their diagnostics. Exits non-zero when any script has a parse error.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return outputError("check", err)
	}
	e, cleanup, err := newEngine()
	if err != nil {
		return outputError("check", err)
	}
	defer cleanup()

	ctx := context.Background()
	if err := e.LoadDir(ctx, dir); err != nil {
		return outputError("check", err)
	}

	diags := []CLIDiagnostic{}
	errs := 0
	for _, path := range e.Units() {
		if compile.Classify(path) != compile.Script {
			continue
		}
		found, err := e.Query().Diagnostics(ctx, path)
		if err != nil {
			return outputError("check", err)
		}
		for _, d := range found {
			if d.Severity == zenls.SeverityError {
				errs++
			}
			diags = append(diags, CLIDiagnostic{
				File:     d.Location.File,
				Line:     d.Location.StartLine,
				Col:      d.Location.StartCol,
				Severity: d.Severity.String(),
				Message:  d.Message,
			})
		}
	}

	total := len(diags)
	if err := outputResult(CLIResult{Command: "check", Results: diags, TotalCount: &total}); err != nil {
		return err
	}
	if errs > 0 {
		errorHandled = true
		return fmt.Errorf("%d parse error(s)", errs)
	}
	return nil
}

// =============================================================================
// symbols
// =============================================================================

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "Print the scope tree of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

func runSymbols(cmd *cobra.Command, args []string) error {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("symbols", err)
	}
	e, cleanup, err := newEngine()
	if err != nil {
		return outputError("symbols", err)
	}
	defer cleanup()

	outline, err := e.Query().SymbolsOf(context.Background(), file)
	if err != nil {
		return outputError("symbols", err)
	}
	return outputResult(CLIResult{Command: "symbols", Results: flattenOutline(outline)})
}

// flattenOutline lists a scope tree's symbols depth first.
func flattenOutline(s *zenls.ScopeOutline) []CLISymbol {
	out := []CLISymbol{}
	var walk func(s *zenls.ScopeOutline)
	walk = func(s *zenls.ScopeOutline) {
		for _, info := range s.Symbols {
			sym := CLISymbol{
				Name:      info.Name,
				Kind:      info.Kind,
				Type:      info.Type,
				Signature: info.Signature,
				Scope:     s.Kind,
			}
			if info.Location != nil {
				sym.File = info.Location.File
				sym.Line = info.Location.StartLine
				sym.Col = info.Location.StartCol
			}
			out = append(out, sym)
		}
		for i := range s.Children {
			walk(&s.Children[i])
		}
	}
	walk(s)
	return out
}

// =============================================================================
// query subcommands
// =============================================================================

var hoverCmd = &cobra.Command{
	Use:   "hover <file> <line> <col>",
	Short: "Describe the symbol or expression at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPositionQuery("hover", args, func(ctx context.Context, q *zenls.QueryBuilder, file string, pos zenls.Position) (any, error) {
			h, err := q.HoverAt(ctx, file, pos)
			if err != nil || h == nil {
				return nil, err
			}
			return CLIHover{Markdown: h.Markdown, Location: locationToCLI(h.Location)}, nil
		})
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <file> <line> <col>",
	Short: "List completions at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPositionQuery("complete", args, func(ctx context.Context, q *zenls.QueryBuilder, file string, pos zenls.Position) (any, error) {
			items, err := q.CompletionsAt(ctx, file, pos)
			if err != nil {
				return nil, err
			}
			out := make([]CLICompletion, len(items))
			for i, c := range items {
				out[i] = CLICompletion{Name: c.Name, Kind: c.Kind.String(), Detail: c.Detail}
			}
			return out, nil
		})
	},
}

var signatureCmd = &cobra.Command{
	Use:   "signature <file> <line> <col>",
	Short: "Show the overloads of the call around a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPositionQuery("signature", args, func(ctx context.Context, q *zenls.QueryBuilder, file string, pos zenls.Position) (any, error) {
			help, err := q.SignatureHelpAt(ctx, file, pos)
			if err != nil || help == nil {
				return nil, err
			}
			out := CLISignatureHelp{
				Signatures:      make([]CLISignature, len(help.Signatures)),
				ActiveSignature: help.ActiveSignature,
				ActiveParameter: help.ActiveParameter,
			}
			for i, s := range help.Signatures {
				out.Signatures[i] = CLISignature{Label: s.Label, Parameters: s.Parameters}
			}
			return out, nil
		})
	},
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the declaration of the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPositionQuery("definition", args, func(ctx context.Context, q *zenls.QueryBuilder, file string, pos zenls.Position) (any, error) {
			locs, err := q.DefinitionAt(ctx, file, pos)
			if err != nil {
				return nil, err
			}
			out := make([]CLILocation, len(locs))
			for i, loc := range locs {
				out[i] = locationToCLI(loc)
			}
			return out, nil
		})
	},
}

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "List the semantic tokens of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func runTokens(cmd *cobra.Command, args []string) error {
	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("tokens", err)
	}
	e, cleanup, err := newEngine()
	if err != nil {
		return outputError("tokens", err)
	}
	defer cleanup()

	toks, err := e.Query().SemanticTokensFor(context.Background(), file)
	if err != nil {
		return outputError("tokens", err)
	}
	return outputResult(CLIResult{Command: "tokens", Results: decodeTokens(toks.Data)})
}

// decodeTokens undoes the relative encoding of semantic tokens.
func decodeTokens(data []uint32) []CLIToken {
	out := []CLIToken{}
	line, col := 1, 0
	for i := 0; i+4 < len(data); i += 5 {
		if data[i] > 0 {
			line += int(data[i])
			col = int(data[i+1])
		} else {
			col += int(data[i+1])
		}
		tok := CLIToken{Line: line, Col: col, Length: int(data[i+2]), Type: strconv.Itoa(int(data[i+3]))}
		if t := int(data[i+3]); t < len(zenls.TokenTypes) {
			tok.Type = zenls.TokenTypes[t]
		}
		for bit, name := range zenls.TokenModifiers {
			if data[i+4]&(1<<bit) != 0 {
				tok.Modifiers = append(tok.Modifiers, name)
			}
		}
		out = append(out, tok)
	}
	return out
}
