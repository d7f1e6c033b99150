package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatLocationsText formats CLILocation results as "file:line:col" lines.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\n", loc.File, loc.StartLine, loc.StartCol)
	}
}

// formatDiagnosticsText formats diagnostics in compiler style.
func formatDiagnosticsText(w io.Writer, diags []CLIDiagnostic) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s:%d:%d: %s: %s\n", d.File, d.Line, d.Col, d.Severity, d.Message)
	}
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tTYPE\tSCOPE\tLINE\tCOL")
	for _, s := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			s.Name, s.Kind, s.Type, s.Scope, s.Line, s.Col)
	}
	tw.Flush()
}

// formatCompletionsText formats completions as aligned columns.
func formatCompletionsText(w io.Writer, items []CLICompletion) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tDETAIL")
	for _, c := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Kind, c.Detail)
	}
	tw.Flush()
}

// formatTokensText formats semantic tokens as aligned columns.
func formatTokensText(w io.Writer, toks []CLIToken) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tCOL\tLEN\tTYPE\tMODIFIERS")
	for _, t := range toks {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\n",
			t.Line, t.Col, t.Length, t.Type, strings.Join(t.Modifiers, ","))
	}
	tw.Flush()
}

// formatSignatureHelpText marks the active overload with "*".
func formatSignatureHelpText(w io.Writer, help CLISignatureHelp) {
	for i, s := range help.Signatures {
		mark := " "
		if i == help.ActiveSignature {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %s\n", mark, s.Label)
	}
	fmt.Fprintf(w, "active parameter: %d\n", help.ActiveParameter)
}

// formatBracketEntryText prints an entry's properties sorted by key.
func formatBracketEntryText(w io.Writer, e CLIBracketEntry) {
	fmt.Fprintf(w, "<%s>\n", e.Expr)
	keys := make([]string, 0, len(e.Properties))
	for k := range e.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, strings.Join(e.Properties[k], ", "))
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLIDiagnostic:
		formatDiagnosticsText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLICompletion:
		formatCompletionsText(w, v)
	case []CLIToken:
		formatTokensText(w, v)
	case CLIHover:
		fmt.Fprintln(w, v.Markdown)
	case CLISignatureHelp:
		formatSignatureHelpText(w, v)
	case CLIBracketEntry:
		formatBracketEntryText(w, v)
	case CLIImportStats:
		if v.Skipped {
			fmt.Fprintf(w, "Unchanged dump, %d entries\n", v.Entries)
		} else {
			fmt.Fprintf(w, "Imported %d entries\n", v.Entries)
		}
	case []string:
		for _, s := range v {
			fmt.Fprintln(w, s)
		}
	case nil:
		// No output for nil results (e.g., hover with no match).
	default:
		fmt.Fprintf(w, "%v\n", v)
	}

	if result.TotalCount != nil {
		fmt.Fprintf(w, "\n%d result(s)\n", *result.TotalCount)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
