package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLILocation is a source range. Lines are 1-based, columns 0-based.
type CLILocation struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// CLIDiagnostic is one problem found in a unit.
type CLIDiagnostic struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// CLISymbol is a declared symbol with the kind of scope that holds it.
type CLISymbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Type      string `json:"type"`
	Signature string `json:"signature"`
	Scope     string `json:"scope"`
	File      string `json:"file,omitempty"`
	Line      int    `json:"line"`
	Col       int    `json:"col"`
}

// CLICompletion is one completion item.
type CLICompletion struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// CLIHover is hover markdown with the range it describes.
type CLIHover struct {
	Markdown string      `json:"markdown"`
	Location CLILocation `json:"location"`
}

// CLISignature is one overload shown by signature help.
type CLISignature struct {
	Label      string   `json:"label"`
	Parameters []string `json:"parameters"`
}

// CLISignatureHelp lists the overloads of the call around a position.
type CLISignatureHelp struct {
	Signatures      []CLISignature `json:"signatures"`
	ActiveSignature int            `json:"active_signature"`
	ActiveParameter int            `json:"active_parameter"`
}

// CLIToken is one decoded semantic token.
type CLIToken struct {
	Line      int      `json:"line"`
	Col       int      `json:"col"`
	Length    int      `json:"length"`
	Type      string   `json:"type"`
	Modifiers []string `json:"modifiers,omitempty"`
}

// CLIBracketEntry is the metadata of one bracket expression.
type CLIBracketEntry struct {
	Expr       string              `json:"expr"`
	Properties map[string][]string `json:"properties"`
}

// CLIImportStats summarizes a bracket dump import.
type CLIImportStats struct {
	Entries int    `json:"entries"`
	Skipped bool   `json:"skipped"`
	Hash    string `json:"hash"`
}
