package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/zenls"
	"github.com/jward/zenls/internal/bracket"
)

var flagCompleteLimit int

var bracketsCmd = &cobra.Command{
	Use:   "brackets",
	Short: "Manage and query bracket-handler metadata",
}

func init() {
	bracketsCmd.AddCommand(bracketsImportCmd)
	bracketsCmd.AddCommand(bracketsGetCmd)
	bracketsCmd.AddCommand(bracketsCompleteCmd)
	bracketsCompleteCmd.Flags().IntVar(&flagCompleteLimit, "limit", zenls.DefaultBracketLimit, "maximum number of expressions")
}

var bracketsImportCmd = &cobra.Command{
	Use:   "import <dump.json>",
	Short: "Import a bracket dump into the local mirror",
	Long:  "Replaces the mirror's entries with the dump's in one transaction. Importing the same dump again is a no-op.",
	Args:  cobra.ExactArgs(1),
	RunE:  runBracketsImport,
}

func runBracketsImport(cmd *cobra.Command, args []string) error {
	dbPath, _, err := resolveDBPath()
	if err != nil {
		return outputError("brackets import", err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError("brackets import", err)
	}
	mirror, err := bracket.OpenMirror(dbPath)
	if err != nil {
		return outputError("brackets import", err)
	}
	defer mirror.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return outputError("brackets import", err)
	}
	defer f.Close()

	stats, err := mirror.Store().ImportDump(f)
	if err != nil {
		return outputError("brackets import", err)
	}
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return outputResult(CLIResult{Command: "brackets import", Results: CLIImportStats{
		Entries: stats.Entries,
		Skipped: stats.Skipped,
		Hash:    stats.Hash,
	}})
}

var bracketsGetCmd = &cobra.Command{
	Use:   "get <expr>",
	Short: "Show the metadata of a bracket expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runBracketsGet,
}

func runBracketsGet(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := bracketService()
	if err != nil {
		return outputError("brackets get", err)
	}
	defer cleanup()
	if svc == nil {
		return outputError("brackets get", fmt.Errorf("no bracket service: import a dump or pass --bracket-url"))
	}

	e, err := svc.Entry(context.Background(), bracket.Expr(args[0]))
	if err != nil {
		return outputError("brackets get", err)
	}
	return outputResult(CLIResult{Command: "brackets get", Results: CLIBracketEntry{
		Expr:       e.Expr,
		Properties: e.Properties,
	}})
}

var bracketsCompleteCmd = &cobra.Command{
	Use:   "complete <prefix>",
	Short: "List known bracket expressions starting with a prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runBracketsComplete,
}

func runBracketsComplete(cmd *cobra.Command, args []string) error {
	svc, cleanup, err := bracketService()
	if err != nil {
		return outputError("brackets complete", err)
	}
	defer cleanup()
	if svc == nil {
		return outputError("brackets complete", fmt.Errorf("no bracket service: import a dump or pass --bracket-url"))
	}

	exprs, err := svc.Complete(context.Background(), args[0], flagCompleteLimit)
	if err != nil {
		return outputError("brackets complete", err)
	}
	if exprs == nil {
		exprs = []string{}
	}
	return outputResult(CLIResult{Command: "brackets complete", Results: exprs})
}
