package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/zenls/internal/runtime"
	"github.com/jward/zenls/scripts"
)

var (
	flagScriptRoot string
	flagScriptFile string
)

var scriptCmd = &cobra.Command{
	Use:   "script <file.risor|name>",
	Short: "Run a Risor query script against a project",
	Long: `Loads the project below --root and runs the script with host functions for units, symbols, globals, types, completions, hovers and diagnostics.

A name without a file on disk runs a bundled script: outline (needs --file), unresolved or summary. Imports of a script on disk resolve relative to its directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	scriptCmd.Flags().StringVar(&flagScriptRoot, "root", "", "project directory to load before running (default: no project)")
	scriptCmd.Flags().StringVar(&flagScriptFile, "file", "", "document exposed to the script as the global file")
}

func runScript(cmd *cobra.Command, args []string) error {
	e, cleanup, err := newEngine()
	if err != nil {
		return outputError("script", err)
	}
	defer cleanup()

	ctx := context.Background()
	if flagScriptRoot != "" {
		dir, err := resolveTargetDir([]string{flagScriptRoot})
		if err != nil {
			return outputError("script", err)
		}
		if err := e.LoadDir(ctx, dir); err != nil {
			log.Warningf("load %s: %s", dir, err)
		}
	}

	globals := map[string]any{}
	if flagScriptFile != "" {
		file, err := resolveFilePath(flagScriptFile)
		if err != nil {
			return outputError("script", err)
		}
		globals["file"] = file
	}

	var rt *runtime.Runtime
	path := args[0]
	if _, statErr := os.Stat(path); statErr != nil && scripts.Has(path) {
		rt = runtime.NewRuntime(e, "", runtime.WithRuntimeFS(scripts.FS))
		path = scripts.Path(path)
	} else {
		if path, err = resolveFilePath(path); err != nil {
			return outputError("script", err)
		}
		rt = runtime.NewRuntime(e, filepath.Dir(path))
	}

	value, err := rt.RunScript(ctx, path, globals)
	if err != nil {
		return outputError("script", err)
	}
	return outputResult(CLIResult{Command: "script", Results: value})
}
