package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/jward/zenls"
	"github.com/jward/zenls/internal/bracket"
)

var (
	flagRootMarker      string
	flagScriptNamespace string
	flagLibraryDirs     []string
	flagDB              string
	flagBracketURL      string
	flagFormat          string
	flagVerbose         int
	flagLogFile         string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "zenls",
	Short:         "ZenScript language tooling",
	Long:          "zenls resolves ZenScript projects and answers editor queries, either as a language server or from the command line.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configureLogging()
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagRootMarker, "root-marker", "", `directory name that marks an environment root (default "scripts")`)
	flags.StringVar(&flagScriptNamespace, "script-namespace", "", `prefix of qualified script names (default "scripts")`)
	flags.StringSliceVar(&flagLibraryDirs, "library-dir", nil, "library declaration directory (repeatable; default: generated/ next to each root)")
	flags.StringVar(&flagDB, "db", "", "bracket mirror database (default: .zenls/brackets.db relative to repo root)")
	flags.StringVar(&flagBracketURL, "bracket-url", "", "base URL of a remote bracket service, consulted after the mirror")
	flags.StringVar(&flagFormat, "format", "json", "output format: json|text")
	flags.CountVarP(&flagVerbose, "verbose", "v", "log verbosity (repeat for more)")
	flags.StringVar(&flagLogFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(scriptCmd)
	rootCmd.AddCommand(bracketsCmd)
}

// configureLogging routes commonlog output. Logs never go to stdout, which
// carries results and the language server protocol.
func configureLogging() {
	var path *string
	if flagLogFile != "" {
		path = &flagLogFile
	}
	commonlog.Configure(flagVerbose, path)
}

// newEngine builds an Engine from the persistent flags. The returned
// cleanup closes the bracket mirror, if one was opened.
func newEngine(extra ...zenls.Option) (*zenls.Engine, func(), error) {
	opts, cleanup, err := engineOptions()
	if err != nil {
		return nil, nil, err
	}
	return zenls.New(append(opts, extra...)...), cleanup, nil
}

func engineOptions() ([]zenls.Option, func(), error) {
	var opts []zenls.Option
	if flagRootMarker != "" {
		opts = append(opts, zenls.WithRootMarker(flagRootMarker))
	}
	if flagScriptNamespace != "" {
		opts = append(opts, zenls.WithScriptNamespace(flagScriptNamespace))
	}
	if len(flagLibraryDirs) > 0 {
		dirs := make([]string, 0, len(flagLibraryDirs))
		for _, d := range flagLibraryDirs {
			abs, err := filepath.Abs(d)
			if err != nil {
				return nil, nil, fmt.Errorf("resolving library dir %q: %w", d, err)
			}
			dirs = append(dirs, abs)
		}
		opts = append(opts, zenls.WithLibraryDirs(dirs...))
	}

	svc, cleanup, err := bracketService()
	if err != nil {
		return nil, nil, err
	}
	if svc != nil {
		opts = append(opts, zenls.WithBracketService(svc))
	}
	return opts, cleanup, nil
}

// bracketService chains the mirror and the remote service. The mirror is
// opened when --db is given or the default database exists.
func bracketService() (bracket.Service, func(), error) {
	var chain bracket.Chain
	cleanup := func() {}

	dbPath, explicit, err := resolveDBPath()
	if err != nil {
		return nil, nil, err
	}
	_, statErr := os.Stat(dbPath)
	if explicit || statErr == nil {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err)
		}
		mirror, err := bracket.OpenMirror(dbPath)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, mirror)
		cleanup = func() { mirror.Close() }
	}
	if flagBracketURL != "" {
		chain = append(chain, bracket.NewRemote(flagBracketURL, nil))
	}

	if len(chain) == 0 {
		return nil, cleanup, nil
	}
	return chain, cleanup, nil
}

// resolveTargetDir returns the absolute path of the directory to load.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the mirror path from the --db flag or the default,
// and whether the flag named it.
func resolveDBPath() (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("getting cwd: %w", err)
	}
	repoRoot := findRepoRoot(cwd)
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB, true, nil
		}
		return filepath.Join(repoRoot, flagDB), true, nil
	}
	return filepath.Join(repoRoot, ".zenls", "brackets.db"), false, nil
}
