package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/jward/zenls"
	"github.com/jward/zenls/internal/lsp"
)

var log = commonlog.GetLogger("zenls.cli")

var flagWatch bool

var serveCmd = &cobra.Command{
	Use:   "serve [dir...]",
	Short: "Run the language server on stdio",
	Long:  "Serves the Language Server Protocol on stdin and stdout. With --watch, file changes below the given directories (default: the current directory) are applied without waiting for the client.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&flagWatch, "watch", false, "watch directories for changes made outside the editor")
}

func runServe(cmd *cobra.Command, args []string) error {
	opts, cleanup, err := engineOptions()
	if err != nil {
		return err
	}
	defer cleanup()

	srv := lsp.NewServer(opts...)
	if flagWatch {
		dirs, err := watchDirs(args)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			if err := srv.Engine().Watch(ctx, logApplied, dirs...); err != nil && ctx.Err() == nil {
				log.Errorf("watch: %s", err)
			}
		}()
	}
	return srv.RunStdio()
}

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Load a directory and log reloads as files change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	e, cleanup, err := newEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := e.LoadDir(ctx, dir); err != nil {
		log.Warningf("load %s: %s", dir, err)
	}
	fmt.Fprintf(os.Stderr, "Watching %s (%d units)\n", dir, len(e.Units()))
	err = e.Watch(ctx, func(ev zenls.Event, err error) {
		logApplied(ev, err)
		fmt.Fprintf(os.Stderr, "%s %s\n", ev.Kind, ev.Path)
	}, dir)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func watchDirs(args []string) ([]string, error) {
	if len(args) == 0 {
		dir, err := resolveTargetDir(nil)
		if err != nil {
			return nil, err
		}
		return []string{dir}, nil
	}
	dirs := make([]string, 0, len(args))
	for _, a := range args {
		dir, err := resolveTargetDir([]string{a})
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

func logApplied(ev zenls.Event, err error) {
	if err != nil {
		log.Warningf("%s %s: %s", ev.Kind, ev.Path, err)
		return
	}
	log.Infof("%s %s", ev.Kind, ev.Path)
}
