package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"testhook/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-scan files as they change",
		Long: `Watches a directory tree (default: the current directory) and prints the
suggestions for each file shortly after it is saved. Ordinals restart for
every file. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return a.runWatch(cmd.Context(), dir)
		},
	}
}

func (a *app) runWatch(ctx context.Context, dir string) error {
	filter, err := a.cfg.Filter()
	if err != nil {
		return usageError(err)
	}
	w, err := watch.New(dir, a.factory(), a.cfg.ScanOptions(), filter,
		watch.Options{Debounce: a.cfg.GetWatchDebounce()},
		a.printEvent, a.logger)
	if err != nil {
		return runtimeError(err)
	}
	if err := w.Run(ctx); err != nil {
		return runtimeError(err)
	}
	return nil
}

// printEvent writes one line per suggestion, "path:line  slug  (label)".
func (a *app) printEvent(e watch.Event) {
	switch {
	case e.Removed:
		fmt.Fprintf(a.stdout, "%s: removed\n", e.Path)
	case e.Result.Err != nil:
		fmt.Fprintf(a.stdout, "%s: %v\n", e.Path, e.Result.Err)
	case len(e.Result.Candidates) == 0:
		fmt.Fprintf(a.stdout, "%s: ok\n", e.Path)
	default:
		for _, c := range e.Result.Candidates {
			fmt.Fprintf(a.stdout, "%s  %s=%q  (%s)\n", c.Location(), a.cfg.Marker, c.Slug, c.TextHint)
		}
	}
}
