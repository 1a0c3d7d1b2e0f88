package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/spf13/cobra"

	"testhook/internal/config"
)

func newSlugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "slug <role> <text> <ordinal>",
		Short: "Print the identifier generated for a role, label and ordinal",
		Example: `  testhook slug button "Submit Form" 0   # button-submit-form-0
  testhook slug a "Learn More" 3         # link-learn-more-3`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ordinal, err := strconv.Atoi(args[2])
			if err != nil || ordinal < 0 {
				return usageError(fmt.Errorf("ordinal must be a non-negative integer, got %q", args[2]))
			}
			fmt.Fprintln(a.stdout, a.cfg.Namer().Slug(args[0], args[1], ordinal))
			return nil
		},
	}
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .testhook.yaml in the workspace root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if path == "" {
				path = a.defaultConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return usageError(fmt.Errorf("%s already exists (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return runtimeError(err)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return runtimeError(err)
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "testhook %s (%s, %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
