// Package cli implements the utoolkit command line: a driver that pushes a
// configurable workload through a threadpool.Pool and reports what happened.
package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/ygrebnov/utoolkit/internal/cli.Version=...".
var Version = "dev"

// NewRootCommand builds the utoolkit command tree writing to out and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "utoolkit",
		Short:         "Drive a fixed-size worker pool from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().String("config", "", "config file (yaml, json or toml)")

	root.AddCommand(newRunCommand(), newVersionCommand())
	return root
}
