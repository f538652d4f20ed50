package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/ygrebnov/utoolkit/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		fmt.Fprintln(os.Stderr, "run 'utoolkit --help' for usage")
		os.Exit(1)
	}
}
