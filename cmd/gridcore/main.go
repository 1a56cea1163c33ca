package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tablekit/gridcore/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev" //nolint:gochecknoglobals // Build-time injection point.

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version)
	return root.ExecuteContext(ctx)
}
