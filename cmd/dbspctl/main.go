package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, cmdCtx := newRootCommand()
	if err := executeCommand(ctx, cmd, cmdCtx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "dbspctl: %v\n", err)
		}
		return 1
	}
	return 0
}

// executeCommand runs cmd and then closes the log file, whether or not the
// command failed. cobra skips post-run hooks after an error.
func executeCommand(ctx context.Context, cmd *cobra.Command, cmdCtx *commandContext) error {
	err := cmd.ExecuteContext(ctx)
	if closeErr := cmdCtx.close(); err == nil {
		err = closeErr
	}
	return err
}
