package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var raw bool
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent dbspctl log entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := logtail.Read(cfg.LogPath(), lines)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No log entries in %s\n", cfg.LogPath())
				return nil
			}
			if !raw {
				entries = logtail.FormatLines(entries)
			}
			for _, line := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines as written")
	return cmd
}
