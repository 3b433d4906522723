package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/dbspctl/internal/app"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var poll time.Duration
	var theme string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open a live dashboard of projects and pipelines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			conn, err := ctx.connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			if poll <= 0 {
				poll = cfg.PollInterval
			}
			return app.Run(cmd.Context(), app.Options{
				Conn:      conn,
				PollEvery: poll,
				LogPath:   cfg.LogPath(),
				ThemeName: theme,
				Logger:    ctx.logger,
			})
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", 0, "Refresh interval (defaults to poll_interval)")
	cmd.Flags().StringVar(&theme, "theme", "", "Color theme")
	return cmd
}
