package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/dbspctl/dbsp"
	"github.com/five82/dbspctl/internal/state"
	"github.com/five82/dbspctl/internal/ui"
)

// Options configure the watch dashboard.
type Options struct {
	Conn      *dbsp.Connection
	PollEvery time.Duration // zero uses default
	LogPath   string
	ThemeName string
	Logger    *slog.Logger
}

// Run polls the server and shows the dashboard until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, opts Options) error {
	if opts.Conn == nil {
		return errors.New("watch: no server connection")
	}

	store := &state.Store{}
	store.SetServer(opts.Conn.Address())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := NewPoller(store, opts.Conn, opts.PollEvery, nil, opts.Logger)
	// Populate the store before the first frame.
	_ = poller.Refresh(ctx)
	done := poller.Start(ctx)

	err := ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Actions:   pipelineActions{conn: opts.Conn},
		PollTick:  poller.interval,
		LogPath:   opts.LogPath,
		ThemeName: opts.ThemeName,
	})
	cancel()
	<-done
	return err
}
