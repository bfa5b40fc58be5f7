//go:build linux || darwin

package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fruitsalade/dfm/internal/fusefs"
	"github.com/fruitsalade/dfm/internal/logging"
)

var flagRefresh time.Duration

var mountCmd = &cobra.Command{
	Use:   "mount <dir>",
	Short: "Mount the tree as a read-only filesystem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		loader, _, err := loadDocument(ctx)
		if err != nil {
			return err
		}

		fsys := fusefs.New(loader, fusefs.Config{
			Location:        cfg.Source,
			BaseURL:         cfg.BaseURL,
			RefreshInterval: flagRefresh,
		})
		if err := fsys.Refresh(ctx, false); err != nil {
			return err
		}

		server, err := fsys.Mount(args[0])
		if err != nil {
			return err
		}

		fsys.StartRefreshLoop(ctx)
		if cfg.WatchSource {
			watchSource(ctx, loader, func() { fsys.Refresh(ctx, true) })
		}

		logging.Info("filesystem mounted (read-only)", logging.String("dir", args[0]))
		<-ctx.Done()

		logging.Info("unmounting...")
		fsys.StopRefreshLoop()
		if err := server.Unmount(); err != nil {
			return err
		}
		stats := fsys.GetStats()
		logging.Info("done",
			logging.Int("refreshes", int(stats.Refreshes.Load())),
			logging.Int("lookups", int(stats.Lookups.Load())),
		)
		return nil
	},
}

func init() {
	mountCmd.Flags().DurationVar(&flagRefresh, "refresh", 0, "reload the document at this interval, 0 to disable")
	rootCmd.AddCommand(mountCmd)
}
