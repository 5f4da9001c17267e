package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comova/comova/internal/config"
	"github.com/comova/comova/internal/runlog"
	"github.com/comova/comova/internal/ui"
	"github.com/comova/comova/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Regenerate the snapshot whenever the parameter file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		printer := ui.New()
		printer.Banner()

		log, err := runlog.NewEmitter(cfg.LogPath)
		if err != nil {
			return err
		}
		defer log.Close()

		w, err := watch.NewWatcher(cfg.ParamsPath)
		if err != nil {
			return err
		}
		if err := w.Start(); err != nil {
			return err
		}
		defer w.Stop()

		printer.WatchStart(cfg.ParamsPath)

		// Generate once up front so the watcher starts from a fresh
		// snapshot.
		if err := runGenerate(cfg, printer, log); err != nil {
			printer.Error(err.Error())
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case change, ok := <-w.Changes:
				if !ok {
					return nil
				}
				if change.Kind == watch.ChangeRemoved {
					printer.Info(cfg.ParamsPath + " removed; waiting for it to reappear")
					continue
				}
				printer.WatchTrigger(change.Path)
				_ = log.Emit(runlog.Event{Kind: runlog.KindWatchTrigger, Data: map[string]any{
					"path": change.Path,
				}})
				if err := runGenerate(cfg, printer, log); err != nil {
					// Keep watching; a half-edited file should not kill
					// the session.
					printer.Error(err.Error())
				}
			case <-stop:
				printer.Info("stopping watcher")
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
