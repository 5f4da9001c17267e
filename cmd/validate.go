package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/comova/comova/internal/config"
	"github.com/comova/comova/internal/params"
	"github.com/comova/comova/internal/runlog"
	"github.com/comova/comova/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the run-parameter file without generating anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		printer := ui.New()

		log, err := runlog.NewEmitter(cfg.LogPath)
		if err != nil {
			return err
		}
		defer log.Close()

		p, err := params.Load(cfg.ParamsPath)
		if err == nil {
			err = p.Validate()
		}

		run := ""
		if p != nil {
			run = p.Run.Name
		}
		_ = log.Emit(runlog.Event{Kind: runlog.KindValidateResult, Run: run, Data: map[string]any{
			"ok": err == nil,
		}})

		if err != nil {
			printer.ValidateFailed(cfg.ParamsPath, err)
			os.Exit(1)
		}
		printer.ValidateOK(cfg.ParamsPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
