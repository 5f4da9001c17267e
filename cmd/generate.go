package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comova/comova/internal/config"
	"github.com/comova/comova/internal/cosmoarray"
	"github.com/comova/comova/internal/icgen"
	"github.com/comova/comova/internal/params"
	"github.com/comova/comova/internal/plot"
	"github.com/comova/comova/internal/runlog"
	"github.com/comova/comova/internal/snapshot"
	"github.com/comova/comova/internal/ui"
	"github.com/comova/comova/internal/units"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an initial-condition snapshot from the parameter file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		printer := ui.New()
		printer.Banner()

		log, err := runlog.NewEmitter(cfg.LogPath)
		if err != nil {
			return err
		}
		defer log.Close()

		return runGenerate(cfg, printer, log)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

// runGenerate is the full generation pipeline, shared by generate and
// watch: load and validate parameters, place and relax particles, write
// the snapshot, and chart the resulting density run.
func runGenerate(cfg config.Config, printer *ui.Printer, log *runlog.Emitter) error {
	p, err := params.Load(cfg.ParamsPath)
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	genCfg, err := p.GeneratorConfig()
	if err != nil {
		return err
	}
	system, err := units.SystemByName(p.Output.System)
	if err != nil {
		return err
	}

	gen, err := icgen.New(genCfg)
	if err != nil {
		return err
	}

	printer.RunStart(p.Run.Name, gen.NPart(), 1/p.Box.ScaleFactor-1)
	_ = log.Emit(runlog.Event{Kind: runlog.KindRunStart, Run: p.Run.Name, Data: map[string]any{
		"n_part":  gen.NPart(),
		"profile": genCfg.Profile.Kind.String(),
	}})

	out, err := gen.Generate()
	if err != nil {
		return err
	}
	for _, s := range out.Stats {
		if cfg.Verbose {
			printer.RelaxIteration(s)
		}
		_ = log.Emit(runlog.Event{Kind: runlog.KindRelaxIteration, Run: p.Run.Name, Data: s})
	}
	printer.RelaxSummary(out.Stats)

	path, err := writeSnapshot(p, system, out)
	if err != nil {
		return err
	}
	printer.SnapshotWritten(path, gen.NPart())
	_ = log.Emit(runlog.Event{Kind: runlog.KindSnapshotWrite, Run: p.Run.Name, Data: map[string]any{
		"path": path,
	}})

	chart, err := densityChart(out, p.Box.Size, cfg.ChartWidth)
	if err != nil {
		return err
	}
	fmt.Println(chart)

	_ = log.Emit(runlog.Event{Kind: runlog.KindRunDone, Run: p.Run.Name})
	return nil
}

func writeSnapshot(p *params.Params, system units.System, out *icgen.Output) (string, error) {
	box, err := cosmoarray.New(
		[]float64{p.Box.Size, p.Box.Size, p.Box.Size}, "Mpc",
		cosmoarray.WithFactor(*out.Coordinates.Factor()),
	)
	if err != nil {
		return "", err
	}
	w, err := snapshot.NewWriter(system, box, p.Box.ScaleFactor, p.Output.Compression)
	if err != nil {
		return "", err
	}
	if err := out.Apply(w.Dataset(snapshot.Gas)); err != nil {
		return "", err
	}
	path := p.SnapshotPath()
	if err := w.Write(path); err != nil {
		return "", err
	}
	return path, nil
}

func densityChart(out *icgen.Output, boxSize float64, width int) (string, error) {
	profile, err := plot.DensityProfile(out.Coordinates, out.Masses, plot.AxisX, boxSize, 16)
	if err != nil {
		return "", err
	}
	return plot.Render(profile, "density along x", width), nil
}
