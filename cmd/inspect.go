package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/comova/comova/internal/config"
	"github.com/comova/comova/internal/plot"
	"github.com/comova/comova/internal/snapshot"
)

var (
	styleHeading = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Bold(true)
	styleKey     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	styleValue   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EEEEEE"))
)

var inspectProfile bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <snapshot>",
	Short: "Summarize a snapshot container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		file, err := snapshot.Read(args[0])
		if err != nil {
			return err
		}
		fmt.Println(renderSummary(file))

		if inspectProfile {
			chart, err := snapshotDensityChart(file, cfg.ChartWidth)
			if err != nil {
				return err
			}
			fmt.Println(chart)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectProfile, "profile", false, "chart the gas density along x")
	rootCmd.AddCommand(inspectCmd)
}

func renderSummary(file *snapshot.File) string {
	var sb strings.Builder
	row := func(key string, format string, args ...any) {
		sb.WriteString("  ")
		sb.WriteString(styleKey.Render(fmt.Sprintf("%-14s", key)))
		sb.WriteString(styleValue.Render(fmt.Sprintf(format, args...)))
		sb.WriteString("\n")
	}

	sb.WriteString(styleHeading.Render("header"))
	sb.WriteString("\n")
	row("box size", "%v", file.Header.BoxSize)
	row("scale factor", "%g", file.Header.ScaleFactor)
	row("redshift", "%g", file.Header.Redshift)
	if file.Header.CompressionLabel != "" {
		row("compression", "%s", file.Header.CompressionLabel)
	}

	sb.WriteString(styleHeading.Render("units (cgs)"))
	sb.WriteString("\n")
	row("U_M", "%g", file.Units.MassCGS)
	row("U_L", "%g", file.Units.LengthCGS)
	row("U_t", "%g", file.Units.TimeCGS)
	row("U_T", "%g", file.Units.TemperatureCGS)

	for _, g := range file.Groups {
		sb.WriteString(styleHeading.Render(g.Kind.GroupName()))
		sb.WriteString("\n")
		row("particles", "%d", file.Header.NumPartTotal[g.Kind])

		names := make([]string, 0, len(g.Fields))
		for name := range g.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			arr := g.Fields[name]
			frame := "physical"
			if arr.Comoving() {
				frame = "comoving"
			}
			exp := "exempt"
			if f := arr.Factor(); f != nil {
				exp = f.Exponent().String()
			}
			row(name, "%v %s, %s, %s", arr.Shape(), arr.Unit(), frame, exp)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func snapshotDensityChart(file *snapshot.File, width int) (string, error) {
	for _, g := range file.Groups {
		if g.Kind != snapshot.Gas {
			continue
		}
		coords := g.Fields[snapshot.FieldCoordinates]
		masses := g.Fields[snapshot.FieldMasses]
		if coords == nil || masses == nil || len(file.Header.BoxSize) == 0 {
			break
		}
		profile, err := plot.DensityProfile(coords, masses, plot.AxisX, file.Header.BoxSize[0], 16)
		if err != nil {
			return "", err
		}
		return plot.Render(profile, "gas density along x", width), nil
	}
	return "", fmt.Errorf("inspect: snapshot has no gas group to profile")
}
