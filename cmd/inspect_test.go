package cmd

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/comova/comova/internal/config"
	"github.com/comova/comova/internal/icgen"
	"github.com/comova/comova/internal/params"
	"github.com/comova/comova/internal/snapshot"
	"github.com/comova/comova/internal/ui"
	"github.com/comova/comova/internal/units"
)

func writeTestSnapshot(t *testing.T) string {
	t.Helper()
	p := params.Defaults()
	p.Run.Name = "inspect-test"
	p.Run.OutputDir = t.TempDir()
	p.Particles.NDim = 1
	p.Particles.NPartSide = 16

	cfg, err := p.GeneratorConfig()
	if err != nil {
		t.Fatalf("GeneratorConfig: %v", err)
	}
	gen, err := icgen.New(cfg)
	if err != nil {
		t.Fatalf("icgen.New: %v", err)
	}
	out, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	system, err := units.SystemByName(p.Output.System)
	if err != nil {
		t.Fatalf("SystemByName: %v", err)
	}
	path, err := writeSnapshot(p, system, out)
	if err != nil {
		t.Fatalf("writeSnapshot: %v", err)
	}
	return path
}

func TestRenderSummary(t *testing.T) {
	path := writeTestSnapshot(t)

	file, err := snapshot.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	out := renderSummary(file)
	for _, want := range []string{"header", "redshift", "PartType0", "coordinates", "comoving"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSnapshotDensityChart(t *testing.T) {
	path := writeTestSnapshot(t)

	file, err := snapshot.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	chart, err := snapshotDensityChart(file, 32)
	if err != nil {
		t.Fatalf("snapshotDensityChart: %v", err)
	}
	if !strings.Contains(chart, "gas density") {
		t.Errorf("chart missing title:\n%s", chart)
	}

	// A snapshot with no gas group cannot be profiled.
	file.Groups = nil
	if _, err := snapshotDensityChart(file, 32); err == nil {
		t.Error("expected error for snapshot without gas")
	}
}

func TestDensityChartFromGeneratorOutput(t *testing.T) {
	p := params.Defaults()
	p.Particles.NDim = 1
	p.Particles.NPartSide = 16
	cfg, err := p.GeneratorConfig()
	if err != nil {
		t.Fatalf("GeneratorConfig: %v", err)
	}
	gen, err := icgen.New(cfg)
	if err != nil {
		t.Fatalf("icgen.New: %v", err)
	}
	out, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	chart, err := densityChart(out, p.Box.Size, 32)
	if err != nil {
		t.Fatalf("densityChart: %v", err)
	}
	if chart == "" {
		t.Error("empty chart")
	}
}

func TestRunGenerateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	p := params.Defaults()
	p.Run.Name = "e2e"
	p.Run.OutputDir = dir
	p.Particles.NDim = 1
	p.Particles.NPartSide = 16
	paramsPath := filepath.Join(dir, "comova.toml")
	if err := params.Save(paramsPath, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	cfg := config.Config{
		ParamsPath: paramsPath,
		LogPath:    filepath.Join(dir, "run.jsonl"),
		ChartWidth: 32,
	}
	// A nil emitter is valid; logging is exercised separately.
	if err := runGenerate(cfg, ui.New(), nil); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
	if _, err := snapshot.Read(p.SnapshotPath()); err != nil {
		t.Fatalf("generated snapshot unreadable: %v", err)
	}
}
