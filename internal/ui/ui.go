package ui

import (
	"fmt"
	"os"

	"github.com/comova/comova/internal/icgen"
)

// ANSI color codes.
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	dim     = "\033[2m"
	yellow  = "\033[33m"
	green   = "\033[32m"
	red     = "\033[31m"
	cyan    = "\033[36m"
	magenta = "\033[35m"
)

type Printer struct{}

func New() *Printer {
	return &Printer{}
}

func (p *Printer) Banner() {
	fmt.Fprintln(os.Stderr, bold+cyan+"  ╔════════════════════════════════════╗"+reset)
	fmt.Fprintln(os.Stderr, bold+cyan+"  ║"+reset+bold+"   COMOVA  "+dim+"initial-condition tool"+reset+bold+cyan+"   ║"+reset)
	fmt.Fprintln(os.Stderr, bold+cyan+"  ╚════════════════════════════════════╝"+reset)
	fmt.Fprintln(os.Stderr)
}

func (p *Printer) RunStart(name string, nPart int, redshift float64) {
	fmt.Fprintf(os.Stderr, "\n"+bold+magenta+"── run %s ──"+reset+" %d particles at z=%.3g\n",
		name, nPart, redshift)
}

func (p *Printer) RelaxSummary(stats []icgen.IterationStats) {
	if len(stats) == 0 {
		fmt.Fprintln(os.Stderr, dim+"no relaxation needed"+reset)
		return
	}
	last := stats[len(stats)-1]
	fmt.Fprintf(os.Stderr, cyan+"◆ relaxed"+reset+" %d iteration(s), final error %.3g spacings\n",
		len(stats), last.DensityError)
}

func (p *Printer) RelaxIteration(s icgen.IterationStats) {
	fmt.Fprintf(os.Stderr, dim+"  pass %d: error %.3g, max shift %.3g"+reset+"\n",
		s.Iteration, s.DensityError, s.MaxShift)
}

func (p *Printer) SnapshotWritten(path string, nPart int) {
	fmt.Fprintf(os.Stderr, green+bold+"✓ snapshot written"+reset+" %s "+dim+"(%d particles)"+reset+"\n",
		path, nPart)
}

func (p *Printer) ValidateOK(path string) {
	fmt.Fprintf(os.Stderr, green+bold+"✓ %s"+reset+" — parameters valid\n", path)
}

func (p *Printer) ValidateFailed(path string, err error) {
	fmt.Fprintf(os.Stderr, red+bold+"✗ %s"+reset+" — %v\n", path, err)
}

func (p *Printer) WatchStart(path string) {
	fmt.Fprintf(os.Stderr, cyan+"◆ watching"+reset+" %s "+dim+"(ctrl-c to stop)"+reset+"\n", path)
}

func (p *Printer) WatchTrigger(path string) {
	fmt.Fprintf(os.Stderr, yellow+bold+"⟳ %s changed"+reset+" — regenerating\n", path)
}

func (p *Printer) Error(msg string) {
	fmt.Fprintf(os.Stderr, red+bold+"error: "+reset+"%s\n", msg)
}

func (p *Printer) Info(msg string) {
	fmt.Fprintf(os.Stderr, dim+"%s"+reset+"\n", msg)
}
