package waiting

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	arg "github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/urnwait/urnwait/table"
)

type cliargs struct {
	A         int       `arg:"positional,required" help:"A+1 distinct red balls must be drawn"`
	M         int       `arg:"positional,required" help:"number of distinct red balls (> A)"`
	Pg        float64   `arg:"positional,required" help:"probability of drawing a red ball, in (0, 1)"`
	N         int       `arg:"positional,required" help:"largest draw to evaluate (>= M)"`
	Threshold float64   `arg:"-f,--threshold" help:"stop after the first draw where P(X <= t) exceeds this"`
	Prec      uint      `arg:"--prec" help:"floating point precision in bits. default scales with n*log2(M)"`
	Dir       string    `arg:"-d,--dir,env:URNWAIT_RESULTS" help:"directory for the output tables"`
	Sweep     []float64 `arg:"-x,--sweep" help:"extra pg values computed with the same A, M, n"`
	Processes int       `arg:"-p,--processes" help:"number of pg values to compute in parallel"`
}

func (cliargs) Description() string {
	return "exact pmf and cdf of the draw on which A+1 distinct red balls have first been seen"
}

func pcheck(e error) {
	if e != nil {
		c := color.New(color.BgRed).Add(color.Bold)
		fmt.Fprintln(os.Stderr, c.SprintFunc()(fmt.Sprintf("ERROR: %s", e)))
		os.Exit(1)
	}
}

// Main is run from the dispatcher
func Main() {
	cli := cliargs{Threshold: DefaultThreshold, Dir: "results", Processes: 1}
	p := arg.MustParse(&cli)
	params := Params{A: cli.A, M: cli.M, S: cli.N, Pg: cli.Pg, Threshold: cli.Threshold, Prec: cli.Prec}
	if err := params.Validate(); err != nil {
		p.Fail(err.Error())
	}
	pgs := append([]float64{cli.Pg}, cli.Sweep...)

	sums, err := Sweep(params, pgs, cli.Dir, cli.Processes, nil)
	pcheck(err)

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()
	fmt.Fprintln(stdout, "path\tpg\tlast_t\tF\tcrossed")
	for _, s := range sums {
		fmt.Fprintf(stdout, "%s\t%g\t%d\t%s\t%v\n", filepath.Clean(s.Params.Path(cli.Dir)), s.Params.Pg,
			s.LastT, s.F.Text('f', table.Digits), s.Crossed)
	}
}
