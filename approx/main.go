package approx

import (
	"bufio"
	"fmt"
	"os"

	arg "github.com/alexflint/go-arg"
)

type cliargs struct {
	A      int     `arg:"positional,required" help:"A+1 distinct red balls must be drawn"`
	M      int     `arg:"positional,required" help:"number of distinct red balls (> A)"`
	Pg     float64 `arg:"positional,required" help:"probability of drawing a red ball, in (0, 1)"`
	Mode   Mode    `arg:"-m,--mode" help:"quantile approximation: chi-squared or normal. default is chi-squared when A+1 == M"`
	Points int     `arg:"-n,--points" help:"number of probabilities in [0.05, 0.95] to evaluate"`
}

func (cliargs) Description() string {
	return "closed-form expectation, variance and quantile approximations of the waiting time"
}

// Main is run from the dispatcher
func Main() {
	cli := cliargs{Points: 19}
	p := arg.MustParse(&cli)
	switch {
	case cli.A <= 0 || cli.M <= cli.A:
		p.Fail("need 0 < A < M")
	case !(cli.Pg > 0 && cli.Pg < 1):
		p.Fail("pg must be in (0, 1)")
	case cli.Points < 1:
		p.Fail("points must be >= 1")
	}
	if cli.Mode == 0 {
		cli.Mode = ModeFor(cli.A, cli.M)
	}

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()
	fmt.Fprintf(stdout, "#expectation\t%.4f\n", Expectation(cli.Pg, cli.A, cli.M))
	fmt.Fprintf(stdout, "#variance\t%.4f\n", Variance(cli.Pg, cli.A, cli.M))
	fmt.Fprintf(stdout, "#mode\t%s\n", cli.Mode)
	fmt.Fprintln(stdout, "p\tn_approx")
	ps := Linspace(0.05, 0.95, cli.Points)
	ns, err := QuantileCurve(ps, cli.A, cli.M, cli.Pg, cli.Mode)
	if err != nil {
		p.Fail(err.Error())
	}
	for i, q := range ps {
		fmt.Fprintf(stdout, "%.4f\t%.2f\n", q, ns[i])
	}
}
