package ppf

import (
	"bufio"
	"fmt"
	"log"
	"os"

	arg "github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"github.com/urnwait/urnwait/approx"
)

type cliargs struct {
	A          int         `arg:"positional,required" help:"A+1 distinct red balls must be drawn"`
	M          int         `arg:"positional,required" help:"number of distinct red balls"`
	N          int         `arg:"positional,required" help:"n used when the tables were computed"`
	Pg         []float64   `arg:"--pg" help:"pg values to load"`
	Dir        string      `arg:"-d,--dir,env:URNWAIT_RESULTS" help:"directory holding the tables"`
	Limit      float64     `arg:"-l,--limit" help:"drop rows with a cdf at or above this"`
	Thresholds []float64   `arg:"-t,--thresholds" help:"probabilities at which quantiles are compared"`
	Mode       approx.Mode `arg:"-m,--mode" help:"chi-squared or normal. default is chi-squared when A+1 == M"`
	NoApprox   bool        `arg:"--no-approx" help:"only plot the exact curves"`
	Plot       string      `arg:"--plot" help:"save a figure here (.png, .pdf, .svg)"`
	HTML       string      `arg:"--html" help:"save an interactive chart here"`
}

func (cliargs) Description() string {
	return "compare quantiles of the exact tables with the closed-form approximations"
}

func (c cliargs) validate() error {
	if c.A <= 0 || c.M <= c.A {
		return fmt.Errorf("need 0 < A < M, got A=%d, M=%d", c.A, c.M)
	}
	if c.N < c.M {
		return fmt.Errorf("need N >= M, got N=%d, M=%d", c.N, c.M)
	}
	return nil
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
	cli := cliargs{Pg: []float64{0.7, 0.95, 0.999}, Dir: "results", Limit: Limit, Thresholds: Thresholds}
	p := arg.MustParse(&cli)
	if err := cli.validate(); err != nil {
		p.Fail(err.Error())
	}
	if cli.Mode == 0 {
		cli.Mode = approx.ModeFor(cli.A, cli.M)
	}

	curves, err := Load(cli.Dir, cli.A, cli.M, cli.N, cli.Pg, cli.Limit)
	pcheck(err)
	if len(curves) == 0 {
		log.Fatal("no tables found in ", cli.Dir)
	}

	cells, err := Compare(curves, cli.Thresholds, cli.A, cli.M, cli.Mode)
	pcheck(err)

	stdout := bufio.NewWriter(os.Stdout)
	defer stdout.Flush()
	fmt.Fprintln(stdout, "pg\tp\texact\tapprox")
	for _, c := range cells {
		if c.Err != nil {
			log.Printf("pg: %g, p: %g: %s", c.Pg, c.P, c.Err)
		}
		fmt.Fprintln(stdout, c)
	}
	for _, m := range CompareMoments(curves, cli.A, cli.M) {
		fmt.Fprintf(stdout, "#pg: %g\tmean: %.2f\texpectation: %.2f\tvariance: %.2f\tapprox_variance: %.2f\n",
			m.Pg, m.Mean, m.Expectation, m.Variance, m.Approx)
	}

	o := Options{A: cli.A, M: cli.M, Approx: !cli.NoApprox, Mode: cli.Mode, Thresholds: cli.Thresholds}
	if cli.Plot != "" {
		pcheck(Plot(cli.Plot, curves, o))
		log.Printf("wrote %s", cli.Plot)
	}
	if cli.HTML != "" {
		wtr, err := os.Create(cli.HTML)
		pcheck(err)
		pcheck(HTML(wtr, curves, o))
		pcheck(wtr.Close())
		log.Printf("wrote %s", cli.HTML)
	}
}
