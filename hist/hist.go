// Package hist draws P(X = t) from one or more tables as grouped bars.
package hist

import (
	"fmt"
	"log"
	"sort"

	arg "github.com/alexflint/go-arg"
	"github.com/urnwait/urnwait/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

type dargs struct {
	Bins   int      `arg:"-b" help:"optional number of bins of t. 0 uses one bar per t."`
	Path   string   `arg:"-p" help:"optional path to save plot."`
	Tables []string `arg:"positional,required" help:"tables written by exact"`
}

func pcheck(e error) {
	if e != nil {
		log.Fatal(e)
	}
}

// Main is run from the dispatcher
func Main() {

	args := dargs{Bins: 0, Path: "pmf.png"}
	arg.MustParse(&args)
	grouped := make(map[string]*table.Table, len(args.Tables))
	for _, path := range args.Tables {
		tb, err := table.Read(path)
		pcheck(err)
		grouped[path] = tb
	}
	pcheck(Plot(grouped, args.Bins, args.Path))
}

func mapkeys(m map[string]*table.Table) []string {
	var ks []string
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// Binned sums p over bins equal-width bins of t covering every table. It returns the
// lower edge of each bin and, per table, the mass in each bin. bins < 1 uses one bin per t.
func Binned(grouped map[string]*table.Table, bins int) ([]int, map[string][]float64, error) {
	lo, hi := -1, -1
	for _, tb := range grouped {
		if tb.Len() == 0 {
			continue
		}
		if lo == -1 || tb.T[0] < lo {
			lo = tb.T[0]
		}
		if t := tb.T[tb.Len()-1]; t > hi {
			hi = t
		}
	}
	if lo == -1 {
		return nil, nil, fmt.Errorf("hist: no rows in %d tables", len(grouped))
	}
	span := hi - lo + 1
	if bins < 1 || bins > span {
		bins = span
	}
	width := (span + bins - 1) / bins
	edges := make([]int, 0, bins)
	for e := lo; e <= hi; e += width {
		edges = append(edges, e)
	}
	out := make(map[string][]float64, len(grouped))
	for k, tb := range grouped {
		vals := make([]float64, len(edges))
		for i, t := range tb.T {
			vals[(t-lo)/width] += tb.P[i]
		}
		out[k] = vals
	}
	return edges, out, nil
}

// barWidth is the width in points of each bar when n tables share bins slots.
func barWidth(n, bins int) float64 {
	return 30.0 / float64(n) * 20 / float64(bins)
}

// Plot saves grouped bar charts of the pmf of each table to path.
func Plot(grouped map[string]*table.Table, bins int, path string) error {
	edges, binned, err := Binned(grouped, bins)
	if err != nil {
		return err
	}
	keys := mapkeys(grouped)

	p := plot.New()
	p.Y.Label.Text = "P(X = t)"
	p.X.Label.Text = "t"

	w := barWidth(len(grouped), len(edges))
	var bars []plot.Plotter

	for i, k := range keys {
		bar, err := plotter.NewBarChart(plotter.Values(binned[k]), vg.Points(w+0.01))
		if err != nil {
			return err
		}

		bar.LineStyle.Width = vg.Length(0.1)
		bar.Color = plotutil.Color(i)

		bar.Offset = vg.Points(float64(i) * w)
		p.Legend.Add(k, bar)
		bars = append(bars, bar)
	}
	p.Add(bars...)
	names := make([]string, len(edges))
	for i, e := range edges {
		names[i] = fmt.Sprintf("%d", e)
	}
	p.NominalX(names...)

	p.Legend.Top = true
	return p.Save(10*vg.Inch, 3*vg.Inch, path)
}
