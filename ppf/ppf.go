// Package ppf reads the tables written by the waiting package for a sweep over pg and
// compares their quantiles with the approximations from the approx package. It also draws
// n against P(X <= n) for every table.
package ppf

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urnwait/urnwait/approx"
	"github.com/urnwait/urnwait/table"
)

// Limit is the cdf value above which rows are dropped before plotting and lookups.
const Limit = 0.99

// Thresholds are the probabilities compared by default.
var Thresholds = []float64{0.7, 0.85, 0.95}

// Curve is a loaded table.
type Curve struct {
	Pg    float64
	Path  string
	Table *table.Table
}

var warn = color.New(color.FgYellow).SprintFunc()

// Load reads the table for each pg from dir and keeps rows with F < limit. Missing tables
// are logged and skipped; any other error is returned.
func Load(dir string, A, M, n int, pgs []float64, limit float64) ([]Curve, error) {
	curves := make([]Curve, 0, len(pgs))
	for _, pg := range pgs {
		path := filepath.Join(dir, table.FileName(A, M, n, pg))
		tb, err := table.Read(path)
		if errors.Is(err, table.ErrMissing) {
			log.Println(warn(fmt.Sprintf("%s does not exist", path)))
			continue
		}
		if err != nil {
			return nil, err
		}
		tb = tb.Below(limit)
		log.Printf("pg: %g, final proba: %.6f", pg, tb.Final())
		curves = append(curves, Curve{Pg: pg, Path: path, Table: tb})
	}
	return curves, nil
}

// Cell holds the exact and approximate quantile for one (pg, p).
type Cell struct {
	Pg float64
	P  float64
	// Exact is the smallest t in the table with F(t) >= P. It is only valid if Err is nil.
	Exact  int
	Err    error
	Approx float64
}

func (c Cell) String() string {
	exact := fmt.Sprintf("%d", c.Exact)
	if c.Err != nil {
		exact = "NA"
	}
	return fmt.Sprintf("%g\t%g\t%s\t%.2f", c.Pg, c.P, exact, c.Approx)
}

// Compare computes a Cell for every curve and every p. A quantile missing from a table
// (because it stopped early or was filtered) is recorded in that Cell only.
func Compare(curves []Curve, ps []float64, A, M int, mode approx.Mode) ([]Cell, error) {
	cells := make([]Cell, 0, len(curves)*len(ps))
	for _, c := range curves {
		for _, p := range ps {
			ap, err := approx.Quantile(p, A, M, c.Pg, mode)
			if err != nil {
				return nil, err
			}
			cell := Cell{Pg: c.Pg, P: p, Approx: ap}
			cell.Exact, cell.Err = c.Table.Quantile(p)
			cells = append(cells, cell)
		}
	}
	return cells, nil
}

// Moments pairs the (truncated) mean and variance of a table with the closed forms.
type Moments struct {
	Pg                  float64
	Mean, Variance      float64
	Expectation, Approx float64
}

// CompareMoments computes Moments for every curve.
func CompareMoments(curves []Curve, A, M int) []Moments {
	ms := make([]Moments, len(curves))
	for i, c := range curves {
		m, v := c.Table.Moments()
		ms[i] = Moments{Pg: c.Pg, Mean: m, Variance: v,
			Expectation: approx.Expectation(c.Pg, A, M), Approx: approx.Variance(c.Pg, A, M)}
	}
	return ms
}
