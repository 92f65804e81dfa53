package waiting

import (
	"fmt"
	"log"

	"github.com/urnwait/urnwait/stirling"
	"github.com/urnwait/urnwait/table"
	"golang.org/x/sync/errgroup"
)

// Run computes the table for p and writes it to p.Path(dir). On error nothing is left at
// the final path; an earlier table of the same name is replaced only on success.
func Run(p Params, ws *stirling.Array, dir string) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	w, err := table.Create(p.Path(dir))
	if err != nil {
		return nil, err
	}
	s, err := Compute(p, ws, w)
	if err != nil {
		w.Abort()
		return s, err
	}
	return s, w.Close()
}

// Sweep runs base once for each of pgs. All pg values are validated before any work
// starts and must map to distinct table paths. The stirling array depends only on (A, n) so it is computed once (or taken from
// cache if not nil) and shared by every run. At most workers runs are active at once.
// Summaries are returned in the order of pgs.
func Sweep(base Params, pgs []float64, dir string, workers int, cache *stirling.Cache) ([]*Summary, error) {
	params := make([]Params, len(pgs))
	seen := make(map[string]float64, len(pgs))
	for i, pg := range pgs {
		params[i] = base
		params[i].Pg = pg
		if err := params[i].Validate(); err != nil {
			return nil, err
		}
		path := params[i].Path(dir)
		if prev, ok := seen[path]; ok {
			return nil, fmt.Errorf("%w: pg %g and %g both map to %s", ErrInvalidParams, prev, pg, path)
		}
		seen[path] = pg
	}
	if len(params) == 0 {
		return nil, nil
	}
	if cache == nil {
		cache = stirling.NewCache()
	}
	ws := cache.Get(base.A, base.S-1)

	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	sums := make([]*Summary, len(params))
	for i := range params {
		i := i
		g.Go(func() error {
			s, err := Run(params[i], ws, dir)
			if err != nil {
				return err
			}
			log.Printf("pg: %g, F(%d) computed, value: %s", s.Params.Pg, s.LastT, s.F.Text('f', table.Digits))
			sums[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sums, nil
}
