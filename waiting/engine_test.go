package waiting

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/urnwait/urnwait/stirling"
)

type rows struct {
	ts []int
	ps []float64
	fs []float64
	// running sum of the big.Float pmf values.
	sum *big.Float
}

func (r *rows) Write(t int, p, F *big.Float) error {
	if r.sum == nil {
		r.sum = new(big.Float).SetPrec(p.Prec())
	}
	r.sum.Add(r.sum, p)
	pf, _ := p.Float64()
	ff, _ := F.Float64()
	r.ts = append(r.ts, t)
	r.ps = append(r.ps, pf)
	r.fs = append(r.fs, ff)
	return nil
}

func compute(t *testing.T, p Params) (*rows, *Summary) {
	t.Helper()
	r := &rows{}
	s, err := Compute(p, nil, r)
	if err != nil {
		t.Fatal(err)
	}
	return r, s
}

// markov returns P(X = t) for t in [0, n] by propagating the number of distinct red balls
// seen so far. It is an independent float64 check of the closed form.
func markov(A, M, n int, pg float64) []float64 {
	pmf := make([]float64, n+1)
	state := make([]float64, A+2)
	state[0] = 1
	for t := 1; t <= n; t++ {
		next := make([]float64, A+2)
		for k := 0; k <= A; k++ {
			pNew := pg * float64(M-k) / float64(M)
			next[k] += state[k] * (1 - pNew)
			next[k+1] += state[k] * pNew
		}
		pmf[t] = next[A+1]
		next[A+1] = 0
		state = next
	}
	return pmf
}

func TestFirstRowAndStop(t *testing.T) {
	p := Params{A: 9, M: 10, S: 150, Pg: 0.7, Threshold: 0.99}
	r, s := compute(t, p)

	if r.ts[0] != 10 {
		t.Fatalf("expected first t: 10, got: %d", r.ts[0])
	}
	// only l = 9 contributes: C(10, 10) * 10 * 0.07^10 * C(9, 9) * 9!
	exp := 10 * math.Pow(0.07, 10) * 362880
	if math.Abs(r.ps[0]-exp)/exp > 1e-12 {
		t.Errorf("expected: %g, got: %g", exp, r.ps[0])
	}

	n := len(r.fs)
	if r.fs[n-1] <= 0.99 {
		t.Errorf("expected last cdf > 0.99, got: %v", r.fs[n-1])
	}
	if r.fs[n-2] > 0.99 {
		t.Errorf("expected only the last row above 0.99, got: %v at t: %d", r.fs[n-2], r.ts[n-2])
	}
	if s.LastT >= 150 || !s.Crossed || s.Rows != n || s.LastT != r.ts[n-1] {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestMonotoneAndSum(t *testing.T) {
	for _, p := range []Params{
		{A: 9, M: 10, S: 150, Pg: 0.95, Threshold: 0.999},
		{A: 4, M: 10, S: 50, Pg: 0.7, Threshold: 1},
		{A: 20, M: 30, S: 200, Pg: 0.999, Threshold: 0.98},
	} {
		r, s := compute(t, p)
		for i := range r.ts {
			if r.ps[i] < -1e-15 {
				t.Errorf("%s: negative pmf at t: %d: %g", p, r.ts[i], r.ps[i])
			}
			if i > 0 && r.fs[i] < r.fs[i-1] {
				t.Errorf("%s: cdf decreased at t: %d", p, r.ts[i])
			}
			if i > 0 && r.ts[i] != r.ts[i-1]+1 {
				t.Errorf("%s: t not consecutive at %d", p, r.ts[i])
			}
		}
		if r.sum.Cmp(s.F) != 0 {
			t.Errorf("%s: expected cdf == sum of pmf, got: %s vs %s", p, s.F.Text('g', 20), r.sum.Text('g', 20))
		}
	}
}

func TestAgainstMarkovChain(t *testing.T) {
	for _, c := range []struct {
		A, M, n int
		pg      float64
	}{{4, 6, 60, 0.3}, {9, 10, 150, 0.7}, {1, 2, 40, 0.5}, {5, 20, 80, 0.999}} {
		p := Params{A: c.A, M: c.M, S: c.n, Pg: c.pg, Threshold: 1}
		r, _ := compute(t, p)
		exp := markov(c.A, c.M, c.n, c.pg)
		for i, tt := range r.ts {
			if math.Abs(r.ps[i]-exp[tt]) > 1e-12 {
				t.Errorf("%s: t: %d expected: %g, got: %g", p, tt, exp[tt], r.ps[i])
			}
		}
	}
}

func TestSmallestModelConverges(t *testing.T) {
	p := Params{A: 1, M: 2, S: 100, Pg: 0.5, Threshold: 1}
	r, s := compute(t, p)
	if s.LastT != 100 || s.Crossed {
		t.Errorf("expected a full run to n, got: %+v", s)
	}
	for i := 1; i < 50; i++ {
		if r.fs[i] <= r.fs[i-1] {
			t.Errorf("expected strictly increasing cdf at t: %d", r.ts[i])
		}
	}
	if f := r.fs[len(r.fs)-1]; math.Abs(f-1) > 1e-9 {
		t.Errorf("expected cdf near 1, got: %v", f)
	}
}

func TestEngineStates(t *testing.T) {
	e, err := NewEngine(Params{A: 2, M: 3, S: 5, Pg: 0.5, Threshold: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.State() != Accumulating || e.T() != 2 {
		t.Fatalf("unexpected initial state: %s, t: %d", e.State(), e.T())
	}
	var ts []int
	for row, ok := e.Next(); ok; row, ok = e.Next() {
		ts = append(ts, row.T)
	}
	if len(ts) != 3 || ts[2] != 5 {
		t.Errorf("expected t: 3..5, got: %v", ts)
	}
	if e.State() != Done {
		t.Errorf("expected Done, got: %s", e.State())
	}
	if _, ok := e.Next(); ok {
		t.Error("expected no rows after Done")
	}
}

func TestLowThreshold(t *testing.T) {
	p := Params{A: 9, M: 10, S: 150, Pg: 0.7, Threshold: 0.5}
	r, _ := compute(t, p)
	n := len(r.fs)
	if !(r.fs[n-1] > 0.5 && r.fs[n-2] <= 0.5) {
		t.Errorf("expected the run to stop on the first row above 0.5, got: %v", r.fs[n-2:])
	}
}

func TestValidate(t *testing.T) {
	good := Params{A: 9, M: 10, S: 150, Pg: 0.7, Threshold: 0.99}
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}
	for _, mod := range []func(*Params){
		func(p *Params) { p.A = 0 },
		func(p *Params) { p.A = -1 },
		func(p *Params) { p.M = 9 },
		func(p *Params) { p.Pg = 0 },
		func(p *Params) { p.Pg = 1 },
		func(p *Params) { p.Pg = math.NaN() },
		func(p *Params) { p.S = 9 },
		func(p *Params) { p.Threshold = 0 },
		func(p *Params) { p.Threshold = 1.5 },
		func(p *Params) { p.Prec = 10 },
	} {
		p := good
		mod(&p)
		err := p.Validate()
		if !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%+v: expected ErrInvalidParams, got: %v", p, err)
		}
		if _, err := Compute(p, nil, &rows{}); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%+v: expected Compute to fail with ErrInvalidParams, got: %v", p, err)
		}
	}
}

func TestMinPrec(t *testing.T) {
	if got := MinPrec(10, 150); got != 128 {
		t.Errorf("expected floor of 128, got: %d", got)
	}
	if got := MinPrec(1000, 15000); got <= 128 || got < MinPrec(1000, 5000) {
		t.Errorf("expected precision to grow with n, got: %d", got)
	}
	if got := (Params{M: 10, S: 150, Prec: 512}).Precision(); got != 512 {
		t.Errorf("expected explicit precision: 512, got: %d", got)
	}
}

func TestStirlingArrayMismatch(t *testing.T) {
	p := Params{A: 3, M: 5, S: 20, Pg: 0.5, Threshold: 1}
	if _, err := NewEngine(p, stirling.WeightedStirlingArray(3, 10)); err == nil {
		t.Error("expected error for a short stirling array")
	}
	if _, err := NewEngine(p, stirling.WeightedStirlingArray(4, 19)); err == nil {
		t.Error("expected error for a stirling array with the wrong K")
	}
}

func TestPrecisionLossDetected(t *testing.T) {
	p := Params{A: 1, M: 2, S: 100, Pg: 0.5, Threshold: 1}
	ws := stirling.WeightedStirlingArray(1, 99)
	// doubling every weight doubles the total mass.
	for _, v := range ws.Values {
		v.Lsh(v, 1)
	}
	if _, err := Compute(p, ws, &rows{}); !errors.Is(err, ErrPrecisionLoss) {
		t.Errorf("expected ErrPrecisionLoss, got: %v", err)
	}
}

func BenchmarkCompute(b *testing.B) {
	p := Params{A: 49, M: 100, S: 500, Pg: 0.95, Threshold: 0.99}
	ws := stirling.WeightedStirlingArray(p.A, p.S-1)
	for i := 0; i < b.N; i++ {
		if _, err := Compute(p, ws, &rows{}); err != nil {
			b.Fatal(err)
		}
	}
}
