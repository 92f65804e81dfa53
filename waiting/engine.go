// Package waiting computes the exact distribution of X_{A,M}: the draw on which, for the
// first time, A + 1 distinct red balls have been seen when each draw is red with
// probability pg and a red draw picks one of M red balls uniformly.
//
//	P(X = t) = C(M, A+1) sum_{l=A}^{t-1} (A+1) (1-pg)^(t-l-1) (pg/M)^(l+1) C(t-1, l) A! S(A, l)
//
// Integer factors are exact and everything else uses big.Float with a configurable precision.
package waiting

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/urnwait/urnwait/stirling"
)

// ErrPrecisionLoss is returned when the final cdf is larger than 1 by more than the
// tolerance. Increase Params.Prec.
var ErrPrecisionLoss = errors.New("waiting: cdf exceeds 1, precision too low")

// cdfTolerance is how far above 1 the final cdf may be.
const cdfTolerance = 1e-9

// State of an Engine.
type State int

const (
	// Accumulating means more rows may follow.
	Accumulating State = iota
	// Done is terminal.
	Done
)

func (s State) String() string {
	if s == Done {
		return "DONE"
	}
	return "ACCUMULATING"
}

// Row is one (t, P(X = t), P(X <= t)) entry.
type Row struct {
	T int
	P *big.Float
	F *big.Float
}

// Engine produces the rows for increasing t. It is not safe for concurrent use, but many
// engines may share one stirling.Array.
type Engine struct {
	p     Params
	prec  uint
	state State
	t     int

	threshold *big.Float
	cdf       *big.Float
	// C(M, A+1)
	scale *big.Float
	// weights[l-A] = (A+1) (pg/M)^(l+1) A! S(A, l)
	weights []*big.Float
	// miss[k] = (1-pg)^k
	miss []*big.Float

	sum  *big.Float
	term *big.Float
	binf *big.Float
	bin  *big.Int
}

// NewEngine validates p and prepares a run. ws may be nil, otherwise it must hold A! S(A, l)
// for at least A <= l <= S-1.
func NewEngine(p Params, ws *stirling.Array) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if ws == nil {
		ws = stirling.WeightedStirlingArray(p.A, p.S-1)
	}
	if ws.K != p.A || ws.Hi < p.S-1 {
		return nil, fmt.Errorf("waiting: stirling array for K: %d, l <= %d does not cover A: %d, n: %d", ws.K, ws.Hi, p.A, p.S)
	}
	prec := p.Precision()
	e := &Engine{p: p, prec: prec, t: p.A,
		threshold: new(big.Float).SetPrec(prec).SetFloat64(p.Threshold),
		cdf:       new(big.Float).SetPrec(prec),
		sum:       new(big.Float).SetPrec(prec),
		term:      new(big.Float).SetPrec(prec),
		binf:      new(big.Float).SetPrec(prec),
		bin:       new(big.Int),
	}

	e.scale = new(big.Float).SetPrec(prec).SetInt(new(big.Int).Binomial(int64(p.M), int64(p.A+1)))

	pgg := new(big.Float).SetPrec(prec).SetFloat64(p.Pg)
	prg := new(big.Float).SetPrec(prec).Quo(pgg, new(big.Float).SetPrec(prec).SetInt64(int64(p.M)))

	// (pg/M)^(A+1)
	pow := new(big.Float).SetPrec(prec).SetInt64(int64(p.A + 1))
	for i := 0; i <= p.A; i++ {
		pow.Mul(pow, prg)
	}
	n := p.S - p.A
	e.weights = make([]*big.Float, n)
	for l := p.A; l < p.S; l++ {
		w := new(big.Float).SetPrec(prec).SetInt(ws.At(l))
		e.weights[l-p.A] = w.Mul(w, pow)
		pow.Mul(pow, prg)
	}

	q := new(big.Float).SetPrec(prec).Sub(new(big.Float).SetPrec(prec).SetInt64(1), pgg)
	e.miss = make([]*big.Float, n)
	e.miss[0] = new(big.Float).SetPrec(prec).SetInt64(1)
	for k := 1; k < n; k++ {
		e.miss[k] = new(big.Float).SetPrec(prec).Mul(e.miss[k-1], q)
	}
	return e, nil
}

// Params returns the parameters of the run.
func (e *Engine) Params() Params {
	return e.p
}

// State reports whether more rows may follow.
func (e *Engine) State() State {
	return e.state
}

// CDF is P(X <= t) for the last row returned. The value must not be modified.
func (e *Engine) CDF() *big.Float {
	return e.cdf
}

// T is the last t returned, or A before the first row.
func (e *Engine) T() int {
	return e.t
}

// Next computes the row for the next t. It returns false once the engine is Done: after
// the row for t == S, or after the first row whose cdf exceeds the threshold.
func (e *Engine) Next() (Row, bool) {
	if e.state == Done {
		return Row{}, false
	}
	e.t++
	t, A := e.t, e.p.A

	e.sum.SetInt64(0)
	// C(t-1, l) starting from l = A.
	e.bin.Binomial(int64(t-1), int64(A))
	tmp := new(big.Int)
	for l := A; l < t; l++ {
		if l > A {
			e.bin.Mul(e.bin, tmp.SetInt64(int64(t-l)))
			e.bin.Quo(e.bin, tmp.SetInt64(int64(l)))
		}
		e.binf.SetInt(e.bin)
		e.term.Mul(e.miss[t-l-1], e.weights[l-A])
		e.term.Mul(e.term, e.binf)
		e.sum.Add(e.sum, e.term)
	}
	pmf := new(big.Float).SetPrec(e.prec).Mul(e.sum, e.scale)
	e.cdf.Add(e.cdf, pmf)

	if t >= e.p.S || e.cdf.Cmp(e.threshold) > 0 {
		e.state = Done
	}
	return Row{T: t, P: pmf, F: new(big.Float).Copy(e.cdf)}, true
}

// Sink receives rows in ascending t. *table.Writer implements it.
type Sink interface {
	Write(t int, p, F *big.Float) error
}

// Summary describes a finished run.
type Summary struct {
	Params Params
	Rows   int
	// LastT is the t of the final row.
	LastT int
	// F is the cdf at LastT.
	F *big.Float
	// Crossed is true when the run stopped on the threshold rather than at S.
	Crossed bool
}

// Compute runs an engine to completion writing every row to sink. ws may be nil.
func Compute(p Params, ws *stirling.Array, sink Sink) (*Summary, error) {
	e, err := NewEngine(p, ws)
	if err != nil {
		return nil, err
	}
	s := &Summary{Params: p}
	for row, ok := e.Next(); ok; row, ok = e.Next() {
		if err := sink.Write(row.T, row.P, row.F); err != nil {
			return nil, err
		}
		s.Rows++
	}
	s.LastT = e.T()
	s.F = e.CDF()
	s.Crossed = e.CDF().Cmp(e.threshold) > 0

	limit := new(big.Float).SetPrec(e.prec).SetFloat64(1 + cdfTolerance)
	if s.F.Cmp(limit) > 0 {
		return s, fmt.Errorf("%w: %s: F(%d) = %s", ErrPrecisionLoss, p, s.LastT, s.F.Text('g', 12))
	}
	return s, nil
}
