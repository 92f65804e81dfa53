// Package approx has closed-form approximations for the expectation, variance and quantiles
// of the waiting time X_{A,M}. They are cheap float64 calculations used to judge the exact
// tables from the waiting package.
package approx

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// EulerGamma is the Euler–Mascheroni constant.
const EulerGamma = 0.57721566490153286060651209008240243104215933593992

// ErrInvalidMode is returned for a Mode that is neither ChiSquared nor Normal.
var ErrInvalidMode = errors.New("approx: invalid mode")

// ErrInvalidProbability is returned when a quantile is requested outside of (0, 1).
var ErrInvalidProbability = errors.New("approx: probability must be in (0, 1)")

// Mode selects the quantile approximation.
type Mode int

const (
	// ChiSquared is valid when every red ball must be seen (A+1 == M).
	ChiSquared Mode = iota + 1
	// Normal is the general case.
	Normal
)

func (m Mode) String() string {
	switch m {
	case ChiSquared:
		return "chi-squared"
	case Normal:
		return "normal"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "chi-squared" (or "all") and "normal" (or "proportion").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "chi-squared", "chisquared", "chi2", "all":
		return ChiSquared, nil
	case "normal", "proportion":
		return Normal, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// UnmarshalText lets Mode be used directly as a command-line flag.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ModeFor picks ChiSquared when all M red balls must be drawn and Normal otherwise.
func ModeFor(A, M int) Mode {
	if A+1 == M {
		return ChiSquared
	}
	return Normal
}

// terms returns f(k) for k in [M-A, M].
func terms(A, M int, f func(k float64) float64) []float64 {
	ts := make([]float64, 0, A+1)
	for k := M - A; k <= M; k++ {
		ts = append(ts, f(float64(k)))
	}
	return ts
}

// Expectation is E[X_{A,M}] = M/pg * sum_{k=M-A}^{M} 1/k.
func Expectation(pg float64, A, M int) float64 {
	return float64(M) / pg * floats.Sum(terms(A, M, func(k float64) float64 { return 1 / k }))
}

// Variance is sum_{k=M-A}^{M} (1 - q_k) / q_k^2 with q_k = pg * k / M.
func Variance(pg float64, A, M int) float64 {
	return floats.Sum(terms(A, M, func(k float64) float64 {
		q := pg * k / float64(M)
		return (1 - q) / (q * q)
	}))
}

// Quantile approximates the smallest n with P(X_{A,M} <= n) >= p.
func Quantile(p float64, A, M int, pg float64, mode Mode) (float64, error) {
	if !(p > 0 && p < 1) {
		return math.NaN(), fmt.Errorf("%w: got %g", ErrInvalidProbability, p)
	}
	switch mode {
	case ChiSquared:
		scale := float64(M) / pg
		chi := distuv.ChiSquared{K: 2}.Quantile(1 - p)
		return Expectation(pg, A, M) + scale*(math.Ln2-EulerGamma) - scale*math.Log(chi), nil
	case Normal:
		return Expectation(pg, A, M) + math.Sqrt(Variance(pg, A, M))*distuv.UnitNormal.Quantile(p), nil
	}
	return math.NaN(), fmt.Errorf("%w: %s", ErrInvalidMode, mode)
}

// QuantileCurve evaluates Quantile at each of ps.
func QuantileCurve(ps []float64, A, M int, pg float64, mode Mode) ([]float64, error) {
	ns := make([]float64, len(ps))
	for i, p := range ps {
		var err error
		if ns[i], err = Quantile(p, A, M, pg, mode); err != nil {
			return nil, err
		}
	}
	return ns, nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
