package waiting

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/urnwait/urnwait/table"
)

// ErrInvalidParams is returned (wrapped) for any parameter outside of the model's domain.
var ErrInvalidParams = errors.New("waiting: invalid parameters")

// DefaultThreshold is the cdf value after which a run stops.
const DefaultThreshold = 0.99

// Params fully describe a single run.
type Params struct {
	// A + 1 distinct red balls must be seen.
	A int
	// M is the number of distinct red balls.
	M int
	// S is the largest draw index evaluated.
	S int
	// Pg is the probability of drawing a red ball.
	Pg float64
	// Threshold stops the run once the cdf exceeds it. The crossing row is still reported.
	Threshold float64
	// Prec is the mantissa precision in bits. 0 uses MinPrec(M, S).
	Prec uint
}

func (p Params) String() string {
	return fmt.Sprintf("A: %d, M: %d, n: %d, pg: %g", p.A, p.M, p.S, p.Pg)
}

// Validate reports the first precondition that p violates.
func (p Params) Validate() error {
	switch {
	case p.A <= 0:
		return fmt.Errorf("%w: A must be > 0, got %d", ErrInvalidParams, p.A)
	case p.M <= p.A:
		return fmt.Errorf("%w: M must be > A, got M: %d, A: %d", ErrInvalidParams, p.M, p.A)
	case !(p.Pg > 0 && p.Pg < 1):
		return fmt.Errorf("%w: pg must be in (0, 1), got %g", ErrInvalidParams, p.Pg)
	case p.S < p.M:
		return fmt.Errorf("%w: n must be >= M, got n: %d, M: %d", ErrInvalidParams, p.S, p.M)
	case !(p.Threshold > 0 && p.Threshold <= 1):
		return fmt.Errorf("%w: threshold must be in (0, 1], got %g", ErrInvalidParams, p.Threshold)
	case p.Prec > 0 && p.Prec < 64:
		return fmt.Errorf("%w: precision must be at least 64 bits, got %d", ErrInvalidParams, p.Prec)
	}
	return nil
}

// MinPrec is the default precision in bits for a run up to draw n with M red balls. The
// terms of the pmf span roughly n*log2(M) bits of magnitude.
func MinPrec(M, n int) uint {
	bits := 64 + uint(math.Ceil(float64(n)*math.Log2(float64(M))/32))
	if bits < 128 {
		return 128
	}
	return bits
}

// Precision is the precision used by a run with these parameters.
func (p Params) Precision() uint {
	if p.Prec != 0 {
		return p.Prec
	}
	return MinPrec(p.M, p.S)
}

// Path is where the table for p is written inside dir.
func (p Params) Path(dir string) string {
	return filepath.Join(dir, table.FileName(p.A, p.M, p.S, p.Pg))
}
