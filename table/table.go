// Package table reads and writes the per-(A, M, n, pg) tables of t, P(X = t), P(X <= t)
// produced by the waiting package.
//
// A table is written to a temporary file next to its final path and renamed into place by
// Close, so a file found under its final name is always complete.
package table

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/brentp/xopen"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Header is the first line of every table.
const Header = "t,p,F"

// Digits is the number of fractional digits written for p and F.
const Digits = 6

// ErrMissing is returned by Read when the table does not exist.
var ErrMissing = errors.New("table: missing file")

// ErrQuantileNotFound is returned when a requested probability is above every cdf value in
// a table. This is expected for tables that stopped early.
var ErrQuantileNotFound = errors.New("table: quantile not found")

// FileName returns the name used for the table of the given parameters. pg is embedded as
// int(1000 * pg) to keep decimal points out of the name.
func FileName(A, M, n int, pg float64) string {
	return fmt.Sprintf("pmf_cdf_A_%d_M_%d_n_%d_%d.csv", A, M, n, int(pg*1000))
}

func partialPath(path string) string {
	// keep .gz last so xopen still compresses.
	if strings.HasSuffix(path, ".gz") {
		return strings.TrimSuffix(path, ".gz") + ".partial.gz"
	}
	return path + ".partial"
}

// Writer streams rows to a table.
type Writer struct {
	path string
	tmp  string
	w    *xopen.Writer
	rows int
}

// Create starts a new table at path. Nothing is visible at path until Close.
func Create(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	tmp := partialPath(path)
	w, err := xopen.Wopen(tmp)
	if err != nil {
		return nil, err
	}
	if _, err := w.WriteString(Header + "\n"); err != nil {
		w.Close()
		os.Remove(tmp)
		return nil, err
	}
	return &Writer{path: path, tmp: tmp, w: w}, nil
}

// Path is the final location of the table.
func (w *Writer) Path() string {
	return w.path
}

// Rows is the number of rows written so far.
func (w *Writer) Rows() int {
	return w.rows
}

// Write adds the row for t. p and F are written with Digits fractional digits.
func (w *Writer) Write(t int, p, F *big.Float) error {
	_, err := fmt.Fprintf(w.w, "%d,%s,%s\n", t, p.Text('f', Digits), F.Text('f', Digits))
	if err == nil {
		w.rows++
	}
	return err
}

// Close flushes the table and moves it to its final path, replacing any earlier table.
func (w *Writer) Close() error {
	// xopen's Flush drops the error; bufio's is sticky so check it before the rename.
	if err := w.w.Writer.Flush(); err != nil {
		w.w.Close()
		os.Remove(w.tmp)
		return err
	}
	if err := w.w.Close(); err != nil {
		os.Remove(w.tmp)
		return err
	}
	return os.Rename(w.tmp, w.path)
}

// Abort discards the table. The final path is left untouched.
func (w *Writer) Abort() error {
	w.w.Close()
	return os.Remove(w.tmp)
}

// Table is an in-memory table sorted by T.
type Table struct {
	T []int
	P []float64
	F []float64
}

// Len is the number of rows.
func (tb *Table) Len() int {
	return len(tb.T)
}

// Read loads a table written by Writer. If the file does not exist the error matches
// ErrMissing.
func Read(path string) (*Table, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissing, path)
	}
	rdr, err := xopen.Ropen(path)
	if err != nil {
		return nil, err
	}
	defer rdr.Close()
	tb, err := Parse(rdr)
	if err != nil {
		return nil, fmt.Errorf("table: %s: %w", path, err)
	}
	return tb, nil
}

type stringReader interface {
	ReadString(delim byte) (string, error)
}

// Parse reads a table from r. Rows must be in ascending t.
func Parse(r stringReader) (*Table, error) {
	tb := &Table{}
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && len(line) > 0) {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h := strings.TrimRight(line, "\r\n"); h != Header {
		return nil, fmt.Errorf("unexpected header: %q", h)
	}
	for k := 2; ; k++ {
		line, err := r.ReadString('\n')
		if len(line) > 0 {
			if perr := tb.addLine(strings.TrimRight(line, "\r\n"), k); perr != nil {
				return nil, perr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return tb, nil
}

func (tb *Table) addLine(line string, k int) error {
	if line == "" {
		return nil
	}
	toks := strings.Split(line, ",")
	if len(toks) != 3 {
		return fmt.Errorf("line %d: expected 3 fields, got %d", k, len(toks))
	}
	t, err := strconv.Atoi(toks[0])
	if err != nil {
		return fmt.Errorf("line %d: %w", k, err)
	}
	p, err := strconv.ParseFloat(toks[1], 64)
	if err != nil {
		return fmt.Errorf("line %d: %w", k, err)
	}
	F, err := strconv.ParseFloat(toks[2], 64)
	if err != nil {
		return fmt.Errorf("line %d: %w", k, err)
	}
	if n := len(tb.T); n > 0 && t <= tb.T[n-1] {
		return fmt.Errorf("line %d: t: %d is not after %d", k, t, tb.T[n-1])
	}
	tb.T = append(tb.T, t)
	tb.P = append(tb.P, p)
	tb.F = append(tb.F, F)
	return nil
}

// Below returns the rows with F < limit.
func (tb *Table) Below(limit float64) *Table {
	o := &Table{}
	for i, F := range tb.F {
		if F < limit {
			o.T = append(o.T, tb.T[i])
			o.P = append(o.P, tb.P[i])
			o.F = append(o.F, F)
		}
	}
	return o
}

// Final is the last cdf value in the table or 0 if it is empty.
func (tb *Table) Final() float64 {
	if len(tb.F) == 0 {
		return 0
	}
	return tb.F[len(tb.F)-1]
}

// Quantile returns the smallest t with F(t) >= p.
func (tb *Table) Quantile(p float64) (int, error) {
	if len(tb.F) == 0 || p > floats.Max(tb.F) {
		return 0, fmt.Errorf("%w: p: %.4g above max cdf: %.4g", ErrQuantileNotFound, p, tb.Final())
	}
	return tb.T[sort.SearchFloat64s(tb.F, p)], nil
}

// Moments returns the mean and variance of t weighted by p. Tables that stopped early give
// the moments of the truncated distribution.
func (tb *Table) Moments() (mean, variance float64) {
	if len(tb.T) == 0 || floats.Sum(tb.P) == 0 {
		return 0, 0
	}
	ts := make([]float64, len(tb.T))
	for i, t := range tb.T {
		ts[i] = float64(t)
	}
	return stat.Mean(ts, tb.P), stat.Moment(2, ts, tb.P)
}
