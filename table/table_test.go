package table

import (
	"bufio"
	"errors"
	"math"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestFileName(t *testing.T) {
	for _, c := range []struct {
		pg  float64
		exp string
	}{
		{0.7, "pmf_cdf_A_9_M_10_n_150_700.csv"},
		{0.95, "pmf_cdf_A_9_M_10_n_150_950.csv"},
		{0.999, "pmf_cdf_A_9_M_10_n_150_999.csv"},
	} {
		if got := FileName(9, 10, 150, c.pg); got != c.exp {
			t.Errorf("expected: %s, got: %s", c.exp, got)
		}
	}
}

func TestQuantile(t *testing.T) {
	tb := &Table{T: []int{1, 2, 3, 4}, P: []float64{0.1, 0.4, 0.43, 0.06}, F: []float64{0.1, 0.5, 0.93, 0.99}}
	q, err := tb.Quantile(0.9)
	if err != nil || q != 3 {
		t.Errorf("expected: 3, got: %d (%v)", q, err)
	}
	if q, _ := tb.Quantile(0.5); q != 2 {
		t.Errorf("expected: 2 for an exact match, got: %d", q)
	}
	if q, _ := tb.Quantile(0.01); q != 1 {
		t.Errorf("expected: 1, got: %d", q)
	}
	if _, err := tb.Quantile(0.995); !errors.Is(err, ErrQuantileNotFound) {
		t.Errorf("expected ErrQuantileNotFound, got: %v", err)
	}
	if _, err := (&Table{}).Quantile(0.5); !errors.Is(err, ErrQuantileNotFound) {
		t.Errorf("expected ErrQuantileNotFound for empty table, got: %v", err)
	}
}

func TestBelow(t *testing.T) {
	tb := &Table{T: []int{1, 2, 3, 4}, P: []float64{0.1, 0.4, 0.43, 0.07}, F: []float64{0.1, 0.5, 0.93, 1}}
	b := tb.Below(0.99)
	if !reflect.DeepEqual(b.T, []int{1, 2, 3}) {
		t.Errorf("expected: [1 2 3], got: %v", b.T)
	}
	if b.Final() != 0.93 {
		t.Errorf("expected: 0.93, got: %v", b.Final())
	}
	if tb.Len() != 4 {
		t.Error("Below must not modify the table")
	}
}

func TestMoments(t *testing.T) {
	tb := &Table{T: []int{1, 2, 3}, P: []float64{0.25, 0.5, 0.25}, F: []float64{0.25, 0.75, 1}}
	m, v := tb.Moments()
	if math.Abs(m-2) > 1e-12 || math.Abs(v-0.5) > 1e-12 {
		t.Errorf("expected: 2, 0.5, got: %v, %v", m, v)
	}
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv.gz"} {
		path := filepath.Join(dir, "sub", name)
		w, err := Create(path)
		if err != nil {
			t.Fatal(err)
		}
		F := new(big.Float)
		for i, p := range []float64{0.125, 0.25, 0.5} {
			bp := big.NewFloat(p)
			F.Add(F, bp)
			if err := w.Write(i+3, bp, F); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := os.Stat(path); err == nil {
			t.Fatalf("%s: table visible before Close", name)
		}
		if w.Rows() != 3 {
			t.Errorf("expected: 3 rows, got: %d", w.Rows())
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		tb, err := Read(path)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(tb.T, []int{3, 4, 5}) {
			t.Errorf("expected: [3 4 5], got: %v", tb.T)
		}
		if !reflect.DeepEqual(tb.F, []float64{0.125, 0.375, 0.875}) {
			t.Errorf("expected: [0.125 0.375 0.875], got: %v", tb.F)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, "sub", "a.csv"))
	if err != nil {
		t.Fatal(err)
	}
	exp := "t,p,F\n3,0.125000,0.125000\n4,0.250000,0.375000\n5,0.500000,0.875000\n"
	if string(raw) != exp {
		t.Errorf("expected:\n%s\ngot:\n%s", exp, raw)
	}
}

func TestCreateOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(2, big.NewFloat(1), big.NewFloat(1)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "t,p,F\n2,1.000000,1.000000\n" {
		t.Errorf("unexpected content: %q", raw)
	}
}

func TestAbort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Abort(); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 0 {
		t.Errorf("expected empty directory after Abort, got: %v", entries)
	}
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrMissing) {
		t.Errorf("expected ErrMissing, got: %v", err)
	}
}

type sr struct{ *strings.Reader }

func (s sr) ReadString(delim byte) (string, error) {
	var b strings.Builder
	for {
		c, err := s.ReadByte()
		if err != nil {
			return b.String(), err
		}
		b.WriteByte(c)
		if c == delim {
			return b.String(), nil
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"a,b,c\n1,0,0\n",
		"t,p,F\n1,0.1\n",
		"t,p,F\nx,0.1,0.1\n",
		"t,p,F\n2,0.1,0.1\n2,0.1,0.2\n",
	} {
		if _, err := Parse(sr{strings.NewReader(in)}); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
	tb, err := Parse(sr{strings.NewReader("t,p,F\n2,0.5,0.5\n3,0.5,1.0")})
	if err != nil || tb.Len() != 2 {
		t.Errorf("expected 2 rows without trailing newline, got: %v (%v)", tb, err)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("no space left on device")
}

func TestCloseFlushError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	w.w.Writer = bufio.NewWriter(failWriter{})
	if err := w.Write(11, big.NewFloat(0.1), big.NewFloat(0.2)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err == nil {
		t.Fatal("expected error from Close")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 0 {
		t.Errorf("expected nothing on disk after a failed Close, got: %v", entries)
	}
}
