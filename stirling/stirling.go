// Package stirling computes exact binomial coefficients and the weighted Stirling numbers
// K! S(K, l) of the second kind. S(K, l) is the number of ways to partition l labelled
// elements into K non-empty blocks.
//
// The alternating sum used here cancels almost completely for even moderate K and l so
// everything is done with math/big integers. Floating point is never used in this package.
package stirling

import (
	"fmt"
	"math/big"
	"sync"
)

// BinomialArray returns [C(K, 1), C(K, 2), ..., C(K, K)].
func BinomialArray(K int) []*big.Int {
	if K < 1 {
		panic(fmt.Sprintf("stirling: K must be >= 1, got %d", K))
	}
	b := make([]*big.Int, K)
	for i := range b {
		b[i] = new(big.Int).Binomial(int64(K), int64(i+1))
	}
	return b
}

// WeightedStirling returns K! S(K, l) = sum_{r=1}^{K} (-1)^(K-r) r^l C(K, r).
// binomials must be the result of BinomialArray(K) and l >= K.
func WeightedStirling(K, l int, binomials []*big.Int) *big.Int {
	if K < 1 || l < K {
		panic(fmt.Sprintf("stirling: need l >= K >= 1, got K: %d, l: %d", K, l))
	}
	if len(binomials) != K {
		panic(fmt.Sprintf("stirling: expected %d binomial coefficients, got %d", K, len(binomials)))
	}
	sum := new(big.Int)
	pow := new(big.Int)
	term := new(big.Int)
	el := big.NewInt(int64(l))
	for r := 1; r <= K; r++ {
		pow.Exp(big.NewInt(int64(r)), el, nil)
		term.Mul(pow, binomials[r-1])
		if (K-r)%2 == 1 {
			sum.Sub(sum, term)
		} else {
			sum.Add(sum, term)
		}
	}
	return sum
}

// Array holds K! S(K, l) for K <= l <= Hi. Values[l-K] is the entry for l.
// It is not modified after construction so it can be shared between goroutines.
type Array struct {
	K      int
	Hi     int
	Values []*big.Int
}

// WeightedStirlingArray computes K! S(K, l) for every l in [K, mMax] re-using a single
// BinomialArray(K). If mMax < K the array is empty.
func WeightedStirlingArray(K, mMax int) *Array {
	binomials := BinomialArray(K)
	a := &Array{K: K, Hi: mMax}
	if mMax < K {
		a.Hi = K - 1
		return a
	}
	a.Values = make([]*big.Int, 0, mMax-K+1)
	for l := K; l <= mMax; l++ {
		a.Values = append(a.Values, WeightedStirling(K, l, binomials))
	}
	return a
}

// Len is the number of entries in the array.
func (a *Array) Len() int {
	return len(a.Values)
}

// At returns K! S(K, l). The returned value must not be modified.
func (a *Array) At(l int) *big.Int {
	if l < a.K || l > a.Hi {
		panic(fmt.Sprintf("stirling: l: %d out of range [%d, %d]", l, a.K, a.Hi))
	}
	return a.Values[l-a.K]
}

type key struct {
	k, hi int
}

// Cache shares arrays between runs that need the same (K, mMax). The array does not depend
// on the sampling probability so a sweep over pg only pays for it once.
type Cache struct {
	mu     sync.Mutex
	arrays map[key]*Array
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{arrays: make(map[key]*Array)}
}

// Get returns the array for (K, mMax), computing it on first use.
// Concurrent callers asking for the same key wait for a single computation.
func (c *Cache) Get(K, mMax int) *Array {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key{K, mMax}
	if a, ok := c.arrays[k]; ok {
		return a
	}
	a := WeightedStirlingArray(K, mMax)
	c.arrays[k] = a
	return a
}

// Len returns the number of cached arrays.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.arrays)
}
