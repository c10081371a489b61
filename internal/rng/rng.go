// Package rng derives reproducible random streams from a master seed.
package rng

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Stream labels for the independent sub-systems of one activation.
const (
	LabelTree     = "tree"
	LabelClassMod = "classmod"
)

// #region seeds

// NewSeed generates a non-zero master seed using crypto/rand.
// Zero is reserved to mean "roll a new seed".
func NewSeed() (int64, error) {
	var b [8]byte
	for {
		if _, err := crand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("read random seed: %w", err)
		}
		// Seeds stay positive.
		seed := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
		if seed != 0 {
			return seed, nil
		}
	}
}

// Derive returns the sub-seed for one labelled stream of a master seed.
func Derive(master int64, label string) int64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(master))
	h := sha256.New()
	h.Write([]byte(label))
	h.Write([]byte{0})
	h.Write(buf[:])
	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// AttemptLabel names the stream used by a synthesis attempt.
// Attempt 0 is the plain label so first attempts match single-shot runs.
func AttemptLabel(label string, attempt int) string {
	if attempt == 0 {
		return label
	}
	return fmt.Sprintf("%s/%d", label, attempt)
}

// New creates the generator for one labelled stream of a master seed.
func New(master int64, label string) *rand.Rand {
	return rand.New(rand.NewSource(Derive(master, label)))
}

// #endregion seeds

// #region sampling

// WeightedIndex draws an index with probability proportional to its weight
// using a linear cumulative scan. total is the caller's running sum of the
// weights. Returns -1 when no positive weight remains.
func WeightedIndex(r *rand.Rand, weights []float64, total float64) int {
	if total <= 0 {
		return -1
	}
	x := r.Float64() * total
	last := -1
	var acc float64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		last = i
		if x < acc {
			return i
		}
	}
	// The running total may drift above the exact sum.
	return last
}

// Choice returns a uniformly random element of items.
func Choice[T any](r *rand.Rand, items []T) T {
	return items[r.Intn(len(items))]
}

// #endregion sampling
