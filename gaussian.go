package lsmc

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalMatrix generates the host-side timesteps x paths matrix of
// i.i.d. standard-normal increments consumed by the path generator.
// The layout is row-major: entry (t, p) lives at t*paths+p. The same
// seed reproduces the same matrix, which in turn reprices bit-for-bit.
func NormalMatrix(timesteps, paths int, seed uint64) []float64 {
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(seed)}
	z := make([]float64, timesteps*paths)
	for i := range z {
		z[i] = norm.Rand()
	}
	return z
}
