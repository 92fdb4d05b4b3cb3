package lsmc

import (
	"math"
)

// generatePaths expands the Gaussian increment matrix into per-path
// geometric Brownian motion trajectories:
//
//	S_{t+1} = S_t * exp((r - sigma^2/2)*dt + sigma*sqrt(dt)*Z_{t,p})
//
// Row t of the PathMatrix holds the simulated price at step t+1. The
// final row stores the terminal intrinsic payoff instead of the raw
// price; it becomes the initial CashflowVector for the backward
// induction. Pure elementwise transform, parallel over paths.
func (pr *Pricer) generatePaths() error {
	T := pr.params.Timesteps
	N := pr.params.Paths

	drift := (pr.params.Rate - 0.5*pr.params.Sigma*pr.params.Sigma) * pr.dt
	volStep := pr.params.Sigma * math.Sqrt(pr.dt)

	paths := pr.dPaths.Float64()
	z := pr.dSamples.Float64()
	payoff := pr.payoff
	s0 := pr.params.S0

	kernel := KernelFunc(func(tid ThreadID, _ ...interface{}) {
		p := tid.Global()
		if p >= N {
			return
		}
		s := s0
		for t := 0; t < T; t++ {
			s *= math.Exp(drift + volStep*z[t*N+p])
			if t == T-1 {
				paths[t*N+p] = payoff.Value(s)
			} else {
				paths[t*N+p] = s
			}
		}
	})

	return Launch(kernel, pr.grid, pr.block)
}
