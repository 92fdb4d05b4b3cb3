package lsmc

// Coefficient estimator. Each in-the-money path reconstructs its row of
// the orthonormal Q factor implicitly from the R reciprocals and its own
// price (Q is never materialized), projects it through the precomputed W
// into the pseudo-inverse row {WI0, WI1, WI2}, weights by the path's
// cashflow, and accumulates into its block's partial beta cells. A
// designated leader then folds the block partials into the BetaVector.

// betaPartial launches the per-path projection kernel for timestep t.
// Out-of-the-money paths carry zero weight and contribute nothing.
func (pr *Pricer) betaPartial(t int) error {
	N := pr.params.Paths
	prices := pr.row(t)
	cash := pr.cashflows()
	payoff := pr.payoff

	state := pr.state(t)
	r1, r2, r4 := state[1], state[2], state[4]
	inv0 := safeInv(state[0])
	inv1 := safeInv(state[3])
	inv2 := safeInv(state[5])
	var w [9]float64
	copy(w[:], state[6:15])

	pr.blockBeta.Zero()
	partial := pr.blockBeta

	kernel := KernelFunc(func(tid ThreadID, _ ...interface{}) {
		p := tid.Global()
		if p >= N {
			return
		}
		s := prices[p]
		if !payoff.InTheMoney(s) {
			return
		}
		cf := cash[p]

		// Row p of Q solves q*R = [1, s, s^2]; only the last two
		// entries depend on the path.
		q0 := inv0
		q1 := (s - r1*q0) * inv1
		q2 := (s*s - r2*q0 - r4*q1) * inv2

		cell := partial.Cell(tid.BlockIdx.X)
		cell[0] += (w[0]*q0 + w[1]*q1 + w[2]*q2) * cf
		cell[1] += (w[3]*q0 + w[4]*q1 + w[5]*q2) * cf
		cell[2] += (w[6]*q0 + w[7]*q1 + w[8]*q2) * cf
	})

	return Launch(kernel, pr.grid, pr.block)
}

// betaFinalize launches the leader that folds per-block partials into
// the global BetaVector, or zero-fills it when the timestep is flagged
// out of the money.
func (pr *Pricer) betaFinalize(flagged bool) error {
	beta := pr.dBeta.Float64()
	partial := pr.blockBeta

	kernel := KernelFunc(func(_ ThreadID, _ ...interface{}) {
		if flagged {
			beta[0], beta[1], beta[2] = 0, 0, 0
			return
		}
		for i := 0; i < 3; i++ {
			beta[i] = partial.Fold(i)
		}
	})

	return Launch(kernel, pr.leaderGrid, pr.leaderGrid)
}
