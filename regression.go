package lsmc

// Regression builder. For one timestep this runs in two phases:
//
//  1. scanTimestep, parallel over paths: classify each path with the
//     payoff predicate, count in-the-money paths per block, stash each
//     block's first (up to) three in-the-money prices, and accumulate
//     the power sums Sigma x..Sigma x^4 into the block's partial cells.
//  2. solveRegression, a designated single-thread leader: exclusive
//     prefix scan of the block counts picks the globally-first three
//     seed prices, the power sums are folded, and the QR + Jacobi solve
//     produces the timestep's RegressionState. Timesteps with fewer
//     than MinInTheMoneyPaths in-the-money paths are flagged instead,
//     and their regression coefficients are implicitly zero.

// scanTimestep launches the classification/accumulation kernel for
// timestep t. Per-block cells are written without atomics under the
// sequential-threads-per-block contract.
func (pr *Pricer) scanTimestep(t int) error {
	N := pr.params.Paths
	prices := pr.row(t)
	payoff := pr.payoff

	counts := pr.dBlockCounts.Int32()
	for b := range counts {
		counts[b] = 0
	}
	pr.blockSums.Zero()
	pr.blockSeeds.Zero()

	sums := pr.blockSums
	seeds := pr.blockSeeds

	kernel := KernelFunc(func(tid ThreadID, _ ...interface{}) {
		p := tid.Global()
		if p >= N {
			return
		}
		s := prices[p]
		if !payoff.InTheMoney(s) {
			return
		}

		b := tid.BlockIdx.X
		c := counts[b]
		if c < 3 {
			seeds.Cell(b)[c] = s
		}
		counts[b] = c + 1

		cell := sums.Cell(b)
		x := s
		cell[0] += x
		x *= s
		cell[1] += x
		x *= s
		cell[2] += x
		x *= s
		cell[3] += x
	})

	return Launch(kernel, pr.grid, pr.block)
}

// solveRegression launches the single-thread finalize: seed selection,
// sum fold, and the QR/Jacobi solve that fills RegressionState. Numerical
// degeneracy never surfaces as an error; ill-conditioned steps are
// absorbed by the zero guards inside buildR and pseudoInverse.
func (pr *Pricer) solveRegression(t int) error {
	counts := pr.dBlockCounts.Int32()
	flags := pr.dFlags.Int32()
	state := pr.state(t)
	sums := pr.blockSums
	seeds := pr.blockSeeds
	blocks := pr.numBlocks

	kernel := KernelFunc(func(_ ThreadID, _ ...interface{}) {
		// Exclusive scan over block counts; the running total is each
		// block's global rank offset, so the first three in-the-money
		// prices overall come from the per-block stashes in block order.
		var seed [3]float64
		total := 0
		for b := 0; b < blocks; b++ {
			c := int(counts[b])
			stash := seeds.Cell(b)
			for k := 0; k < c && k < 3; k++ {
				if total+k < 3 {
					seed[total+k] = stash[k]
				}
			}
			total += c
		}

		if total < MinInTheMoneyPaths {
			flags[t] = 1
			for i := range state {
				state[i] = 0
			}
			return
		}
		flags[t] = 0

		var power [4]float64
		for k := 0; k < 4; k++ {
			power[k] = sums.Fold(k)
		}

		r := buildR(seed, power, total)
		w := pseudoInverse(r)
		copy(state[0:6], r[:])
		copy(state[6:15], w[:])
		state[15] = float64(total)
	})

	return Launch(kernel, pr.leaderGrid, pr.leaderGrid)
}
