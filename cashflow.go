package lsmc

// updateCashflows rolls the CashflowVector one step back in time. Every
// path first computes its discounted carry-forward value; a flagged
// timestep takes it unconditionally. Otherwise the immediate exercise
// payoff is compared against the regression's continuation estimate
// beta0 + beta1*S + beta2*S^2, discounted once because the coefficients
// were fit on cashflows one step ahead. Exercise requires the immediate
// payoff to clear both ExerciseEpsilon and the continuation estimate.
//
// The write-back into row T-1 of the PathMatrix is the sole in-place
// mutation of the timestep and must be fully synchronized before the
// next timestep's regression reads the vector.
func (pr *Pricer) updateCashflows(t int, flagged bool, b0, b1, b2 float64) error {
	N := pr.params.Paths
	prices := pr.row(t)
	cash := pr.cashflows()
	payoff := pr.payoff
	df := pr.discount

	kernel := KernelFunc(func(tid ThreadID, _ ...interface{}) {
		p := tid.Global()
		if p >= N {
			return
		}
		carry := df * cash[p]
		if flagged {
			cash[p] = carry
			return
		}

		s := prices[p]
		immediate := payoff.Value(s)
		continuation := df * (b0 + s*(b1+s*b2))
		if immediate > ExerciseEpsilon && immediate > continuation {
			cash[p] = immediate
		} else {
			cash[p] = carry
		}
	})

	return Launch(kernel, pr.grid, pr.block)
}
