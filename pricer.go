package lsmc

import (
	"fmt"
	"math"
)

// PricingParams configures one American option pricing problem.
type PricingParams struct {
	Timesteps int     // Number of exercise dates
	Paths     int     // Number of Monte Carlo paths
	Maturity  float64 // Time to maturity in years
	S0        float64 // Initial asset price
	Strike    float64 // Strike price
	Rate      float64 // Risk-free rate
	Sigma     float64 // Volatility
	Kind      PayoffKind
}

// Validate checks the parameters for a well-posed pricing run.
func (p PricingParams) Validate() error {
	switch {
	case p.Timesteps < 1:
		return NewInvalidArgError("Validate", "timesteps must be at least 1")
	case p.Paths < 1:
		return NewInvalidArgError("Validate", "paths must be at least 1")
	case p.Maturity <= 0:
		return NewInvalidArgError("Validate", "maturity must be positive")
	case p.S0 <= 0:
		return NewInvalidArgError("Validate", "initial price must be positive")
	case p.Strike < 0:
		return NewInvalidArgError("Validate", "strike must be non-negative")
	case p.Sigma < 0:
		return NewInvalidArgError("Validate", "volatility must be non-negative")
	}
	return nil
}

// Dt returns the timestep size.
func (p PricingParams) Dt() float64 {
	return p.Maturity / float64(p.Timesteps)
}

// Pricer owns the device buffers of a pricing run: the PathMatrix (whose
// final row is overwritten in place as the CashflowVector), one
// RegressionState record and one OutOfMoneyFlag per timestep, and the
// per-block scratch reused by every reduction stage. Buffers are
// allocated once in NewPricer and released by Close; Price may be called
// any number of times in between. The backward induction driver is the
// single logical thread of control over all of them: kernels only read
// shared rows or accumulate into their block's dedicated scratch cells.
type Pricer struct {
	params   PricingParams
	payoff   Payoff
	dt       float64
	discount float64

	grid       Dim3
	block      Dim3
	leaderGrid Dim3
	numBlocks  int

	dSamples     DevicePtr // Timesteps x Paths Gaussian increments
	dPaths       DevicePtr // Timesteps x Paths PathMatrix
	dStates      DevicePtr // Timesteps x RegressionStateSize
	dFlags       DevicePtr // Timesteps OutOfMoneyFlags (int32)
	dBlockCounts DevicePtr // per-block in-the-money counts (int32)
	dBeta        DevicePtr // 3-element BetaVector
	dResult      DevicePtr // scalar price cell

	blockSums  *PartialSumBuffer // power sums, 4 cells per block
	blockSeeds *PartialSumBuffer // first <=3 in-the-money prices per block
	blockBeta  *PartialSumBuffer // beta partials, 3 cells per block
	blockPrice *PartialSumBuffer // cashflow partials, 1 cell per block
}

// NewPricer validates the parameters and allocates all device buffers
// for the run. Allocation failure aborts the construction and releases
// anything already allocated.
func NewPricer(params PricingParams) (*Pricer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	T, N := params.Timesteps, params.Paths
	numBlocks := (N + DefaultBlockSize - 1) / DefaultBlockSize

	pr := &Pricer{
		params:     params,
		payoff:     Payoff{Kind: params.Kind, Strike: params.Strike},
		dt:         params.Dt(),
		discount:   math.Exp(-params.Rate * params.Dt()),
		grid:       Dim3{X: numBlocks, Y: 1, Z: 1},
		block:      Dim3{X: DefaultBlockSize, Y: 1, Z: 1},
		leaderGrid: Dim3{X: 1, Y: 1, Z: 1},
		numBlocks:  numBlocks,
	}

	alloc := func(dst *DevicePtr, size int, what string) error {
		d, err := Malloc(size)
		if err != nil {
			return NewMemoryError("NewPricer", "allocating "+what, err)
		}
		*dst = d
		return nil
	}

	var err error
	defer func() {
		if err != nil {
			pr.Close()
		}
	}()

	if err = alloc(&pr.dSamples, T*N*8, "sample matrix"); err != nil {
		return nil, err
	}
	if err = alloc(&pr.dPaths, T*N*8, "path matrix"); err != nil {
		return nil, err
	}
	if err = alloc(&pr.dStates, T*RegressionStateSize*8, "regression states"); err != nil {
		return nil, err
	}
	if err = alloc(&pr.dFlags, T*4, "out-of-money flags"); err != nil {
		return nil, err
	}
	if err = alloc(&pr.dBlockCounts, numBlocks*4, "block counts"); err != nil {
		return nil, err
	}
	if err = alloc(&pr.dBeta, 3*8, "beta vector"); err != nil {
		return nil, err
	}
	if err = alloc(&pr.dResult, 8, "price cell"); err != nil {
		return nil, err
	}

	if pr.blockSums, err = NewPartialSumBuffer(numBlocks, 4); err != nil {
		return nil, err
	}
	if pr.blockSeeds, err = NewPartialSumBuffer(numBlocks, 3); err != nil {
		return nil, err
	}
	if pr.blockBeta, err = NewPartialSumBuffer(numBlocks, 3); err != nil {
		return nil, err
	}
	if pr.blockPrice, err = NewPartialSumBuffer(numBlocks, 1); err != nil {
		return nil, err
	}

	return pr, nil
}

// Close releases all device buffers. Safe to call more than once.
func (pr *Pricer) Close() error {
	var first error
	free := func(d *DevicePtr) {
		if err := Free(*d); err != nil && first == nil {
			first = err
		}
		*d = DevicePtr{}
	}
	free(&pr.dSamples)
	free(&pr.dPaths)
	free(&pr.dStates)
	free(&pr.dFlags)
	free(&pr.dBlockCounts)
	free(&pr.dBeta)
	free(&pr.dResult)

	for _, buf := range []**PartialSumBuffer{&pr.blockSums, &pr.blockSeeds, &pr.blockBeta, &pr.blockPrice} {
		if *buf != nil {
			if err := (*buf).Free(); err != nil && first == nil {
				first = err
			}
			*buf = nil
		}
	}
	return first
}

// Params returns the configured pricing parameters.
func (pr *Pricer) Params() PricingParams {
	return pr.params
}

// row returns the PathMatrix row for timestep t.
func (pr *Pricer) row(t int) []float64 {
	N := pr.params.Paths
	return pr.dPaths.Float64()[t*N : (t+1)*N]
}

// cashflows returns the CashflowVector, aliased onto the final row of
// the PathMatrix once the terminal payoff has been seeded.
func (pr *Pricer) cashflows() []float64 {
	return pr.row(pr.params.Timesteps - 1)
}

// state returns the RegressionState record for timestep t.
func (pr *Pricer) state(t int) []float64 {
	return pr.dStates.Float64()[t*RegressionStateSize : (t+1)*RegressionStateSize]
}

// phase wraps a kernel launch with the device-wide barrier every phase
// of the backward induction requires: outputs must be globally visible
// before the next phase reads them.
func phase(err error, op string) error {
	if err != nil {
		return NewExecutionError(op, "kernel launch failed", err)
	}
	if err := Synchronize(); err != nil {
		return NewExecutionError(op, "synchronize failed", err)
	}
	return nil
}

// Price runs the full LSM pipeline on the given Gaussian increment
// matrix (row-major Timesteps x Paths, as produced by NormalMatrix) and
// returns the American option price estimate. Identical samples and
// parameters reproduce the identical price.
func (pr *Pricer) Price(samples []float64) (float64, error) {
	T, N := pr.params.Timesteps, pr.params.Paths
	if len(samples) != T*N {
		return 0, NewInvalidArgError("Price",
			fmt.Sprintf("sample matrix has %d entries, want %d", len(samples), T*N))
	}

	if err := Memcpy(pr.dSamples, samples, T*N*8, MemcpyHostToDevice); err != nil {
		return 0, err
	}
	if err := phase(pr.generatePaths(), "GeneratePaths"); err != nil {
		return 0, err
	}

	// Backward induction from the penultimate timestep down to zero.
	// Timesteps are strictly ordered: the regression at t consumes
	// cashflows already rolled forward from t+1, so no overlap is
	// permitted.
	flags := pr.dFlags.Int32()
	beta := pr.dBeta.Float64()
	for t := T - 2; t >= 0; t-- {
		if err := phase(pr.scanTimestep(t), "RegressionScan"); err != nil {
			return 0, err
		}
		if err := phase(pr.solveRegression(t), "RegressionSolve"); err != nil {
			return 0, err
		}

		flagged := flags[t] != 0
		if !flagged {
			if err := phase(pr.betaPartial(t), "BetaPartial"); err != nil {
				return 0, err
			}
		}
		if err := phase(pr.betaFinalize(flagged), "BetaFinalize"); err != nil {
			return 0, err
		}

		if err := phase(pr.updateCashflows(t, flagged, beta[0], beta[1], beta[2]), "CashflowUpdate"); err != nil {
			return 0, err
		}
	}

	return pr.reducePrice()
}

// reducePrice sums the discounted final cashflows across all paths with
// a two-phase tree reduction and applies the last one-step discount that
// brings the estimate from the first exercise date back to time zero.
func (pr *Pricer) reducePrice() (float64, error) {
	N := pr.params.Paths
	cash := pr.cashflows()
	pr.blockPrice.Zero()
	partial := pr.blockPrice

	sum := KernelFunc(func(tid ThreadID, _ ...interface{}) {
		p := tid.Global()
		if p >= N {
			return
		}
		partial.Cell(tid.BlockIdx.X)[0] += cash[p]
	})
	if err := phase(Launch(sum, pr.grid, pr.block), "PricePartial"); err != nil {
		return 0, err
	}

	result := pr.dResult.Float64()
	df := pr.discount
	finalize := KernelFunc(func(_ ThreadID, _ ...interface{}) {
		result[0] = partial.Fold(0) / float64(N) * df
	})
	if err := phase(Launch(finalize, pr.leaderGrid, pr.leaderGrid), "PriceFinalize"); err != nil {
		return 0, err
	}

	return result[0], nil
}
