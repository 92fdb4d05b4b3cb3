package lsmc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// newTestPricer builds a two-timestep pricer whose rows the test fills
// by hand: row 0 is the regression timestep, row 1 the cashflow vector.
func newTestPricer(t *testing.T, paths int, kind PayoffKind, strike float64) *Pricer {
	t.Helper()
	pr, err := NewPricer(PricingParams{
		Timesteps: 2,
		Paths:     paths,
		Maturity:  1.0,
		S0:        4.0,
		Strike:    strike,
		Rate:      0.06,
		Sigma:     0.2,
		Kind:      kind,
	})
	require.NoError(t, err)
	t.Cleanup(func() { pr.Close() })
	return pr
}

func runRegression(t *testing.T, pr *Pricer) {
	t.Helper()
	require.NoError(t, phase(pr.scanTimestep(0), "RegressionScan"))
	require.NoError(t, phase(pr.solveRegression(0), "RegressionSolve"))
}

func TestRegressionSeedsAreFirstInTheMoneyPaths(t *testing.T) {
	const N = 600 // spans three blocks of 256
	pr := newTestPricer(t, N, Put, 4.0)

	prices := pr.row(0)
	for i := range prices {
		prices[i] = 10.0 // out of the money for a put at 4
	}
	// In-the-money paths scattered over different blocks; first three in
	// path order are 5, 10 and 300.
	itm := map[int]float64{5: 3.0, 10: 3.2, 300: 2.0, 301: 2.5, 550: 3.5}
	for i, s := range itm {
		prices[i] = s
	}

	runRegression(t, pr)

	require.EqualValues(t, 0, pr.dFlags.Int32()[0], "timestep should not be flagged")

	state := pr.state(0)
	require.EqualValues(t, 5, state[15], "in-the-money count")

	var sums [4]float64
	for _, s := range itm {
		v := s
		sums[0] += v
		v *= s
		sums[1] += v
		v *= s
		sums[2] += v
		v *= s
		sums[3] += v
	}
	want := buildR([3]float64{3.0, 3.2, 2.0}, sums, 5)
	for i := 0; i < 6; i++ {
		require.InDelta(t, want[i], state[i], 1e-9, "R[%d]", i)
	}
}

func TestRegressionZeroInTheMoneyFlags(t *testing.T) {
	const N = 512
	pr := newTestPricer(t, N, Put, 4.0)

	prices := pr.row(0)
	for i := range prices {
		prices[i] = 10.0
	}

	runRegression(t, pr)

	require.EqualValues(t, 1, pr.dFlags.Int32()[0], "timestep must be flagged")
	for i, v := range pr.state(0) {
		require.Zero(t, v, "state[%d]", i)
	}
}

func TestRegressionBelowThresholdFlags(t *testing.T) {
	const N = 512
	pr := newTestPricer(t, N, Put, 4.0)

	prices := pr.row(0)
	for i := range prices {
		prices[i] = 10.0
	}
	prices[1] = 3.0
	prices[100] = 3.1
	prices[400] = 2.9 // three in the money, one short of the policy minimum

	runRegression(t, pr)

	require.EqualValues(t, 1, pr.dFlags.Int32()[0])
}

func TestBetaMatchesLeastSquares(t *testing.T) {
	const N = 600
	pr := newTestPricer(t, N, Put, 4.0)

	prices := pr.row(0)
	cash := pr.cashflows()
	for i := range prices {
		prices[i] = 10.0
		cash[i] = 0
	}
	xs := []float64{3.0, 3.2, 2.0, 2.5, 3.5, 2.8, 3.9}
	ys := []float64{0.9, 0.7, 1.8, 1.4, 0.4, 1.1, 0.05}
	idx := []int{5, 10, 300, 301, 350, 420, 599}
	for k, i := range idx {
		prices[i] = xs[k]
		cash[i] = ys[k]
	}

	runRegression(t, pr)
	require.NoError(t, phase(pr.betaPartial(0), "BetaPartial"))
	require.NoError(t, phase(pr.betaFinalize(false), "BetaFinalize"))

	design := mat.NewDense(len(xs), 3, nil)
	for i, x := range xs {
		design.Set(i, 0, 1)
		design.Set(i, 1, x)
		design.Set(i, 2, x*x)
	}
	var want mat.VecDense
	require.NoError(t, want.SolveVec(design, mat.NewVecDense(len(ys), ys)))

	beta := pr.dBeta.Float64()
	for i := 0; i < 3; i++ {
		require.InDelta(t, want.AtVec(i), beta[i], 1e-8, "beta[%d]", i)
	}
}

func TestBetaFinalizeZeroFillsWhenFlagged(t *testing.T) {
	pr := newTestPricer(t, 256, Put, 4.0)

	beta := pr.dBeta.Float64()
	beta[0], beta[1], beta[2] = 1, 2, 3

	require.NoError(t, phase(pr.betaFinalize(true), "BetaFinalize"))
	require.Zero(t, beta[0])
	require.Zero(t, beta[1])
	require.Zero(t, beta[2])
}

func TestCashflowUpdate(t *testing.T) {
	const N = 256
	pr := newTestPricer(t, N, Put, 4.0)
	df := pr.discount

	prices := pr.row(0)
	cash := pr.cashflows()
	for i := range prices {
		prices[i] = 10.0
		cash[i] = 1.0
	}
	prices[0] = 3.0 // immediate payoff 1.0
	prices[1] = 3.9 // immediate payoff 0.1

	// Continuation estimate of 0.5 everywhere before discounting:
	// path 0 exercises, path 1 does not.
	b0 := 0.5 / df
	require.NoError(t, phase(pr.updateCashflows(0, false, b0, 0, 0), "CashflowUpdate"))

	require.InDelta(t, 1.0, cash[0], 1e-15, "exercised path takes immediate payoff")
	require.InDelta(t, df*1.0, cash[1], 1e-15, "continuing path carries discounted cashflow")
	require.InDelta(t, df*1.0, cash[2], 1e-15, "out-of-the-money path carries forward")
}

func TestCashflowUpdateFlagged(t *testing.T) {
	const N = 256
	pr := newTestPricer(t, N, Put, 4.0)
	df := pr.discount

	prices := pr.row(0)
	cash := pr.cashflows()
	for i := range prices {
		prices[i] = 1.0 // deep in the money, but the flag must win
		cash[i] = 2.0
	}

	require.NoError(t, phase(pr.updateCashflows(0, true, 100, 0, 0), "CashflowUpdate"))
	for i := 0; i < N; i++ {
		require.InDelta(t, df*2.0, cash[i], 1e-15, "path %d", i)
	}
}
