package lsmc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

var canonicalPut = PricingParams{
	Timesteps: 100,
	Paths:     32768,
	Maturity:  1.0,
	S0:        3.6,
	Strike:    4.0,
	Rate:      0.06,
	Sigma:     0.2,
	Kind:      Put,
}

// hostTerminalPayoffs replays the path generator on the host, returning
// each path's terminal intrinsic payoff.
func hostTerminalPayoffs(p PricingParams, z []float64) []float64 {
	drift := (p.Rate - 0.5*p.Sigma*p.Sigma) * p.Dt()
	volStep := p.Sigma * math.Sqrt(p.Dt())
	payoff := Payoff{Kind: p.Kind, Strike: p.Strike}

	out := make([]float64, p.Paths)
	for path := 0; path < p.Paths; path++ {
		s := p.S0
		for t := 0; t < p.Timesteps; t++ {
			s *= math.Exp(drift + volStep*z[t*p.Paths+path])
		}
		out[path] = payoff.Value(s)
	}
	return out
}

func TestValidateRejectsBadParams(t *testing.T) {
	bad := []PricingParams{
		{Timesteps: 0, Paths: 10, Maturity: 1, S0: 1, Strike: 1},
		{Timesteps: 10, Paths: 0, Maturity: 1, S0: 1, Strike: 1},
		{Timesteps: 10, Paths: 10, Maturity: 0, S0: 1, Strike: 1},
		{Timesteps: 10, Paths: 10, Maturity: 1, S0: -1, Strike: 1},
		{Timesteps: 10, Paths: 10, Maturity: 1, S0: 1, Strike: -1},
		{Timesteps: 10, Paths: 10, Maturity: 1, S0: 1, Strike: 1, Sigma: -0.1},
	}
	for i, p := range bad {
		err := p.Validate()
		require.Error(t, err, "case %d", i)
		require.True(t, IsInvalidArgError(err), "case %d", i)
	}
}

func TestPriceRejectsSampleSizeMismatch(t *testing.T) {
	p := canonicalPut
	p.Paths = 256
	p.Timesteps = 4

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	_, err = pr.Price(make([]float64, 10))
	require.Error(t, err)
	require.True(t, IsInvalidArgError(err))
}

// Generated paths stay positive and finite for finite Gaussian input,
// and the terminal row holds the intrinsic payoff, not a raw price.
func TestGeneratePathsPositiveFinite(t *testing.T) {
	p := canonicalPut
	p.Paths = 1024
	p.Timesteps = 16

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	samples := NormalMatrix(p.Timesteps, p.Paths, 3)
	require.NoError(t, Memcpy(pr.dSamples, samples, len(samples)*8, MemcpyHostToDevice))
	require.NoError(t, phase(pr.generatePaths(), "GeneratePaths"))

	for t2 := 0; t2 < p.Timesteps-1; t2++ {
		for _, s := range pr.row(t2) {
			require.True(t, s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s))
		}
	}

	terminal := hostTerminalPayoffs(p, samples)
	cash := pr.cashflows()
	for i, want := range terminal {
		require.Equal(t, want, cash[i], "terminal payoff path %d", i)
	}
}

func TestDeepOutOfTheMoneyPutPricesToZero(t *testing.T) {
	p := canonicalPut
	p.Strike = 0.01
	p.Paths = 2048
	p.Timesteps = 20

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	price, err := pr.Price(NormalMatrix(p.Timesteps, p.Paths, 11))
	require.NoError(t, err)
	require.InDelta(t, 0.0, price, 1e-12)
}

// With fewer paths than the in-the-money minimum, every timestep takes
// the carry-forward branch and the price collapses to the discounted
// average terminal payoff.
func TestFewPathsForceCarryForward(t *testing.T) {
	p := canonicalPut
	p.Paths = 2
	p.Timesteps = 8

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	samples := NormalMatrix(p.Timesteps, p.Paths, 5)
	price, err := pr.Price(samples)
	require.NoError(t, err)

	df := math.Exp(-p.Rate * p.Dt())
	cf := hostTerminalPayoffs(p, samples)
	for t2 := p.Timesteps - 2; t2 >= 0; t2-- {
		for i := range cf {
			cf[i] = df * cf[i]
		}
	}
	want := (cf[0] + cf[1]) / 2 * df
	require.InDelta(t, want, price, 1e-15)
}

// A single timestep skips backward induction entirely; the price is the
// discounted mean terminal payoff.
func TestSingleTimestep(t *testing.T) {
	p := canonicalPut
	p.Paths = 512
	p.Timesteps = 1

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	samples := NormalMatrix(p.Timesteps, p.Paths, 9)
	price, err := pr.Price(samples)
	require.NoError(t, err)

	var sum float64
	for _, v := range hostTerminalPayoffs(p, samples) {
		sum += v
	}
	want := sum / float64(p.Paths) * math.Exp(-p.Rate*p.Dt())
	require.InDelta(t, want, price, 1e-12)
}

func TestRepricingIsDeterministic(t *testing.T) {
	p := canonicalPut
	p.Paths = 4096
	p.Timesteps = 50

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	samples := NormalMatrix(p.Timesteps, p.Paths, 1)
	first, err := pr.Price(samples)
	require.NoError(t, err)
	second, err := pr.Price(samples)
	require.NoError(t, err)

	require.Equal(t, first, second, "identical inputs must reprice identically")
}

// Early exercise can only add value: the American LSM estimate must not
// fall materially below the closed-form European price.
func TestAmericanDominatesEuropean(t *testing.T) {
	p := canonicalPut
	p.Paths = 16384
	p.Timesteps = 50

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	price, err := pr.Price(NormalMatrix(p.Timesteps, p.Paths, 2))
	require.NoError(t, err)

	european := EuropeanPrice(p)
	require.Greater(t, price, european-0.02,
		"LSM %v must not fall below European bound %v", price, european)
}

// Longstaff-Schwartz canonical example: 1y put, K=4, S0=3.6, r=6%,
// sigma=20%. Cross-validated against the binomial tree, not exactly,
// since LSM is a Monte Carlo estimator.
func TestCanonicalPutAgainstBinomial(t *testing.T) {
	pr, err := NewPricer(canonicalPut)
	require.NoError(t, err)
	defer pr.Close()

	price, err := pr.Price(NormalMatrix(canonicalPut.Timesteps, canonicalPut.Paths, 1))
	require.NoError(t, err)

	binomial := BinomialPrice(canonicalPut, canonicalPut.Timesteps)
	relErr := math.Abs(price-binomial) / binomial
	require.Less(t, relErr, 0.02,
		"LSM %v vs binomial %v: relative error %v", price, binomial, relErr)
}

// An American call on a non-dividend asset is never exercised early, so
// the LSM estimate should track the European closed form within Monte
// Carlo error.
func TestCallMatchesEuropean(t *testing.T) {
	p := canonicalPut
	p.Kind = Call
	p.S0 = 4.0
	p.Paths = 16384
	p.Timesteps = 50

	pr, err := NewPricer(p)
	require.NoError(t, err)
	defer pr.Close()

	price, err := pr.Price(NormalMatrix(p.Timesteps, p.Paths, 4))
	require.NoError(t, err)

	european := EuropeanPrice(p)
	require.InDelta(t, european, price, 0.03*european+0.01,
		"LSM call %v vs European %v", price, european)
}

func TestCloseTwice(t *testing.T) {
	pr, err := NewPricer(PricingParams{
		Timesteps: 4, Paths: 64, Maturity: 1, S0: 1, Strike: 1, Sigma: 0.2,
	})
	require.NoError(t, err)
	require.NoError(t, pr.Close())
	require.NoError(t, pr.Close())
}
