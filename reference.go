// Package lsmc reference pricers for verification
package lsmc

import (
	"math"

	gaussian "github.com/chobie/go-gaussian"
)

// Reference implementations used to sanity-check the LSM estimate: a
// Cox-Ross-Rubinstein binomial tree with early exercise, and the
// closed-form Black-Scholes European price. Neither touches the kernel
// pipeline; both are plain host-side code.

// BinomialPrice returns the American option price from a CRR binomial
// tree with the given number of steps.
func BinomialPrice(p PricingParams, steps int) float64 {
	dt := p.Maturity / float64(steps)
	u := math.Exp(p.Sigma * math.Sqrt(dt))
	d := 1 / u
	disc := math.Exp(-p.Rate * dt)
	q := (math.Exp(p.Rate*dt) - d) / (u - d)
	payoff := Payoff{Kind: p.Kind, Strike: p.Strike}

	// Terminal layer: j up-moves out of steps.
	values := make([]float64, steps+1)
	for j := 0; j <= steps; j++ {
		s := p.S0 * math.Pow(u, float64(j)) * math.Pow(d, float64(steps-j))
		values[j] = payoff.Value(s)
	}

	// Roll back, exercising whenever intrinsic beats continuation.
	for step := steps - 1; step >= 0; step-- {
		for j := 0; j <= step; j++ {
			continuation := disc * (q*values[j+1] + (1-q)*values[j])
			s := p.S0 * math.Pow(u, float64(j)) * math.Pow(d, float64(step-j))
			exercise := payoff.Value(s)
			if exercise > continuation {
				values[j] = exercise
			} else {
				values[j] = continuation
			}
		}
	}
	return values[0]
}

// EuropeanPrice returns the closed-form Black-Scholes price for the
// European option with the same parameters. The American LSM estimate
// must never fall materially below it.
func EuropeanPrice(p PricingParams) float64 {
	norm := gaussian.NewGaussian(0, 1)
	sqrtT := math.Sqrt(p.Maturity)
	d1 := (math.Log(p.S0/p.Strike) + (p.Rate+0.5*p.Sigma*p.Sigma)*p.Maturity) / (p.Sigma * sqrtT)
	d2 := d1 - p.Sigma*sqrtT
	df := math.Exp(-p.Rate * p.Maturity)

	if p.Kind == Call {
		return p.S0*norm.Cdf(d1) - p.Strike*df*norm.Cdf(d2)
	}
	return p.Strike*df*norm.Cdf(-d2) - p.S0*norm.Cdf(-d1)
}
