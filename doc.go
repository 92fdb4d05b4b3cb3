// Package lsmc prices American options with the Longstaff-Schwartz
// least-squares Monte Carlo algorithm on a CUDA-style CPU runtime.
//
// The engine is organized as a multi-kernel pipeline: a path generator
// expands Gaussian increments into geometric Brownian motion trajectories,
// then a backward induction driver walks the exercise dates from maturity
// to time zero. At every timestep the continuation value is estimated by
// a quadratic regression over the in-the-money paths, solved on-device
// through an incremental Householder QR reduction and a 3x3 Jacobi
// eigen-decomposition rather than a library solver.
//
// Kernels are launched over a grid/block geometry with ThreadID indexing,
// and phases are separated by device-wide Synchronize barriers. Threads
// within a block execute sequentially on a single goroutine; cross-block
// reductions are two-phase (per-block partial cells plus a designated
// leader kernel that folds them in block order), which keeps every pricing
// run bit-for-bit reproducible.
//
// Example usage:
//
//	params := lsmc.PricingParams{
//		Timesteps: 100,
//		Paths:     32 * 1024,
//		Maturity:  1.0,
//		S0:        3.6,
//		Strike:    4.0,
//		Rate:      0.06,
//		Sigma:     0.2,
//		Kind:      lsmc.Put,
//	}
//	pricer, _ := lsmc.NewPricer(params)
//	defer pricer.Close()
//
//	samples := lsmc.NormalMatrix(params.Timesteps, params.Paths, 1)
//	price, _ := pricer.Price(samples)
package lsmc
