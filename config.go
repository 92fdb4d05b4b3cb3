// Package lsmc configuration constants
package lsmc

// Thread and block dimensions
const (
	// Default block size for kernels
	DefaultBlockSize = 256

	// Maximum threads per block (CUDA compatibility)
	MaxThreadsPerBlock = 1024
)

// Memory pool parameters
const (
	// Memory alignment for allocations (cache line)
	MemoryAlignment = 64
)

// Regression policy
const (
	// MinInTheMoneyPaths is the minimum number of in-the-money paths a
	// timestep needs before a regression is attempted. Below this the
	// timestep is flagged and cashflows take the discounted carry-forward
	// branch with implicitly zero coefficients.
	MinInTheMoneyPaths = 4

	// RegressionStateSize is the per-timestep record width in float64s:
	// R[0:6] compact upper-triangular QR factor, W[6:15] pseudo-inverse
	// matrix, slot 15 the in-the-money count.
	RegressionStateSize = 16
)

// Numerical guards
const (
	// JacobiTolerance stops the eigensolve once the off-diagonal
	// Frobenius norm falls below it.
	JacobiTolerance = 1e-12

	// MaxJacobiSweeps caps the cyclic Jacobi iteration.
	MaxJacobiSweeps = 16

	// EigenvalueFloor: eigenvalues below this invert to zero instead of
	// blowing up the pseudo-inverse.
	EigenvalueFloor = 1e-12

	// PivotFloor: residual pivots below this zero the corresponding R
	// diagonal (and its reciprocal) instead of dividing by a vanishing
	// value.
	PivotFloor = 1e-12

	// ExerciseEpsilon is the minimum immediate payoff that can trigger
	// early exercise.
	ExerciseEpsilon = 1e-8
)
