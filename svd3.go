package lsmc

import (
	"math"
)

// Closed-form linear algebra for the regression solve. Everything here is
// specialized to the 3-column quadratic basis {1, S, S^2}: the QR factor,
// the Gram matrix and the pseudo-inverse are all 3x3, small enough for a
// single designated leader thread to solve between kernel phases.
//
// Compact storage for the upper-triangular R, row-major:
//
//	R[0]=r11 R[1]=r12 R[2]=r13
//	         R[3]=r22 R[4]=r23
//	                  R[5]=r33

// qrSeed reduces the 3x3 design matrix of the seed paths,
//
//	| 1  x0  x0^2 |
//	| 1  x1  x1^2 |
//	| 1  x2  x2^2 |
//
// to upper-triangular form with Householder reflections. The reflector
// sign is chosen opposite to the pivot to avoid cancellation. Rows are
// flipped to a non-negative diagonal afterwards so the moment fold in
// buildR can continue the factorization as a Cholesky update.
func qrSeed(seed [3]float64) [6]float64 {
	var a [3][3]float64
	for i := 0; i < 3; i++ {
		a[i][0] = 1
		a[i][1] = seed[i]
		a[i][2] = seed[i] * seed[i]
	}

	for k := 0; k < 3; k++ {
		var norm float64
		for i := k; i < 3; i++ {
			norm += a[i][k] * a[i][k]
		}
		norm = math.Sqrt(norm)
		if norm < PivotFloor {
			// Degenerate column: zero the sub-diagonal instead of
			// forming a reflector from a vanishing vector.
			for i := k + 1; i < 3; i++ {
				a[i][k] = 0
			}
			continue
		}

		alpha := -norm
		if a[k][k] < 0 {
			alpha = norm
		}

		var v [3]float64
		for i := k; i < 3; i++ {
			v[i] = a[i][k]
		}
		v[k] -= alpha

		var vv float64
		for i := k; i < 3; i++ {
			vv += v[i] * v[i]
		}
		if vv < PivotFloor {
			continue
		}
		beta := 2.0 / vv

		for j := k; j < 3; j++ {
			var dot float64
			for i := k; i < 3; i++ {
				dot += v[i] * a[i][j]
			}
			dot *= beta
			for i := k; i < 3; i++ {
				a[i][j] -= dot * v[i]
			}
		}
		a[k][k] = alpha
		for i := k + 1; i < 3; i++ {
			a[i][k] = 0
		}
	}

	for i := 0; i < 3; i++ {
		if a[i][i] < 0 {
			for j := i; j < 3; j++ {
				a[i][j] = -a[i][j]
			}
		}
	}

	return [6]float64{a[0][0], a[0][1], a[0][2], a[1][1], a[1][2], a[2][2]}
}

// buildR folds the remaining in-the-money paths into the seed QR factor.
// Appending rows to a QR leaves R'^T R' = R^T R + M where M is the moment
// matrix of the appended rows; for the quadratic basis M is determined
// entirely by the in-the-money count and the power sums Sigma x..Sigma x^4
// (which include the seeds, so the seed contribution is subtracted first).
// The updated factor is rebuilt column by column with zero-guarded pivots:
// a vanishing residual pivot zeroes its diagonal and sub-diagonal rather
// than dividing by a near-zero value.
func buildR(seed [3]float64, sums [4]float64, count int) [6]float64 {
	r := qrSeed(seed)

	// Residual moments of the non-seed paths.
	m0 := float64(count - 3)
	var m [4]float64
	copy(m[:], sums[:])
	for _, x := range seed {
		xx := x
		m[0] -= xx
		xx *= x
		m[1] -= xx
		xx *= x
		m[2] -= xx
		xx *= x
		m[3] -= xx
	}

	a11 := r[0]*r[0] + m0
	a12 := r[0]*r[1] + m[0]
	a13 := r[0]*r[2] + m[1]
	a22 := r[1]*r[1] + r[3]*r[3] + m[1]
	a23 := r[1]*r[2] + r[3]*r[4] + m[2]
	a33 := r[2]*r[2] + r[4]*r[4] + r[5]*r[5] + m[3]

	var out [6]float64
	// a11 is the in-the-money count, >= MinInTheMoneyPaths here.
	out[0] = math.Sqrt(a11)
	out[1] = a12 / out[0]
	out[2] = a13 / out[0]

	d2 := a22 - out[1]*out[1]
	if d2 > PivotFloor {
		out[3] = math.Sqrt(d2)
		out[4] = (a23 - out[1]*out[2]) / out[3]
	}

	d3 := a33 - out[2]*out[2] - out[4]*out[4]
	if d3 > PivotFloor {
		out[5] = math.Sqrt(d3)
	}
	return out
}

// jacobiPairs is the cyclic sweep order over the off-diagonal entries.
var jacobiPairs = [3][2]int{{0, 1}, {0, 2}, {1, 2}}

// jacobiEigen3 diagonalizes a symmetric 3x3 matrix with cyclic Jacobi
// rotations, sweeping the pairs (0,1), (0,2), (1,2) until the
// off-diagonal Frobenius norm falls below JacobiTolerance or
// MaxJacobiSweeps elapse. Returns the eigenvalues on the diagonal and
// the accumulated rotation product V (eigenvectors in columns).
func jacobiEigen3(a [3][3]float64) (eig [3]float64, v [3][3]float64) {
	v = [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

	for sweep := 0; sweep < MaxJacobiSweeps; sweep++ {
		off := 2 * (a[0][1]*a[0][1] + a[0][2]*a[0][2] + a[1][2]*a[1][2])
		if math.Sqrt(off) < JacobiTolerance {
			break
		}

		for _, pq := range jacobiPairs {
			p, q := pq[0], pq[1]
			apq := a[p][q]
			if apq == 0 {
				continue
			}

			theta := (a[q][q] - a[p][p]) / (2 * apq)
			t := 1 / (math.Abs(theta) + math.Sqrt(theta*theta+1))
			if theta < 0 {
				t = -t
			}
			c := 1 / math.Sqrt(t*t+1)
			s := t * c

			a[p][p] -= t * apq
			a[q][q] += t * apq
			a[p][q] = 0
			a[q][p] = 0

			r := 3 - p - q // the index not being rotated
			arp, arq := a[r][p], a[r][q]
			a[r][p] = c*arp - s*arq
			a[p][r] = a[r][p]
			a[r][q] = s*arp + c*arq
			a[q][r] = a[r][q]

			for i := 0; i < 3; i++ {
				vip, viq := v[i][p], v[i][q]
				v[i][p] = c*vip - s*viq
				v[i][q] = s*vip + c*viq
			}
		}
	}

	eig[0], eig[1], eig[2] = a[0][0], a[1][1], a[2][2]
	return eig, v
}

// sortEigen3 orders the eigenpairs descending by eigenvalue with three
// pairwise conditional swaps, which is exact for three elements.
func sortEigen3(eig *[3]float64, v *[3][3]float64) {
	swap := func(i, j int) {
		if eig[i] < eig[j] {
			eig[i], eig[j] = eig[j], eig[i]
			for k := 0; k < 3; k++ {
				v[k][i], v[k][j] = v[k][j], v[k][i]
			}
		}
	}
	swap(0, 1)
	swap(0, 2)
	swap(1, 2)
}

// pseudoInverse builds W = V * Lambda^-1 * V^T * R^T from the compact R:
// the matrix the coefficient estimator multiplies each path's implicit
// Q row by to recover that path's row of the Moore-Penrose pseudo-inverse
// of the design matrix. Eigenvalues below EigenvalueFloor invert to zero,
// which drops rank-deficient directions instead of amplifying them.
func pseudoInverse(r [6]float64) [9]float64 {
	gram := [3][3]float64{
		{r[0] * r[0], r[0] * r[1], r[0] * r[2]},
		{r[0] * r[1], r[1]*r[1] + r[3]*r[3], r[1]*r[2] + r[3]*r[4]},
		{r[0] * r[2], r[1]*r[2] + r[3]*r[4], r[2]*r[2] + r[4]*r[4] + r[5]*r[5]},
	}

	eig, v := jacobiEigen3(gram)
	sortEigen3(&eig, &v)

	var inv [3]float64
	for i := 0; i < 3; i++ {
		if eig[i] > EigenvalueFloor {
			inv[i] = 1 / eig[i]
		}
	}

	// B = V * Lambda^-1 * V^T (symmetric)
	var b [3][3]float64
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += v[i][k] * inv[k] * v[j][k]
			}
			b[i][j] = sum
			b[j][i] = sum
		}
	}

	// Full R for the trailing transpose product.
	rf := [3][3]float64{
		{r[0], r[1], r[2]},
		{0, r[3], r[4]},
		{0, 0, r[5]},
	}

	var w [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += b[i][k] * rf[j][k]
			}
			w[i*3+j] = sum
		}
	}
	return w
}

// safeInv is the zero-guarded reciprocal used for the R diagonal when
// reconstructing Q rows. Degenerate pivots were zeroed during the
// factorization, so a floor test is all that is needed.
func safeInv(x float64) float64 {
	if x < PivotFloor {
		return 0
	}
	return 1 / x
}
