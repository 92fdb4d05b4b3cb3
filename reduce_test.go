package lsmc

import (
	"testing"
)

func TestPartialSumBufferFoldMatchesSerialSum(t *testing.T) {
	const N = 1000
	const blockSize = 256
	blocks := (N + blockSize - 1) / blockSize

	buf, err := NewPartialSumBuffer(blocks, 2)
	if err != nil {
		t.Fatalf("NewPartialSumBuffer: %v", err)
	}
	defer buf.Free()
	buf.Zero()

	values := make([]float64, N)
	var wantSum, wantSq float64
	for i := range values {
		values[i] = 0.25 * float64(i%17)
		wantSum += values[i]
		wantSq += values[i] * values[i]
	}

	kernel := KernelFunc(func(tid ThreadID, _ ...interface{}) {
		p := tid.Global()
		if p >= N {
			return
		}
		cell := buf.Cell(tid.BlockIdx.X)
		cell[0] += values[p]
		cell[1] += values[p] * values[p]
	})

	if err := Launch(kernel, Dim3{X: blocks, Y: 1, Z: 1}, Dim3{X: blockSize, Y: 1, Z: 1}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if err := Synchronize(); err != nil {
		t.Fatalf("Synchronize: %v", err)
	}

	if got := buf.Fold(0); absDiff(got, wantSum) > 1e-9 {
		t.Errorf("Fold(0) = %v, want %v", got, wantSum)
	}
	if got := buf.Fold(1); absDiff(got, wantSq) > 1e-9 {
		t.Errorf("Fold(1) = %v, want %v", got, wantSq)
	}
	if buf.Blocks() != blocks {
		t.Errorf("Blocks() = %d, want %d", buf.Blocks(), blocks)
	}
}

func TestPartialSumBufferZero(t *testing.T) {
	buf, err := NewPartialSumBuffer(4, 3)
	if err != nil {
		t.Fatalf("NewPartialSumBuffer: %v", err)
	}
	defer buf.Free()

	for b := 0; b < 4; b++ {
		for i, cell := 0, buf.Cell(b); i < 3; i++ {
			cell[i] = float64(b + i)
		}
	}
	buf.Zero()
	for col := 0; col < 3; col++ {
		if got := buf.Fold(col); got != 0 {
			t.Errorf("Fold(%d) = %v after Zero, want 0", col, got)
		}
	}
}

func TestPartialSumBufferInvalidArgs(t *testing.T) {
	if _, err := NewPartialSumBuffer(0, 1); err == nil {
		t.Error("expected error for zero blocks")
	}
	if _, err := NewPartialSumBuffer(1, 0); err == nil {
		t.Error("expected error for zero width")
	}
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
