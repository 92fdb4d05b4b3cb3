package lsmc

// Two-phase reduction support. A kernel phase accumulates into the cells
// owned by its block (threads within a block run sequentially, so no
// atomics are needed), then a designated leader kernel folds the block
// partials in block order. Fixed fold order makes every reduction
// deterministic, so identical inputs reprice bit-for-bit.

// PartialSumBuffer is scratch for per-block partial reductions. Its
// capacity depends only on the launch grid, and one buffer is reused
// across all reduction stages of a phase; contents are transient and
// have no identity beyond a single kernel phase.
type PartialSumBuffer struct {
	buf    DevicePtr
	blocks int
	width  int
}

// NewPartialSumBuffer allocates per-block scratch of the given width
// (cells per block) from the device pool.
func NewPartialSumBuffer(blocks, width int) (*PartialSumBuffer, error) {
	if blocks <= 0 || width <= 0 {
		return nil, NewInvalidArgError("NewPartialSumBuffer", "blocks and width must be positive")
	}
	buf, err := Malloc(blocks * width * 8)
	if err != nil {
		return nil, err
	}
	return &PartialSumBuffer{buf: buf, blocks: blocks, width: width}, nil
}

// Free returns the scratch memory to the pool.
func (p *PartialSumBuffer) Free() error {
	return Free(p.buf)
}

// Blocks returns the number of per-block cell groups.
func (p *PartialSumBuffer) Blocks() int {
	return p.blocks
}

// Zero clears every partial cell. The driver calls this before each
// kernel phase that accumulates into the buffer.
func (p *PartialSumBuffer) Zero() {
	s := p.buf.Float64()
	for i := range s {
		s[i] = 0
	}
}

// Cell returns the partial cells owned by one block. Only that block's
// threads may write to them during a kernel phase.
func (p *PartialSumBuffer) Cell(block int) []float64 {
	return p.buf.Float64()[block*p.width : (block+1)*p.width]
}

// Fold sums one component across all blocks in block order.
func (p *PartialSumBuffer) Fold(col int) float64 {
	s := p.buf.Float64()
	var sum float64
	for b := 0; b < p.blocks; b++ {
		sum += s[b*p.width+col]
	}
	return sum
}
