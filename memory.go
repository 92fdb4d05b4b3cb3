package lsmc

import (
	"fmt"
	"sync"
	"unsafe"
)

// MemcpyKind specifies the direction of memory transfer.
// In the unified memory model these are provided for API compatibility
// and are treated identically since all memory is CPU-accessible.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
	MemcpyDefault                          // Default transfer (infer direction)
)

// MemoryPool manages device memory allocation with efficient reuse.
// It maintains a free list of previously allocated blocks to reduce
// allocation overhead and memory fragmentation. A pricing run allocates
// its PathMatrix, regression states and scratch buffers once up front,
// so the free list mostly serves repeated NewPricer/Close cycles.
type MemoryPool struct {
	mu         sync.Mutex
	allocated  map[uintptr]*allocation
	freeList   []*allocation
	totalAlloc int64
	peakAlloc  int64
}

type allocation struct {
	ptr  unsafe.Pointer
	size int
	used bool
}

// NewMemoryPool creates a new memory pool for efficient memory management.
// The pool tracks allocations and provides statistics on memory usage.
func NewMemoryPool() *MemoryPool {
	return &MemoryPool{
		allocated: make(map[uintptr]*allocation),
	}
}

// Malloc allocates device memory of the specified size in bytes.
// The memory is aligned for optimal SIMD performance.
func (ctx *Context) Malloc(size int) (DevicePtr, error) {
	return ctx.memory.Allocate(size)
}

// Free releases device memory allocated by Malloc.
// The memory may be retained in the pool for future allocations.
func (ctx *Context) Free(ptr DevicePtr) error {
	return ctx.memory.Free(ptr)
}

// Memcpy copies memory between host and device.
// Supports combinations of DevicePtr and Go slices.
//
// Example:
//
//	h_samples := lsmc.NormalMatrix(timesteps, paths, seed)
//	d_samples, _ := ctx.Malloc(len(h_samples) * 8)
//	ctx.Memcpy(d_samples, h_samples, len(h_samples)*8, lsmc.MemcpyHostToDevice)
func (ctx *Context) Memcpy(dst, src interface{}, size int, kind MemcpyKind) error {
	// On CPU, all memory transfers are just memcpy.
	// We keep the API for compatibility.

	var dstPtr, srcPtr unsafe.Pointer

	// Handle dst
	switch d := dst.(type) {
	case DevicePtr:
		dstPtr = d.ptr
	case unsafe.Pointer:
		dstPtr = d
	case []byte:
		if len(d) > 0 {
			dstPtr = unsafe.Pointer(&d[0])
		}
	case []float64:
		if len(d) > 0 {
			dstPtr = unsafe.Pointer(&d[0])
		}
	case []int32:
		if len(d) > 0 {
			dstPtr = unsafe.Pointer(&d[0])
		}
	default:
		return NewInvalidArgError("Memcpy", fmt.Sprintf("unsupported dst type: %T", dst))
	}

	// Handle src
	switch s := src.(type) {
	case DevicePtr:
		srcPtr = s.ptr
	case unsafe.Pointer:
		srcPtr = s
	case []byte:
		if len(s) > 0 {
			srcPtr = unsafe.Pointer(&s[0])
		}
	case []float64:
		if len(s) > 0 {
			srcPtr = unsafe.Pointer(&s[0])
		}
	case []int32:
		if len(s) > 0 {
			srcPtr = unsafe.Pointer(&s[0])
		}
	default:
		return NewInvalidArgError("Memcpy", fmt.Sprintf("unsupported src type: %T", src))
	}

	// Perform the copy
	if dstPtr != nil && srcPtr != nil && size > 0 {
		copy((*[1 << 30]byte)(dstPtr)[:size:size], (*[1 << 30]byte)(srcPtr)[:size:size])
	}

	return nil
}

// MemoryPool methods

// Allocate allocates memory from the pool
func (mp *MemoryPool) Allocate(size int) (DevicePtr, error) {
	if size <= 0 {
		return DevicePtr{}, ErrInvalidSize
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	// Round up to alignment
	alignedSize := (size + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	// Try to reuse from free list
	for i, alloc := range mp.freeList {
		if alloc.size >= alignedSize {
			// Remove from free list
			mp.freeList = append(mp.freeList[:i], mp.freeList[i+1:]...)
			alloc.used = true

			mp.totalAlloc += int64(alloc.size)
			if mp.totalAlloc > mp.peakAlloc {
				mp.peakAlloc = mp.totalAlloc
			}

			return DevicePtr{
				ptr:  alloc.ptr,
				size: size,
			}, nil
		}
	}

	// Allocate new memory
	buf := make([]byte, alignedSize)
	ptr := unsafe.Pointer(&buf[0])

	alloc := &allocation{
		ptr:  ptr,
		size: alignedSize,
		used: true,
	}

	// The allocation record holds the only live reference once buf goes
	// out of scope; the unsafe.Pointer keeps the backing array reachable.
	mp.allocated[uintptr(ptr)] = alloc

	mp.totalAlloc += int64(alignedSize)
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}

	return DevicePtr{
		ptr:  ptr,
		size: size,
	}, nil
}

// Free returns memory to the pool
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	if ptr.ptr == nil {
		return nil
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	allocPtr := uintptr(ptr.ptr)
	alloc, ok := mp.allocated[allocPtr]
	if !ok {
		return NewMemoryError("Free", "pointer not found in allocation pool", nil)
	}

	if !alloc.used {
		return ErrDoubleFree
	}

	// Mark as free and add to free list
	alloc.used = false
	mp.freeList = append(mp.freeList, alloc)
	mp.totalAlloc -= int64(alloc.size)

	return nil
}

// GetStats returns memory pool statistics
func (mp *MemoryPool) GetStats() (allocated, peak int64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// DevicePtr methods for convenience

// Float64 returns a float64 slice view of the device memory.
// The slice can be used directly for reading and writing data.
//
// Example:
//
//	d_paths, _ := lsmc.Malloc(1024 * 8) // Allocate for 1024 float64s
//	paths := d_paths.Float64()
//	paths[0] = 3.6 // Direct access
func (d DevicePtr) Float64() []float64 {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 27]float64)(d.ptr)[: d.size/8 : d.size/8]
}

// Int32 returns an int32 slice view of the device memory.
// Used for the per-block in-the-money counters and per-timestep flags.
func (d DevicePtr) Int32() []int32 {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 28]int32)(d.ptr)[: d.size/4 : d.size/4]
}

// Byte returns a byte slice view of the device memory.
// The slice covers the entire allocated memory region.
func (d DevicePtr) Byte() []byte {
	if d.ptr == nil {
		return nil
	}
	return (*[1 << 30]byte)(d.ptr)[:d.size:d.size]
}

// Offset returns a new DevicePtr offset by the given number of bytes.
// Useful for accessing sub-regions of allocated memory, e.g. one row of
// the PathMatrix. The returned DevicePtr shares the same underlying memory.
func (d DevicePtr) Offset(bytes int) DevicePtr {
	return DevicePtr{
		ptr:    unsafe.Pointer(uintptr(d.ptr) + uintptr(bytes)),
		size:   d.size - bytes,
		offset: d.offset + bytes,
	}
}

// Size returns the size in bytes of the memory region
func (d DevicePtr) Size() int {
	return d.size
}

// getSystemMemory returns total system memory in bytes
func getSystemMemory() uint64 {
	// Simplified: report a fixed size rather than querying the OS.
	return 16 * 1024 * 1024 * 1024
}
