package pool

import "sync"

// slicePool pools reusable typed slices behind a sync.Pool, resizing the
// pooled slice to the requested length on Get and returning a cleanup
// closure that puts it back. This generalizes a per-type
// int64SlicePool/float64SlicePool/stringSlicePool pattern into one generic
// helper, since the executor's scratchpad needs a pool per types.Encoding
// variant rather than just a handful of fixed row-transform types.
type slicePool[T any] struct {
	pool sync.Pool
}

func newSlicePool[T any]() *slicePool[T] {
	return &slicePool[T]{
		pool: sync.Pool{New: func() any { s := make([]T, 0); return &s }},
	}
}

// get returns a slice of exactly length size and a cleanup func to return it.
func (p *slicePool[T]) get(size int) ([]T, func()) {
	ptr, _ := p.pool.Get().(*[]T)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]T, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { p.pool.Put(ptr) }
}

var (
	u8Pool  = newSlicePool[uint8]()
	u16Pool = newSlicePool[uint16]()
	u32Pool = newSlicePool[uint32]()
	u64Pool = newSlicePool[uint64]()
	i64Pool = newSlicePool[int64]()
	f64Pool = newSlicePool[float64]()
	strPool = newSlicePool[string]()
)

// GetInt64Slice retrieves an int64 slice of length size from the pool.
func GetInt64Slice(size int) ([]int64, func()) { return i64Pool.get(size) }

// GetFloat64Slice retrieves a float64 slice of length size from the pool.
func GetFloat64Slice(size int) ([]float64, func()) { return f64Pool.get(size) }

// GetStringSlice retrieves a string slice of length size from the pool.
func GetStringSlice(size int) ([]string, func()) { return strPool.get(size) }

// GetUint8Slice retrieves a uint8 slice of length size from the pool. Used
// for boolean masks and byte-vector scratch buffers.
func GetUint8Slice(size int) ([]uint8, func()) { return u8Pool.get(size) }

// GetUint16Slice retrieves a uint16 slice of length size from the pool.
func GetUint16Slice(size int) ([]uint16, func()) { return u16Pool.get(size) }

// GetUint32Slice retrieves a uint32 slice of length size from the pool. Used
// for group-id vectors produced by hash-map grouping.
func GetUint32Slice(size int) ([]uint32, func()) { return u32Pool.get(size) }

// GetUint64Slice retrieves a uint64 slice of length size from the pool. Used
// for bit-packed grouping keys and composite-row hashes.
func GetUint64Slice(size int) ([]uint64, func()) { return u64Pool.get(size) }
