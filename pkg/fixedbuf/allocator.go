// Package fixedbuf hands out memory from a caller-supplied buffer. Allocation
// is monotonic: space is never reclaimed until the buffer itself is dropped.
package fixedbuf

import (
	"errors"
	"math/bits"
	"unsafe"

	"github.com/rawbytedev/stackstring/internal/common"
)

var (
	ErrExhausted   = errors.New("fixedbuf: buffer exhausted")
	ErrInvalidSize = errors.New("fixedbuf: invalid allocation size")
)

// arena is the state shared by every copy of an Allocator.
type arena struct {
	buf  []byte
	used int
}

// Allocator is a handle on an external buffer. Copies of an Allocator share
// one buffer and one usage counter, so a copy continues where the original
// left off and the two never hand out overlapping ranges.
//
// The counter is not synchronized. One growing consumer per buffer is the
// supported use; the buffer must outlive every handle.
type Allocator struct {
	a *arena
}

// NewAllocator returns an Allocator over buf. buf is not modified or
// validated; a nil buf yields an Allocator on which every allocation fails.
func NewAllocator(buf []byte) Allocator {
	return Allocator{a: &arena{buf: buf}}
}

// Allocate returns the next count*elemSize bytes of the buffer. When they do
// not fit, it returns ErrExhausted and the usage counter is left unchanged.
func (al Allocator) Allocate(count, elemSize int) ([]byte, error) {
	if count < 0 || elemSize < 0 {
		return nil, ErrInvalidSize
	}
	hi, n := bits.Mul64(uint64(count), uint64(elemSize))
	if hi != 0 || n > uint64(maxInt) {
		return nil, ErrInvalidSize
	}
	return al.take(0, int(n))
}

// take reserves pad+n bytes and returns the last n of them.
func (al Allocator) take(pad, n int) ([]byte, error) {
	a := al.a
	if a == nil || a.buf == nil || n > len(a.buf)-a.used-pad {
		return nil, ErrExhausted
	}
	start := a.used + pad
	a.used = start + n
	return a.buf[start : start+n : start+n], nil
}

// Deallocate does nothing; space is only recovered by dropping the buffer.
func (al Allocator) Deallocate([]byte) {}

// Equal reports whether al and other allocate from the same buffer.
func (al Allocator) Equal(other Allocator) bool {
	return al.base() == other.base()
}

func (al Allocator) base() *byte {
	if al.a == nil {
		return nil
	}
	return unsafe.SliceData(al.a.buf)
}

// Used returns the number of bytes handed out so far, padding included.
func (al Allocator) Used() int {
	if al.a == nil {
		return 0
	}
	return al.a.used
}

func (al Allocator) Cap() int {
	if al.a == nil {
		return 0
	}
	return len(al.a.buf)
}

func (al Allocator) Available() int { return al.Cap() - al.Used() }

const maxInt = int(^uint(0) >> 1)

// Char lists the element types Make can allocate: byte, UTF-16 and UTF-32
// code units. None of them hold pointers, so backing them with a []byte is
// safe for the garbage collector.
type Char interface {
	~byte | ~uint16 | ~rune
}

// Make allocates n elements of T from al, aligned for T. Alignment padding is
// consumed from the buffer.
func Make[T Char](al Allocator, n int) ([]T, error) {
	if n < 0 {
		return nil, ErrInvalidSize
	}
	var zero T
	size, align := int(unsafe.Sizeof(zero)), unsafe.Alignof(zero)
	if n > maxInt/size {
		return nil, ErrInvalidSize
	}
	pad := 0
	if al.a != nil && al.a.buf != nil {
		at := uintptr(unsafe.Pointer(unsafe.SliceData(al.a.buf))) + uintptr(al.a.used)
		pad = int(common.AlignUp(at, align) - at)
	}
	b, err := al.take(pad, n*size)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []T{}, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}
