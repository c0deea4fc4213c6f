// Package stackstring provides String, a fixed-capacity character string whose
// storage lives inside the value itself. Appending never allocates and never
// fails: input that does not fit is truncated, integers that do not fit are
// rejected whole.
package stackstring

import (
	"iter"
	"strings"
	"unsafe"

	"github.com/rawbytedev/stackstring/internal/common"
)

// Storage lists the inline arrays a String can be backed by. The last byte of
// the array is reserved for the terminator, so String[[32]byte] holds at most
// 31 characters.
//
// Go type parameters cannot range over integer constants, so only the sizes
// listed here are available. For an unlisted capacity, use the next larger
// array.
type Storage interface {
	~[8]byte | ~[16]byte | ~[24]byte | ~[32]byte | ~[48]byte | ~[64]byte |
		~[80]byte | ~[96]byte | ~[128]byte | ~[192]byte | ~[256]byte |
		~[384]byte | ~[512]byte | ~[1024]byte | ~[2048]byte | ~[4096]byte
}

// Common sizes.
type (
	String32  = String[[32]byte]
	String64  = String[[64]byte]
	String128 = String[[128]byte]
	String256 = String[[256]byte]
)

// Viewer is implemented by values that can expose their content as a string
// without copying. *String[A] implements it for every A.
type Viewer interface {
	View() string
}

// String is a fixed-capacity, zero-terminated byte string. The zero value is
// an empty string ready to use. Copying a String copies its storage.
type String[A Storage] struct {
	buf A
	n   int
}

// Capacity returns the number of characters a String[A] can hold.
func Capacity[A Storage]() int {
	var a A
	return len(a) - 1
}

// New returns a String holding as much of s as fits.
func New[A Storage](s string) String[A] {
	var out String[A]
	out.Append(s)
	return out
}

// FromBytes returns a String holding as much of b as fits.
func FromBytes[A Storage](b []byte) String[A] {
	var out String[A]
	out.AppendBytes(b)
	return out
}

// Of builds a String by passing every argument to Put, left to right.
// At least two arguments are required; use New for a single string.
func Of[A Storage](first, second any, rest ...any) String[A] {
	var out String[A]
	out.Put(first).Put(second)
	for _, v := range rest {
		out.Put(v)
	}
	return out
}

func (s *String[A]) raw() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&s.buf)), len(s.buf))
}

// terminate sets the length to n and writes the terminator after it.
func (s *String[A]) terminate(n int) {
	s.n = n
	s.raw()[n] = 0
}

func (s *String[A]) Len() int { return s.n }

// Cap returns the maximum number of characters, excluding the terminator.
func (s *String[A]) Cap() int { return len(s.buf) - 1 }

func (s *String[A]) Available() int { return len(s.buf) - 1 - s.n }

func (s *String[A]) Empty() bool { return s.n == 0 }

// View returns the content without copying. The result is only valid until
// the next mutation of s.
func (s *String[A]) View() string {
	return common.UnsafeString(s.raw()[:s.n])
}

// String returns a copy of the content. It has a pointer receiver, so fmt
// prints the content for a *String; pass &s to fmt.Print and friends, a String
// value is formatted as a plain struct.
func (s *String[A]) String() string {
	return string(s.raw()[:s.n])
}

// Bytes returns the content. Writes through the slice modify s; its capacity
// is clipped so appending to it never reaches s's spare storage.
func (s *String[A]) Bytes() []byte {
	return s.raw()[:s.n:s.n]
}

// CBytes returns the content followed by its zero terminator.
func (s *String[A]) CBytes() []byte {
	return s.raw()[: s.n+1 : s.n+1]
}

// At returns the byte at i. Only i < Len() is meaningful; indices up to Cap()
// read spare storage and anything beyond panics.
func (s *String[A]) At(i int) byte { return s.raw()[i] }

// SetAt overwrites the byte at i without changing the length. Writing at
// Len() or beyond pre-fills storage for a later Resize.
func (s *String[A]) SetAt(i int, c byte) { s.raw()[i] = c }

// Ptr returns a pointer to the byte at i, with the same rules as SetAt.
func (s *String[A]) Ptr(i int) *byte { return &s.raw()[i] }

// All iterates over the content in order.
func (s *String[A]) All() iter.Seq2[int, byte] {
	return func(yield func(int, byte) bool) {
		for i, c := range s.raw()[:s.n] {
			if !yield(i, c) {
				return
			}
		}
	}
}

func (s *String[A]) Clear() { s.terminate(0) }

// Resize sets the length to count, clamped to [0, Cap()]. Bytes exposed by
// growing are zeroed.
func (s *String[A]) Resize(count int) { s.ResizeFill(count, 0) }

// ResizeFill is Resize with bytes exposed by growing set to c.
func (s *String[A]) ResizeFill(count int, c byte) {
	count = max(0, min(count, s.Cap()))
	if count > s.n {
		b := s.raw()[s.n:count]
		for i := range b {
			b[i] = c
		}
	}
	s.terminate(count)
}

// Set replaces the content with as much of str as fits. str may alias s.
func (s *String[A]) Set(str string) *String[A] {
	b := s.raw()
	s.terminate(copy(b[:len(b)-1], str))
	return s
}

// MoveFrom copies o into s and leaves o empty.
func (s *String[A]) MoveFrom(o *String[A]) {
	if s == o {
		return
	}
	copy(s.raw(), o.raw()[:o.n+1])
	s.n = o.n
	o.Clear()
}

// Equal reports whether s and v hold the same bytes. Capacities may differ.
// A nil v equals an empty s.
func (s *String[A]) Equal(v Viewer) bool {
	if v == nil {
		return s.n == 0
	}
	return s.View() == v.View()
}

func (s *String[A]) EqualString(str string) bool { return s.View() == str }

func (s *String[A]) EqualBytes(b []byte) bool { return s.View() == string(b) }

// Compare returns an integer comparing s and str lexicographically.
func (s *String[A]) Compare(str string) int { return strings.Compare(s.View(), str) }
