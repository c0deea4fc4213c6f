package fixedbuf

import (
	"errors"
	"fmt"

	"github.com/rawbytedev/stackstring/internal/common"
)

// String is a growable byte string whose storage comes from an Allocator
// instead of the heap. When the allocator runs out, writes fail with an error
// wrapping ErrExhausted and the content is left as it was.
//
// Copying operations carry the allocator along: Assign adopts the source's
// allocator, MoveFrom takes it, Swap exchanges it.
type String struct {
	alloc Allocator
	buf   []byte
}

func NewString(al Allocator) *String {
	return &String{alloc: al}
}

func (s *String) Allocator() Allocator { return s.alloc }

func (s *String) Len() int { return len(s.buf) }

func (s *String) Cap() int { return cap(s.buf) }

// View returns the content without copying; it is valid until the next write.
func (s *String) View() string { return common.UnsafeString(s.buf) }

func (s *String) String() string { return string(s.buf) }

func (s *String) Bytes() []byte { return s.buf }

// Reset empties the string and keeps its current block.
func (s *String) Reset() { s.buf = s.buf[:0] }

// Grow makes room for n more bytes. It first asks the allocator for twice
// the current capacity and falls back to the exact amount needed.
func (s *String) Grow(n int) error {
	if n < 0 {
		return ErrInvalidSize
	}
	if cap(s.buf)-len(s.buf) >= n {
		return nil
	}
	need := len(s.buf) + n
	block, err := s.alloc.Allocate(max(need, 2*cap(s.buf)), 1)
	if errors.Is(err, ErrExhausted) && 2*cap(s.buf) > need {
		block, err = s.alloc.Allocate(need, 1)
	}
	if err != nil {
		return fmt.Errorf("fixedbuf: grow to %d bytes: %w", need, err)
	}
	block = block[:len(s.buf)]
	copy(block, s.buf)
	s.alloc.Deallocate(s.buf)
	s.buf = block
	return nil
}

func (s *String) Write(p []byte) (int, error) {
	if err := s.Grow(len(p)); err != nil {
		return 0, err
	}
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *String) WriteString(str string) (int, error) {
	if err := s.Grow(len(str)); err != nil {
		return 0, err
	}
	s.buf = append(s.buf, str...)
	return len(str), nil
}

func (s *String) WriteByte(c byte) error {
	if err := s.Grow(1); err != nil {
		return err
	}
	s.buf = append(s.buf, c)
	return nil
}

// Set replaces the content with str. str may alias s.
func (s *String) Set(str string) error {
	if len(str) > cap(s.buf) {
		if err := s.Grow(len(str) - len(s.buf)); err != nil {
			return err
		}
	}
	s.buf = append(s.buf[:0], str...)
	return nil
}

// Assign copies o into s. If the two use different buffers, s switches to
// o's allocator first. On failure s is unchanged.
func (s *String) Assign(o *String) error {
	if s == o {
		return nil
	}
	alloc, buf := s.alloc, s.buf
	if !alloc.Equal(o.alloc) {
		alloc, buf = o.alloc, nil
	}
	if cap(buf) < len(o.buf) {
		block, err := alloc.Allocate(len(o.buf), 1)
		if err != nil {
			return fmt.Errorf("fixedbuf: assign %d bytes: %w", len(o.buf), err)
		}
		buf = block[:0]
	}
	if cap(buf) != cap(s.buf) || !alloc.Equal(s.alloc) {
		s.alloc.Deallocate(s.buf)
	}
	s.alloc, s.buf = alloc, append(buf[:0], o.buf...)
	return nil
}

// Clone returns a copy of s drawing from the same allocator.
func (s *String) Clone() (*String, error) {
	c := NewString(s.alloc)
	if _, err := c.Write(s.buf); err != nil {
		return nil, err
	}
	return c, nil
}

// MoveFrom takes o's content and allocator without copying bytes. o is left
// empty.
func (s *String) MoveFrom(o *String) {
	if s == o {
		return
	}
	s.alloc.Deallocate(s.buf)
	s.alloc, s.buf = o.alloc, o.buf
	o.buf = nil
}

// Swap exchanges content and allocators.
func (s *String) Swap(o *String) {
	s.alloc, o.alloc = o.alloc, s.alloc
	s.buf, o.buf = o.buf, s.buf
}
