package stackstring

import (
	"unicode/utf8"

	"golang.org/x/exp/constraints"

	"github.com/rawbytedev/stackstring/internal/common"
)

// Append adds as much of str as fits and drops the rest.
func (s *String[A]) Append(str string) *String[A] {
	b := s.raw()
	s.terminate(s.n + copy(b[s.n:len(b)-1], str))
	return s
}

// AppendBytes adds as much of p as fits and drops the rest.
func (s *String[A]) AppendBytes(p []byte) *String[A] {
	b := s.raw()
	s.terminate(s.n + copy(b[s.n:len(b)-1], p))
	return s
}

// AppendByte adds c, or does nothing when s is full.
func (s *String[A]) AppendByte(c byte) *String[A] {
	if s.n >= s.Cap() {
		return s
	}
	s.raw()[s.n] = c
	s.terminate(s.n + 1)
	return s
}

// AppendRune adds the UTF-8 encoding of r. A rune that does not fit whole is
// not written at all; invalid runes are written as utf8.RuneError.
func (s *String[A]) AppendRune(r rune) *String[A] {
	w := utf8.RuneLen(r)
	if w < 0 {
		r, w = utf8.RuneError, utf8.RuneLen(utf8.RuneError)
	}
	if w > s.Available() {
		return s
	}
	utf8.EncodeRune(s.raw()[s.n:s.n+w], r)
	s.terminate(s.n + w)
	return s
}

// AppendUint adds the decimal form of u. If the digits do not all fit,
// nothing is written.
func (s *String[A]) AppendUint(u uint64) *String[A] {
	w := common.DecimalLen(u)
	if w > s.Available() {
		return s
	}
	common.PutDecimal(s.raw()[s.n:s.n+w], u)
	s.terminate(s.n + w)
	return s
}

// AppendInt adds the decimal form of v, with a leading '-' when negative.
// If the sign and digits do not all fit, nothing is written.
func (s *String[A]) AppendInt(v int64) *String[A] {
	if v >= 0 {
		return s.AppendUint(uint64(v))
	}
	u := -uint64(v)
	w := common.DecimalLen(u) + 1
	if w > s.Available() {
		return s
	}
	b := s.raw()[s.n : s.n+w]
	b[0] = '-'
	common.PutDecimal(b[1:], u)
	s.terminate(s.n + w)
	return s
}

// AppendBool adds "true" or "false", all or nothing.
func (s *String[A]) AppendBool(v bool) *String[A] {
	lit := "false"
	if v {
		lit = "true"
	}
	if len(lit) > s.Available() {
		return s
	}
	return s.Append(lit)
}

// AppendInteger adds the decimal form of any integer type to s, with the same
// all-or-nothing rule as AppendInt.
func AppendInteger[A Storage, T constraints.Integer](s *String[A], v T) *String[A] {
	if v < 0 {
		return s.AppendInt(int64(v))
	}
	return s.AppendUint(uint64(v))
}

// Put appends v according to its dynamic type and returns s, so calls chain
// like a stream:
//
//	s.Put("ID: ").Put(42)
//
// Strings, byte slices, Viewers and String values of any capacity are
// truncated like Append. A byte is a single character; every other integer
// type, rune included, is written in decimal. Values of any other type are
// ignored.
func (s *String[A]) Put(v any) *String[A] {
	switch x := v.(type) {
	case string:
		s.Append(x)
	case []byte:
		s.AppendBytes(x)
	case byte:
		s.AppendByte(x)
	case bool:
		s.AppendBool(x)
	case int:
		s.AppendInt(int64(x))
	case int8:
		s.AppendInt(int64(x))
	case int16:
		s.AppendInt(int64(x))
	case int32:
		s.AppendInt(int64(x))
	case int64:
		s.AppendInt(x)
	case uint:
		s.AppendUint(uint64(x))
	case uint16:
		s.AppendUint(uint64(x))
	case uint32:
		s.AppendUint(uint64(x))
	case uint64:
		s.AppendUint(x)
	case uintptr:
		s.AppendUint(uint64(x))
	case Viewer:
		s.Append(x.View())
	case contentCopier:
		b := s.raw()
		s.terminate(s.n + x.copyContent(b[s.n:len(b)-1]))
	}
	return s
}

// contentCopier is satisfied by String values of every capacity, which do not
// implement Viewer because View needs a pointer.
type contentCopier interface {
	copyContent(dst []byte) int
}

func (s String[A]) copyContent(dst []byte) int {
	return copy(dst, s.raw()[:s.n])
}
