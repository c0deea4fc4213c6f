package stackstring

import (
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/stackstring/internal/common"
)

var ErrNotScalar = errors.New("stackstring: yaml node is not a scalar")

// Write implements io.Writer. Bytes that do not fit are dropped and the short
// count is reported with io.ErrShortWrite.
func (s *String[A]) Write(p []byte) (int, error) {
	before := s.n
	s.AppendBytes(p)
	if n := s.n - before; n < len(p) {
		return n, io.ErrShortWrite
	}
	return len(p), nil
}

// WriteString implements io.StringWriter with the same truncation as Write.
func (s *String[A]) WriteString(str string) (int, error) {
	before := s.n
	s.Append(str)
	if n := s.n - before; n < len(str) {
		return n, io.ErrShortWrite
	}
	return len(str), nil
}

// WriteByte implements io.ByteWriter.
func (s *String[A]) WriteByte(c byte) error {
	if s.Available() == 0 {
		return io.ErrShortWrite
	}
	s.AppendByte(c)
	return nil
}

// MarshalText has a value receiver so encoders find it on non-addressable
// fields.
func (s String[A]) MarshalText() ([]byte, error) {
	return append(make([]byte, 0, s.n), s.Bytes()...), nil
}

// UnmarshalText replaces the content with text, truncating like Set.
func (s *String[A]) UnmarshalText(text []byte) error {
	s.Set(common.UnsafeString(text))
	return nil
}

func (s String[A]) MarshalYAML() (any, error) {
	return s.String(), nil
}

// UnmarshalYAML accepts any scalar and truncates it like Set.
func (s *String[A]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return ErrNotScalar
	}
	s.Set(node.Value)
	return nil
}
