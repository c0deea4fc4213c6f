// Package logline is a slog handler that renders every record into a pooled
// fixed-capacity stackstring.String, so formatting a log line does not grow
// any buffer. Lines longer than the line capacity are truncated and still end
// in a newline.
package logline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
	"unicode"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/slog"

	"github.com/rawbytedev/stackstring"
)

// Line holds one rendered record.
type Line = stackstring.String[[1024]byte]

// attrs holds attributes preformatted by WithAttrs.
type attrs = stackstring.String[[512]byte]

const defaultTimeFormat = "2006-01-02 15:04:05.000"

var linePool = sync.Pool{
	New: func() any { return new(Line) },
}

func allocLine() *Line {
	line := linePool.Get().(*Line)
	line.Clear()
	return line
}

type Options struct {
	// Level reports the minimum record level that will be logged.
	// Default: slog.LevelInfo.
	Level slog.Leveler

	// Remove time part from message line
	DropTime bool

	// Default: "2006-01-02 15:04:05.000"
	TimeFormat string

	// ReplaceAttr is called to rewrite each non-group attribute before it is
	// logged. If it returns a zero Attr, the attribute is discarded.
	ReplaceAttr func(groups []string, a slog.Attr) slog.Attr

	// Compress writes a zstd stream instead of plain text. Call Close to
	// finish the stream.
	Compress bool
}

type Handler struct {
	opts Options

	preformatted attrs
	prefix       string
	groups       []string

	mu  *sync.Mutex
	out io.Writer
	zw  *zstd.Encoder
}

// NewHandler returns a Handler writing to w (os.Stderr when nil).
func NewHandler(w io.Writer, opts *Options) (*Handler, error) {
	if opts == nil {
		opts = &Options{}
	}
	h := &Handler{
		opts: *opts,
		mu:   new(sync.Mutex),
		out:  w,
	}
	if h.opts.Level == nil {
		h.opts.Level = new(slog.LevelVar)
	}
	if h.opts.TimeFormat == "" {
		h.opts.TimeFormat = defaultTimeFormat
	}
	if h.out == nil {
		h.out = os.Stderr
	}
	if h.opts.Compress {
		zw, err := zstd.NewWriter(h.out, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("logline: zstd writer: %w", err)
		}
		h.zw = zw
		h.out = zw
	}
	return h, nil
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	line := allocLine()
	defer linePool.Put(line)

	if !r.Time.IsZero() && !h.opts.DropTime {
		var ts [64]byte
		line.AppendBytes(r.Time.AppendFormat(ts[:0], h.opts.TimeFormat))
	}
	space(line)
	line.Append(r.Level.String())

	if r.Message != "" {
		space(line)
		line.Append(r.Message)
	}
	if !h.preformatted.Empty() {
		space(line)
		line.Append(h.preformatted.View())
	}
	r.Attrs(func(a slog.Attr) bool {
		appendAttr(line, a, h.prefix, h.groups, h.opts.ReplaceAttr)
		return true
	})
	terminate(line)

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(line.Bytes())
	return err
}

func (h *Handler) WithAttrs(as []slog.Attr) slog.Handler {
	if len(as) == 0 {
		return h
	}
	h2 := *h
	for _, a := range as {
		appendAttr(&h2.preformatted, a, h2.prefix, h2.groups, h2.opts.ReplaceAttr)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = mergePrefWithKey(h.prefix, name)
	h2.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &h2
}

// Flush pushes buffered compressed output to the writer. It is a no-op for
// plain output.
func (h *Handler) Flush() error {
	if h.zw == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.zw.Flush()
}

// Close finishes the compressed stream. The underlying writer is not closed.
func (h *Handler) Close() error {
	if h.zw == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.zw.Close()
}

func space[A stackstring.Storage](dst *stackstring.String[A]) {
	if !dst.Empty() {
		dst.AppendByte(' ')
	}
}

// terminate ends the line with '\n', overwriting the last byte of a full line.
func terminate(line *Line) {
	if line.Available() == 0 {
		line.Resize(line.Len() - 1)
	}
	line.AppendByte('\n')
}

func mergePrefWithKey(pref, key string) string {
	switch {
	case key == "":
		return pref
	case pref == "":
		return key
	}
	return pref + "." + key
}

// appendAttr renders a under prefix. groups is the open group path handed to
// replace.
func appendAttr[A stackstring.Storage](dst *stackstring.String[A], a slog.Attr, prefix string, groups []string, replace func([]string, slog.Attr) slog.Attr) {
	if replace != nil && a.Value.Kind() != slog.KindGroup {
		a = replace(groups, a)
	}
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := mergePrefWithKey(prefix, a.Key)
		inner := groups
		if a.Key != "" && replace != nil {
			inner = append(groups[:len(groups):len(groups)], a.Key)
		}
		for _, ga := range a.Value.Group() {
			appendAttr(dst, ga, group, inner, replace)
		}
		return
	}

	space(dst)
	if prefix != "" {
		dst.Append(prefix).AppendByte('.')
	}
	dst.Append(a.Key).AppendByte('=')
	appendValue(dst, a.Value)
}

func appendValue[A stackstring.Storage](dst *stackstring.String[A], v slog.Value) {
	var scratch [64]byte
	switch v.Kind() {
	case slog.KindString:
		appendString(dst, v.String())
	case slog.KindInt64:
		dst.AppendInt(v.Int64())
	case slog.KindUint64:
		dst.AppendUint(v.Uint64())
	case slog.KindBool:
		dst.AppendBool(v.Bool())
	case slog.KindFloat64:
		dst.AppendBytes(strconv.AppendFloat(scratch[:0], v.Float64(), 'g', -1, 64))
	case slog.KindDuration:
		dst.Append(v.Duration().String())
	case slog.KindTime:
		dst.AppendBytes(v.Time().AppendFormat(scratch[:0], time.RFC3339Nano))
	default:
		if err, ok := v.Any().(error); ok {
			appendString(dst, err.Error())
			return
		}
		// truncation is reported as io.ErrShortWrite, which is expected here
		_, _ = fmt.Fprint(dst, v.Any())
	}
}

func appendString[A stackstring.Storage](dst *stackstring.String[A], s string) {
	if !needsQuoting(s) {
		dst.Append(s)
		return
	}
	var scratch [128]byte
	dst.AppendBytes(strconv.AppendQuote(scratch[:0], s))
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == '=' || r == '"' || r == '\\' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}
