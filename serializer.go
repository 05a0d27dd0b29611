package mozlog

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// mapWriter adapts keyed scalar writes onto a byte buffer, producing one JSON
// object. The stream is forward-only: once an entry is written it cannot be
// revisited. Pretty mode mirrors a two-space-indent pretty printer at a single
// nesting depth, which is all the envelope protocol ever needs per buffer.
type mapWriter struct {
	buf    *buffer
	pretty bool
	n      int
}

func newMapWriter(buf *buffer, pretty bool) *mapWriter {
	buf.writeByte('{')
	return &mapWriter{buf: buf, pretty: pretty}
}

// key begins the next entry. Keys travel through the same quoting path as
// string values, so a key holding invalid UTF-8 fails the record too.
func (w *mapWriter) key(k string) error {
	if w.n > 0 {
		w.buf.writeByte(',')
	}
	if w.pretty {
		w.buf.writeString("\n  ")
	}
	w.n++
	if err := appendQuoted(w.buf, k); err != nil {
		return &EncodeError{Key: k, Err: err}
	}
	w.buf.writeByte(':')
	if w.pretty {
		w.buf.writeByte(' ')
	}
	return nil
}

func (w *mapWriter) str(k, v string) error {
	if err := w.key(k); err != nil {
		return err
	}
	if err := appendQuoted(w.buf, v); err != nil {
		return &EncodeError{Key: k, Err: err}
	}
	return nil
}

func (w *mapWriter) i64(k string, v int64) error {
	if err := w.key(k); err != nil {
		return err
	}
	appendInt64(w.buf, v)
	return nil
}

// end closes the object. Callers running the fields pass skip it on purpose:
// the splice supplies that object's closing brace.
func (w *mapWriter) end() {
	if w.pretty && w.n > 0 {
		w.buf.writeByte('\n')
	}
	w.buf.writeByte('}')
}

// writeField emits one field as a map entry, preserving source order.
// Deferred-format and lazy values render through a pooled scratch buffer that
// is reset before each use, so capacity may float between calls but content
// never leaks across them.
func (w *mapWriter) writeField(f *Field) error {
	if err := w.key(f.K); err != nil {
		return err
	}
	switch f.Kind {
	case KindString:
		if err := appendQuoted(w.buf, f.Str); err != nil {
			return &EncodeError{Key: f.K, Err: err}
		}
	case KindInt64:
		appendInt64(w.buf, f.Int64)
	case KindUint64:
		appendUint64(w.buf, f.Uint64)
	case KindFloat64:
		appendFloat(w.buf, f.Float64, 64)
	case KindFloat32:
		appendFloat(w.buf, f.Float64, 32)
	case KindBool:
		if f.Bool {
			w.buf.writeBytes(jsonTrue)
		} else {
			w.buf.writeBytes(jsonFalse)
		}
	case KindNull:
		w.buf.writeBytes(jsonNull)
	case KindChar:
		var tmp [utf8.UTFMax]byte
		n := utf8.EncodeRune(tmp[:], f.Char)
		if err := appendQuotedBytes(w.buf, tmp[:n]); err != nil {
			return &EncodeError{Key: f.K, Err: err}
		}
	case KindFormat:
		scratch := getScratch()
		scratch.b = fmt.Appendf(scratch.b, f.Fmt, f.Args...)
		err := appendQuotedBytes(w.buf, scratch.b)
		putScratch(scratch)
		if err != nil {
			return &EncodeError{Key: f.K, Err: err}
		}
	case KindLazy:
		scratch := getScratch()
		scratch.writeString(f.Fn())
		err := appendQuotedBytes(w.buf, scratch.b)
		putScratch(scratch)
		if err != nil {
			return &EncodeError{Key: f.K, Err: err}
		}
	case KindError:
		if f.Err != nil {
			if err := appendQuoted(w.buf, f.Err.Error()); err != nil {
				return &EncodeError{Key: f.K, Err: err}
			}
		} else {
			w.buf.writeBytes(jsonNull)
		}
	case KindTime:
		w.buf.writeByte('"')
		appendRFC3339Nano(w.buf, f.Time)
		w.buf.writeByte('"')
	case KindDuration:
		if err := appendQuoted(w.buf, f.Dur.String()); err != nil {
			return &EncodeError{Key: f.K, Err: err}
		}
	case KindBytes:
		appendBase64(w.buf, f.Bytes)
	case KindRaw:
		if err := fastjson.ValidateBytes(f.Raw); err != nil {
			return &EncodeError{Key: f.K, Err: errors.Wrap(err, "raw json value")}
		}
		w.buf.writeBytes(f.Raw)
	default:
		w.buf.writeBytes(jsonNull)
	}
	return nil
}
