// Package slogadapter exposes a mozlog.Drain as a log/slog Handler, so any
// slog front-end can emit MozLog JSON without knowing about the drain.
package slogadapter

import (
	"context"
	"log/slog"

	"github.com/trickstertwo/mozlog"
)

// Handler bridges slog onto a MozLog drain. WithAttrs binds an immutable
// attribute source shared by every record logged through the derived logger;
// Handle forwards exactly one record per call.
type Handler struct {
	drain *mozlog.Drain
	min   slog.Level
	bound *mozlog.KV
	group string
}

// New wraps d in a Handler that drops records below min.
func New(d *mozlog.Drain, min slog.Level) *Handler {
	return &Handler{drain: d, min: min}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.min
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]mozlog.Field, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.group, a)
		return true
	})
	return h.drain.Log(mozlog.Record{
		Level:  toLevel(r.Level),
		Msg:    r.Message,
		Fields: fields,
	}, h.bound)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	fields := make([]mozlog.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = appendAttr(fields, h.group, a)
	}
	child := *h
	child.bound = h.bound.With(fields...)
	return &child
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	child := *h
	if child.group != "" {
		child.group += "." + name
	} else {
		child.group = name
	}
	return &child
}

// appendAttr flattens a resolved attr into fields, prefixing grouped keys
// with "group.".
func appendAttr(dst []mozlog.Field, prefix string, a slog.Attr) []mozlog.Field {
	v := a.Value.Resolve()
	k := a.Key
	if prefix != "" {
		k = prefix + "." + k
	}
	switch v.Kind() {
	case slog.KindGroup:
		for _, ga := range v.Group() {
			dst = appendAttr(dst, k, ga)
		}
		return dst
	case slog.KindString:
		return append(dst, mozlog.Str(k, v.String()))
	case slog.KindInt64:
		return append(dst, mozlog.Int64(k, v.Int64()))
	case slog.KindUint64:
		return append(dst, mozlog.Uint64(k, v.Uint64()))
	case slog.KindFloat64:
		return append(dst, mozlog.Float64(k, v.Float64()))
	case slog.KindBool:
		return append(dst, mozlog.Bool(k, v.Bool()))
	case slog.KindDuration:
		return append(dst, mozlog.Dur(k, v.Duration()))
	case slog.KindTime:
		return append(dst, mozlog.Time(k, v.Time()))
	default:
		switch x := v.Any().(type) {
		case nil:
			return append(dst, mozlog.Null(k))
		case error:
			return append(dst, mozlog.Err(k, x))
		case []byte:
			return append(dst, mozlog.Bytes(k, x))
		default:
			return append(dst, mozlog.Stringf(k, "%v", x))
		}
	}
}

func toLevel(l slog.Level) mozlog.Level {
	switch {
	case l >= slog.LevelError+4:
		return mozlog.LevelCritical
	case l >= slog.LevelError:
		return mozlog.LevelError
	case l >= slog.LevelWarn:
		return mozlog.LevelWarning
	case l >= slog.LevelInfo:
		return mozlog.LevelInfo
	case l >= slog.LevelDebug:
		return mozlog.LevelDebug
	default:
		return mozlog.LevelTrace
	}
}
