package mozlog

import "time"

// Kind identifies the concrete type stored in a Field.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindInt64
	KindUint64
	KindFloat64
	KindFloat32
	KindBool
	KindNull
	KindChar
	KindFormat
	KindLazy
	KindError
	KindTime
	KindDuration
	KindBytes
	KindRaw
)

// Field is a compact, reflection-free union for structured fields.
//
// KindFormat and KindLazy defer rendering until the record is encoded; the
// drain evaluates them exactly once per log call, through a pooled scratch
// buffer. KindRaw splices pre-serialized JSON verbatim after validation.
type Field struct {
	K       string
	Kind    Kind
	Str     string
	Int64   int64
	Uint64  uint64
	Float64 float64
	Bool    bool
	Char    rune
	Fmt     string
	Args    []any
	Fn      func() string
	Err     error
	Time    time.Time
	Dur     time.Duration
	Bytes   []byte
	Raw     []byte
}

func Str(k, v string) Field             { return Field{K: k, Kind: KindString, Str: v} }
func Int(k string, v int) Field         { return Field{K: k, Kind: KindInt64, Int64: int64(v)} }
func Int8(k string, v int8) Field       { return Field{K: k, Kind: KindInt64, Int64: int64(v)} }
func Int16(k string, v int16) Field     { return Field{K: k, Kind: KindInt64, Int64: int64(v)} }
func Int32(k string, v int32) Field     { return Field{K: k, Kind: KindInt64, Int64: int64(v)} }
func Int64(k string, v int64) Field     { return Field{K: k, Kind: KindInt64, Int64: v} }
func Uint(k string, v uint) Field       { return Field{K: k, Kind: KindUint64, Uint64: uint64(v)} }
func Uint8(k string, v uint8) Field     { return Field{K: k, Kind: KindUint64, Uint64: uint64(v)} }
func Uint16(k string, v uint16) Field   { return Field{K: k, Kind: KindUint64, Uint64: uint64(v)} }
func Uint32(k string, v uint32) Field   { return Field{K: k, Kind: KindUint64, Uint64: uint64(v)} }
func Uint64(k string, v uint64) Field   { return Field{K: k, Kind: KindUint64, Uint64: v} }
func Float64(k string, v float64) Field { return Field{K: k, Kind: KindFloat64, Float64: v} }
func Float32(k string, v float32) Field {
	return Field{K: k, Kind: KindFloat32, Float64: float64(v)}
}
func Bool(k string, v bool) Field { return Field{K: k, Kind: KindBool, Bool: v} }
func Null(k string) Field         { return Field{K: k, Kind: KindNull} }
func Char(k string, v rune) Field { return Field{K: k, Kind: KindChar, Char: v} }

// Stringf defers fmt rendering to encode time: the format is applied once per
// log call, into a reusable scratch buffer, never at attachment time.
func Stringf(k, format string, args ...any) Field {
	return Field{K: k, Kind: KindFormat, Fmt: format, Args: args}
}

// LazyStr calls fn once per log call and writes the result as a string.
func LazyStr(k string, fn func() string) Field {
	return Field{K: k, Kind: KindLazy, Fn: fn}
}

func Err(k string, err error) Field         { return Field{K: k, Kind: KindError, Err: err} }
func Time(k string, v time.Time) Field      { return Field{K: k, Kind: KindTime, Time: v} }
func Dur(k string, v time.Duration) Field   { return Field{K: k, Kind: KindDuration, Dur: v} }
func Bytes(k string, v []byte) Field        { return Field{K: k, Kind: KindBytes, Bytes: v} }

// RawJSON splices v into the output without quoting or escaping. The content
// is validated at encode time; invalid JSON aborts the record.
func RawJSON(k string, v []byte) Field { return Field{K: k, Kind: KindRaw, Raw: v} }
