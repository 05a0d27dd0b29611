package mozlog

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

var errInvalidUTF8 = errors.New("invalid UTF-8 sequence in string value")

// appendQuoted writes s as a JSON string. Invalid UTF-8 is an encode failure,
// not something to paper over with replacement runes: the whole record is
// abandoned by the caller.
func appendQuoted(buf *buffer, s string) error {
	buf.writeByte('"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				return errInvalidUTF8
			}
			i += size
			continue
		}
		if c >= 0x20 && c != '\\' && c != '"' {
			i++
			continue
		}
		if start < i {
			buf.writeString(s[start:i])
		}
		appendEscaped(buf, c)
		i++
		start = i
	}
	if start < len(s) {
		buf.writeString(s[start:])
	}
	buf.writeByte('"')
	return nil
}

// appendQuotedBytes is appendQuoted for scratch-rendered content, avoiding a
// string conversion per deferred value.
func appendQuotedBytes(buf *buffer, p []byte) error {
	buf.writeByte('"')
	start := 0
	for i := 0; i < len(p); {
		c := p[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRune(p[i:])
			if r == utf8.RuneError && size == 1 {
				return errInvalidUTF8
			}
			i += size
			continue
		}
		if c >= 0x20 && c != '\\' && c != '"' {
			i++
			continue
		}
		if start < i {
			buf.writeBytes(p[start:i])
		}
		appendEscaped(buf, c)
		i++
		start = i
	}
	if start < len(p) {
		buf.writeBytes(p[start:])
	}
	buf.writeByte('"')
	return nil
}

func appendEscaped(buf *buffer, c byte) {
	switch c {
	case '\\', '"':
		buf.writeByte('\\')
		buf.writeByte(c)
	case '\n':
		buf.writeString(`\n`)
	case '\r':
		buf.writeString(`\r`)
	case '\t':
		buf.writeString(`\t`)
	case '\b':
		buf.writeString(`\b`)
	case '\f':
		buf.writeString(`\f`)
	default:
		buf.writeString(`\u00`)
		buf.writeByte(digits[c>>4])
		buf.writeByte(digits[c&0xF])
	}
}
