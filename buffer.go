package mozlog

import "sync"

// buffer is a simple growing byte buffer with manual capacity management.
type buffer struct{ b []byte }

func (buf *buffer) writeString(s string) { buf.b = append(buf.b, s...) }
func (buf *buffer) writeByte(c byte)     { buf.b = append(buf.b, c) }
func (buf *buffer) writeBytes(p []byte)  { buf.b = append(buf.b, p...) }

func (buf *buffer) grow(n int) {
	free := cap(buf.b) - len(buf.b)
	if n <= free {
		return
	}
	need := len(buf.b) + n
	newCap := cap(buf.b) * 2
	if newCap < need {
		newCap = need
	}
	nb := make([]byte, len(buf.b), newCap)
	copy(nb, buf.b)
	buf.b = nb
}

var bufPool = sync.Pool{New: func() any { return &buffer{b: make([]byte, 0, 2048)} }}

func getBuf() *buffer {
	buf := bufPool.Get().(*buffer)
	buf.b = buf.b[:0]
	return buf
}

func putBuf(buf *buffer) {
	if cap(buf.b) <= 64*1024 {
		bufPool.Put(buf)
	}
}

// scratchPool holds the small buffers used to render deferred-format and lazy
// values. Each in-flight render owns one buffer, so concurrent log calls never
// contend on it; capacity floats, content never survives a call.
var scratchPool = sync.Pool{New: func() any { return &buffer{b: make([]byte, 0, 128)} }}

func getScratch() *buffer {
	buf := scratchPool.Get().(*buffer)
	buf.b = buf.b[:0]
	return buf
}

func putScratch(buf *buffer) {
	if cap(buf.b) <= 4*1024 {
		scratchPool.Put(buf)
	}
}
