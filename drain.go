// Package mozlog encodes structured log records as MozLog JSON and writes
// them to a single sink, one object per record.
//
// Each record becomes a fixed envelope (Logger/Type/Hostname when configured,
// Timestamp, Pid, Severity) carrying a nested Fields object with the message
// and all attached key/value pairs. Setting the MOZLOG_GCP environment
// variable to "true" switches the severity field to the Google Cloud Logging
// scale and casing.
package mozlog

import (
	"io"
	"sync"

	"github.com/trickstertwo/xclock"
)

// fieldsPlaceholder stands in for the not-yet-computed Fields object during
// the envelope pass. It must never appear as real envelope content.
const fieldsPlaceholder = "00PLACEHOLDER00"

var newline = []byte("\n")

// Record is one log event handed to the drain by the logging framework.
// Fields carries the call-site pairs, in call order.
type Record struct {
	Level  Level
	Msg    string
	Fields []Field
}

// Drain encodes one MozLog JSON object per record and writes it to a single
// sink. It is immutable after construction and safe for concurrent use; the
// sink write is serialized so interleaved records cannot corrupt the stream.
type Drain struct {
	w        io.Writer
	mu       sync.Mutex
	newlines bool
	pretty   bool
	gcp      bool

	static []*KV   // custom sources, attachment order, emitted first
	head   []Field // Logger/Type/Hostname, precomputed at build time
	clock  xclock.Clock
	pid    int

	st stats
}

// Log encodes rec together with the logger-attached sources and writes the
// result to the sink. On *EncodeError or *IOError nothing is written; the
// record is lost and never retried.
//
// The backend writes forward-only streams, but Fields must appear last in an
// envelope whose other entries are already serialized before the call-site
// pairs are known. So the drain runs two passes: the envelope with a quoted
// placeholder token in the Fields slot, then the fields object on its own,
// spliced into the held position afterwards.
func (d *Drain) Log(rec Record, logger *KV) error {
	payload := getBuf()
	defer putBuf(payload)
	slot, err := d.encodeEnvelope(payload, rec.Level)
	if err != nil {
		d.st.encodeErrors.Add(1)
		return err
	}

	fields := getBuf()
	defer putBuf(fields)
	if err := d.encodeFields(fields, rec, logger); err != nil {
		d.st.encodeErrors.Add(1)
		return err
	}

	out := getBuf()
	defer putBuf(out)
	spliceFields(out, payload.b, fields.b, slot)

	d.mu.Lock()
	_, werr := d.w.Write(out.b)
	if werr == nil && d.newlines {
		_, werr = d.w.Write(newline)
	}
	d.mu.Unlock()
	if werr != nil {
		d.st.writeErrors.Add(1)
		return &IOError{Err: werr}
	}
	d.st.records.Add(1)
	return nil
}

// Stats returns a snapshot of internal counters.
func (d *Drain) Stats() StatsSnapshot { return d.st.snapshot() }

// ResetStats resets internal counters.
func (d *Drain) ResetStats() { d.st.reset() }

// envelopeSlot marks the quoted placeholder's byte range inside the envelope
// buffer.
type envelopeSlot struct{ start, end int }

// encodeEnvelope runs pass one: a complete, well-formed JSON object whose
// Fields entry holds the placeholder string.
func (d *Drain) encodeEnvelope(buf *buffer, level Level) (envelopeSlot, error) {
	w := newMapWriter(buf, d.pretty)
	for _, kv := range d.static {
		if err := kv.each(w.writeField); err != nil {
			return envelopeSlot{}, err
		}
	}
	for i := range d.head {
		if err := w.writeField(&d.head[i]); err != nil {
			return envelopeSlot{}, err
		}
	}
	if err := w.i64("Timestamp", d.clock.Now().UnixNano()); err != nil {
		return envelopeSlot{}, err
	}
	if err := w.i64("Pid", int64(d.pid)); err != nil {
		return envelopeSlot{}, err
	}
	if d.gcp {
		if err := w.i64("severity", int64(GCPSeverity(level))); err != nil {
			return envelopeSlot{}, err
		}
	} else {
		if err := w.i64("Severity", int64(Severity(level))); err != nil {
			return envelopeSlot{}, err
		}
	}
	if err := w.key("Fields"); err != nil {
		return envelopeSlot{}, err
	}
	start := len(buf.b)
	buf.writeByte('"')
	buf.writeString(fieldsPlaceholder)
	buf.writeByte('"')
	slot := envelopeSlot{start: start, end: len(buf.b)}
	w.end()
	return slot, nil
}

// encodeFields runs pass two: msg first, then the logger-context chain in
// attachment order, then the call-site pairs in call order. The object is
// deliberately left unterminated; the splice appends its closing brace, which
// keeps the output byte-identical to substituting the placeholder textually.
func (d *Drain) encodeFields(buf *buffer, rec Record, logger *KV) error {
	w := newMapWriter(buf, d.pretty)
	if err := w.str("msg", rec.Msg); err != nil {
		return err
	}
	if err := logger.each(w.writeField); err != nil {
		return err
	}
	for i := range rec.Fields {
		if err := w.writeField(&rec.Fields[i]); err != nil {
			return err
		}
	}
	return nil
}

// spliceFields assembles the final record: envelope bytes up to the held
// position, the unterminated fields object, the envelope remainder, and
// exactly one closing brace to restore balance.
func spliceFields(dst *buffer, payload, fields []byte, slot envelopeSlot) {
	dst.grow(len(payload) + len(fields))
	dst.writeBytes(payload[:slot.start])
	dst.writeBytes(fields)
	dst.writeBytes(payload[slot.end:])
	dst.writeByte('}')
}
